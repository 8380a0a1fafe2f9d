package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kroma-network/zk-campaign-verifier/internal/campaign"
	"github.com/kroma-network/zk-campaign-verifier/internal/extraction"
	"github.com/kroma-network/zk-campaign-verifier/internal/webproof"
)

const DefaultCampaignID = "cmp_001"

// Prover is the proof service behind the prove and compress routes.
type Prover interface {
	Prove(ctx context.Context, req webproof.ProveRequest) (json.RawMessage, error)
	Compress(ctx context.Context, kind extraction.Kind, presentation json.RawMessage) (json.RawMessage, error)
}

// Campaign runs the on-chain flows; nil when no contract is configured.
type Campaign interface {
	Register(ctx context.Context, handle string) (*campaign.Outcome, error)
	Submit(ctx context.Context, handle, urlVideo string) (*campaign.Outcome, error)
	Claim(ctx context.Context, handle string) (*campaign.Outcome, error)
	Advance(ctx context.Context) (*campaign.Outcome, error)
	Snapshot(ctx context.Context, handle string) campaign.Snapshot
}

type Options struct {
	Prover     Prover
	Campaign   Campaign
	Scorer     Scorer
	AppURL     string
	CampaignID string
	Logger     *zap.Logger
}

type Handler struct {
	prover     Prover
	campaign   Campaign
	scorer     Scorer
	appURL     string
	campaignID string
	logger     *zap.Logger
}

func NewHandler(opts Options) *Handler {
	h := &Handler{
		prover:     opts.Prover,
		campaign:   opts.Campaign,
		scorer:     opts.Scorer,
		appURL:     opts.AppURL,
		campaignID: opts.CampaignID,
		logger:     opts.Logger,
	}
	if h.scorer == nil {
		h.scorer = RandomScorer{}
	}
	if h.campaignID == "" {
		h.campaignID = DefaultCampaignID
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(h.recoverMiddleware)
	r.Use(h.loggingMiddleware)

	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/prove-register", h.proveRegister)
		r.Post("/prove", h.prove)
		r.Post("/compress-register", h.compressRegister)
		r.Post("/compress", h.compress)

		r.Post("/register", h.register)
		r.Post("/verify-video", h.verifyVideo)

		r.Route("/campaign", func(r chi.Router) {
			r.Use(h.requireCampaign)
			r.Get("/", h.campaignSnapshot)
			r.Post("/register", h.campaignRegister)
			r.Post("/submit", h.campaignSubmit)
			r.Post("/claim", h.campaignClaim)
			r.Post("/advance", h.campaignAdvance)
		})
	})
	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
