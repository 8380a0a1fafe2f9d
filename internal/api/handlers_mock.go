package api

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kroma-network/zk-campaign-verifier/internal/extraction"
)

const (
	minScore = 20
	maxScore = 100
)

// Scorer rates a video for a handle. The proved /api/verify-video endpoint
// reports whatever it returns.
type Scorer interface {
	Score(ctx context.Context, handle, urlVideo string) (uint64, error)
}

// RandomScorer is a stand-in returning a uniform score in [20, 100].
type RandomScorer struct{}

func (RandomScorer) Score(context.Context, string, string) (uint64, error) {
	return uint64(minScore + rand.Intn(maxScore-minScore+1)), nil
}

type (
	registrationResponse struct {
		CampaignID   string `json:"campaign_id"`
		HandleTiktok string `json:"handle_tiktok"`
		ProofSelf    bool   `json:"proof_self"`
	}

	verificationResponse struct {
		CampaignID   string `json:"campaign_id"`
		HandleTiktok string `json:"handle_tiktok"`
		ScoreCalidad uint64 `json:"score_calidad"`
		URLVideo     string `json:"url_video"`
	}
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req handleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.HandleTiktok) == "" {
		writeError(w, http.StatusBadRequest, "handle_tiktok is required")
		return
	}
	h.writeProvable(w, extraction.KindRegistration, registrationResponse{
		CampaignID:   h.campaignID,
		HandleTiktok: req.HandleTiktok,
		ProofSelf:    true,
	})
}

func (h *Handler) verifyVideo(w http.ResponseWriter, r *http.Request) {
	var req videoRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.HandleTiktok) == "" {
		writeError(w, http.StatusBadRequest, "handle_tiktok is required")
		return
	}
	if strings.TrimSpace(req.URLVideo) == "" {
		writeError(w, http.StatusBadRequest, "url_video is required")
		return
	}
	score, err := h.scorer.Score(r.Context(), req.HandleTiktok, req.URLVideo)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeProvable(w, extraction.KindSubmission, verificationResponse{
		CampaignID:   h.campaignID,
		HandleTiktok: req.HandleTiktok,
		ScoreCalidad: score,
		URLVideo:     req.URLVideo,
	})
}

// writeProvable answers with a body the compressor can extract kind's fields
// from, or fails before the web prover notarizes an unusable transcript.
func (h *Handler) writeProvable(w http.ResponseWriter, kind extraction.Kind, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	descriptor, err := extraction.For(kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if _, err := descriptor.Evaluate(body); err != nil {
		h.logger.Error("mock response is missing extracted fields", zap.String("kind", string(kind)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeRaw(w, http.StatusOK, body)
}
