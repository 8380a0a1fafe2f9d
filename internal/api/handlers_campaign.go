package api

import (
	"net/http"

	"github.com/kroma-network/zk-campaign-verifier/internal/chain"
)

func (h *Handler) requireCampaign(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.campaign == nil {
			writeError(w, http.StatusServiceUnavailable, chain.ErrNotConfigured.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) campaignSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.campaign.Snapshot(r.Context(), r.URL.Query().Get("handle")))
}

func (h *Handler) campaignRegister(w http.ResponseWriter, r *http.Request) {
	var req handleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := h.campaign.Register(r.Context(), req.HandleTiktok)
	if err != nil {
		writeMappedError(w, err, compressTimeoutMessage)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) campaignSubmit(w http.ResponseWriter, r *http.Request) {
	var req videoRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := h.campaign.Submit(r.Context(), req.HandleTiktok, req.URLVideo)
	if err != nil {
		writeMappedError(w, err, compressTimeoutMessage)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) campaignClaim(w http.ResponseWriter, r *http.Request) {
	var req handleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := h.campaign.Claim(r.Context(), req.HandleTiktok)
	if err != nil {
		writeMappedError(w, err, compressTimeoutMessage)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) campaignAdvance(w http.ResponseWriter, r *http.Request) {
	out, err := h.campaign.Advance(r.Context())
	if err != nil {
		writeMappedError(w, err, compressTimeoutMessage)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
