package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kroma-network/zk-campaign-verifier/internal/extraction"
	"github.com/kroma-network/zk-campaign-verifier/internal/webproof"
)

type (
	handleRequest struct {
		HandleTiktok string `json:"handle_tiktok"`
	}

	videoRequest struct {
		HandleTiktok string `json:"handle_tiktok"`
		URLVideo     string `json:"url_video"`
	}

	compressRequest struct {
		Presentation json.RawMessage `json:"presentation"`
		HandleTiktok string          `json:"handleTiktok,omitempty"`
	}
)

func (h *Handler) proveRegister(w http.ResponseWriter, r *http.Request) {
	var req handleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.HandleTiktok) == "" {
		writeError(w, http.StatusBadRequest, "handle_tiktok is required")
		return
	}
	h.forwardProve(w, r, webproof.RegistrationRequest(h.appURL, req.HandleTiktok))
}

func (h *Handler) prove(w http.ResponseWriter, r *http.Request) {
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
	h.forwardProve(w, r, webproof.SubmissionRequest(h.appURL, req.HandleTiktok, req.URLVideo))
}

func (h *Handler) forwardProve(w http.ResponseWriter, r *http.Request, req webproof.ProveRequest) {
	h.logger.Debug("forwarding prove request", zap.String("target", req.URL), zap.Strings("headers", req.Headers))
	presentation, err := h.prover.Prove(r.Context(), req)
	if err != nil {
		writeMappedError(w, err, proveTimeoutMessage)
		return
	}
	writeRaw(w, http.StatusOK, presentation)
}

func (h *Handler) compressRegister(w http.ResponseWriter, r *http.Request) {
	h.forwardCompress(w, r, extraction.KindRegistration)
}

func (h *Handler) compress(w http.ResponseWriter, r *http.Request) {
	h.forwardCompress(w, r, extraction.KindSubmission)
}

func (h *Handler) forwardCompress(w http.ResponseWriter, r *http.Request, kind extraction.Kind) {
	var req compressRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if isEmptyJSON(req.Presentation) {
		writeError(w, http.StatusBadRequest, "Presentation data is required")
		return
	}
	result, err := h.prover.Compress(r.Context(), kind, req.Presentation)
	if err != nil {
		writeMappedError(w, err, compressTimeoutMessage)
		return
	}
	writeRaw(w, http.StatusOK, result)
}

// isEmptyJSON reports values a caller cannot mean as a presentation.
func isEmptyJSON(raw json.RawMessage) bool {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", `""`, "false", "0":
		return true
	}
	return false
}
