package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/kroma-network/zk-campaign-verifier/internal/campaign"
	"github.com/kroma-network/zk-campaign-verifier/internal/chain"
	"github.com/kroma-network/zk-campaign-verifier/internal/webproof"
)

const (
	proveTimeoutMessage    = "Request timed out. Proof generation took too long to complete. Please try again."
	compressTimeoutMessage = "Request timed out. ZK proof generation took too long to complete. Please try again."
)

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeRaw passes an upstream JSON document through untouched.
func writeRaw(w http.ResponseWriter, statusCode int, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(raw)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, apiError{Error: message})
}

// writeMappedError picks the status for err. timeoutMessage replaces the
// text of upstream timeouts.
func writeMappedError(w http.ResponseWriter, err error, timeoutMessage string) {
	var revert *chain.RevertError
	switch {
	case errors.Is(err, webproof.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusRequestTimeout, timeoutMessage)
	case errors.Is(err, campaign.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, campaign.ErrWrongPhase), errors.As(err, &revert):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, chain.ErrNotConfigured), errors.Is(err, chain.ErrReadOnly):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}
