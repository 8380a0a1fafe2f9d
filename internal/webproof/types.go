package webproof

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kroma-network/zk-campaign-verifier/internal/extraction"
)

const (
	RegisterUserAgent = "zk-tiktok-campaign-verifier-register"
	SubmitUserAgent   = "zk-tiktok-campaign-verifier"

	RegisterPath    = "/api/register"
	VerifyVideoPath = "/api/verify-video"
)

var ErrIncompleteCompression = errors.New("compression response missing zkProof or journalDataAbi")

type (
	// ProveRequest describes the HTTP call the web prover performs and notarizes.
	ProveRequest struct {
		URL     string   `json:"url"`
		Method  string   `json:"method"`
		Headers []string `json:"headers"`
		Body    string   `json:"body"`
	}

	CompressRequest struct {
		Presentation json.RawMessage       `json:"presentation"`
		Extraction   extraction.Descriptor `json:"extraction"`
	}

	// CompressResult is the seal plus the ABI-encoded journal the contract verifies.
	CompressResult struct {
		ZKProof        string `json:"zkProof"`
		JournalDataAbi string `json:"journalDataAbi"`
	}

	compressEnvelope struct {
		Success bool            `json:"success"`
		Data    *CompressResult `json:"data"`
		CompressResult
	}
)

func RegistrationRequest(appURL, handle string) ProveRequest {
	body, _ := json.Marshal(struct {
		HandleTiktok string `json:"handle_tiktok"`
	}{handle})
	return newProveRequest(appURL+RegisterPath, RegisterUserAgent, body)
}

func SubmissionRequest(appURL, handle, urlVideo string) ProveRequest {
	body, _ := json.Marshal(struct {
		HandleTiktok string `json:"handle_tiktok"`
		URLVideo     string `json:"url_video"`
	}{handle, urlVideo})
	return newProveRequest(appURL+VerifyVideoPath, SubmitUserAgent, body)
}

func newProveRequest(target, userAgent string, body []byte) ProveRequest {
	return ProveRequest{
		URL:    target,
		Method: "POST",
		Headers: []string{
			"User-Agent: " + userAgent,
			"Accept: application/json",
			"Content-Type: application/json",
		},
		Body: string(body),
	}
}

// ParseCompressResult accepts both the wrapped {success, data} shape and the flat one.
func ParseCompressResult(raw json.RawMessage) (CompressResult, error) {
	var envelope compressEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return CompressResult{}, fmt.Errorf("decode compression response: %w", err)
	}
	result := envelope.CompressResult
	if envelope.Success && envelope.Data != nil {
		result = *envelope.Data
	}
	if strings.TrimSpace(result.ZKProof) == "" || strings.TrimSpace(result.JournalDataAbi) == "" {
		return CompressResult{}, ErrIncompleteCompression
	}
	return result, nil
}
