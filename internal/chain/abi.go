package chain

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

//go:embed verifier_v2.abi.json
var verifierABIJSON []byte

// VerifierABI is the interface of the deployed TikTokCampaignVerifierV2 contract.
var VerifierABI = mustParseABI(verifierABIJSON)

func mustParseABI(raw []byte) abi.ABI {
	parsed, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		panic(fmt.Errorf("parse verifier abi: %w", err))
	}
	return parsed
}

// errorBySelector returns the custom error whose 4-byte selector prefixes data.
func errorBySelector(data []byte) (abi.Error, bool) {
	if len(data) < 4 {
		return abi.Error{}, false
	}
	for _, e := range VerifierABI.Errors {
		if bytes.Equal(e.ID[:4], data[:4]) {
			return e, true
		}
	}
	return abi.Error{}, false
}
