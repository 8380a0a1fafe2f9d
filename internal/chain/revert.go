package chain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

type Operation string

const (
	OpRegister Operation = "register"
	OpSubmit   Operation = "submit"
	OpClaim    Operation = "claim"
	OpAdvance  Operation = "advance"
)

type revertRule struct {
	pattern string
	message string
}

// Order matters: the first matching pattern wins.
var revertRules = map[Operation][]revertRule{
	OpRegister: {
		{"AlreadyRegistered", "This handle is already registered"},
		{"InvalidState", "Campaign is not in Registration state"},
		{"InvalidNotaryKeyFingerprint", "Invalid TLS notary key fingerprint"},
		{"InvalidQueriesHash", "Invalid queries hash - proof may be from wrong API"},
		{"ZKProofVerificationFailed", "ZK proof verification failed"},
		{"InvalidHandle", "Invalid TikTok handle"},
		{"InvalidCampaignId", "Invalid campaign ID"},
	},
	OpSubmit: {
		{"NotRegistered", "Handle must be registered before submitting proof"},
		{"AlreadySubmitted", "This handle has already submitted a proof"},
		{"InvalidState", "Campaign is not in WaitingForProofs state"},
		{"InvalidNotaryKeyFingerprint", "Invalid TLS notary key fingerprint"},
		{"InvalidQueriesHash", "Invalid queries hash - proof may be from wrong API"},
		{"ZKProofVerificationFailed", "ZK proof verification failed"},
		{"InvalidHandle", "Invalid TikTok handle"},
		{"InvalidCampaignId", "Invalid campaign ID"},
		{"InvalidScore", "Invalid score value"},
		{"InvalidUrl", "Invalid video URL"},
	},
	OpClaim: {
		{"AlreadyClaimed", "Reward already claimed for this handle"},
		{"NoRewardsAvailable", "No rewards available to claim"},
		{"InvalidState", "Campaign must be in Claimable state to claim rewards"},
		{"NotRegistered", "Handle is not registered in this campaign"},
	},
	OpAdvance: {
		{"InvalidState", "Campaign is already in its final state"},
	},
}

// RevertError is a failed contract write with its user-facing message.
type RevertError struct {
	Op      Operation
	Name    string
	Message string
	Err     error
}

func (e *RevertError) Error() string { return e.Message }

func (e *RevertError) Unwrap() error { return e.Err }

// RevertMessage maps a raw revert text to the curated message for op, or
// returns raw unchanged when no known contract error name appears in it.
func RevertMessage(op Operation, raw string) string {
	for _, rule := range revertRules[op] {
		if strings.Contains(raw, rule.pattern) {
			return rule.message
		}
	}
	return raw
}

func newRevertError(op Operation, err error) *RevertError {
	name, reason := decodeRevertData(err)
	raw := err.Error()
	switch {
	case name != "":
		raw = fmt.Sprintf("%s: %s", raw, name)
	case reason != "":
		raw = fmt.Sprintf("%s: %s", raw, reason)
	}
	return &RevertError{Op: op, Name: name, Message: RevertMessage(op, raw), Err: err}
}

// decodeRevertData extracts either a custom error name or an Error(string)
// reason from the data attached to a JSON-RPC error.
func decodeRevertData(err error) (name, reason string) {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return "", ""
	}
	hexData, ok := dataErr.ErrorData().(string)
	if !ok {
		return "", ""
	}
	data, decodeErr := hexutil.Decode(hexData)
	if decodeErr != nil {
		return "", ""
	}
	if e, ok := errorBySelector(data); ok {
		return e.Name, ""
	}
	if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
		return "", reason
	}
	return "", ""
}
