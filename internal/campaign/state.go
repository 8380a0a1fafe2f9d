package campaign

import (
	"math/big"
	"strings"
)

// State is the contract's phase. StateUnknown stands for a failed read.
type State int

const (
	StateUnknown          State = -1
	StateRegistration     State = 0
	StateWaitingForProofs State = 1
	StateClaimable        State = 2
)

func StateFromContract(v uint8) State { return State(v) }

func (s State) Known() bool {
	return s == StateRegistration || s == StateWaitingForProofs || s == StateClaimable
}

func StateName(s State) string {
	switch s {
	case StateRegistration:
		return "Registration"
	case StateWaitingForProofs:
		return "Waiting for Proofs"
	case StateClaimable:
		return "Claimable"
	default:
		return "Unknown"
	}
}

func (s State) String() string { return StateName(s) }

func CanRegister(s State) bool { return s == StateRegistration }

func CanSubmitProof(s State) bool { return s == StateWaitingForProofs }

func CanClaimReward(s State) bool { return s == StateClaimable }

func CanAdvance(s State) bool { return s == StateRegistration || s == StateWaitingForProofs }

// RewardPercentage is score as a percentage of total, 0 when total is empty.
func RewardPercentage(score, total *big.Int) float64 {
	if score == nil || total == nil || total.Sign() <= 0 {
		return 0
	}
	ratio := new(big.Float).Quo(new(big.Float).SetInt(score), new(big.Float).SetInt(total))
	pct, _ := ratio.Mul(ratio, big.NewFloat(100)).Float64()
	return pct
}

var weiPerEther = big.NewInt(1_000_000_000_000_000_000)

// FormatEther renders wei as a decimal ether amount without trailing zeros.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	abs := new(big.Int).Abs(wei)
	whole, frac := new(big.Int).QuoRem(abs, weiPerEther, new(big.Int))

	out := whole.String()
	if frac.Sign() != 0 {
		digits := frac.String()
		digits = strings.Repeat("0", 18-len(digits)) + digits
		out += "." + strings.TrimRight(digits, "0")
	}
	if wei.Sign() < 0 {
		out = "-" + out
	}
	return out
}
