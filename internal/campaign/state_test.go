package campaign

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateName(t *testing.T) {
	tests := map[State]string{
		StateRegistration:     "Registration",
		StateWaitingForProofs: "Waiting for Proofs",
		StateClaimable:        "Claimable",
		StateUnknown:          "Unknown",
		State(3):              "Unknown",
		State(255):            "Unknown",
	}
	for state, want := range tests {
		if got := StateName(state); got != want {
			t.Errorf("StateName(%d) = %q, want %q", int(state), got, want)
		}
	}
}

func TestPhaseGates(t *testing.T) {
	assert.True(t, CanRegister(StateRegistration))
	assert.False(t, CanRegister(StateWaitingForProofs))
	assert.False(t, CanRegister(StateUnknown))

	assert.True(t, CanSubmitProof(StateWaitingForProofs))
	assert.False(t, CanSubmitProof(StateClaimable))

	assert.True(t, CanClaimReward(StateClaimable))
	assert.False(t, CanClaimReward(StateRegistration))

	assert.True(t, CanAdvance(StateWaitingForProofs))
	assert.False(t, CanAdvance(StateClaimable))
}

func TestRewardPercentage(t *testing.T) {
	assert.InDelta(t, 25.0, RewardPercentage(big.NewInt(50), big.NewInt(200)), 1e-9)
	assert.InDelta(t, 100.0, RewardPercentage(big.NewInt(73), big.NewInt(73)), 1e-9)
	assert.Zero(t, RewardPercentage(big.NewInt(5), big.NewInt(0)))
	assert.Zero(t, RewardPercentage(nil, big.NewInt(10)))
}

func TestFormatEther(t *testing.T) {
	tests := []struct {
		wei  string
		want string
	}{
		{"0", "0"},
		{"1000000000000000000", "1"},
		{"1500000000000000000", "1.5"},
		{"1", "0.000000000000000001"},
		{"123456789000000000000", "123.456789"},
		{"-250000000000000000", "-0.25"},
	}
	for _, tt := range tests {
		wei, _ := new(big.Int).SetString(tt.wei, 10)
		if got := FormatEther(wei); got != tt.want {
			t.Errorf("FormatEther(%s) = %q, want %q", tt.wei, got, tt.want)
		}
	}
	assert.Equal(t, "0", FormatEther(nil))
}
