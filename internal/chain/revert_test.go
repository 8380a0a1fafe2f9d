package chain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRevertMessage(t *testing.T) {
	tests := []struct {
		op   Operation
		raw  string
		want string
	}{
		{OpRegister, "execution reverted: AlreadyRegistered", "This handle is already registered"},
		{OpRegister, "execution reverted: InvalidState", "Campaign is not in Registration state"},
		{OpRegister, "execution reverted: InvalidQueriesHash", "Invalid queries hash - proof may be from wrong API"},
		{OpSubmit, "execution reverted: NotRegistered", "Handle must be registered before submitting proof"},
		{OpSubmit, "execution reverted: InvalidState", "Campaign is not in WaitingForProofs state"},
		{OpSubmit, "execution reverted: InvalidUrl", "Invalid video URL"},
		{OpClaim, "execution reverted: AlreadyClaimed", "Reward already claimed for this handle"},
		{OpClaim, "execution reverted: NoRewardsAvailable", "No rewards available to claim"},
		{OpClaim, "execution reverted: NotRegistered", "Handle is not registered in this campaign"},
		{OpAdvance, "execution reverted: InvalidState", "Campaign is already in its final state"},
		{OpClaim, "insufficient funds for gas", "insufficient funds for gas"},
		{OpAdvance, "execution reverted: AlreadyClaimed", "execution reverted: AlreadyClaimed"},
	}
	for _, tt := range tests {
		if got := RevertMessage(tt.op, tt.raw); got != tt.want {
			t.Errorf("RevertMessage(%s, %q) = %q, want %q", tt.op, tt.raw, got, tt.want)
		}
	}
}

func TestRevertErrorWithoutData(t *testing.T) {
	cause := errors.New("nonce too low")
	err := newRevertError(OpRegister, cause)
	assert.Equal(t, "nonce too low", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, err.Name)
}

func TestErrorBySelector(t *testing.T) {
	for name, e := range VerifierABI.Errors {
		got, ok := errorBySelector(e.ID[:4])
		if assert.True(t, ok, name) {
			assert.Equal(t, name, got.Name)
		}
	}
	_, ok := errorBySelector([]byte{0xde, 0xad})
	assert.False(t, ok)
}

func TestVerifierABIMethods(t *testing.T) {
	for _, name := range []string{"register", "submitCampaign", "claimReward", "advanceState", "getCampaignStats", "getRewardAmount"} {
		_, ok := VerifierABI.Methods[name]
		assert.True(t, ok, name)
	}
	assert.Len(t, VerifierABI.Errors, 13)
}
