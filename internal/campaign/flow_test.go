package campaign

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/kroma-network/zk-campaign-verifier/internal/chain"
	"github.com/kroma-network/zk-campaign-verifier/internal/extraction"
	"github.com/kroma-network/zk-campaign-verifier/internal/journal"
	"github.com/kroma-network/zk-campaign-verifier/internal/webproof"
)

type fakeProver struct {
	journal   []byte
	proveErr  error
	proveReqs []webproof.ProveRequest
	kinds     []extraction.Kind
}

func (p *fakeProver) Prove(_ context.Context, req webproof.ProveRequest) (json.RawMessage, error) {
	p.proveReqs = append(p.proveReqs, req)
	if p.proveErr != nil {
		return nil, p.proveErr
	}
	return json.RawMessage(`{"presentation":"ok"}`), nil
}

func (p *fakeProver) Compress(_ context.Context, kind extraction.Kind, _ json.RawMessage) (json.RawMessage, error) {
	p.kinds = append(p.kinds, kind)
	return json.RawMessage(fmt.Sprintf(`{"success":true,"data":{"zkProof":"0xc0ffee","journalDataAbi":%q}}`, hexutil.Encode(p.journal))), nil
}

type fakeLedger struct {
	mu       sync.Mutex
	state    uint8
	stateErr error
	claimed  bool
	reward   *big.Int
	writeErr error
	writes   []string
	seals    [][]byte
	readErr  error
}

var txHash = common.HexToHash("0x01")

func (l *fakeLedger) CampaignStats(context.Context) (chain.Stats, error) {
	if l.readErr != nil {
		return chain.Stats{}, l.readErr
	}
	return chain.Stats{Registered: big.NewInt(2), Submitted: big.NewInt(1), TotalScore: big.NewInt(200), State: l.state}, nil
}

func (l *fakeLedger) CurrentState(context.Context) (uint8, error) { return l.state, l.stateErr }

func (l *fakeLedger) CampaignID(context.Context) (string, error) {
	if l.readErr != nil {
		return "", l.readErr
	}
	return "cmp_001", nil
}

func (l *fakeLedger) IsRegistered(context.Context, string) (bool, error) { return true, l.readErr }

func (l *fakeLedger) HasClaimed(context.Context, string) (bool, error) { return l.claimed, nil }

func (l *fakeLedger) ScoreOf(context.Context, string) (*big.Int, error) {
	if l.readErr != nil {
		return nil, l.readErr
	}
	return big.NewInt(50), nil
}

func (l *fakeLedger) RewardAmount(context.Context, string) (*big.Int, error) { return l.reward, nil }

func (l *fakeLedger) record(name string, seal []byte) (common.Hash, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writeErr != nil {
		return common.Hash{}, l.writeErr
	}
	l.writes = append(l.writes, name)
	l.seals = append(l.seals, seal)
	return txHash, nil
}

func (l *fakeLedger) Register(_ context.Context, _, seal []byte) (common.Hash, error) {
	return l.record("register", seal)
}

func (l *fakeLedger) SubmitCampaign(_ context.Context, _, seal []byte) (common.Hash, error) {
	return l.record("submitCampaign", seal)
}

func (l *fakeLedger) ClaimReward(context.Context, string) (common.Hash, error) {
	return l.record("claimReward", nil)
}

func (l *fakeLedger) AdvanceState(context.Context) (common.Hash, error) {
	return l.record("advanceState", nil)
}

func registrationJournal(t *testing.T, handle string) []byte {
	t.Helper()
	raw, err := journal.EncodeRegistration(journal.RegistrationJournal{
		Header:           journal.Header{Method: "POST", URL: "https://app.example/api/register", Timestamp: 1},
		RegistrationData: journal.RegistrationData{CampaignID: "cmp_001", HandleTiktok: handle},
	})
	require.NoError(t, err)
	return raw
}

func submissionJournal(t *testing.T, handle string, score uint64) []byte {
	t.Helper()
	raw, err := journal.EncodeSubmission(journal.SubmissionJournal{
		Header: journal.Header{Method: "POST", URL: "https://app.example/api/verify-video", Timestamp: 1},
		SubmissionData: journal.SubmissionData{
			CampaignID: "cmp_001", HandleTiktok: handle, ScoreCalidad: score, URLVideo: "https://tiktok.com/@x/video/1",
		},
	})
	require.NoError(t, err)
	return raw
}

func TestRegisterRunsFullSequence(t *testing.T) {
	defer goleak.VerifyNone(t)

	prover := &fakeProver{journal: registrationJournal(t, "alice")}
	ledger := &fakeLedger{state: 0}
	flow := NewFlow(prover, ledger, "https://app.example/", nil)

	out, err := flow.Register(context.Background(), "  alice ")
	require.NoError(t, err)

	require.Len(t, prover.proveReqs, 1)
	assert.Equal(t, "https://app.example/api/register", prover.proveReqs[0].URL)
	assert.Equal(t, []extraction.Kind{extraction.KindRegistration}, prover.kinds)
	assert.Equal(t, []string{"register"}, ledger.writes)
	assert.Equal(t, []byte{0xc0, 0xff, 0xee}, ledger.seals[0])

	assert.Equal(t, txHash, out.TxHash)
	require.NotNil(t, out.Registration)
	assert.Equal(t, "alice", out.Registration.HandleTiktok)
	assert.Equal(t, "cmp_001", out.Snapshot.CampaignID)
	assert.Equal(t, "Registration", out.Snapshot.StateName)
	require.NotNil(t, out.Snapshot.Handle)
	assert.True(t, out.Snapshot.Handle.Registered)
}

func TestRegisterRejectsEmptyHandle(t *testing.T) {
	flow := NewFlow(&fakeProver{}, &fakeLedger{}, "", nil)
	_, err := flow.Register(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestFlowRefusesWrongPhase(t *testing.T) {
	prover := &fakeProver{}
	flow := NewFlow(prover, &fakeLedger{state: 2}, "", nil)

	_, err := flow.Register(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrWrongPhase)
	_, err = flow.Submit(context.Background(), "alice", "https://tiktok.com/v/1")
	assert.ErrorIs(t, err, ErrWrongPhase)
	_, err = flow.Advance(context.Background())
	assert.ErrorIs(t, err, ErrWrongPhase)
	assert.Empty(t, prover.proveReqs)
}

func TestFlowProceedsWhenPhaseUnreadable(t *testing.T) {
	defer goleak.VerifyNone(t)

	prover := &fakeProver{journal: registrationJournal(t, "alice")}
	ledger := &fakeLedger{stateErr: errors.New("rpc down")}
	flow := NewFlow(prover, ledger, "", nil)

	_, err := flow.Register(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"register"}, ledger.writes)
}

func TestFirstErrorHaltsSequence(t *testing.T) {
	prover := &fakeProver{proveErr: &webproof.UpstreamError{StatusCode: 502, Body: "bad gateway"}}
	ledger := &fakeLedger{state: 0}
	flow := NewFlow(prover, ledger, "", nil)

	_, err := flow.Register(context.Background(), "alice")
	var upstream *webproof.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Empty(t, prover.kinds)
	assert.Empty(t, ledger.writes)
}

func TestSubmitDecodesScore(t *testing.T) {
	defer goleak.VerifyNone(t)

	prover := &fakeProver{journal: submissionJournal(t, "alice", 73)}
	ledger := &fakeLedger{state: 1}
	flow := NewFlow(prover, ledger, "https://app.example", nil)

	out, err := flow.Submit(context.Background(), "alice", "https://tiktok.com/@x/video/1")
	require.NoError(t, err)
	assert.Equal(t, "https://app.example/api/verify-video", prover.proveReqs[0].URL)
	assert.Equal(t, []string{"submitCampaign"}, ledger.writes)
	require.NotNil(t, out.Submission)
	assert.Equal(t, uint64(73), out.Submission.ScoreCalidad)
	assert.InDelta(t, 25.0, out.Snapshot.Handle.RewardPercentage, 1e-9)
}

func TestSubmitRejectsWrongJournalLayout(t *testing.T) {
	prover := &fakeProver{journal: registrationJournal(t, "alice")}
	ledger := &fakeLedger{state: 1}
	flow := NewFlow(prover, ledger, "", nil)

	_, err := flow.Submit(context.Background(), "alice", "https://tiktok.com/v/1")
	assert.ErrorIs(t, err, journal.ErrInvalidSubmission)
	assert.Empty(t, ledger.writes)
}

func TestSubmitRequiresURL(t *testing.T) {
	flow := NewFlow(&fakeProver{}, &fakeLedger{state: 1}, "", nil)
	_, err := flow.Submit(context.Background(), "alice", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestClaimPrechecks(t *testing.T) {
	tests := []struct {
		name   string
		ledger *fakeLedger
		want   string
	}{
		{"already claimed", &fakeLedger{state: 2, claimed: true, reward: big.NewInt(1)}, "Reward already claimed for this handle"},
		{"no reward", &fakeLedger{state: 2, reward: big.NewInt(0)}, "No rewards available to claim"},
		{"unknown reward", &fakeLedger{state: 2}, "No rewards available to claim"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow := NewFlow(&fakeProver{}, tt.ledger, "", nil)
			_, err := flow.Claim(context.Background(), "alice")
			var revert *chain.RevertError
			require.ErrorAs(t, err, &revert)
			assert.Equal(t, tt.want, err.Error())
			assert.Empty(t, tt.ledger.writes)
		})
	}
}

func TestClaimSendsTransaction(t *testing.T) {
	defer goleak.VerifyNone(t)

	ledger := &fakeLedger{state: 2, reward: big.NewInt(1_500_000_000_000_000_000)}
	flow := NewFlow(&fakeProver{}, ledger, "", nil)

	out, err := flow.Claim(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"claimReward"}, ledger.writes)
	assert.Equal(t, "1.5", out.Snapshot.Handle.RewardEther)
}

func TestWriteErrorIsReturned(t *testing.T) {
	ledger := &fakeLedger{state: 0, writeErr: &chain.RevertError{Op: chain.OpAdvance, Message: "Campaign is already in its final state"}}
	flow := NewFlow(&fakeProver{}, ledger, "", nil)

	_, err := flow.Advance(context.Background())
	assert.EqualError(t, err, "Campaign is already in its final state")
}

func TestSnapshotFailsSoft(t *testing.T) {
	defer goleak.VerifyNone(t)

	flow := NewFlow(&fakeProver{}, &fakeLedger{readErr: errors.New("rpc down"), reward: big.NewInt(3)}, "", nil)
	snap := flow.Snapshot(context.Background(), "alice")

	assert.Equal(t, StateUnknown, snap.State)
	assert.Equal(t, "Unknown", snap.StateName)
	assert.Empty(t, snap.CampaignID)
	assert.Nil(t, snap.TotalScore)
	require.NotNil(t, snap.Handle)
	assert.False(t, snap.Handle.Registered)
	assert.Nil(t, snap.Handle.Score)
	assert.Equal(t, "0.000000000000000003", snap.Handle.RewardEther)
	assert.Zero(t, snap.Handle.RewardPercentage)
}

func TestSnapshotWithoutHandle(t *testing.T) {
	flow := NewFlow(&fakeProver{}, &fakeLedger{state: 1}, "", nil)
	snap := flow.Snapshot(context.Background(), "")
	assert.Nil(t, snap.Handle)
	assert.Equal(t, "Waiting for Proofs", snap.StateName)
	assert.Equal(t, int64(2), snap.Registered.Int64())
}
