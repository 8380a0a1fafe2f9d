package campaign

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"github.com/kroma-network/zk-campaign-verifier/internal/chain"
	"github.com/kroma-network/zk-campaign-verifier/internal/extraction"
	"github.com/kroma-network/zk-campaign-verifier/internal/journal"
	"github.com/kroma-network/zk-campaign-verifier/internal/webproof"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrWrongPhase   = errors.New("campaign is not in the required phase")
)

// Prover produces and compresses web proofs; *proof.Service implements it.
type Prover interface {
	Prove(ctx context.Context, req webproof.ProveRequest) (json.RawMessage, error)
	Compress(ctx context.Context, kind extraction.Kind, presentation json.RawMessage) (json.RawMessage, error)
}

// Ledger is the verifier contract; *chain.Contract implements it.
type Ledger interface {
	CampaignStats(ctx context.Context) (chain.Stats, error)
	CurrentState(ctx context.Context) (uint8, error)
	CampaignID(ctx context.Context) (string, error)
	IsRegistered(ctx context.Context, handle string) (bool, error)
	HasClaimed(ctx context.Context, handle string) (bool, error)
	ScoreOf(ctx context.Context, handle string) (*big.Int, error)
	RewardAmount(ctx context.Context, handle string) (*big.Int, error)

	Register(ctx context.Context, journalData, seal []byte) (common.Hash, error)
	SubmitCampaign(ctx context.Context, journalData, seal []byte) (common.Hash, error)
	ClaimReward(ctx context.Context, handle string) (common.Hash, error)
	AdvanceState(ctx context.Context) (common.Hash, error)
}

type (
	Outcome struct {
		TxHash       common.Hash              `json:"txHash"`
		Registration *journal.RegistrationData `json:"registration,omitempty"`
		Submission   *journal.SubmissionData   `json:"submission,omitempty"`
		Snapshot     Snapshot                  `json:"snapshot"`
	}

	// Snapshot is a best-effort view of the campaign; fields whose read
	// failed keep their zero value.
	Snapshot struct {
		CampaignID string        `json:"campaignId,omitempty"`
		State      State         `json:"state"`
		StateName  string        `json:"stateName"`
		Registered *big.Int      `json:"totalRegistered,omitempty"`
		Submitted  *big.Int      `json:"totalSubmitted,omitempty"`
		TotalScore *big.Int      `json:"totalScore,omitempty"`
		Handle     *HandleStatus `json:"handle,omitempty"`
	}

	HandleStatus struct {
		Handle           string   `json:"handle"`
		Registered       bool     `json:"registered"`
		Score            *big.Int `json:"score,omitempty"`
		Claimed          bool     `json:"claimed"`
		Reward           *big.Int `json:"reward,omitempty"`
		RewardEther      string   `json:"rewardEther,omitempty"`
		RewardPercentage float64  `json:"rewardPercentage"`
	}
)

// Flow runs the prove, compress, decode, write and refresh sequence for each
// campaign action. The first failing step ends the sequence.
type Flow struct {
	prover Prover
	ledger Ledger
	appURL string
	logger *zap.Logger
}

func NewFlow(prover Prover, ledger Ledger, appURL string, logger *zap.Logger) *Flow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flow{
		prover: prover,
		ledger: ledger,
		appURL: strings.TrimRight(appURL, "/"),
		logger: logger,
	}
}

func (f *Flow) Register(ctx context.Context, handle string) (*Outcome, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, fmt.Errorf("%w: TikTok handle is required", ErrInvalidInput)
	}
	if err := f.requirePhase(ctx, CanRegister); err != nil {
		return nil, err
	}

	result, err := f.proveAndCompress(ctx, extraction.KindRegistration, webproof.RegistrationRequest(f.appURL, handle))
	if err != nil {
		return nil, err
	}
	journalData, seal, err := result.decode()
	if err != nil {
		return nil, err
	}
	decoded, err := journal.DecodeRegistration(journalData)
	if err != nil {
		return nil, err
	}
	if decoded.HandleTiktok != handle {
		f.logger.Warn("journal handle differs from request", zap.String("requested", handle), zap.String("journal", decoded.HandleTiktok))
	}

	hash, err := f.ledger.Register(ctx, journalData, seal)
	if err != nil {
		return nil, err
	}
	data := decoded.Data()
	return &Outcome{TxHash: hash, Registration: &data, Snapshot: f.Snapshot(ctx, handle)}, nil
}

func (f *Flow) Submit(ctx context.Context, handle, urlVideo string) (*Outcome, error) {
	handle = strings.TrimSpace(handle)
	urlVideo = strings.TrimSpace(urlVideo)
	if handle == "" {
		return nil, fmt.Errorf("%w: TikTok handle is required", ErrInvalidInput)
	}
	if urlVideo == "" {
		return nil, fmt.Errorf("%w: video URL is required", ErrInvalidInput)
	}
	if err := f.requirePhase(ctx, CanSubmitProof); err != nil {
		return nil, err
	}

	result, err := f.proveAndCompress(ctx, extraction.KindSubmission, webproof.SubmissionRequest(f.appURL, handle, urlVideo))
	if err != nil {
		return nil, err
	}
	journalData, seal, err := result.decode()
	if err != nil {
		return nil, err
	}
	decoded, err := journal.DecodeSubmission(journalData)
	if err != nil {
		return nil, err
	}
	f.logger.Info("submission journal decoded",
		zap.String("campaignId", decoded.CampaignID),
		zap.String("handle", decoded.HandleTiktok),
		zap.Uint64("score", decoded.ScoreCalidad))

	hash, err := f.ledger.SubmitCampaign(ctx, journalData, seal)
	if err != nil {
		return nil, err
	}
	data := decoded.Data()
	return &Outcome{TxHash: hash, Submission: &data, Snapshot: f.Snapshot(ctx, handle)}, nil
}

// Claim checks the handle has not claimed and has a positive reward before
// sending claimReward.
func (f *Flow) Claim(ctx context.Context, handle string) (*Outcome, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, fmt.Errorf("%w: TikTok handle is required", ErrInvalidInput)
	}
	if err := f.requirePhase(ctx, CanClaimReward); err != nil {
		return nil, err
	}

	claimed, err := f.ledger.HasClaimed(ctx, handle)
	if err != nil {
		f.logger.Warn("claim status read failed", zap.String("handle", handle), zap.Error(err))
	}
	if claimed {
		return nil, precheckFailure("AlreadyClaimed")
	}
	reward, err := f.ledger.RewardAmount(ctx, handle)
	if err != nil {
		f.logger.Warn("reward read failed", zap.String("handle", handle), zap.Error(err))
	}
	if reward == nil || reward.Sign() <= 0 {
		return nil, precheckFailure("NoRewardsAvailable")
	}

	hash, err := f.ledger.ClaimReward(ctx, handle)
	if err != nil {
		return nil, err
	}
	f.logger.Info("reward claimed", zap.String("handle", handle), zap.String("amount", FormatEther(reward)))
	return &Outcome{TxHash: hash, Snapshot: f.Snapshot(ctx, handle)}, nil
}

func (f *Flow) Advance(ctx context.Context) (*Outcome, error) {
	if err := f.requirePhase(ctx, CanAdvance); err != nil {
		return nil, err
	}
	hash, err := f.ledger.AdvanceState(ctx)
	if err != nil {
		return nil, err
	}
	return &Outcome{TxHash: hash, Snapshot: f.Snapshot(ctx, "")}, nil
}

// requirePhase refuses when the contract reports a phase allow rejects.
// An unreadable phase lets the contract decide.
func (f *Flow) requirePhase(ctx context.Context, allow func(State) bool) error {
	raw, err := f.ledger.CurrentState(ctx)
	if err != nil {
		f.logger.Warn("campaign state read failed", zap.Error(err))
		return nil
	}
	if state := StateFromContract(raw); state.Known() && !allow(state) {
		return fmt.Errorf("%w: campaign is in %s", ErrWrongPhase, StateName(state))
	}
	return nil
}

type compressed struct {
	webproof.CompressResult
}

func (f *Flow) proveAndCompress(ctx context.Context, kind extraction.Kind, req webproof.ProveRequest) (compressed, error) {
	presentation, err := f.prover.Prove(ctx, req)
	if err != nil {
		return compressed{}, fmt.Errorf("prove: %w", err)
	}
	raw, err := f.prover.Compress(ctx, kind, presentation)
	if err != nil {
		return compressed{}, fmt.Errorf("compress: %w", err)
	}
	result, err := webproof.ParseCompressResult(raw)
	if err != nil {
		return compressed{}, err
	}
	return compressed{result}, nil
}

func (c compressed) decode() (journalData, seal []byte, err error) {
	journalData, err = hexutil.Decode(c.JournalDataAbi)
	if err != nil {
		return nil, nil, fmt.Errorf("journalDataAbi: %w", err)
	}
	seal, err = hexutil.Decode(c.ZKProof)
	if err != nil {
		return nil, nil, fmt.Errorf("zkProof: %w", err)
	}
	return journalData, seal, nil
}

func precheckFailure(name string) *chain.RevertError {
	return &chain.RevertError{Op: chain.OpClaim, Name: name, Message: chain.RevertMessage(chain.OpClaim, name)}
}
