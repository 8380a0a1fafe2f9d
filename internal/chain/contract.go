package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// SubmitGasLimit is the fixed gas budget for submitCampaign.
const SubmitGasLimit = 500_000

var (
	ErrNotConfigured = errors.New("contract address not configured")
	ErrReadOnly      = errors.New("no signing key configured")
)

// Backend is the subset of ethclient.Client the contract wrapper needs.
type Backend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

type Stats struct {
	Registered *big.Int
	Submitted  *big.Int
	TotalScore *big.Int
	State      uint8
}

type Contract struct {
	address      common.Address
	chainID      *big.Int
	backend      Backend
	key          *ecdsa.PrivateKey
	from         common.Address
	pollInterval time.Duration
	logger       *zap.Logger
	txMu         sync.Mutex
}

// NewContract binds the verifier at address. key may be nil for a read-only wrapper.
func NewContract(address common.Address, chainID *big.Int, backend Backend, key *ecdsa.PrivateKey, logger *zap.Logger) (*Contract, error) {
	if address == (common.Address{}) {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Contract{
		address:      address,
		chainID:      chainID,
		backend:      backend,
		key:          key,
		pollInterval: time.Second,
		logger:       logger.With(zap.String("contract", address.Hex()), zap.String("chainId", chainID.String())),
	}
	if key != nil {
		c.from = crypto.PubkeyToAddress(key.PublicKey)
	}
	return c, nil
}

// ParsePrivateKey accepts a hex key with or without the 0x prefix.
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

func (c *Contract) Address() common.Address { return c.address }

func (c *Contract) ChainID() *big.Int { return new(big.Int).Set(c.chainID) }

func (c *Contract) From() common.Address { return c.from }

func (c *Contract) SetPollInterval(d time.Duration) { c.pollInterval = d }

func (c *Contract) call(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := VerifierABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{From: c.from, To: &c.address, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := VerifierABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func callOne[T any](ctx context.Context, c *Contract, method string, args ...any) (T, error) {
	var zero T
	values, err := c.call(ctx, method, args...)
	if err != nil {
		return zero, err
	}
	if len(values) != 1 {
		return zero, fmt.Errorf("%s returned %d values", method, len(values))
	}
	v, ok := values[0].(T)
	if !ok {
		return zero, fmt.Errorf("%s returned %T", method, values[0])
	}
	return v, nil
}

func (c *Contract) CampaignStats(ctx context.Context) (Stats, error) {
	values, err := c.call(ctx, "getCampaignStats")
	if err != nil {
		return Stats{}, err
	}
	if len(values) != 4 {
		return Stats{}, fmt.Errorf("getCampaignStats returned %d values", len(values))
	}
	registered, ok1 := values[0].(*big.Int)
	submitted, ok2 := values[1].(*big.Int)
	totalScore, ok3 := values[2].(*big.Int)
	state, ok4 := values[3].(uint8)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return Stats{}, errors.New("getCampaignStats returned unexpected types")
	}
	return Stats{Registered: registered, Submitted: submitted, TotalScore: totalScore, State: state}, nil
}

func (c *Contract) CurrentState(ctx context.Context) (uint8, error) {
	return callOne[uint8](ctx, c, "currentState")
}

func (c *Contract) CampaignID(ctx context.Context) (string, error) {
	return callOne[string](ctx, c, "CAMPAIGN_ID")
}

func (c *Contract) IsRegistered(ctx context.Context, handle string) (bool, error) {
	return callOne[bool](ctx, c, "isRegistered", handle)
}

func (c *Contract) HasClaimed(ctx context.Context, handle string) (bool, error) {
	return callOne[bool](ctx, c, "hasClaimed", handle)
}

func (c *Contract) ScoreOf(ctx context.Context, handle string) (*big.Int, error) {
	return callOne[*big.Int](ctx, c, "scoresByHandle", handle)
}

func (c *Contract) RewardAmount(ctx context.Context, handle string) (*big.Int, error) {
	return callOne[*big.Int](ctx, c, "getRewardAmount", handle)
}

func (c *Contract) TotalScore(ctx context.Context) (*big.Int, error) {
	return callOne[*big.Int](ctx, c, "totalScore")
}

func (c *Contract) TotalRegistered(ctx context.Context) (*big.Int, error) {
	return callOne[*big.Int](ctx, c, "totalRegistered")
}

func (c *Contract) TotalSubmitted(ctx context.Context) (*big.Int, error) {
	return callOne[*big.Int](ctx, c, "totalSubmitted")
}

func (c *Contract) RegisteredHandles(ctx context.Context) ([]string, error) {
	return callOne[[]string](ctx, c, "getRegisteredHandles")
}

func (c *Contract) Register(ctx context.Context, journalData, seal []byte) (common.Hash, error) {
	return c.transact(ctx, OpRegister, 0, "register", journalData, seal)
}

func (c *Contract) SubmitCampaign(ctx context.Context, journalData, seal []byte) (common.Hash, error) {
	return c.transact(ctx, OpSubmit, SubmitGasLimit, "submitCampaign", journalData, seal)
}

func (c *Contract) ClaimReward(ctx context.Context, handle string) (common.Hash, error) {
	return c.transact(ctx, OpClaim, 0, "claimReward", handle)
}

func (c *Contract) AdvanceState(ctx context.Context) (common.Hash, error) {
	return c.transact(ctx, OpAdvance, 0, "advanceState")
}

// transact signs and sends method, then blocks until the receipt is mined.
// A zero gasLimit means estimate; estimation is where most reverts surface.
func (c *Contract) transact(ctx context.Context, op Operation, gasLimit uint64, method string, args ...any) (common.Hash, error) {
	if c.key == nil {
		return common.Hash{}, ErrReadOnly
	}
	data, err := VerifierABI.Pack(method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{From: c.from, To: &c.address, Data: data}

	c.txMu.Lock()
	signed, err := c.signAndSend(ctx, op, msg, gasLimit)
	c.txMu.Unlock()
	if err != nil {
		return common.Hash{}, err
	}
	hash := signed.Hash()
	c.logger.Info("transaction submitted", zap.String("op", string(op)), zap.String("tx", hash.Hex()))

	receipt, err := c.waitMined(ctx, hash)
	if err != nil {
		return hash, err
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return hash, c.explainFailure(ctx, op, msg, receipt)
	}
	c.logger.Info("transaction confirmed", zap.String("op", string(op)), zap.String("tx", hash.Hex()), zap.Uint64("block", receipt.BlockNumber.Uint64()))
	return hash, nil
}

func (c *Contract) signAndSend(ctx context.Context, op Operation, msg ethereum.CallMsg, gasLimit uint64) (*types.Transaction, error) {
	if gasLimit == 0 {
		estimated, err := c.backend.EstimateGas(ctx, msg)
		if err != nil {
			return nil, newRevertError(op, err)
		}
		gasLimit = estimated
	}
	nonce, err := c.backend.PendingNonceAt(ctx, c.from)
	if err != nil {
		return nil, fmt.Errorf("pending nonce: %w", err)
	}
	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       msg.To,
		Value:    new(big.Int),
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     msg.Data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return nil, newRevertError(op, err)
	}
	return signed, nil
}

func (c *Contract) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		receipt, err := c.backend.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			c.logger.Debug("receipt lookup failed", zap.String("tx", hash.Hex()), zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// explainFailure replays a reverted transaction as a call at its block to
// recover the revert reason.
func (c *Contract) explainFailure(ctx context.Context, op Operation, msg ethereum.CallMsg, receipt *types.Receipt) error {
	_, err := c.backend.CallContract(ctx, msg, receipt.BlockNumber)
	if err == nil {
		return &RevertError{Op: op, Message: "Transaction reverted on-chain"}
	}
	return newRevertError(op, err)
}
