package proof

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/kroma-network/zk-campaign-verifier/internal/extraction"
	"github.com/kroma-network/zk-campaign-verifier/internal/webproof"
)

type compression struct {
	done     chan struct{}
	response json.RawMessage
	err      error
}

// Service fronts the prover APIs. Identical compressions share one upstream
// call while in flight, and successful responses are archived in repo.
type Service struct {
	client          webproof.ProverClient
	repo            Repository
	logger          *zap.Logger
	mu              sync.Mutex
	inProgressProof map[string]*compression
}

func NewService(client webproof.ProverClient, repo Repository, logger *zap.Logger) *Service {
	if repo == nil {
		repo = NewNoopRepository()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client:          client,
		repo:            repo,
		logger:          logger,
		inProgressProof: make(map[string]*compression),
	}
}

func (s *Service) Prove(ctx context.Context, req webproof.ProveRequest) (json.RawMessage, error) {
	s.logger.Info("prove requested", zap.String("target", req.URL))
	return s.client.Prove(ctx, req)
}

// Compress attaches the extraction descriptor for kind and forwards the
// presentation to the zk prover.
func (s *Service) Compress(ctx context.Context, kind extraction.Kind, presentation json.RawMessage) (json.RawMessage, error) {
	descriptor, err := extraction.For(kind)
	if err != nil {
		return nil, err
	}
	if err := descriptor.Validate(); err != nil {
		return nil, err
	}
	id, err := computeId(kind, presentation)
	if err != nil {
		return nil, err
	}
	if stored, err := s.repo.Find(ctx, id); err != nil {
		s.logger.Warn("proof archive lookup failed", zap.String("id", id), zap.Error(err))
	} else if stored != nil {
		s.logger.Info("serving archived compression", zap.String("id", id), zap.String("kind", string(kind)))
		return stored.Response, nil
	}

	s.mu.Lock()
	c := s.inProgressProof[id]
	if c == nil {
		c = &compression{done: make(chan struct{})}
		s.inProgressProof[id] = c
		// The upstream call outlives any single waiter; the client's own
		// timeout still bounds it.
		go s.compress(context.WithoutCancel(ctx), id, kind, webproof.CompressRequest{
			Presentation: presentation,
			Extraction:   descriptor,
		}, c)
	}
	s.mu.Unlock()

	select {
	case <-c.done:
		return c.response, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) compress(ctx context.Context, id string, kind extraction.Kind, req webproof.CompressRequest, c *compression) {
	defer func() {
		s.mu.Lock()
		delete(s.inProgressProof, id)
		s.mu.Unlock()
		close(c.done)
	}()
	s.logger.Info("compress start", zap.String("id", id), zap.String("kind", string(kind)))
	c.response, c.err = s.client.Compress(ctx, req)
	if c.err != nil {
		s.logger.Warn("compress failed", zap.String("id", id), zap.Error(c.err))
		return
	}
	s.logger.Info("compress complete", zap.String("id", id))
	if _, err := webproof.ParseCompressResult(c.response); err != nil {
		return
	}
	if err := s.repo.Save(ctx, id, &StoredProof{Kind: kind, Response: c.response, CreatedAt: time.Now().UTC()}); err != nil {
		s.logger.Warn("failed to archive proof", zap.String("id", id), zap.Error(err))
	}
}

func (s *Service) InProgressCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inProgressProof)
}

func computeId(kind extraction.Kind, presentation json.RawMessage) (string, error) {
	var compact bytes.Buffer
	if err := json.Compact(&compact, presentation); err != nil {
		return "", fmt.Errorf("presentation is not valid json: %w", err)
	}
	return crypto.Keccak256Hash([]byte(kind), compact.Bytes()).Hex()[2:], nil
}
