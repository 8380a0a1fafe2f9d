package proof

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kroma-network/zk-campaign-verifier/internal/extraction"
)

// StoredProof is an archived compression response, kept byte-for-byte as the
// zk prover returned it.
type StoredProof struct {
	Kind      extraction.Kind `json:"kind"`
	Response  json.RawMessage `json:"response"`
	CreatedAt time.Time       `json:"created_at"`
}

// Repository archives compression responses by id. Find returns (nil, nil) on a miss.
type Repository interface {
	Find(ctx context.Context, id string) (*StoredProof, error)
	Save(ctx context.Context, id string, proof *StoredProof) error
}

type noopRepository struct{}

func NewNoopRepository() Repository { return noopRepository{} }

func (noopRepository) Find(context.Context, string) (*StoredProof, error) { return nil, nil }

func (noopRepository) Save(context.Context, string, *StoredProof) error { return nil }
