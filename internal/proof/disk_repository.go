package proof

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

type DiskRepository struct {
	baseDir      string
	deleteBefore time.Duration
	logger       *zap.Logger
	closeContext context.Context
	Close        context.CancelFunc
}

func NewDiskRepository(baseDir string, logger *zap.Logger) (*DiskRepository, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("os.MkdirAll failed: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancelFunc := context.WithCancel(context.Background())
	disk := &DiskRepository{
		baseDir:      baseDir,
		deleteBefore: 7 * 24 * time.Hour,
		logger:       logger,
		closeContext: ctx,
		Close:        cancelFunc,
	}
	go disk.scheduleDeleteOldProof(10 * time.Minute)
	return disk, nil
}

func (r *DiskRepository) Find(_ context.Context, id string) (*StoredProof, error) {
	file, err := os.ReadFile(r.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var proof StoredProof
	if err := json.Unmarshal(file, &proof); err != nil {
		return nil, fmt.Errorf("json.Unmarshal %s: %w", id, err)
	}
	return &proof, nil
}

func (r *DiskRepository) Save(_ context.Context, id string, proof *StoredProof) error {
	jsonResult, err := json.Marshal(proof)
	if err != nil {
		return err
	}
	// Write then rename so a concurrent Find never sees a torn file.
	tmp := r.path(id) + ".tmp"
	if err := os.WriteFile(tmp, jsonResult, 0o644); err != nil {
		return fmt.Errorf("os.WriteFile failed: %w", err)
	}
	return os.Rename(tmp, r.path(id))
}

func (r *DiskRepository) path(id string) string { return filepath.Join(r.baseDir, id) }

func (r *DiskRepository) scheduleDeleteOldProof(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			deletedCount := r.deleteOldProof(time.Now().Add(-r.deleteBefore))
			r.logger.Info("deleted old proofs", zap.Int("count", deletedCount))
		case <-r.closeContext.Done():
			return
		}
	}
}

// deleteOldProof deletes proofs stored at a time earlier than before, along
// with entries that no longer decode.
func (r *DiskRepository) deleteOldProof(before time.Time) (deletedCount int) {
	files, _ := os.ReadDir(r.baseDir)
	for _, file := range files {
		info, err := file.Info()
		if err != nil {
			continue
		}
		unreadable := func() bool {
			_, err := r.Find(context.Background(), file.Name())
			return err != nil
		}
		if info.ModTime().Before(before) || unreadable() {
			if err := os.Remove(r.path(file.Name())); err != nil {
				r.logger.Warn("failed to delete old proof", zap.String("id", file.Name()), zap.Error(err))
			} else {
				deletedCount++
			}
		}
	}
	return
}
