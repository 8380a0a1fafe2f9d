package campaign

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Snapshot reads campaign totals and, when handle is set, the handle's
// standing. Every read fails soft: the error is logged and the field left empty.
func (f *Flow) Snapshot(ctx context.Context, handle string) Snapshot {
	handle = strings.TrimSpace(handle)
	snap := Snapshot{State: StateUnknown}
	var status *HandleStatus
	if handle != "" {
		status = &HandleStatus{Handle: handle}
	}

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		stats, err := f.ledger.CampaignStats(egCtx)
		if err != nil {
			f.logger.Warn("campaign stats read failed", zap.Error(err))
			return nil
		}
		mu.Lock()
		snap.State = StateFromContract(stats.State)
		snap.Registered = stats.Registered
		snap.Submitted = stats.Submitted
		snap.TotalScore = stats.TotalScore
		mu.Unlock()
		return nil
	})
	eg.Go(func() error {
		id, err := f.ledger.CampaignID(egCtx)
		if err != nil {
			f.logger.Warn("campaign id read failed", zap.Error(err))
			return nil
		}
		mu.Lock()
		snap.CampaignID = id
		mu.Unlock()
		return nil
	})

	if status != nil {
		eg.Go(func() error {
			registered, err := f.ledger.IsRegistered(egCtx, handle)
			if err != nil {
				f.logger.Warn("registration read failed", zap.String("handle", handle), zap.Error(err))
				return nil
			}
			mu.Lock()
			status.Registered = registered
			mu.Unlock()
			return nil
		})
		eg.Go(func() error {
			score, err := f.ledger.ScoreOf(egCtx, handle)
			if err != nil {
				f.logger.Warn("score read failed", zap.String("handle", handle), zap.Error(err))
				return nil
			}
			mu.Lock()
			status.Score = score
			mu.Unlock()
			return nil
		})
		eg.Go(func() error {
			claimed, err := f.ledger.HasClaimed(egCtx, handle)
			if err != nil {
				f.logger.Warn("claim status read failed", zap.String("handle", handle), zap.Error(err))
				return nil
			}
			mu.Lock()
			status.Claimed = claimed
			mu.Unlock()
			return nil
		})
		eg.Go(func() error {
			reward, err := f.ledger.RewardAmount(egCtx, handle)
			if err != nil {
				f.logger.Warn("reward read failed", zap.String("handle", handle), zap.Error(err))
				return nil
			}
			mu.Lock()
			status.Reward = reward
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	snap.StateName = StateName(snap.State)
	if status != nil {
		if status.Reward != nil {
			status.RewardEther = FormatEther(status.Reward)
		}
		status.RewardPercentage = RewardPercentage(status.Score, snap.TotalScore)
		snap.Handle = status
	}
	return snap
}

