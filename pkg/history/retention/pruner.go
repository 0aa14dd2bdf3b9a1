package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bastion-hq/bastion/pkg/config"
	"bastion-hq/bastion/pkg/history"
)

// pruneBatch bounds how many records one count-based pass loads at a time.
const pruneBatch = 1000

// Pruner enforces the retention policy on a history store.
type Pruner struct {
	storage history.Storage
	cfg     config.RetentionConfig
	logger  *slog.Logger
	now     func() time.Time
}

// NewPruner creates a pruner for storage.
func NewPruner(storage history.Storage, cfg config.RetentionConfig, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		storage: storage,
		cfg:     cfg,
		logger:  logger.With("component", "history.retention"),
		now:     time.Now,
	}
}

// Prune deletes records older than cfg.Days and then, if more than
// cfg.MaxRecords remain, the oldest records above that count. Either limit
// is skipped when zero. It returns the total number of records deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.cfg.Days > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by age failed: %w", err)
		}
		total += deleted
		p.logger.Info("pruned records by age",
			"deleted_count", deleted,
			"retention_days", p.cfg.Days,
		)
	}

	if p.cfg.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by count failed: %w", err)
		}
		total += deleted
		p.logger.Info("pruned records by count",
			"deleted_count", deleted,
			"max_records", p.cfg.MaxRecords,
		)
	}

	return total, nil
}

// Cutoff returns the oldest recording time kept by age-based pruning.
func (p *Pruner) Cutoff() time.Time {
	return p.now().AddDate(0, 0, -p.cfg.Days)
}

func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := p.Cutoff()
	p.logger.Debug("pruning by age", "cutoff_time", cutoff)

	// EndTime is inclusive; records exactly at the cutoff are still kept.
	end := cutoff.Add(-time.Nanosecond)
	return p.storage.Delete(ctx, &history.Query{EndTime: &end})
}

// pruneByCount deletes exactly the oldest records above MaxRecords, by ID.
func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &history.Query{})
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	if count <= p.cfg.MaxRecords {
		return 0, nil
	}

	excess := count - p.cfg.MaxRecords
	p.logger.Info("record count exceeds limit, pruning oldest",
		"current_count", count,
		"max_records", p.cfg.MaxRecords,
		"to_delete", excess,
	)

	var deleted int64
	for deleted < excess {
		batch := int(min(excess-deleted, pruneBatch))
		oldest, err := p.storage.Query(ctx, &history.Query{Limit: batch, SortOrder: "asc"})
		if err != nil {
			return deleted, fmt.Errorf("failed to query records: %w", err)
		}
		if len(oldest) == 0 {
			break
		}

		ids := make([]string, len(oldest))
		for i, r := range oldest {
			ids[i] = r.ID
		}
		n, err := p.storage.Delete(ctx, &history.Query{IDs: ids})
		if err != nil {
			return deleted, fmt.Errorf("delete failed: %w", err)
		}
		deleted += n
		if n == 0 {
			break
		}
	}
	return deleted, nil
}
