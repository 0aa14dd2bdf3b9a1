package health

import (
	"context"
	"fmt"

	"bastion-hq/bastion/pkg/history"
)

// SchemaSource is the part of the schema registry the readiness check reads.
type SchemaSource interface {
	Len() int
}

// RegistryCheck fails while fewer than minSchemas schemas are loaded.
func RegistryCheck(src SchemaSource, minSchemas int) CheckFunc {
	return func(_ context.Context) error {
		if n := src.Len(); n < minSchemas {
			return fmt.Errorf("%d schemas loaded, need at least %d", n, minSchemas)
		}
		return nil
	}
}

// StorageCheck fails when the history store cannot answer a count query.
func StorageCheck(s history.Storage) CheckFunc {
	return func(ctx context.Context) error {
		if _, err := s.Count(ctx, &history.Query{}); err != nil {
			return fmt.Errorf("history storage: %w", err)
		}
		return nil
	}
}

// SyncSource is the part of the git poller the readiness check reads.
type SyncSource interface {
	ActiveSHA() string
}

// GitCheck fails until the schema repository has a checked-out commit.
func GitCheck(src SyncSource) CheckFunc {
	return func(_ context.Context) error {
		if src.ActiveSHA() == "" {
			return fmt.Errorf("schema repository not synced")
		}
		return nil
	}
}
