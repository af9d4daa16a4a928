// Package storage defines the enforcement journal and its implementations.
package storage

import (
	"context"
	"time"

	"aufseher/internal/model"
)

// Storage is the interface for journal persistence.
type Storage interface {
	RecordAction(ctx context.Context, a *model.Action) error
	ListActions(ctx context.Context, chatID int64, limit int) ([]model.Action, error)
	PruneActions(ctx context.Context, before time.Time) (int64, error)

	Close() error
}
