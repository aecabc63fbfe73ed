package storage

import (
	"context"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
)

// Storage defines the interface for persisting aggregated results
type Storage interface {
	// SaveResult stores an aggregated result and returns its entry
	SaveResult(result *models.Result) (Entry, error)

	// LoadResult loads a result by reference (id, unique id prefix, "latest" or "previous")
	LoadResult(ref string) (*models.Result, error)

	// LoadPair loads two results concurrently
	LoadPair(ctx context.Context, leftRef, rightRef string) (*models.Result, *models.Result, error)

	// GetLatest retrieves the most recently finished result
	GetLatest() (*models.Result, error)

	// GetLastN retrieves the last N results, oldest first
	GetLastN(n int) ([]*models.Result, error)

	// ListResults returns all stored entries, oldest first
	ListResults() ([]Entry, error)
}
