package repositories

import (
	"context"
	"errors"

	"github.com/Gopher0727/StarterPacks/internal/models"
	"github.com/Gopher0727/StarterPacks/internal/query"
)

var ErrNotFound = errors.New("document not found")

// PackRepository reads the starter pack collection.
type PackRepository interface {
	// Search returns one page of packs matching spec and the total number
	// of matches. Both come from the same filter.
	Search(ctx context.Context, spec *query.Spec) ([]models.Pack, int64, error)
	// GetByRkey returns the pack whatever its deletion state, or ErrNotFound.
	GetByRkey(ctx context.Context, rkey string) (*models.Pack, error)
	// FindByRkeys batch-loads packs; missing rkeys are simply absent.
	FindByRkeys(ctx context.Context, rkeys []string, includeDeleted bool) ([]models.Pack, error)
	// FindByCreators batch-loads the packs created by any of dids.
	FindByCreators(ctx context.Context, dids []string, includeDeleted bool) ([]models.Pack, error)
	// Summary counts active packs and averages their membership size.
	Summary(ctx context.Context, strict bool) (*PackSummary, error)
}

// UserRepository reads the users collection.
type UserRepository interface {
	Search(ctx context.Context, spec *query.Spec) ([]models.User, int64, error)
	// GetByDID returns the user whatever its deletion state, or ErrNotFound.
	GetByDID(ctx context.Context, did string) (*models.User, error)
	// FindByDIDs batch-loads users, deleted ones included so tombstoned
	// creators still resolve.
	FindByDIDs(ctx context.Context, dids []string) ([]models.User, error)
	// CountActive counts users that are not deleted (and, when strict,
	// have a handle).
	CountActive(ctx context.Context, strict bool) (int64, error)
}

// PackSummary is the aggregate over active packs.
type PackSummary struct {
	Count   int64   `bson:"count"`
	AvgSize float64 `bson:"avg_size"`
}

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}
