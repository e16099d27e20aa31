package services

import (
	"context"
	"errors"
	"sync"

	"github.com/Gopher0727/StarterPacks/internal/models"
	"github.com/Gopher0727/StarterPacks/internal/query"
	"github.com/Gopher0727/StarterPacks/internal/repositories"
	logger "github.com/Gopher0727/StarterPacks/middleware/log"
)

var errStoreDown = errors.New("store down")

// recordingUsers wraps a UserRepository and records batched lookups.
type recordingUsers struct {
	repositories.UserRepository

	mu      sync.Mutex
	batches [][]string
	fail    bool
}

func (r *recordingUsers) FindByDIDs(ctx context.Context, dids []string) ([]models.User, error) {
	r.mu.Lock()
	r.batches = append(r.batches, append([]string(nil), dids...))
	r.mu.Unlock()
	if r.fail {
		return nil, errStoreDown
	}
	return r.UserRepository.FindByDIDs(ctx, dids)
}

func (r *recordingUsers) calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches
}

// recordingPacks wraps a PackRepository and counts batched lookups.
type recordingPacks struct {
	repositories.PackRepository

	mu        sync.Mutex
	byRkeys   int
	byCreator int
	failJoins bool
	failAll   bool
}

func (r *recordingPacks) FindByRkeys(ctx context.Context, rkeys []string, includeDeleted bool) ([]models.Pack, error) {
	r.mu.Lock()
	r.byRkeys++
	r.mu.Unlock()
	if r.failJoins || r.failAll {
		return nil, errStoreDown
	}
	return r.PackRepository.FindByRkeys(ctx, rkeys, includeDeleted)
}

func (r *recordingPacks) FindByCreators(ctx context.Context, dids []string, includeDeleted bool) ([]models.Pack, error) {
	r.mu.Lock()
	r.byCreator++
	r.mu.Unlock()
	if r.failJoins || r.failAll {
		return nil, errStoreDown
	}
	return r.PackRepository.FindByCreators(ctx, dids, includeDeleted)
}

func (r *recordingPacks) Search(ctx context.Context, spec *query.Spec) ([]models.Pack, int64, error) {
	if r.failAll {
		return nil, 0, errStoreDown
	}
	return r.PackRepository.Search(ctx, spec)
}

func (r *recordingPacks) Summary(ctx context.Context, strict bool) (*repositories.PackSummary, error) {
	if r.failAll {
		return nil, errStoreDown
	}
	return r.PackRepository.Summary(ctx, strict)
}

type fixture struct {
	store *repositories.MemoryStore
	packs *recordingPacks
	users *recordingUsers
	join  *Joiner
}

func newFixture(packs []models.Pack, users []models.User) *fixture {
	store := repositories.NewMemoryStore(packs, users)
	f := &fixture{
		store: store,
		packs: &recordingPacks{PackRepository: store.Packs()},
		users: &recordingUsers{UserRepository: store.Users()},
	}
	f.join = NewJoiner(f.packs, f.users, logger.NewNop())
	return f
}

func strPtr(s string) *string { return &s }
