package repositories

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"slices"
	"sync"

	"github.com/Gopher0727/StarterPacks/internal/models"
	"github.com/Gopher0727/StarterPacks/internal/query"
)

// MemoryStore is an in-process document store for local development (JSON
// fixture) and tests. Filtering, sorting and paging follow the Mongo
// repositories.
type MemoryStore struct {
	mu    sync.RWMutex
	packs []models.Pack
	users []models.User
}

func NewMemoryStore(packs []models.Pack, users []models.User) *MemoryStore {
	return &MemoryStore{packs: packs, users: users}
}

type fixture struct {
	Packs []models.Pack `json:"packs"`
	Users []models.User `json:"users"`
}

// LoadFixture reads {"packs": [...], "users": [...]} from path.
func LoadFixture(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var f fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return NewMemoryStore(f.Packs, f.Users), nil
}

func (s *MemoryStore) Packs() PackRepository { return &memoryPackRepository{store: s} }

func (s *MemoryStore) Users() UserRepository { return &memoryUserRepository{store: s} }

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

// matcher mirrors SearchFilter: a case-insensitive regex over any of the
// fields, plus the soft-delete rule.
type matcher struct {
	re          *regexp.Regexp
	exclude     bool
	keepReasons []string
}

func newMatcher(spec *query.Spec) (*matcher, error) {
	re, err := regexp.Compile("(?i)" + spec.Pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern: %w", err)
	}
	return &matcher{re: re, exclude: spec.ExcludeDeleted, keepReasons: spec.KeepDeletionReasons}, nil
}

func (m *matcher) visible(deleted bool, reason string) bool {
	if !m.exclude || !deleted {
		return true
	}
	return slices.Contains(m.keepReasons, reason)
}

func (m *matcher) any(values ...string) bool {
	for _, v := range values {
		if m.re.MatchString(v) {
			return true
		}
	}
	return false
}

// page applies skip/limit to an already sorted slice.
func page[T any](items []T, skip, limit int64) []T {
	if skip >= int64(len(items)) {
		return nil
	}
	end := int64(len(items))
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	return slices.Clone(items[skip:end])
}

func compareBy(sort []query.SortField, key func(field string, i int) any) func(a, b int) int {
	return func(a, b int) int {
		for _, f := range sort {
			c := compareValues(key(f.Field, a), key(f.Field, b))
			if f.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	}
}

func compareValues(a, b any) int {
	switch x := a.(type) {
	case string:
		return cmp.Compare(x, b.(string))
	case int64:
		return cmp.Compare(x, b.(int64))
	case models.Timestamp:
		return x.Compare(b.(models.Timestamp).Time)
	default:
		return 0
	}
}

// sortedIndex sorts n items through their indices with a stable sort.
func sortedIndex(n int, less func(a, b int) int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, less)
	return idx
}

type memoryPackRepository struct {
	store *MemoryStore
}

func packField(p *models.Pack, field string) any {
	switch field {
	case query.FieldRkey:
		return p.Rkey
	case query.FieldName:
		return p.Name
	case query.FieldCreator:
		return p.Creator
	case query.FieldUserCount:
		return p.UserCount
	case query.FieldWeeklyJoins:
		return p.WeeklyJoins
	case query.FieldCreatedAt:
		return p.CreatedAt
	default:
		return nil
	}
}

func (r *memoryPackRepository) Search(ctx context.Context, spec *query.Spec) ([]models.Pack, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	m, err := newMatcher(spec)
	if err != nil {
		return nil, 0, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var matched []models.Pack
	for _, p := range r.store.packs {
		if m.visible(p.Deleted, p.DeletionReason) && m.any(p.Name, p.Creator) {
			matched = append(matched, p)
		}
	}
	idx := sortedIndex(len(matched), compareBy(spec.Sort, func(field string, i int) any {
		return packField(&matched[i], field)
	}))
	sorted := make([]models.Pack, len(idx))
	for i, j := range idx {
		sorted[i] = matched[j]
	}
	return page(sorted, spec.Skip, spec.Limit), int64(len(matched)), nil
}

func (r *memoryPackRepository) GetByRkey(ctx context.Context, rkey string) (*models.Pack, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, p := range r.store.packs {
		if p.Rkey == rkey {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryPackRepository) FindByRkeys(ctx context.Context, rkeys []string, includeDeleted bool) ([]models.Pack, error) {
	return r.filter(ctx, includeDeleted, func(p *models.Pack) bool { return slices.Contains(rkeys, p.Rkey) })
}

func (r *memoryPackRepository) FindByCreators(ctx context.Context, dids []string, includeDeleted bool) ([]models.Pack, error) {
	return r.filter(ctx, includeDeleted, func(p *models.Pack) bool { return slices.Contains(dids, p.CreatorDID) })
}

func (r *memoryPackRepository) filter(ctx context.Context, includeDeleted bool, keep func(*models.Pack) bool) ([]models.Pack, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []models.Pack
	for _, p := range r.store.packs {
		if p.Deleted && !includeDeleted {
			continue
		}
		if keep(&p) {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Pack) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Rkey, b.Rkey))
	})
	return out, nil
}

func (r *memoryPackRepository) Summary(ctx context.Context, strict bool) (*PackSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var count, members int64
	for _, p := range r.store.packs {
		if p.Deleted || (strict && p.Status != models.PackStatusCompleted) {
			continue
		}
		count++
		members += int64(len(p.Users))
	}
	summary := &PackSummary{Count: count}
	if count > 0 {
		summary.AvgSize = float64(members) / float64(count)
	}
	return summary, nil
}

type memoryUserRepository struct {
	store *MemoryStore
}

func userField(u *models.User, field string) any {
	switch field {
	case query.FieldDID:
		return u.DID
	case query.FieldHandle:
		return u.Handle
	case query.FieldDisplayName:
		return u.DisplayName
	case query.FieldFollowersCount:
		return u.FollowersCount
	case query.FieldPackIDsCount:
		return int64(len(u.PackIDs))
	default:
		return nil
	}
}

func (r *memoryUserRepository) Search(ctx context.Context, spec *query.Spec) ([]models.User, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	m, err := newMatcher(spec)
	if err != nil {
		return nil, 0, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var matched []models.User
	for _, u := range r.store.users {
		if m.visible(u.Deleted, u.DeletionReason) && m.any(u.Handle, u.DisplayName) {
			matched = append(matched, u)
		}
	}
	idx := sortedIndex(len(matched), compareBy(spec.Sort, func(field string, i int) any {
		return userField(&matched[i], field)
	}))
	sorted := make([]models.User, len(idx))
	for i, j := range idx {
		sorted[i] = matched[j]
	}
	return page(sorted, spec.Skip, spec.Limit), int64(len(matched)), nil
}

func (r *memoryUserRepository) GetByDID(ctx context.Context, did string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, u := range r.store.users {
		if u.DID == did {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryUserRepository) FindByDIDs(ctx context.Context, dids []string) ([]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []models.User
	for _, u := range r.store.users {
		if slices.Contains(dids, u.DID) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memoryUserRepository) CountActive(ctx context.Context, strict bool) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var n int64
	for _, u := range r.store.users {
		if u.Deleted || (strict && u.Handle == "") {
			continue
		}
		n++
	}
	return n, nil
}
