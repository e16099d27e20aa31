// Package query turns search parameters into a store-agnostic Spec.
// Repositories derive exactly one filter from a Spec and use it for both the
// count and the page fetch.
package query

import (
	"errors"
	"regexp"
	"strings"

	"github.com/Gopher0727/StarterPacks/internal/models"
)

const (
	PageSize       = 10
	MinQueryLength = 2
)

var (
	ErrInvalidQuery = errors.New("search query must be at least 2 characters")
	ErrInvalidType  = errors.New("search type must be packs or users")
)

// Entity is the collection a search runs against.
type Entity string

const (
	EntityPacks Entity = "packs"
	EntityUsers Entity = "users"
)

// ParseEntity accepts the singular and plural forms; empty means packs.
func ParseEntity(s string) (Entity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "packs", "pack":
		return EntityPacks, nil
	case "users", "user":
		return EntityUsers, nil
	default:
		return "", ErrInvalidType
	}
}

// Field names shared by the builder and the repositories.
const (
	FieldRkey           = "rkey"
	FieldName           = "name"
	FieldCreator        = "creator"
	FieldCreatorDID     = "creator_did"
	FieldUserCount      = "user_count"
	FieldWeeklyJoins    = "weekly_joins"
	FieldCreatedAt      = "created_at"
	FieldDID            = "did"
	FieldHandle         = "handle"
	FieldDisplayName    = "display_name"
	FieldFollowersCount = "followers_count"
	FieldPackIDs        = "pack_ids"
	FieldDeleted        = "deleted"
	FieldDeletionReason = "deletion_reason"

	// FieldPackIDsCount is not stored; it is the size of pack_ids computed
	// at query time.
	FieldPackIDsCount = "pack_ids_count"
)

var packSortFields = map[string]string{
	"name":     FieldName,
	"members":  FieldUserCount,
	"activity": FieldWeeklyJoins,
	"created":  FieldCreatedAt,
}

var userSortFields = map[string]string{
	"name":      FieldDisplayName,
	"handle":    FieldHandle,
	"followers": FieldFollowersCount,
	"packs":     FieldPackIDsCount,
}

// SortField is one key of a compound sort.
type SortField struct {
	Field string
	Desc  bool
}

// Options carries the behavior switches that come from configuration.
type Options struct {
	// RawPattern uses the query text as a regular expression fragment
	// instead of a literal substring.
	RawPattern bool
	// KeepNoRemainingPacks keeps users deleted with reason
	// "no_remaining_packs" in user search results.
	KeepNoRemainingPacks bool
}

// Spec is a complete, store-agnostic description of one search page.
type Spec struct {
	Entity Entity
	// Pattern is matched case-insensitively anywhere in any of Fields.
	Pattern string
	Fields  []string

	ExcludeDeleted bool
	// KeepDeletionReasons lists deletion reasons that stay visible even
	// when ExcludeDeleted is set.
	KeepDeletionReasons []string

	// Sort holds the requested key followed by the join-key tie-breaker.
	Sort []SortField

	Page     int
	PageSize int
	Skip     int64
	Limit    int64
}

// NeedsDerivedFields reports whether the sort key must be computed before
// sorting: pack_ids_count does not exist on disk and a missing
// followers_count sorts as 0.
func (s *Spec) NeedsDerivedFields() bool {
	for _, f := range s.Sort {
		switch f.Field {
		case FieldPackIDsCount, FieldFollowersCount:
			return true
		}
	}
	return false
}

// Build validates the raw parameters and produces the Spec for one page.
func Build(entity Entity, raw, sortKey, sortOrder string, page int, opts Options) (*Spec, error) {
	text := strings.TrimSpace(raw)
	if len([]rune(text)) < MinQueryLength {
		return nil, ErrInvalidQuery
	}

	pattern := regexp.QuoteMeta(text)
	if opts.RawPattern {
		if _, err := regexp.Compile("(?i)" + text); err != nil {
			return nil, ErrInvalidQuery
		}
		pattern = text
	}

	page = NormalizePage(page)
	spec := &Spec{
		Entity:         entity,
		Pattern:        pattern,
		ExcludeDeleted: true,
		Page:           page,
		PageSize:       PageSize,
		Skip:           int64(page-1) * PageSize,
		Limit:          PageSize,
	}

	desc := strings.EqualFold(strings.TrimSpace(sortOrder), "desc")
	switch entity {
	case EntityPacks:
		spec.Fields = []string{FieldName, FieldCreator}
		spec.Sort = []SortField{
			{Field: SortFieldFor(entity, sortKey), Desc: desc},
			{Field: FieldRkey},
		}
	case EntityUsers:
		spec.Fields = []string{FieldHandle, FieldDisplayName}
		spec.Sort = []SortField{
			{Field: SortFieldFor(entity, sortKey), Desc: desc},
			{Field: FieldDID},
		}
		if opts.KeepNoRemainingPacks {
			spec.KeepDeletionReasons = []string{models.DeletionReasonNoRemainingPacks}
		}
	default:
		return nil, ErrInvalidType
	}
	return spec, nil
}

// SortFieldFor maps a public sort key to a document field. Unknown keys get
// the entity's default so callers can never sort on arbitrary fields.
func SortFieldFor(entity Entity, key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if entity == EntityUsers {
		if f, ok := userSortFields[key]; ok {
			return f
		}
		return FieldDisplayName
	}
	if f, ok := packSortFields[key]; ok {
		return f
	}
	return FieldName
}

// NormalizePage maps zero and negative pages to 1.
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
