package query

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Validation(t *testing.T) {
	for _, raw := range []string{"", " ", "a", "  b  "} {
		_, err := Build(EntityPacks, raw, "", "", 1, Options{})
		assert.ErrorIs(t, err, ErrInvalidQuery, "query %q", raw)
	}

	_, err := Build(EntityPacks, "go", "", "", 1, Options{})
	assert.NoError(t, err)
}

func TestBuild_EscapesByDefault(t *testing.T) {
	spec, err := Build(EntityPacks, "c++ (dev)", "", "", 1, Options{})
	require.NoError(t, err)
	assert.Equal(t, `c\+\+ \(dev\)`, spec.Pattern)

	spec, err = Build(EntityPacks, "^go.*", "", "", 1, Options{RawPattern: true})
	require.NoError(t, err)
	assert.Equal(t, "^go.*", spec.Pattern)

	_, err = Build(EntityPacks, "(unbalanced", "", "", 1, Options{RawPattern: true})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestBuild_Packs(t *testing.T) {
	spec, err := Build(EntityPacks, "rust", "members", "desc", 3, Options{KeepNoRemainingPacks: true})
	require.NoError(t, err)

	assert.Equal(t, []string{FieldName, FieldCreator}, spec.Fields)
	assert.True(t, spec.ExcludeDeleted)
	assert.Empty(t, spec.KeepDeletionReasons, "the deletion reason exception only applies to users")
	assert.Equal(t, []SortField{{Field: FieldUserCount, Desc: true}, {Field: FieldRkey}}, spec.Sort)
	assert.Equal(t, int64(20), spec.Skip)
	assert.Equal(t, int64(PageSize), spec.Limit)
	assert.False(t, spec.NeedsDerivedFields())
}

func TestBuild_Users(t *testing.T) {
	spec, err := Build(EntityUsers, "alice", "packs", "asc", 0, Options{KeepNoRemainingPacks: true})
	require.NoError(t, err)

	assert.Equal(t, []string{FieldHandle, FieldDisplayName}, spec.Fields)
	assert.Equal(t, []string{"no_remaining_packs"}, spec.KeepDeletionReasons)
	assert.Equal(t, []SortField{{Field: FieldPackIDsCount}, {Field: FieldDID}}, spec.Sort)
	assert.Equal(t, 1, spec.Page)
	assert.Equal(t, int64(0), spec.Skip)
	assert.True(t, spec.NeedsDerivedFields())

	spec, err = Build(EntityUsers, "alice", "followers", "desc", 1, Options{})
	require.NoError(t, err)
	assert.Equal(t, []SortField{{Field: FieldFollowersCount, Desc: true}, {Field: FieldDID}}, spec.Sort)
	assert.True(t, spec.NeedsDerivedFields(), "missing followers_count must sort as 0")

	spec, err = Build(EntityUsers, "alice", "", "", 1, Options{})
	require.NoError(t, err)
	assert.Empty(t, spec.KeepDeletionReasons)
}

func TestSortFieldFor(t *testing.T) {
	tests := []struct {
		entity Entity
		key    string
		want   string
	}{
		{EntityPacks, "name", FieldName},
		{EntityPacks, "members", FieldUserCount},
		{EntityPacks, "activity", FieldWeeklyJoins},
		{EntityPacks, "created", FieldCreatedAt},
		{EntityPacks, "", FieldName},
		{EntityPacks, "password_hash", FieldName},
		{EntityUsers, "name", FieldDisplayName},
		{EntityUsers, "handle", FieldHandle},
		{EntityUsers, "followers", FieldFollowersCount},
		{EntityUsers, "packs", FieldPackIDsCount},
		{EntityUsers, "FOLLOWERS", FieldFollowersCount},
		{EntityUsers, "members", FieldDisplayName},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SortFieldFor(tt.entity, tt.key), "%s/%s", tt.entity, tt.key)
	}
}

func TestParseEntity(t *testing.T) {
	for in, want := range map[string]Entity{"": EntityPacks, "packs": EntityPacks, "pack": EntityPacks, "users": EntityUsers, "User": EntityUsers} {
		got, err := ParseEntity(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseEntity("posts")
	assert.ErrorIs(t, err, ErrInvalidType)
}

// Page normalization and the skip formula hold for any page number, and sort
// keys always resolve to a whitelisted field.
func TestProperty_PagingAndSort(t *testing.T) {
	properties := gopter.NewProperties(nil)

	allowed := map[string]bool{
		FieldName: true, FieldUserCount: true, FieldWeeklyJoins: true, FieldCreatedAt: true,
		FieldDisplayName: true, FieldHandle: true, FieldFollowersCount: true, FieldPackIDsCount: true,
	}

	properties.Property("skip is (page-1)*PageSize with pages below 1 treated as 1",
		prop.ForAll(
			func(page int) bool {
				spec, err := Build(EntityPacks, "query", "", "", page, Options{})
				if err != nil {
					return false
				}
				want := page
				if want < 1 {
					want = 1
				}
				return spec.Page == want && spec.Skip == int64(want-1)*PageSize && spec.Limit == PageSize
			},
			gen.IntRange(-1000, 1000),
		))

	properties.Property("any sort key maps to a whitelisted field",
		prop.ForAll(
			func(key string, users bool) bool {
				entity := EntityPacks
				if users {
					entity = EntityUsers
				}
				return allowed[SortFieldFor(entity, key)]
			},
			gen.AnyString(),
			gen.Bool(),
		))

	properties.TestingRun(t)
}
