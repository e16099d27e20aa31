package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gopher0727/StarterPacks/internal/models"
	"github.com/Gopher0727/StarterPacks/internal/query"
)

func TestSearch_AliceUsersByFollowers(t *testing.T) {
	var users []models.User
	for i := range 15 {
		users = append(users, models.User{
			DID:            fmt.Sprintf("did:alice:%02d", i),
			Handle:         fmt.Sprintf("alice%02d.example", i),
			FollowersCount: int64((i * 37) % 101),
		})
	}
	users = append(users,
		models.User{DID: "did:bob", Handle: "bob.example", FollowersCount: 1000},
		models.User{DID: "did:gone", Handle: "alice.gone", Deleted: true, FollowersCount: 999},
	)
	f := newFixture(nil, users)
	svc := NewSearchService(f.packs, f.users, f.join, query.Options{})

	got, err := svc.Search(context.Background(), &SearchRequest{
		Query: "alice", Type: "users", SortBy: "followers", SortOrder: "desc", Page: 1,
	})
	require.NoError(t, err)

	page, ok := got.(*Page[UserResult])
	require.True(t, ok)
	assert.EqualValues(t, 15, page.Total)
	assert.EqualValues(t, 2, page.TotalPages)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.ItemsPerPage)
	require.Len(t, page.Items, 10)
	for i := 1; i < len(page.Items); i++ {
		assert.GreaterOrEqual(t, page.Items[i-1].FollowersCount, page.Items[i].FollowersCount)
	}

	second, err := svc.Search(context.Background(), &SearchRequest{
		Query: "alice", Type: "users", SortBy: "followers", SortOrder: "desc", Page: 2,
	})
	require.NoError(t, err)
	assert.Len(t, second.(*Page[UserResult]).Items, 5)
}

func TestSearch_PacksWithCreators(t *testing.T) {
	f := newFixture([]models.Pack{
		{Rkey: "p1", Name: "Go folks", CreatorDID: "did:1", Users: models.StringList{"x", "y"}, UserCount: 10},
		{Rkey: "p2", Name: "More go", CreatorDID: "did:1"},
		{Rkey: "p3", Name: "Gone go", CreatorDID: "did:2", Deleted: true},
	}, []models.User{{DID: "did:1", Handle: "maker"}})
	svc := NewSearchService(f.packs, f.users, f.join, query.Options{})

	got, err := svc.Search(context.Background(), &SearchRequest{Query: "go"})
	require.NoError(t, err)

	page := got.(*Page[PackResult])
	assert.EqualValues(t, 2, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "p1", page.Items[0].Rkey)
	assert.EqualValues(t, 2, page.Items[0].MemberCount)
	require.NotNil(t, page.Items[0].CreatorDetails)
	assert.Equal(t, "maker", page.Items[0].CreatorDetails.Handle)
	assert.Len(t, f.users.calls(), 1)
}

func TestSearch_Validation(t *testing.T) {
	f := newFixture(nil, nil)
	svc := NewSearchService(f.packs, f.users, f.join, query.Options{})

	_, err := svc.Search(context.Background(), &SearchRequest{Query: " a "})
	assert.ErrorIs(t, err, query.ErrInvalidQuery)

	_, err = svc.Search(context.Background(), &SearchRequest{Query: "alice", Type: "groups"})
	assert.ErrorIs(t, err, query.ErrInvalidType)
}

func TestSearch_StoreFailure(t *testing.T) {
	f := newFixture(nil, nil)
	f.packs.failAll = true
	svc := NewSearchService(f.packs, f.users, f.join, query.Options{})

	_, err := svc.Search(context.Background(), &SearchRequest{Query: "alice"})
	assert.ErrorIs(t, err, errStoreDown)
}

func TestSearch_EmptyResultIsEmptyArray(t *testing.T) {
	f := newFixture(nil, nil)
	svc := NewSearchService(f.packs, f.users, f.join, query.Options{})

	got, err := svc.Search(context.Background(), &SearchRequest{Query: "nothing", Page: -3})
	require.NoError(t, err)
	page := got.(*Page[PackResult])
	assert.NotNil(t, page.Items)
	assert.Equal(t, 1, page.Page)
	assert.Zero(t, page.TotalPages)
}
