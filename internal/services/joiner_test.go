package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gopher0727/StarterPacks/internal/models"
)

func TestJoiner_PacksBatchesDistinctCreators(t *testing.T) {
	var packs []models.Pack
	for i := range 10 {
		packs = append(packs, models.Pack{
			Rkey:       fmt.Sprintf("p%d", i),
			Name:       "pack",
			CreatorDID: fmt.Sprintf("did:%d", i%3),
		})
	}
	f := newFixture(packs, []models.User{
		{DID: "did:0", Handle: "zero", FollowersCount: 5},
		{DID: "did:1", Handle: "one"},
	})

	results := f.join.Packs(context.Background(), packs)

	calls := f.users.calls()
	require.Len(t, calls, 1)
	assert.ElementsMatch(t, []string{"did:0", "did:1", "did:2"}, calls[0])

	require.Len(t, results, 10)
	require.NotNil(t, results[0].CreatorDetails)
	assert.Equal(t, "zero", results[0].CreatorDetails.Handle)
	assert.EqualValues(t, 5, results[0].CreatorDetails.FollowersCount)
	assert.Nil(t, results[2].CreatorDetails, "did:2 does not exist")
}

func TestJoiner_PacksResolveTombstonedCreator(t *testing.T) {
	packs := []models.Pack{{Rkey: "p", CreatorDID: "did:x"}}
	f := newFixture(packs, []models.User{{
		DID:            "did:x",
		Handle:         "",
		Deleted:        true,
		LastKnownState: &models.UserState{Handle: strPtr("old.handle")},
	}})

	results := f.join.Packs(context.Background(), packs)
	require.NotNil(t, results[0].CreatorDetails)
	assert.Equal(t, "old.handle", results[0].CreatorDetails.Handle)
	assert.True(t, results[0].CreatorDetails.Deleted)
}

func TestJoiner_PacksLookupFailureIsNoRelation(t *testing.T) {
	packs := []models.Pack{{Rkey: "p", CreatorDID: "did:1"}}
	f := newFixture(packs, []models.User{{DID: "did:1", Handle: "one"}})
	f.users.fail = true

	results := f.join.Packs(context.Background(), packs)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].CreatorDetails)
}

func TestJoiner_PackDetailMembers(t *testing.T) {
	pack := models.Pack{
		Rkey:       "p",
		Name:       "live",
		CreatorDID: "did:c",
		Users:      models.StringList{"did:b", "did:missing", "did:a", "did:b"},
	}
	f := newFixture([]models.Pack{pack}, []models.User{
		{DID: "did:a", Handle: "a"},
		{DID: "did:b", Handle: "b"},
		{DID: "did:c", Handle: "creator"},
	})

	detail := f.join.PackDetail(context.Background(), &pack)

	require.Len(t, detail.Members, 2)
	assert.Equal(t, "did:b", detail.Members[0].DID)
	assert.Equal(t, "did:a", detail.Members[1].DID)
	require.NotNil(t, detail.CreatorDetails)
	assert.Equal(t, "creator", detail.CreatorDetails.Handle)
	assert.Len(t, f.users.calls(), 2)
}

func TestJoiner_PackDetailNoMembers(t *testing.T) {
	pack := models.Pack{Rkey: "p"}
	f := newFixture([]models.Pack{pack}, nil)

	detail := f.join.PackDetail(context.Background(), &pack)
	assert.NotNil(t, detail.Members)
	assert.Empty(t, detail.Members)
	assert.Nil(t, detail.CreatorDetails)
	assert.Empty(t, f.users.calls())
}

func TestJoiner_UsersDanglingPackIDs(t *testing.T) {
	users := []models.User{{DID: "did:1", Handle: "one", PackIDs: models.StringList{"missing-rkey"}}}
	f := newFixture(nil, users)

	results := f.join.Users(context.Background(), users, false)
	require.Len(t, results, 1)
	assert.NotNil(t, results[0].MemberPacks)
	assert.Empty(t, results[0].MemberPacks)
	assert.Empty(t, results[0].CreatedPacks)
}

func TestJoiner_UsersBatchedAndTombstoned(t *testing.T) {
	packs := []models.Pack{
		{Rkey: "a", Name: "Alpha", CreatorDID: "did:1"},
		{Rkey: "b", Name: "", Creator: "", CreatorDID: "did:2", Deleted: true,
			LastKnownState: &models.PackState{Name: strPtr("Beta"), Creator: strPtr("two")}},
		{Rkey: "c", Name: "Gamma", CreatorDID: "did:2"},
	}
	users := []models.User{
		{DID: "did:1", Handle: "one", PackIDs: models.StringList{"b", "a", "a"}},
		{DID: "did:2", Handle: "two", PackIDs: models.StringList{"a"}},
	}
	f := newFixture(packs, users)

	live := f.join.Users(context.Background(), users, false)
	assert.Equal(t, 1, f.packs.byRkeys)
	assert.Equal(t, 1, f.packs.byCreator)

	require.Len(t, live[0].MemberPacks, 1)
	assert.Equal(t, "a", live[0].MemberPacks[0].Rkey)
	require.Len(t, live[0].CreatedPacks, 1)
	assert.Equal(t, "Alpha", live[0].CreatedPacks[0].Name)
	require.Len(t, live[1].CreatedPacks, 1)
	assert.Equal(t, "c", live[1].CreatedPacks[0].Rkey)

	all := f.join.Users(context.Background(), users, true)
	require.Len(t, all[0].MemberPacks, 2)
	assert.Equal(t, "Beta", all[0].MemberPacks[0].Name)
	assert.Equal(t, "two", all[0].MemberPacks[0].Creator)
	require.Len(t, all[1].CreatedPacks, 2)
	assert.Equal(t, "Beta", all[1].CreatedPacks[0].Name)
}

func TestJoiner_UsersLookupFailure(t *testing.T) {
	users := []models.User{{DID: "did:1", PackIDs: models.StringList{"a"}}}
	f := newFixture([]models.Pack{{Rkey: "a", CreatorDID: "did:1"}}, users)
	f.packs.failJoins = true

	results := f.join.Users(context.Background(), users, false)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].MemberPacks)
	assert.Empty(t, results[0].CreatedPacks)
}

func TestDistinct(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, distinct([]string{"a", "", "b", "a"}, []string{"c", "b"}))
	assert.Nil(t, distinct(nil))
}
