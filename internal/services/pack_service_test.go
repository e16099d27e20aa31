package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gopher0727/StarterPacks/internal/cache"
	"github.com/Gopher0727/StarterPacks/internal/models"
	logger "github.com/Gopher0727/StarterPacks/middleware/log"
)

func labelFixture() *fixture {
	return newFixture([]models.Pack{
		{Rkey: "a", Name: "Alpha", Creator: "ann", CreatorDID: "did:1", Users: models.StringList{"did:1"}},
		{Rkey: "b", Name: "blanked", Creator: "", Deleted: true,
			LastKnownState: &models.PackState{Name: strPtr("Beta")}},
	}, []models.User{{DID: "did:1", Handle: "ann"}})
}

func TestPackService_GetPack(t *testing.T) {
	f := labelFixture()
	svc := NewPackService(f.packs, f.join, cache.New(nil), 0, 100, logger.NewNop())
	ctx := context.Background()

	detail, err := svc.GetPack(ctx, "a", false)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", detail.Name)
	require.Len(t, detail.Members, 1)
	assert.Equal(t, "ann", detail.Members[0].Handle)

	_, err = svc.GetPack(ctx, "b", false)
	assert.ErrorIs(t, err, ErrPackNotFound)

	deleted, err := svc.GetPack(ctx, "b", true)
	require.NoError(t, err)
	assert.Equal(t, "Beta", deleted.Name)
	assert.Equal(t, "", deleted.Creator)

	_, err = svc.GetPack(ctx, "zzz", true)
	assert.ErrorIs(t, err, ErrPackNotFound)
}

func TestPackService_Labels(t *testing.T) {
	f := labelFixture()
	svc := NewPackService(f.packs, f.join, cache.New(nil), 0, 2, logger.NewNop())
	ctx := context.Background()

	labels, err := svc.Labels(ctx, ParseIDs(" a, b ,missing,a"))
	assert.ErrorIs(t, err, ErrTooManyIDs)
	assert.Nil(t, labels)

	labels, err = svc.Labels(ctx, ParseIDs("a,b"))
	require.NoError(t, err)
	assert.Equal(t, map[string]PackLabel{
		"a": {Name: "Alpha", Creator: "ann"},
		"b": {Name: "Beta", Creator: ""},
	}, labels)

	_, err = svc.Labels(ctx, ParseIDs(" , "))
	assert.ErrorIs(t, err, ErrMissingIDs)
}

func TestPackService_LabelsCached(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f := labelFixture()
	svc := NewPackService(f.packs, f.join, cache.New(client), time.Minute, 100, logger.NewNop())
	ctx := context.Background()

	first, err := svc.Labels(ctx, []string{"a", "b"})
	require.NoError(t, err)
	second, err := svc.Labels(ctx, []string{"b", "a"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.packs.byRkeys)
	assert.True(t, mr.Exists(cache.LabelsKey([]string{"a", "b"})))
}

func TestPackService_LabelsCacheDownFallsThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	f := labelFixture()
	svc := NewPackService(f.packs, f.join, cache.New(client), time.Minute, 100, logger.NewNop())

	labels, err := svc.Labels(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, "Alpha", labels["a"].Name)
}

func TestParseIDs(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseIDs("a, b,,a"))
	assert.Empty(t, ParseIDs(""))
}
