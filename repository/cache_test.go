package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetByIDServesFreshCacheEntries(t *testing.T) {
	e := newEnv(t)
	created, err := e.features.Create(newFeature("Add login"), "alice")
	require.NoError(t, err)

	// Remove the backing file; the cached entry still answers.
	require.NoError(t, e.docs.Fs().Remove("data/features/" + created.ID + ".json"))

	item, found, err := e.features.GetByID(created.ID)
	require.NoError(t, err)
	require.True(t, found, "fresh cache entry should serve the read")
	assert.Equal(t, created.ID, item.ID)
}

func TestCacheEntriesExpireAfterTTL(t *testing.T) {
	e := newEnv(t)
	created, err := e.features.Create(newFeature("Add login"), "alice")
	require.NoError(t, err)
	require.NoError(t, e.docs.Fs().Remove("data/features/"+created.ID+".json"))

	e.clock.Advance(DefaultCacheTTL + time.Second)

	_, found, err := e.features.GetByID(created.ID)
	require.NoError(t, err)
	assert.False(t, found, "expired entry must fall through to storage")
}

func TestDeleteEvictsCacheImmediately(t *testing.T) {
	e := newEnv(t)
	created, err := e.features.Create(newFeature("Add login"), "alice")
	require.NoError(t, err)
	require.NoError(t, e.features.Delete(created.ID))

	_, found, err := e.features.GetByID(created.ID)
	require.NoError(t, err)
	assert.False(t, found, "delete must evict, not wait for TTL")
}

func TestListNeverConsultsTheCache(t *testing.T) {
	e := newEnv(t)
	created, err := e.features.Create(newFeature("Add login"), "alice")
	require.NoError(t, err)

	// Rewrite the document behind the repository's back.
	onDisk := created.CloneItem()
	onDisk.Core().Title = "renamed on disk"
	require.NoError(t, e.docs.WriteJSON("data/features/"+created.ID+".json", onDisk))

	res, err := e.features.List(ListOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, "renamed on disk", res.Items[0].Title, "List reads every file fresh")

	// getById, by contrast, may still serve the older cached value.
	item, found, err := e.features.GetByID(created.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Add login", item.Title)
}

func TestCachedReadsDoNotAliasCallerValues(t *testing.T) {
	e := newEnv(t)
	created, err := e.features.Create(newFeature("Add login"), "alice")
	require.NoError(t, err)
	_, err = e.features.AddTag(created.ID, "auth")
	require.NoError(t, err)

	first, found, err := e.features.GetByID(created.ID)
	require.NoError(t, err)
	require.True(t, found)
	first.Title = "mutated by caller"
	first.Tags[0] = "mutated"

	second, _, err := e.features.GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Add login", second.Title)
	assert.Equal(t, []string{"auth"}, second.Tags)
}

func TestUpdateRefreshesCache(t *testing.T) {
	e := newEnv(t)
	created, err := e.features.Create(newFeature("Add login"), "alice")
	require.NoError(t, err)

	_, err = e.features.Update(created.ID, map[string]any{"description": "fresh"})
	require.NoError(t, err)

	// Remove the file: the refreshed cache entry must carry the update.
	require.NoError(t, e.docs.Fs().Remove("data/features/"+created.ID+".json"))
	item, found, err := e.features.GetByID(created.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "fresh", item.Description)
}
