package repository

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarryhq/quarry/models"
	"github.com/quarryhq/quarry/store"
	"github.com/quarryhq/quarry/types"
)

// fakeClock lets tests control timestamps and cache expiry.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type env struct {
	docs     *store.DocumentStore
	clock    *fakeClock
	features *FeatureRepository
	bugs     *BugRepository
}

func newEnv(t *testing.T) *env {
	t.Helper()
	docs := store.NewDocumentStore(afero.NewMemMapFs())
	clock := newFakeClock()
	return &env{
		docs:  docs,
		clock: clock,
		features: NewFeatureRepository(docs, Config{
			Dir:   "data/features",
			Clock: clock,
		}),
		bugs: NewBugRepository(docs, Config{
			Dir:   "data/bugs",
			Clock: clock,
		}),
	}
}

func newFeature(title string) *models.Feature {
	f := &models.Feature{Priority: models.PriorityMedium, Complexity: models.ComplexityM}
	f.Title = title
	return f
}

func newBug(title string, severity models.Severity) *models.Bug {
	b := &models.Bug{Severity: severity, Priority: models.PriorityMedium}
	b.Title = title
	return b
}

func TestCreateAssignsSequentialIDsAndDefaults(t *testing.T) {
	e := newEnv(t)

	first, err := e.features.Create(newFeature("Add login"), "alice")
	require.NoError(t, err)
	second, err := e.features.Create(newFeature("Add logout"), "alice")
	require.NoError(t, err)

	assert.Equal(t, "FEA-001", first.ID)
	assert.Equal(t, "FEA-002", second.ID)
	assert.Equal(t, models.KindFeature, first.Kind)
	assert.Equal(t, models.FeatureStatusDraft, first.Status)
	assert.Equal(t, "planning", first.CurrentPhase)
	assert.Equal(t, "feature-development", first.Workflow)
	assert.Equal(t, "alice", first.CreatedBy)
	assert.True(t, first.CreatedAt.Equal(first.UpdatedAt))

	bug, err := e.bugs.Create(newBug("Login 500s", models.SeverityHigh), "bob")
	require.NoError(t, err)
	assert.Equal(t, "BUG-001", bug.ID)
	assert.Equal(t, models.BugStatusOpen, bug.Status)
	assert.Equal(t, "triage", bug.CurrentPhase)
}

func TestCreateValidationFailureWritesNothing(t *testing.T) {
	e := newEnv(t)

	_, err := e.features.Create(newFeature(""), "alice")
	require.Error(t, err)
	assert.True(t, types.IsValidation(err), "expected a validation error, got %v", err)

	res, err := e.features.List(ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
}

func TestCreateNeverReusesGapIDs(t *testing.T) {
	e := newEnv(t)
	for i := 0; i < 10; i++ {
		_, err := e.features.Create(newFeature("item"), "alice")
		require.NoError(t, err)
	}
	require.NoError(t, e.features.Delete("FEA-005"))

	created, err := e.features.Create(newFeature("item"), "alice")
	require.NoError(t, err)
	assert.Equal(t, "FEA-011", created.ID, "a retired non-maximal id must not be reused")
}

func TestRoundTripPersistsEveryField(t *testing.T) {
	e := newEnv(t)

	f := newFeature("Add login")
	f.Description = "OAuth2 + session cookie"
	f.Category = "auth"
	f.Tags = []string{"p0", "security"}
	f.Dependencies = []string{"FEA-000"}
	score := 87.5
	f.ComplianceScore = &score
	f.Extra = map[string]any{"ticket": "JIRA-42"}

	created, err := e.features.Create(f, "alice")
	require.NoError(t, err)

	// Bypass the cache with a second repository over the same files.
	fresh := NewFeatureRepository(e.docs, Config{Dir: "data/features", Clock: e.clock})
	got, found, err := fresh.GetByID(created.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, created.Description, got.Description)
	assert.Equal(t, created.Category, got.Category)
	assert.Equal(t, created.Tags, got.Tags)
	assert.Equal(t, created.Dependencies, got.Dependencies)
	require.NotNil(t, got.ComplianceScore)
	assert.Equal(t, score, *got.ComplianceScore)
	assert.Equal(t, "JIRA-42", got.Extra["ticket"])
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
}

func TestGetByIDMissingIsNotAnError(t *testing.T) {
	e := newEnv(t)
	item, found, err := e.features.GetByID("FEA-404")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, item)
}

func TestUpdateMergesAndAdvancesUpdatedAt(t *testing.T) {
	e := newEnv(t)
	created, err := e.features.Create(newFeature("Add login"), "alice")
	require.NoError(t, err)

	e.clock.Advance(time.Minute)
	updated, err := e.features.Update(created.ID, map[string]any{
		"status":      "in-progress",
		"description": "started",
	})
	require.NoError(t, err)

	assert.Equal(t, models.FeatureStatusInProgress, updated.Status)
	assert.Equal(t, "started", updated.Description)
	assert.Equal(t, created.Title, updated.Title, "unmentioned fields survive the merge")
	assert.True(t, updated.UpdatedAt.After(created.CreatedAt))
}

func TestUpdateKeepsUpdatedAtStrictlyIncreasingUnderFrozenClock(t *testing.T) {
	e := newEnv(t)
	created, err := e.features.Create(newFeature("Add login"), "alice")
	require.NoError(t, err)

	// No clock advance: the repository must still move updatedAt forward.
	updated, err := e.features.Update(created.ID, map[string]any{"status": "in-progress"})
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestUpdateReassertsImmutableFields(t *testing.T) {
	e := newEnv(t)
	created, err := e.features.Create(newFeature("Add login"), "alice")
	require.NoError(t, err)

	updated, err := e.features.Update(created.ID, map[string]any{
		"id":        "FEA-999",
		"kind":      "bug",
		"createdAt": "1999-01-01T00:00:00Z",
		"createdBy": "mallory",
		"status":    "in-progress",
	})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, models.KindFeature, updated.Kind)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	assert.Equal(t, "alice", updated.CreatedBy)
	assert.Equal(t, models.FeatureStatusInProgress, updated.Status)

	// The persisted document agrees, not just the returned value.
	fresh := NewFeatureRepository(e.docs, Config{Dir: "data/features", Clock: e.clock})
	got, found, err := fresh.GetByID(created.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "alice", got.CreatedBy)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
}

func TestUpdateMissingItemFails(t *testing.T) {
	e := newEnv(t)
	_, err := e.features.Update("FEA-404", map[string]any{"status": "in-progress"})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestUpdateValidationFailureDoesNotPersist(t *testing.T) {
	e := newEnv(t)
	created, err := e.features.Create(newFeature("Add login"), "alice")
	require.NoError(t, err)

	_, err = e.features.Update(created.ID, map[string]any{"status": "someday"})
	require.Error(t, err)
	assert.True(t, types.IsValidation(err))

	fresh := NewFeatureRepository(e.docs, Config{Dir: "data/features", Clock: e.clock})
	got, found, err := fresh.GetByID(created.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.FeatureStatusDraft, got.Status, "failed update must not land on disk")
}

func TestDeleteThenGetByID(t *testing.T) {
	e := newEnv(t)
	created, err := e.features.Create(newFeature("Add login"), "alice")
	require.NoError(t, err)

	require.NoError(t, e.features.Delete(created.ID))

	item, found, err := e.features.GetByID(created.ID)
	assert.NoError(t, err, "getting a deleted item is not an error")
	assert.False(t, found)
	assert.Nil(t, item)

	assert.ErrorIs(t, e.features.Delete(created.ID), types.ErrNotFound)
}

func TestUpdateStatusAndPhaseWrappers(t *testing.T) {
	e := newEnv(t)
	created, err := e.bugs.Create(newBug("Login 500s", models.SeverityHigh), "bob")
	require.NoError(t, err)

	updated, err := e.bugs.UpdateStatus(created.ID, "in-progress")
	require.NoError(t, err)
	assert.Equal(t, models.BugStatusInProgress, updated.Status)

	updated, err = e.bugs.UpdatePhase(created.ID, "fixing")
	require.NoError(t, err)
	assert.Equal(t, "fixing", updated.CurrentPhase)
}

func TestTagsAreASet(t *testing.T) {
	e := newEnv(t)
	created, err := e.features.Create(newFeature("Add login"), "alice")
	require.NoError(t, err)

	item, err := e.features.AddTag(created.ID, "auth")
	require.NoError(t, err)
	item, err = e.features.AddTag(created.ID, "p0")
	require.NoError(t, err)
	item, err = e.features.AddTag(created.ID, "auth") // duplicate
	require.NoError(t, err)
	assert.Equal(t, []string{"auth", "p0"}, item.Tags)

	item, err = e.features.RemoveTag(created.ID, "auth")
	require.NoError(t, err)
	assert.Equal(t, []string{"p0"}, item.Tags)
}

func TestCorruptFileSurfacesFromGetAndList(t *testing.T) {
	e := newEnv(t)
	_, err := e.features.Create(newFeature("Add login"), "alice")
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(e.docs.Fs(), "data/features/FEA-002.json", []byte("{broken"), 0o644))

	fresh := NewFeatureRepository(e.docs, Config{Dir: "data/features", Clock: e.clock})
	_, _, err = fresh.GetByID("FEA-002")
	assert.True(t, types.IsCorrupt(err), "GetByID should surface corruption, got %v", err)

	_, err = fresh.List(ListOptions{})
	assert.True(t, types.IsCorrupt(err), "List should surface corruption, got %v", err)
}

func TestConcurrentCreatesMintUniqueIDs(t *testing.T) {
	e := newEnv(t)
	const n = 8

	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := e.features.Create(newFeature("concurrent"), "alice")
			if err != nil {
				t.Errorf("create failed: %v", err)
				return
			}
			ids <- created.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], "id %s minted twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestStorageErrorsCarryItemContext(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, afero.WriteFile(e.docs.Fs(), "data/features/FEA-001.json", []byte("oops"), 0o644))

	_, _, err := e.features.GetByID("FEA-001")
	require.Error(t, err)
	var se *types.StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "FEA-001", se.ID)
}
