package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarryhq/quarry/models"
	"github.com/quarryhq/quarry/types"
)

func TestGetHierarchy(t *testing.T) {
	e := newEnv(t)

	root, err := e.features.Create(newFeature("Auth epic"), "alice")
	require.NoError(t, err)

	childA := newFeature("Add login")
	childA.ParentID = &root.ID
	a, err := e.features.Create(childA, "alice")
	require.NoError(t, err)

	childB := newFeature("Add logout")
	childB.ParentID = &root.ID
	b, err := e.features.Create(childB, "alice")
	require.NoError(t, err)

	// Hierarchy of the root: no parent, two children.
	h, err := e.features.GetHierarchy(root.ID)
	require.NoError(t, err)
	assert.Nil(t, h.Parent)
	require.Len(t, h.Children, 2)
	got := map[string]bool{h.Children[0].ID: true, h.Children[1].ID: true}
	assert.True(t, got[a.ID] && got[b.ID])

	// Hierarchy of a child: parent resolved, no children.
	h, err = e.features.GetHierarchy(a.ID)
	require.NoError(t, err)
	require.NotNil(t, h.Parent)
	assert.Equal(t, root.ID, h.Parent.ID)
	assert.Empty(t, h.Children)
}

func TestGetHierarchyDanglingParentIsOmitted(t *testing.T) {
	e := newEnv(t)

	orphan := newFeature("Orphan")
	gone := "FEA-999"
	orphan.ParentID = &gone
	created, err := e.features.Create(orphan, "alice")
	require.NoError(t, err)

	h, err := e.features.GetHierarchy(created.ID)
	require.NoError(t, err, "a dangling parent reference is not a failure")
	assert.Nil(t, h.Parent)
}

func TestGetHierarchyMissingItemFails(t *testing.T) {
	e := newEnv(t)
	_, err := e.features.GetHierarchy("FEA-404")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestFindByParent(t *testing.T) {
	e := newEnv(t)

	root, err := e.features.Create(newFeature("Epic"), "alice")
	require.NoError(t, err)
	child := newFeature("Child")
	child.ParentID = &root.ID
	created, err := e.features.Create(child, "alice")
	require.NoError(t, err)
	_, err = e.features.Create(newFeature("Unrelated"), "alice")
	require.NoError(t, err)

	children, err := e.features.FindByParent(root.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, created.ID, children[0].ID)
}

func TestFindBySeverity(t *testing.T) {
	e := newEnv(t)
	_, err := e.bugs.Create(newBug("minor", models.SeverityLow), "bob")
	require.NoError(t, err)
	crit, err := e.bugs.Create(newBug("major", models.SeverityCritical), "bob")
	require.NoError(t, err)
	high, err := e.bugs.Create(newBug("bad", models.SeverityHigh), "bob")
	require.NoError(t, err)

	bugs, err := e.bugs.FindBySeverity("critical", "high")
	require.NoError(t, err)
	require.Len(t, bugs, 2)
	got := map[string]bool{bugs[0].ID: true, bugs[1].ID: true}
	assert.True(t, got[crit.ID] && got[high.ID])
}

func TestFindByFeature(t *testing.T) {
	e := newEnv(t)

	hits := newBug("crash in login", models.SeverityHigh)
	hits.AffectedFeatures = []string{"FEA-001", "FEA-002"}
	created, err := e.bugs.Create(hits, "bob")
	require.NoError(t, err)
	_, err = e.bugs.Create(newBug("unrelated", models.SeverityLow), "bob")
	require.NoError(t, err)

	bugs, err := e.bugs.FindByFeature("FEA-002")
	require.NoError(t, err)
	require.Len(t, bugs, 1)
	assert.Equal(t, created.ID, bugs[0].ID)

	bugs, err = e.bugs.FindByFeature("FEA-404")
	require.NoError(t, err)
	assert.Empty(t, bugs)
}
