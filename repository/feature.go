package repository

import (
	"fmt"

	"github.com/quarryhq/quarry/models"
	"github.com/quarryhq/quarry/store"
	"github.com/quarryhq/quarry/types"
)

// FeatureRepository is the typed repository over the features directory.
type FeatureRepository struct {
	*Repository[*models.Feature]
}

// NewFeatureRepository wires a feature repository over docs. cfg.Dir
// must point at the features directory; Prefix is forced to the kind's
// namespace.
func NewFeatureRepository(docs *store.DocumentStore, cfg Config) *FeatureRepository {
	cfg.Prefix = models.KindFeature.IDPrefix()
	return &FeatureRepository{
		Repository: New(docs, func() *models.Feature { return &models.Feature{} }, cfg),
	}
}

// FindByParent returns the features whose parentId equals parentID.
func (r *FeatureRepository) FindByParent(parentID string) ([]*models.Feature, error) {
	res, err := r.List(ListOptions{Filter: &Filter{
		Match: func(item models.Item) bool {
			return item.(*models.Feature).Parent() == parentID
		},
	}})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// Hierarchy is a feature with its resolved parent and direct children.
type Hierarchy struct {
	Item *models.Feature `json:"item"`
	// Parent is nil for root features and when the referenced parent no
	// longer resolves; a dangling parentId is not an error.
	Parent   *models.Feature   `json:"parent,omitempty"`
	Children []*models.Feature `json:"children"`
}

// GetHierarchy resolves a feature, its parent (if any), and all features
// whose parentId references it.
func (r *FeatureRepository) GetHierarchy(id string) (*Hierarchy, error) {
	item, found, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("hierarchy %s: %w", id, types.ErrNotFound)
	}

	h := &Hierarchy{Item: item, Children: []*models.Feature{}}

	if pid := item.Parent(); pid != "" {
		parent, ok, err := r.GetByID(pid)
		if err != nil {
			return nil, err
		}
		if ok {
			h.Parent = parent
		}
	}

	children, err := r.FindByParent(id)
	if err != nil {
		return nil, err
	}
	h.Children = children
	return h, nil
}
