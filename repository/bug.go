package repository

import (
	"github.com/quarryhq/quarry/models"
	"github.com/quarryhq/quarry/store"
)

// BugRepository is the typed repository over the bugs directory.
type BugRepository struct {
	*Repository[*models.Bug]
}

// NewBugRepository wires a bug repository over docs. cfg.Dir must point
// at the bugs directory; Prefix is forced to the kind's namespace.
func NewBugRepository(docs *store.DocumentStore, cfg Config) *BugRepository {
	cfg.Prefix = models.KindBug.IDPrefix()
	return &BugRepository{
		Repository: New(docs, func() *models.Bug { return &models.Bug{} }, cfg),
	}
}

// FindBySeverity returns the bugs at any of the given severities.
func (r *BugRepository) FindBySeverity(severities ...string) ([]*models.Bug, error) {
	res, err := r.List(ListOptions{Filter: &Filter{Severities: severities}})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// FindByFeature returns the bugs listing featureID among their affected
// features.
func (r *BugRepository) FindByFeature(featureID string) ([]*models.Bug, error) {
	res, err := r.List(ListOptions{Filter: &Filter{
		Match: func(item models.Item) bool {
			return item.(*models.Bug).Affects(featureID)
		},
	}})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}
