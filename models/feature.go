package models

import "strings"

// FeatureStatus represents the lifecycle states of a feature.
type FeatureStatus string

const (
	FeatureStatusDraft      FeatureStatus = "draft"
	FeatureStatusInProgress FeatureStatus = "in-progress"
	FeatureStatusInReview   FeatureStatus = "in-review"
	FeatureStatusCompleted  FeatureStatus = "completed"
	FeatureStatusBlocked    FeatureStatus = "blocked"
	FeatureStatusCancelled  FeatureStatus = "cancelled"
)

// Default workflow positions for a newly created feature.
const (
	featureInitialPhase = "planning"
	featureWorkflow     = "feature-development"
)

// Feature is a tracked unit of planned work.
type Feature struct {
	ItemCore
	Status          FeatureStatus `json:"status" validate:"required,oneof=draft in-progress in-review completed blocked cancelled"`
	Priority        Priority      `json:"priority" validate:"required,oneof=low medium high critical"`
	Complexity      Complexity    `json:"complexity" validate:"required,oneof=xs s m l xl"`
	Category        string        `json:"category,omitempty"`
	ParentID        *string       `json:"parentId,omitempty"`
	Dependencies    []string      `json:"dependencies"`
	RelatedBugs     []string      `json:"relatedBugs"`
	ComplianceScore *float64      `json:"complianceScore,omitempty" validate:"omitempty,min=0,max=100"`
}

func (f *Feature) Core() *ItemCore { return &f.ItemCore }

func (f *Feature) ItemKind() Kind { return KindFeature }

func (f *Feature) StatusValue() string { return string(f.Status) }

func (f *Feature) PriorityValue() string { return string(f.Priority) }

// SeverityValue is empty: severity is a bug-only attribute.
func (f *Feature) SeverityValue() string { return "" }

func (f *Feature) CategoryValue() string { return f.Category }

// SearchText concatenates the searchable fields, lowercased.
func (f *Feature) SearchText() string {
	parts := []string{f.Title, f.Description}
	parts = append(parts, f.Tags...)
	return strings.ToLower(strings.Join(parts, " "))
}

// ApplyDefaults fills initial status, workflow position, and empty
// containers on a feature about to be created.
func (f *Feature) ApplyDefaults() {
	if f.Status == "" {
		f.Status = FeatureStatusDraft
	}
	initCore(&f.ItemCore, KindFeature, featureInitialPhase, featureWorkflow)
	if f.Dependencies == nil {
		f.Dependencies = []string{}
	}
	if f.RelatedBugs == nil {
		f.RelatedBugs = []string{}
	}
}

// CloneItem deep-copies the feature.
func (f *Feature) CloneItem() Item {
	out := *f
	out.ItemCore = cloneCore(&f.ItemCore)
	if f.ParentID != nil {
		pid := *f.ParentID
		out.ParentID = &pid
	}
	if f.ComplianceScore != nil {
		score := *f.ComplianceScore
		out.ComplianceScore = &score
	}
	out.Dependencies = append([]string(nil), f.Dependencies...)
	out.RelatedBugs = append([]string(nil), f.RelatedBugs...)
	return &out
}

// Parent returns the parent id or "" when the feature is a root.
func (f *Feature) Parent() string {
	if f.ParentID == nil {
		return ""
	}
	return *f.ParentID
}
