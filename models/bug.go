package models

import "strings"

// BugStatus represents the lifecycle states of a bug.
type BugStatus string

const (
	BugStatusOpen       BugStatus = "open"
	BugStatusInProgress BugStatus = "in-progress"
	BugStatusResolved   BugStatus = "resolved"
	BugStatusClosed     BugStatus = "closed"
	BugStatusWontFix    BugStatus = "wont-fix"
)

// Reproducibility describes how reliably a bug can be triggered.
type Reproducibility string

const (
	ReproducibilityAlways    Reproducibility = "always"
	ReproducibilitySometimes Reproducibility = "sometimes"
	ReproducibilityRarely    Reproducibility = "rarely"
	ReproducibilityOnce      Reproducibility = "once"
	ReproducibilityUnknown   Reproducibility = "unknown"
)

// Default workflow positions for a newly created bug.
const (
	bugInitialPhase = "triage"
	bugWorkflow     = "bug-fix"
)

// Bug is a tracked defect report.
type Bug struct {
	ItemCore
	Status           BugStatus       `json:"status" validate:"required,oneof=open in-progress resolved closed wont-fix"`
	Severity         Severity        `json:"severity" validate:"required,oneof=low medium high critical"`
	Priority         Priority        `json:"priority" validate:"required,oneof=low medium high critical"`
	Category         string          `json:"category,omitempty"`
	Environment      string          `json:"environment,omitempty"`
	Reproducibility  Reproducibility `json:"reproducibility,omitempty" validate:"omitempty,oneof=always sometimes rarely once unknown"`
	StepsToReproduce []string        `json:"stepsToReproduce"`
	AffectedFeatures []string        `json:"affectedFeatures"`
	RelatedBugs      []string        `json:"relatedBugs"`
	RootCause        string          `json:"rootCause,omitempty"`
	Resolution       string          `json:"resolution,omitempty"`
}

func (b *Bug) Core() *ItemCore { return &b.ItemCore }

func (b *Bug) ItemKind() Kind { return KindBug }

func (b *Bug) StatusValue() string { return string(b.Status) }

func (b *Bug) PriorityValue() string { return string(b.Priority) }

func (b *Bug) SeverityValue() string { return string(b.Severity) }

func (b *Bug) CategoryValue() string { return b.Category }

// SearchText concatenates the searchable fields, lowercased. Bugs also
// expose their reproduction steps to free-text search.
func (b *Bug) SearchText() string {
	parts := []string{b.Title, b.Description}
	parts = append(parts, b.Tags...)
	parts = append(parts, b.StepsToReproduce...)
	return strings.ToLower(strings.Join(parts, " "))
}

// ApplyDefaults fills initial status, workflow position, and empty
// containers on a bug about to be created.
func (b *Bug) ApplyDefaults() {
	if b.Status == "" {
		b.Status = BugStatusOpen
	}
	initCore(&b.ItemCore, KindBug, bugInitialPhase, bugWorkflow)
	if b.StepsToReproduce == nil {
		b.StepsToReproduce = []string{}
	}
	if b.AffectedFeatures == nil {
		b.AffectedFeatures = []string{}
	}
	if b.RelatedBugs == nil {
		b.RelatedBugs = []string{}
	}
}

// CloneItem deep-copies the bug.
func (b *Bug) CloneItem() Item {
	out := *b
	out.ItemCore = cloneCore(&b.ItemCore)
	out.StepsToReproduce = append([]string(nil), b.StepsToReproduce...)
	out.AffectedFeatures = append([]string(nil), b.AffectedFeatures...)
	out.RelatedBugs = append([]string(nil), b.RelatedBugs...)
	return &out
}

// Affects reports whether the bug lists the given feature id.
func (b *Bug) Affects(featureID string) bool {
	for _, id := range b.AffectedFeatures {
		if id == featureID {
			return true
		}
	}
	return false
}
