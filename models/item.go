// Package models defines the work-item schema shared by the feature and
// bug repositories: the common item core, kind-specific payloads,
// enumerations, validation, and sequential id generation.
package models

import "time"

// Kind discriminates the two persisted work-item kinds.
type Kind string

const (
	KindFeature Kind = "feature"
	KindBug     Kind = "bug"
)

// IDPrefix returns the kind's id namespace prefix ("FEA" / "BUG").
func (k Kind) IDPrefix() string {
	switch k {
	case KindFeature:
		return "FEA"
	case KindBug:
		return "BUG"
	}
	return ""
}

// Priority represents the priority levels shared by features and bugs.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Severity represents bug severity levels.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRank orders severities for sorting; higher is more severe.
var severityRank = map[string]int{
	string(SeverityLow):      1,
	string(SeverityMedium):   2,
	string(SeverityHigh):     3,
	string(SeverityCritical): 4,
}

// SeverityRank returns the fixed sort rank for a severity value,
// 0 for anything unrecognized.
func SeverityRank(s string) int { return severityRank[s] }

// priorityRank mirrors severityRank for priority sorting.
var priorityRank = map[string]int{
	string(PriorityLow):      1,
	string(PriorityMedium):   2,
	string(PriorityHigh):     3,
	string(PriorityCritical): 4,
}

// PriorityRank returns the fixed sort rank for a priority value.
func PriorityRank(p string) int { return priorityRank[p] }

// Complexity is a t-shirt size estimate on features.
type Complexity string

const (
	ComplexityXS Complexity = "xs"
	ComplexityS  Complexity = "s"
	ComplexityM  Complexity = "m"
	ComplexityL  Complexity = "l"
	ComplexityXL Complexity = "xl"
)

// Progress tracks how far an item has moved through its workflow.
type Progress struct {
	PhasesCompleted     []string        `json:"phasesCompleted"`
	ChecklistPercentage int             `json:"checklistPercentage" validate:"min=0,max=100"`
	QualityGates        map[string]bool `json:"qualityGates"`
}

// Artifacts references work products attached to an item.
type Artifacts struct {
	Commits      []string `json:"commits"`
	PullRequests []string `json:"pullRequests"`
	Tests        []string `json:"tests"`
	Docs         []string `json:"docs"`
}

// ItemCore holds the attributes common to every work item. The id, kind,
// createdAt, and createdBy fields are immutable after creation; the
// repository re-asserts them on every update.
type ItemCore struct {
	ID           string         `json:"id" validate:"required"`
	Kind         Kind           `json:"kind" validate:"required,oneof=feature bug"`
	Title        string         `json:"title" validate:"required,min=1,max=255"`
	Description  string         `json:"description,omitempty"`
	CreatedAt    time.Time      `json:"createdAt" validate:"required"`
	UpdatedAt    time.Time      `json:"updatedAt" validate:"required"`
	CreatedBy    string         `json:"createdBy" validate:"required"`
	CurrentPhase string         `json:"currentPhase,omitempty"`
	Workflow     string         `json:"workflow,omitempty"`
	Tags         []string       `json:"tags"`
	Progress     Progress       `json:"progress"`
	Artifacts    Artifacts      `json:"artifacts"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// Item is the behavior shared by Feature and Bug that the generic
// repository and query engine work against.
type Item interface {
	// Core exposes the shared mutable base record.
	Core() *ItemCore
	// ItemKind returns the kind discriminator.
	ItemKind() Kind
	// SearchText returns the lowercased haystack for free-text search.
	SearchText() string
	// StatusValue, PriorityValue, SeverityValue, and CategoryValue expose
	// kind-specific fields to the query engine as plain strings; kinds
	// without a field return "".
	StatusValue() string
	PriorityValue() string
	SeverityValue() string
	CategoryValue() string
	// ApplyDefaults fills the kind's initial status, workflow position,
	// and empty containers on an item about to be created.
	ApplyDefaults()
	// CloneItem deep-copies the item so cache entries never alias
	// caller-visible values.
	CloneItem() Item
}

func cloneCore(c *ItemCore) ItemCore {
	out := *c
	out.Tags = append([]string(nil), c.Tags...)
	out.Progress.PhasesCompleted = append([]string(nil), c.Progress.PhasesCompleted...)
	if c.Progress.QualityGates != nil {
		out.Progress.QualityGates = make(map[string]bool, len(c.Progress.QualityGates))
		for k, v := range c.Progress.QualityGates {
			out.Progress.QualityGates[k] = v
		}
	}
	out.Artifacts.Commits = append([]string(nil), c.Artifacts.Commits...)
	out.Artifacts.PullRequests = append([]string(nil), c.Artifacts.PullRequests...)
	out.Artifacts.Tests = append([]string(nil), c.Artifacts.Tests...)
	out.Artifacts.Docs = append([]string(nil), c.Artifacts.Docs...)
	if c.Extra != nil {
		out.Extra = make(map[string]any, len(c.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// initCore fills the containers and bookkeeping fields a fresh item needs.
func initCore(c *ItemCore, kind Kind, phase, workflow string) {
	c.Kind = kind
	if c.CurrentPhase == "" {
		c.CurrentPhase = phase
	}
	if c.Workflow == "" {
		c.Workflow = workflow
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if c.Progress.PhasesCompleted == nil {
		c.Progress.PhasesCompleted = []string{}
	}
	if c.Progress.QualityGates == nil {
		c.Progress.QualityGates = map[string]bool{}
	}
	if c.Artifacts.Commits == nil {
		c.Artifacts.Commits = []string{}
	}
	if c.Artifacts.PullRequests == nil {
		c.Artifacts.PullRequests = []string{}
	}
	if c.Artifacts.Tests == nil {
		c.Artifacts.Tests = []string{}
	}
	if c.Artifacts.Docs == nil {
		c.Artifacts.Docs = []string{}
	}
}
