package repository

import (
	"sort"
	"strings"
	"time"

	"github.com/quarryhq/quarry/models"
)

// Filter selects items during a List scan. All set predicates are ANDed
// together. Array-valued predicates (Statuses, Severities, Priorities)
// match an item carrying ANY of the listed values; Tags matches only
// items carrying ALL listed tags. The asymmetry is deliberate: "any of
// these states" versus "labelled with this whole set".
type Filter struct {
	Statuses   []string
	Severities []string
	Priorities []string
	Tags       []string
	Category   string

	// Search is a lowercased substring match over the item's search
	// text (title, description, tags, and reproduction steps for bugs).
	// Not tokenized, not ranked.
	Search string

	// Timestamp bounds use simple before/after comparison; an item whose
	// timestamp equals the boundary passes.
	CreatedAfter  time.Time
	CreatedBefore time.Time
	UpdatedAfter  time.Time
	UpdatedBefore time.Time

	// Match is an optional extra predicate for kind-specific filters
	// (parent lookups, affected-feature lookups).
	Match func(models.Item) bool
}

func containsAny(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func (f *Filter) matches(item models.Item) bool {
	if f == nil {
		return true
	}
	core := item.Core()

	if len(f.Statuses) > 0 && !containsAny(f.Statuses, item.StatusValue()) {
		return false
	}
	if len(f.Severities) > 0 && !containsAny(f.Severities, item.SeverityValue()) {
		return false
	}
	if len(f.Priorities) > 0 && !containsAny(f.Priorities, item.PriorityValue()) {
		return false
	}
	for _, tag := range f.Tags {
		if !containsAny(core.Tags, tag) {
			return false
		}
	}
	if f.Category != "" && item.CategoryValue() != f.Category {
		return false
	}
	if f.Search != "" && !strings.Contains(item.SearchText(), strings.ToLower(f.Search)) {
		return false
	}
	if !f.CreatedAfter.IsZero() && core.CreatedAt.Before(f.CreatedAfter) {
		return false
	}
	if !f.CreatedBefore.IsZero() && core.CreatedAt.After(f.CreatedBefore) {
		return false
	}
	if !f.UpdatedAfter.IsZero() && core.UpdatedAt.Before(f.UpdatedAfter) {
		return false
	}
	if !f.UpdatedBefore.IsZero() && core.UpdatedAt.After(f.UpdatedBefore) {
		return false
	}
	if f.Match != nil && !f.Match(item) {
		return false
	}
	return true
}

// Sort orders a listing by a single field. The sort is stable: ties keep
// their pre-sort relative order.
type Sort struct {
	// Field is one of: id, title, status, priority, severity,
	// createdAt, updatedAt. Severity and priority sort by fixed rank
	// (critical > high > medium > low); title sorts case-insensitively;
	// the rest sort by natural order.
	Field string
	Desc  bool
}

func sortItems[T models.Item](items []T, s *Sort) {
	if s == nil || s.Field == "" {
		return
	}
	less := lessFunc[T](s.Field)
	if less == nil {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		if s.Desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

func lessFunc[T models.Item](field string) func(a, b T) bool {
	switch field {
	case "createdAt":
		return func(a, b T) bool { return a.Core().CreatedAt.Before(b.Core().CreatedAt) }
	case "updatedAt":
		return func(a, b T) bool { return a.Core().UpdatedAt.Before(b.Core().UpdatedAt) }
	case "title":
		return func(a, b T) bool {
			return strings.ToLower(a.Core().Title) < strings.ToLower(b.Core().Title)
		}
	case "severity":
		return func(a, b T) bool {
			return models.SeverityRank(a.SeverityValue()) < models.SeverityRank(b.SeverityValue())
		}
	case "priority":
		return func(a, b T) bool {
			return models.PriorityRank(a.PriorityValue()) < models.PriorityRank(b.PriorityValue())
		}
	case "status":
		return func(a, b T) bool { return a.StatusValue() < b.StatusValue() }
	case "id":
		return func(a, b T) bool { return a.Core().ID < b.Core().ID }
	}
	return nil
}

// Pagination slices a listing into 1-indexed pages.
type Pagination struct {
	Page     int
	PageSize int
}

// ListResult carries one page of a listing. Total is the post-filter,
// pre-pagination count; TotalPages is ceil(Total/PageSize). A listing
// without pagination comes back as a single page sized to Total.
type ListResult[T models.Item] struct {
	Items      []T
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

func paginate[T models.Item](items []T, p *Pagination) ListResult[T] {
	total := len(items)
	if p == nil || p.PageSize <= 0 {
		pages := 0
		if total > 0 {
			pages = 1
		}
		return ListResult[T]{Items: items, Total: total, Page: 1, PageSize: total, TotalPages: pages}
	}
	page := p.Page
	if page < 1 {
		page = 1
	}
	totalPages := (total + p.PageSize - 1) / p.PageSize
	start := (page - 1) * p.PageSize
	if start > total {
		start = total
	}
	end := start + p.PageSize
	if end > total {
		end = total
	}
	return ListResult[T]{
		Items:      items[start:end],
		Total:      total,
		Page:       page,
		PageSize:   p.PageSize,
		TotalPages: totalPages,
	}
}
