// Package catalog filters the mirrored events by search term and category.
package catalog

import (
	"strings"

	"technofest/internal/model"
)

// CategoryAll disables the category filter.
const CategoryAll = "all"

// Status tells an empty catalogue apart from a search that matched nothing.
type Status string

const (
	StatusOK        Status = "ok"
	StatusEmpty     Status = "empty"
	StatusNoMatches Status = "no_matches"
)

// Messages shown for the non-OK statuses.
const (
	MessageEmpty       = "No Events Yet"
	MessageNoMatches   = "No Events Match Your Search"
	MessageNoMatchHint = "Try adjusting your search or filter criteria."
)

// Query is a normalized search term plus a category selector.
type Query struct {
	Term     string `json:"term"`
	Category string `json:"category"`
}

// NewQuery lower-cases and trims term. An empty category means all.
func NewQuery(term, category string) Query {
	return Query{Term: NormalizeTerm(term), Category: normalizeCategory(category)}
}

// NormalizeTerm prepares raw search input for matching.
func NormalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

func normalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return CategoryAll
	}
	return category
}

// Matches reports whether e passes both the term and the category filter.
// The term is matched case-insensitively against title, description and
// category; the category must match exactly.
func Matches(e model.Event, q Query) bool {
	return matchesTerm(e, q.Term) && matchesCategory(e, q.Category)
}

func matchesTerm(e model.Event, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Title), term) ||
		strings.Contains(strings.ToLower(e.Description), term) ||
		strings.Contains(strings.ToLower(e.Category), term)
}

func matchesCategory(e model.Event, category string) bool {
	return category == "" || category == CategoryAll || e.Category == category
}

// Result is one recompute of the visible list.
type Result struct {
	Events  []model.Event `json:"events"`
	Count   int           `json:"count"`
	Total   int           `json:"total"`
	Status  Status        `json:"status"`
	Message string        `json:"message,omitempty"`
	Hint    string        `json:"hint,omitempty"`
	Query   Query         `json:"query"`
}

// Filter returns the events matching q in their original order. It does not
// modify events.
func Filter(events []model.Event, q Query) Result {
	matched := make([]model.Event, 0, len(events))
	for _, e := range events {
		if Matches(e, q) {
			matched = append(matched, e)
		}
	}

	res := Result{
		Events: matched,
		Count:  len(matched),
		Total:  len(events),
		Status: StatusOK,
		Query:  q,
	}
	switch {
	case len(events) == 0:
		res.Status = StatusEmpty
		res.Message = MessageEmpty
	case len(matched) == 0:
		res.Status = StatusNoMatches
		res.Message = MessageNoMatches
		res.Hint = MessageNoMatchHint
	}
	return res
}
