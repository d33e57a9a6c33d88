package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"technofest/internal/model"
)

func sampleEvents() []model.Event {
	return []model.Event{
		{ID: "1", Title: "AI Hackathon", Description: "Build with models", Category: "technical"},
		{ID: "2", Title: "Dance Night", Description: "Open floor", Category: "cultural"},
		{ID: "3", Title: "Robo Wars", Description: "Hack your bot", Category: "technical"},
		{ID: "4", Title: "Chess", Description: "", Category: "sports"},
		{ID: "5", Title: "Poetry Slam", Description: "Spoken word", Category: "Cultural"},
	}
}

func TestFilter_IdentityQueryKeepsEverything(t *testing.T) {
	events := sampleEvents()

	res := Filter(events, NewQuery("", ""))

	assert.Equal(t, events, res.Events)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, len(events), res.Count)
}

func TestFilter_SubsetInOriginalOrder(t *testing.T) {
	tests := []struct {
		name     string
		term     string
		category string
		want     []string
	}{
		{"term in title", "hack", "", []string{"1", "3"}},
		{"term is case-insensitive", "  DANCE ", "", []string{"2"}},
		{"term in description", "spoken", "", []string{"5"}},
		{"term in category", "cultur", "", []string{"2", "5"}},
		{"category exact", "", "technical", []string{"1", "3"}},
		{"category is case-sensitive", "", "cultural", []string{"2"}},
		{"term and category", "hack", "technical", []string{"1", "3"}},
		{"term excluded by category", "dance", "technical", []string{}},
	}

	events := sampleEvents()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQuery(tt.term, tt.category)
			res := Filter(events, q)

			got := make([]string, 0, len(res.Events))
			for _, e := range res.Events {
				got = append(got, e.ID)
				assert.True(t, Matches(e, q))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilter_ExcludedEventsFailPredicate(t *testing.T) {
	events := sampleEvents()
	q := NewQuery("hack", "all")
	res := Filter(events, q)

	kept := map[string]bool{}
	for _, e := range res.Events {
		kept[e.ID] = true
	}
	for _, e := range events {
		if !kept[e.ID] {
			assert.False(t, Matches(e, q), e.ID)
		}
	}
}

func TestFilter_Idempotent(t *testing.T) {
	q := NewQuery("o", "all")
	once := Filter(sampleEvents(), q)
	twice := Filter(once.Events, q)

	assert.Equal(t, once.Events, twice.Events)
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	events := sampleEvents()
	before := append([]model.Event(nil), events...)

	Filter(events, NewQuery("dance", "cultural"))

	assert.Equal(t, before, events)
}

func TestFilter_EmptyVersusNoMatches(t *testing.T) {
	empty := Filter(nil, NewQuery("anything", ""))
	assert.Equal(t, StatusEmpty, empty.Status)
	assert.Equal(t, MessageEmpty, empty.Message)
	assert.Empty(t, empty.Events)

	none := Filter(sampleEvents(), NewQuery("zzz", ""))
	assert.Equal(t, StatusNoMatches, none.Status)
	assert.Equal(t, MessageNoMatches, none.Message)
	assert.Equal(t, 5, none.Total)
}

func TestNewQuery_Normalizes(t *testing.T) {
	q := NewQuery("  Robo WARS ", "")
	assert.Equal(t, "robo wars", q.Term)
	assert.Equal(t, CategoryAll, q.Category)
}
