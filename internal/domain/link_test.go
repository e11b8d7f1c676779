package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSortLinks(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("newest first", func(t *testing.T) {
		links := []LinkRecord{
			{ID: "1", CreatedAt: base},
			{ID: "3", CreatedAt: base.Add(2 * time.Hour)},
			{ID: "2", CreatedAt: base.Add(time.Hour)},
		}

		SortLinks(links)

		assert.Equal(t, "3", links[0].ID)
		assert.Equal(t, "2", links[1].ID)
		assert.Equal(t, "1", links[2].ID)
	})

	t.Run("equal timestamps keep relative order", func(t *testing.T) {
		links := []LinkRecord{
			{ID: "a", CreatedAt: base},
			{ID: "b", CreatedAt: base},
		}

		SortLinks(links)

		assert.Equal(t, "a", links[0].ID)
		assert.Equal(t, "b", links[1].ID)
	})

	t.Run("empty sequence", func(t *testing.T) {
		var links []LinkRecord

		SortLinks(links)

		assert.Empty(t, links)
	})
}

func TestFindLink(t *testing.T) {
	links := []LinkRecord{{ID: "1"}, {ID: "2"}}

	assert.Equal(t, 1, FindLink(links, "2"))
	assert.Equal(t, -1, FindLink(links, "3"))
}
