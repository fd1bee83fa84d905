package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func sampleEntries() []Entry {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return []Entry{
		{ID: "1", Name: "headphones", Price: NewPrice("299.99"), Category: "electronics", AverageRating: 4.1, DateAdded: base},
		{ID: "2", Name: "Armchair", Price: NewPrice("199.99"), Category: "furniture", AverageRating: 4.8, DateAdded: base.Add(time.Minute)},
		{ID: "3", Name: "Camera", Price: NewPrice("349.99"), Category: "electronics", AverageRating: 3.9, DateAdded: base.Add(2 * time.Minute)},
	}
}

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		in   string
		want SortKey
		ok   bool
	}{
		{"", SortByDateAdded, true},
		{"name", SortByName, true},
		{"price-asc", SortByPriceAsc, true},
		{"price-desc", SortByPriceDesc, true},
		{"rating", SortByRating, true},
		{"dateAdded", SortByDateAdded, true},
		{"popularity", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseSortKey(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestSortEntries(t *testing.T) {
	tests := []struct {
		key  SortKey
		want []string
	}{
		{SortByName, []string{"2", "3", "1"}},
		{SortByPriceAsc, []string{"2", "1", "3"}},
		{SortByPriceDesc, []string{"3", "1", "2"}},
		{SortByRating, []string{"2", "1", "3"}},
		{SortByDateAdded, []string{"3", "2", "1"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			assert.Equal(t, tt.want, ids(SortEntries(sampleEntries(), tt.key)))
		})
	}
}

func TestSortEntries_DoesNotReorderInput(t *testing.T) {
	entries := sampleEntries()
	sorted := SortEntries(entries, SortByPriceDesc)

	prices := make([]string, len(sorted))
	for i, e := range sorted {
		prices[i] = e.Price.String()
	}
	assert.Equal(t, []string{"349.99", "299.99", "199.99"}, prices)
	assert.Equal(t, []string{"1", "2", "3"}, ids(entries))
}

func TestSortEntries_StableOnTies(t *testing.T) {
	entries := []Entry{
		{ID: "a", AverageRating: 4},
		{ID: "b", AverageRating: 5},
		{ID: "c", AverageRating: 4},
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids(SortEntries(entries, SortByRating)))
}

func TestFilterByCategory(t *testing.T) {
	entries := sampleEntries()

	assert.Equal(t, []string{"1", "3"}, ids(FilterByCategory(entries, "electronics")))
	assert.Equal(t, []string{"1", "2", "3"}, ids(FilterByCategory(entries, CategoryAll)))
	assert.Equal(t, []string{"1", "2", "3"}, ids(FilterByCategory(entries, "")))
	assert.Empty(t, FilterByCategory(entries, "Electronics"))
}

func TestCategories_FirstSeenOrder(t *testing.T) {
	assert.Equal(t, []string{"electronics", "furniture"}, Categories(sampleEntries()))
	assert.Equal(t, []string{}, Categories(nil))
}
