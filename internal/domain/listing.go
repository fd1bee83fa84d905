package domain

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey selects a presentation order for wishlist listings.
type SortKey string

const (
	SortByName      SortKey = "name"
	SortByPriceAsc  SortKey = "price-asc"
	SortByPriceDesc SortKey = "price-desc"
	SortByRating    SortKey = "rating"
	SortByDateAdded SortKey = "dateAdded"
)

// CategoryAll disables category filtering.
const CategoryAll = "all"

// ParseSortKey maps a query value onto a SortKey. Empty input yields the
// default, newest first.
func ParseSortKey(s string) (SortKey, bool) {
	switch k := SortKey(strings.TrimSpace(s)); k {
	case "":
		return SortByDateAdded, true
	case SortByName, SortByPriceAsc, SortByPriceDesc, SortByRating, SortByDateAdded:
		return k, true
	default:
		return "", false
	}
}

// SortEntries returns a sorted copy of entries; the input is never reordered.
// Ties keep insertion order.
func SortEntries(entries []Entry, key SortKey) []Entry {
	out := slices.Clone(entries)

	switch key {
	case SortByName:
		col := collate.New(language.English)
		slices.SortStableFunc(out, func(a, b Entry) int {
			return col.CompareString(a.Name, b.Name)
		})
	case SortByPriceAsc:
		slices.SortStableFunc(out, func(a, b Entry) int {
			return a.Price.Cmp(b.Price.Decimal)
		})
	case SortByPriceDesc:
		slices.SortStableFunc(out, func(a, b Entry) int {
			return b.Price.Cmp(a.Price.Decimal)
		})
	case SortByRating:
		slices.SortStableFunc(out, func(a, b Entry) int {
			switch {
			case a.AverageRating > b.AverageRating:
				return -1
			case a.AverageRating < b.AverageRating:
				return 1
			}
			return 0
		})
	default:
		slices.SortStableFunc(out, func(a, b Entry) int {
			return b.DateAdded.Compare(a.DateAdded)
		})
	}
	return out
}

// FilterByCategory keeps entries whose category matches exactly. An empty
// category or "all" keeps everything.
func FilterByCategory(entries []Entry, category string) []Entry {
	if category == "" || category == CategoryAll {
		return slices.Clone(entries)
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

// Categories returns the distinct categories in first-seen order.
func Categories(entries []Entry) []string {
	seen := make(map[string]struct{}, len(entries))
	out := make([]string, 0)
	for _, e := range entries {
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		out = append(out, e.Category)
	}
	return out
}
