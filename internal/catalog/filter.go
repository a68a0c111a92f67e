package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// AllCategories is the category selector that disables category filtering.
const AllCategories = "all"

// Filter returns the books matching both the search term and the category
// selector, in input order. A non-empty search keeps books whose title,
// author or ISBN contains it, ignoring case. A selector other than
// AllCategories keeps books whose category equals it exactly.
func Filter(books []Book, search, category string) []Book {
	term := strings.ToLower(search)
	out := books[:0:0]
	for _, b := range books {
		if term != "" && !b.matches(term) {
			continue
		}
		if category != AllCategories && b.Category != category {
			continue
		}
		out = append(out, b)
	}
	return out
}

func (b Book) matches(term string) bool {
	if strings.Contains(strings.ToLower(b.Title), term) {
		return true
	}
	if strings.Contains(strings.ToLower(b.Author), term) {
		return true
	}
	return b.ISBN != "" && strings.Contains(strings.ToLower(b.ISBN), term)
}

// FiltersActive reports whether the inputs narrow the catalog at all.
func FiltersActive(search, category string) bool {
	return search != "" || category != AllCategories
}

// CountLabel renders the result count readout.
func CountLabel(n int) string {
	if n == 1 {
		return "1 book found"
	}
	return fmt.Sprintf("%d books found", n)
}

// EmptyStateMessage is shown instead of an empty result list.
func EmptyStateMessage(search, category string) string {
	if FiltersActive(search, category) {
		return "Try adjusting your search or filters"
	}
	return "Get started by adding your first book"
}

func distinctCategories(books []Book) []string {
	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, b := range books {
		if b.Category == "" {
			continue
		}
		if _, ok := seen[b.Category]; ok {
			continue
		}
		seen[b.Category] = struct{}{}
		categories = append(categories, b.Category)
	}
	sort.Strings(categories)
	return categories
}
