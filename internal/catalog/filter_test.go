package catalog_test

import (
	"strconv"
	"strings"
	"testing"

	"librarymanager/internal/catalog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

var testCategories = []string{"", "Fiction", "Romance", "Science", "fiction"}

func genBook() *rapid.Generator[catalog.Book] {
	return rapid.Custom(func(t *rapid.T) catalog.Book {
		return catalog.Book{
			Title:    rapid.StringMatching(`[A-Za-z ]{0,12}`).Draw(t, "title"),
			Author:   rapid.StringMatching(`[A-Za-z ]{0,12}`).Draw(t, "author"),
			ISBN:     rapid.StringMatching(`[0-9X-]{0,6}`).Draw(t, "isbn"),
			Category: rapid.SampledFrom(testCategories).Draw(t, "category"),
			Quantity: rapid.IntRange(1, 10).Draw(t, "quantity"),
		}
	})
}

// drawBooks draws a catalog whose IDs are unique and derived from position.
func drawBooks(t *rapid.T) []catalog.Book {
	books := rapid.SliceOf(genBook()).Draw(t, "books")
	for i := range books {
		books[i].ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(strconv.Itoa(i)))
	}
	return books
}

func genSelector() *rapid.Generator[string] {
	return rapid.SampledFrom(append([]string{catalog.AllCategories}, testCategories[1:]...))
}

func matches(b catalog.Book, search string) bool {
	term := strings.ToLower(search)
	return strings.Contains(strings.ToLower(b.Title), term) ||
		strings.Contains(strings.ToLower(b.Author), term) ||
		(b.ISBN != "" && strings.Contains(strings.ToLower(b.ISBN), term))
}

func TestFilter_KeepsExactlyMatchingBooks(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		books := drawBooks(t)
		search := rapid.StringMatching(`[A-Za-z0-9]{0,3}`).Draw(t, "search")
		category := genSelector().Draw(t, "category")

		got := catalog.Filter(books, search, category)

		kept := make(map[uuid.UUID]bool, len(got))
		for _, b := range got {
			kept[b.ID] = true
		}
		for _, b := range books {
			want := (search == "" || matches(b, search)) &&
				(category == catalog.AllCategories || b.Category == category)
			if kept[b.ID] != want {
				t.Fatalf("book %+v kept=%v want=%v (search=%q category=%q)", b, kept[b.ID], want, search, category)
			}
		}
	})
}

func TestFilter_PreservesOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		books := drawBooks(t)
		search := rapid.StringMatching(`[a-z]{0,2}`).Draw(t, "search")

		got := catalog.Filter(books, search, catalog.AllCategories)

		i := 0
		for _, b := range books {
			if i < len(got) && got[i].ID == b.ID {
				i++
			}
		}
		if i != len(got) {
			t.Fatalf("filter reordered books")
		}
	})
}

func TestFilter_CategoryIsExact(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		books := drawBooks(t)
		category := rapid.SampledFrom(testCategories[1:]).Draw(t, "category")

		for _, b := range catalog.Filter(books, "", category) {
			if b.Category != category {
				t.Fatalf("got category %q for selector %q", b.Category, category)
			}
		}
	})
}

func TestFilter_IdentityWithoutFilters(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		books := drawBooks(t)

		got := catalog.Filter(books, "", catalog.AllCategories)
		if len(got) != len(books) {
			t.Fatalf("got %d books, want %d", len(got), len(books))
		}
		for i := range books {
			if got[i] != books[i] {
				t.Fatalf("book %d changed", i)
			}
		}
	})
}

func TestFilter_Idempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		books := drawBooks(t)
		search := rapid.StringMatching(`[A-Za-z]{0,2}`).Draw(t, "search")
		category := genSelector().Draw(t, "category")

		once := catalog.Filter(books, search, category)
		twice := catalog.Filter(once, search, category)
		if len(once) != len(twice) {
			t.Fatalf("second pass changed the result: %d vs %d", len(once), len(twice))
		}
		for i := range once {
			if once[i] != twice[i] {
				t.Fatalf("second pass changed book %d", i)
			}
		}
	})
}

func TestFilter_DoesNotModifyInput(t *testing.T) {
	books := []catalog.Book{
		{ID: uuid.New(), Title: "Dune", Author: "Frank Herbert", Category: "Science Fiction"},
		{ID: uuid.New(), Title: "Emma", Author: "Jane Austen", Category: "Romance"},
	}
	before := append([]catalog.Book(nil), books...)

	catalog.Filter(books, "emma", catalog.AllCategories)

	assert.Equal(t, before, books)
}

func TestFilter_SearchAndCategoryScenario(t *testing.T) {
	dune := catalog.Book{ID: uuid.New(), Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593", Category: "Science Fiction"}
	emma := catalog.Book{ID: uuid.New(), Title: "Emma", Author: "Jane Austen", Category: "Romance"}
	books := []catalog.Book{dune, emma}

	tests := []struct {
		name     string
		search   string
		category string
		want     []catalog.Book
	}{
		{"everything", "", catalog.AllCategories, books},
		{"author case-insensitive", "AUSTEN", catalog.AllCategories, []catalog.Book{emma}},
		{"isbn fragment", "04410", catalog.AllCategories, []catalog.Book{dune}},
		{"category only", "", "Romance", []catalog.Book{emma}},
		{"category is case-sensitive", "", "romance", nil},
		{"search and category disagree", "dune", "Romance", nil},
		{"no match", "tolkien", catalog.AllCategories, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := catalog.Filter(books, tt.search, tt.category)
			if tt.want == nil {
				assert.Empty(t, got)
				assert.Equal(t, "0 books found", catalog.CountLabel(len(got)))
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilter_EmptyISBNNeverMatches(t *testing.T) {
	books := []catalog.Book{{ID: uuid.New(), Title: "Emma", Author: "Jane Austen"}}

	assert.Empty(t, catalog.Filter(books, "978", catalog.AllCategories))
}

func TestCountLabel(t *testing.T) {
	assert.Equal(t, "0 books found", catalog.CountLabel(0))
	assert.Equal(t, "1 book found", catalog.CountLabel(1))
	assert.Equal(t, "2 books found", catalog.CountLabel(2))
}

func TestEmptyStateMessage(t *testing.T) {
	assert.Equal(t, "Get started by adding your first book", catalog.EmptyStateMessage("", catalog.AllCategories))
	assert.Equal(t, "Try adjusting your search or filters", catalog.EmptyStateMessage("dune", catalog.AllCategories))
	assert.Equal(t, "Try adjusting your search or filters", catalog.EmptyStateMessage("", "Fiction"))
}
