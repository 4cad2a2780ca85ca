package aiquery

import (
	"sort"

	"github.com/shopspring/decimal"

	"library-ai-workers/internal/models"
)

type bookGroup[K comparable] struct {
	key   K
	books []models.Book
}

// groupBooks groups books by key, keeping groups in first-seen order.
func groupBooks[K comparable](books []models.Book, keyFn func(models.Book) K) []bookGroup[K] {
	index := make(map[K]int)
	var groups []bookGroup[K]
	for _, b := range books {
		k := keyFn(b)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, bookGroup[K]{key: k})
		}
		groups[i].books = append(groups[i].books, b)
	}
	return groups
}

// sortByCountDesc orders groups by count, highest first. Equal counts keep
// first-seen order.
func sortByCountDesc[K comparable](groups []bookGroup[K], count func(bookGroup[K]) int) {
	sort.SliceStable(groups, func(i, j int) bool {
		return count(groups[i]) > count(groups[j])
	})
}

// mostCommonGenre returns the genre with the most books; the first genre seen
// wins a tie.
func mostCommonGenre(books []models.Book) (string, bool) {
	groups := groupBooks(books, func(b models.Book) string { return b.Genre })
	if len(groups) == 0 {
		return "", false
	}
	best := groups[0]
	for _, g := range groups[1:] {
		if len(g.books) > len(best.books) {
			best = g
		}
	}
	return best.key, true
}

func averagePrice(books []models.Book) decimal.Decimal {
	if len(books) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, b := range books {
		sum = sum.Add(b.Price)
	}
	return sum.Div(decimal.NewFromInt(int64(len(books)))).RoundBank(2)
}

func maxPrice(books []models.Book) decimal.Decimal {
	if len(books) == 0 {
		return decimal.Zero
	}
	max := books[0].Price
	for _, b := range books[1:] {
		if b.Price.GreaterThan(max) {
			max = b.Price
		}
	}
	return max
}

func countStatus(books []models.Book, status models.ReadingStatus) int {
	n := 0
	for _, b := range books {
		if b.ReadingStatus == status {
			n++
		}
	}
	return n
}

func filterStatus(books []models.Book, status models.ReadingStatus) []models.Book {
	out := make([]models.Book, 0, len(books))
	for _, b := range books {
		if b.ReadingStatus == status {
			out = append(out, b)
		}
	}
	return out
}

// sortBooksByPriceDesc sorts in place; equal prices keep their input order.
func sortBooksByPriceDesc(books []models.Book) {
	sort.SliceStable(books, func(i, j int) bool {
		return books[i].Price.GreaterThan(books[j].Price)
	})
}

func decimalRatio(num, den int) decimal.Decimal {
	return decimal.NewFromInt(int64(num)).Div(decimal.NewFromInt(int64(den))).RoundBank(2)
}
