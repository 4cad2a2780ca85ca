package aiquery

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"library-ai-workers/internal/models"
)

type fakeBookStore struct {
	mu          sync.Mutex
	books       []models.Book
	err         error
	allCalls    int
	ownerCalls  int
	statusCalls int
	countCalls  int
}

func (f *fakeBookStore) AllBooks(ctx context.Context) ([]models.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allCalls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.Book(nil), f.books...), nil
}

func (f *fakeBookStore) BooksByOwner(ctx context.Context, ownerID string) ([]models.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ownerCalls++
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Book
	for _, b := range f.books {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookStore) BooksByOwnerAndStatus(ctx context.Context, ownerID string, status models.ReadingStatus) ([]models.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Book
	for _, b := range f.books {
		if b.OwnerID == ownerID && b.ReadingStatus == status {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookStore) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countCalls++
	if f.err != nil {
		return 0, f.err
	}
	n := 0
	for _, b := range f.books {
		if b.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (f *fakeBookStore) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.allCalls + f.ownerCalls + f.statusCalls + f.countCalls
}

type fakeUsers struct {
	names map[string]string
	err   error
}

func (f *fakeUsers) DisplayName(ctx context.Context, userID string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	name, ok := f.names[userID]
	return name, ok, nil
}

type fakeLLM struct {
	mu            sync.Mutex
	classifyOut   string
	classifyErr   error
	answerOut     string
	answerErr     error
	classifyCalls int
	answerCalls   int
	lastContext   string
	lastData      string
}

func (f *fakeLLM) ClassifyIntent(ctx context.Context, query, contextDescription string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.classifyCalls++
	f.lastContext = contextDescription
	return f.classifyOut, f.classifyErr
}

func (f *fakeLLM) GenerateAnswer(ctx context.Context, query, serializedData string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answerCalls++
	f.lastData = serializedData
	return f.answerOut, f.answerErr
}

func book(id, owner, title, author, genre, price string, status models.ReadingStatus) models.Book {
	return models.Book{
		ID:            id,
		OwnerID:       owner,
		Title:         title,
		Author:        author,
		Genre:         genre,
		Price:         decimal.RequireFromString(price),
		ReadingStatus: status,
	}
}

func intPtr(i int) *int { return &i }

func strPtr(s string) *string { return &s }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
