package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "library-ai-workers/internal/common/errors"
	"library-ai-workers/internal/common/logger"
	"library-ai-workers/internal/models"
)

// defaultPageSize is the index.max_result_window default.
const defaultPageSize = 10000

// ElasticBookStore reads books from a search index whose documents carry the
// same fields as models.Book.
type ElasticBookStore struct {
	client   *elasticsearch.Client
	index    string
	pageSize int
	logger   logger.Logger
}

func NewElasticBookStore(client *elasticsearch.Client, index string, log logger.Logger) *ElasticBookStore {
	return &ElasticBookStore{
		client:   client,
		index:    index,
		pageSize: defaultPageSize,
		logger:   logger.ForComponent(log, "elastic-book-store"),
	}
}

type searchHit struct {
	ID     string          `json:"_id"`
	Source json.RawMessage `json:"_source"`
	Sort   []interface{}   `json:"sort"`
}

type searchResponse struct {
	Hits struct {
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

type countResponse struct {
	Count int `json:"count"`
}

type errorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

func (s *ElasticBookStore) AllBooks(ctx context.Context) ([]models.Book, error) {
	return s.search(ctx, "all_books", map[string]interface{}{"match_all": map[string]interface{}{}})
}

func (s *ElasticBookStore) BooksByOwner(ctx context.Context, ownerID string) ([]models.Book, error) {
	return s.search(ctx, "books_by_owner", ownerFilter(ownerID))
}

func (s *ElasticBookStore) BooksByOwnerAndStatus(ctx context.Context, ownerID string, status models.ReadingStatus) ([]models.Book, error) {
	return s.search(ctx, "books_by_owner_and_status", ownerFilter(ownerID, map[string]interface{}{
		"term": map[string]interface{}{"readingStatus": int(status)},
	}))
}

func (s *ElasticBookStore) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	body, err := encodeBody(map[string]interface{}{"query": ownerFilter(ownerID)})
	if err != nil {
		return 0, apperrors.NewSearchQueryFailedError("count_by_owner", err)
	}

	req := esapi.CountRequest{
		Index: []string{s.index},
		Body:  body,
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return 0, apperrors.NewSearchQueryFailedError("count_by_owner", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, s.responseError("count_by_owner", res)
	}

	var out countResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, apperrors.NewSearchQueryFailedError("count_by_owner", fmt.Errorf("decode response: %w", err))
	}
	return out.Count, nil
}

// search pages through every match with search_after on the id sort, so result
// sets above the index result window are read in full.
func (s *ElasticBookStore) search(ctx context.Context, op string, query map[string]interface{}) ([]models.Book, error) {
	var (
		books       []models.Book
		searchAfter []interface{}
		pages       int
	)
	for {
		hits, err := s.searchPage(ctx, op, query, searchAfter)
		if err != nil {
			return nil, err
		}
		pages++

		for _, hit := range hits {
			var book models.Book
			if err := json.Unmarshal(hit.Source, &book); err != nil {
				return nil, apperrors.NewSearchQueryFailedError(op, fmt.Errorf("decode book %s: %w", hit.ID, err))
			}
			if book.ID == "" {
				book.ID = hit.ID
			}
			books = append(books, book)
		}

		if len(hits) < s.pageSize {
			break
		}
		last := hits[len(hits)-1]
		if len(last.Sort) == 0 {
			return nil, apperrors.NewSearchQueryFailedError(op, fmt.Errorf("hit %s has no sort values to page from", last.ID))
		}
		searchAfter = last.Sort
	}

	if books == nil {
		books = []models.Book{}
	}
	s.logger.Debug("books loaded", map[string]interface{}{
		"operation": op,
		"index":     s.index,
		"count":     len(books),
		"pages":     pages,
	})
	return books, nil
}

func (s *ElasticBookStore) searchPage(ctx context.Context, op string, query map[string]interface{}, searchAfter []interface{}) ([]searchHit, error) {
	req := map[string]interface{}{
		"query": query,
		"size":  s.pageSize,
		"sort":  []interface{}{map[string]interface{}{"id": "asc"}},
	}
	if len(searchAfter) > 0 {
		req["search_after"] = searchAfter
	}
	body, err := encodeBody(req)
	if err != nil {
		return nil, apperrors.NewSearchQueryFailedError(op, err)
	}

	search := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  body,
	}
	res, err := search.Do(ctx, s.client)
	if err != nil {
		return nil, apperrors.NewSearchQueryFailedError(op, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, s.responseError(op, res)
	}

	// Numbers stay json.Number so large sort values page back unchanged.
	dec := json.NewDecoder(res.Body)
	dec.UseNumber()

	var out searchResponse
	if err := dec.Decode(&out); err != nil {
		return nil, apperrors.NewSearchQueryFailedError(op, fmt.Errorf("decode response: %w", err))
	}
	return out.Hits.Hits, nil
}

func (s *ElasticBookStore) responseError(op string, res *esapi.Response) error {
	raw, _ := io.ReadAll(res.Body)

	var parsed errorResponse
	_ = json.Unmarshal(raw, &parsed)
	if res.StatusCode == http.StatusNotFound && parsed.Error.Type == "index_not_found_exception" {
		return apperrors.NewIndexNotFoundError(s.index)
	}

	reason := parsed.Error.Reason
	if reason == "" {
		reason = string(raw)
	}
	return apperrors.NewSearchQueryFailedError(op, fmt.Errorf("%s: %s", res.Status(), reason))
}

func ownerFilter(ownerID string, extra ...map[string]interface{}) map[string]interface{} {
	filters := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"userId": ownerID}},
	}
	for _, f := range extra {
		filters = append(filters, f)
	}
	return map[string]interface{}{
		"bool": map[string]interface{}{"filter": filters},
	}
}

func encodeBody(v interface{}) (io.Reader, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	return &buf, nil
}
