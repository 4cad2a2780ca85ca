package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ReadingStatus is stored as an integer in both backends.
type ReadingStatus int

const (
	ReadingStatusNotStarted ReadingStatus = iota
	ReadingStatusReading
	ReadingStatusCompleted
)

var readingStatusNames = map[ReadingStatus]string{
	ReadingStatusNotStarted: "NotStarted",
	ReadingStatusReading:    "Reading",
	ReadingStatusCompleted:  "Completed",
}

func (s ReadingStatus) String() string {
	if name, ok := readingStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ReadingStatus(%d)", int(s))
}

func (s ReadingStatus) Valid() bool {
	_, ok := readingStatusNames[s]
	return ok
}

// ParseReadingStatus accepts a status name in any case ("reading", "NOTSTARTED")
// or its integer value.
func ParseReadingStatus(raw string) (ReadingStatus, error) {
	trimmed := strings.TrimSpace(raw)
	for status, name := range readingStatusNames {
		if strings.EqualFold(name, trimmed) {
			return status, nil
		}
	}
	if n, err := strconv.Atoi(trimmed); err == nil && ReadingStatus(n).Valid() {
		return ReadingStatus(n), nil
	}
	return 0, fmt.Errorf("unknown reading status %q", raw)
}

func (s ReadingStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *ReadingStatus) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		if !ReadingStatus(n).Valid() {
			return fmt.Errorf("unknown reading status %d", n)
		}
		*s = ReadingStatus(n)
		return nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("reading status must be a string or number: %w", err)
	}
	parsed, err := ParseReadingStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Book is the read-only view of a book record.
type Book struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Author          string          `json:"author"`
	Genre           string          `json:"genre"`
	Price           decimal.Decimal `json:"price"`
	ReadingStatus   ReadingStatus   `json:"readingStatus"`
	OwnerID         string          `json:"userId"`
	PublicationYear *int            `json:"publicationYear,omitempty"`
	Rating          *int            `json:"rating,omitempty"`
}
