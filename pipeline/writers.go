package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/aluiziolira/go-books-dashboard/models"
)

// OutputWriter streams dataset rows in an export format.
type OutputWriter interface {
	Write(books []models.BookRecord) error
	Close() error
}

// CSVWriter writes rows as CSV with a header row.
type CSVWriter struct {
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter writes the header row to w.
func NewCSVWriter(w io.Writer) (*CSVWriter, error) {
	writer := csv.NewWriter(w)
	if err := writer.Write(models.Columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv header: %w", err)
	}
	return &CSVWriter{writer: writer}, nil
}

// Write appends rows; nil values are written as empty cells.
func (cw *CSVWriter) Write(books []models.BookRecord) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for i := range books {
		if err := cw.writer.Write(Record(&books[i])); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes buffered output.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return nil
}

// JSONWriter writes newline-delimited JSON records.
type JSONWriter struct {
	writer  *bufio.Writer
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONWriter wraps w in a buffered JSONL encoder.
func NewJSONWriter(w io.Writer) *JSONWriter {
	buffer := bufio.NewWriter(w)
	return &JSONWriter{
		writer:  buffer,
		encoder: json.NewEncoder(buffer),
	}
}

// Write appends rows in JSONL format; nil values are encoded as null.
func (jw *JSONWriter) Write(books []models.BookRecord) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	for i := range books {
		if err := jw.encoder.Encode(&books[i]); err != nil {
			return fmt.Errorf("encode json record: %w", err)
		}
	}

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return nil
}

// Close flushes buffered output.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return nil
}

// NewWriter returns the writer for format ("csv" or "jsonl").
func NewWriter(format string, w io.Writer) (OutputWriter, error) {
	switch format {
	case "csv":
		return NewCSVWriter(w)
	case "jsonl", "json":
		return NewJSONWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Record formats book as text cells in models.Columns order; nil values
// become empty strings.
func Record(book *models.BookRecord) []string {
	return []string{
		optString(book.Title),
		book.Authors,
		optString(book.PublishedDate),
		book.Categories,
		optFloat(book.Ratings),
		optInt(book.PageCount),
		book.Category,
		optInt(book.PublishedYear),
	}
}

func optString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func optInt(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}
