package pipeline

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/aluiziolira/go-books-dashboard/models"
)

func sampleRows() []models.BookRecord {
	return []models.BookRecord{
		{
			Title:         models.StringPtr("Test Book"),
			Authors:       "Jane Doe",
			PublishedDate: models.StringPtr("2020-02-02"),
			Categories:    "Computers",
			Ratings:       models.FloatPtr(4.5),
			PageCount:     models.IntPtr(321),
			Category:      "Data Science",
			PublishedYear: models.IntPtr(2020),
		},
		{
			Authors:    "Unknown",
			Categories: "None",
			Category:   "Data Science",
		},
	}
}

func TestCSVWriterWrite(t *testing.T) {
	var buf bytes.Buffer
	writer, err := NewCSVWriter(&buf)
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}
	if err := writer.Write(sampleRows()); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close csv: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records=%d, want 3", len(records))
	}
	if records[0][0] != "Title" || records[0][4] != "Ratings" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[1][4] != "4.5" || records[1][5] != "321" || records[1][7] != "2020" {
		t.Fatalf("unexpected first row: %v", records[1])
	}
	if records[2][0] != "" || records[2][4] != "" || records[2][7] != "" {
		t.Fatalf("nil values should be empty cells: %v", records[2])
	}
}

func TestJSONWriterWrite(t *testing.T) {
	var buf bytes.Buffer
	writer := NewJSONWriter(&buf)
	if err := writer.Write(sampleRows()); err != nil {
		t.Fatalf("write json: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close json: %v", err)
	}

	scanner := bufio.NewScanner(&buf)
	var lines []map[string]any
	for scanner.Scan() {
		var decoded map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid json line: %v", err)
		}
		lines = append(lines, decoded)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan json: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("json lines=%d, want 2", len(lines))
	}
	if lines[1]["ratings"] != nil || lines[1]["title"] != nil {
		t.Fatalf("nil values should encode as null: %v", lines[1])
	}
	if _, ok := lines[0]["RatingText"]; ok {
		t.Fatalf("raw rating text should not be exported")
	}
}

func TestNewWriterUnsupported(t *testing.T) {
	if _, err := NewWriter("xml", &bytes.Buffer{}); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}
