package parser

import (
	"testing"

	"github.com/aluiziolira/go-books-dashboard/models"
)

func TestParseYear(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   int
		wantOK bool
	}{
		{name: "year only", input: "2019", want: 2019, wantOK: true},
		{name: "year and month", input: "2019-05", want: 2019, wantOK: true},
		{name: "full date", input: "2019-05-12", want: 2019, wantOK: true},
		{name: "timestamp", input: "2020-01-02T10:00:00Z", want: 2020, wantOK: true},
		{name: "surrounding whitespace", input: "  2001  ", want: 2001, wantOK: true},
		{name: "empty", input: "", wantOK: false},
		{name: "garbage", input: "sometime in 2019", wantOK: false},
		{name: "approximate year", input: "2019*", wantOK: false},
		{name: "invalid month", input: "2019-13", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseYear(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseYear(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Fatalf("ParseYear(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{name: "integer", input: "4", want: 4, wantOK: true},
		{name: "decimal", input: "3.5", want: 3.5, wantOK: true},
		{name: "whitespace", input: " 4.5 ", want: 4.5, wantOK: true},
		{name: "word", input: "Five", wantOK: false},
		{name: "nan", input: "NaN", wantOK: false},
		{name: "inf", input: "Inf", wantOK: false},
		{name: "empty", input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRating(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseRating(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Fatalf("ParseRating(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParsePageCount(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   int
		wantOK bool
	}{
		{name: "integer", input: "320", want: 320, wantOK: true},
		{name: "integral float", input: "320.0", want: 320, wantOK: true},
		{name: "zero", input: "0", want: 0, wantOK: true},
		{name: "fractional", input: "320.5", wantOK: false},
		{name: "text", input: "many", wantOK: false},
		{name: "empty", input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePageCount(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParsePageCount(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Fatalf("ParsePageCount(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanNullability(t *testing.T) {
	tests := []struct {
		name       string
		record     models.BookRecord
		wantYear   *int
		wantRating *float64
		wantPages  *int
		wantIssues int
	}{
		{
			name: "all present",
			record: models.BookRecord{
				PublishedDate: models.StringPtr("2018-07-01"),
				RatingText:    "4.5",
				PageCountText: "412",
			},
			wantYear:   models.IntPtr(2018),
			wantRating: models.FloatPtr(4.5),
			wantPages:  models.IntPtr(412),
		},
		{
			name:   "all absent",
			record: models.BookRecord{},
		},
		{
			name: "all unparsable",
			record: models.BookRecord{
				PublishedDate: models.StringPtr("unknown"),
				RatingText:    "good",
				PageCountText: "lots",
			},
			wantIssues: 3,
		},
		{
			name: "date present but empty",
			record: models.BookRecord{
				PublishedDate: models.StringPtr(""),
			},
			wantIssues: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := tt.record
			issues := Clean(&record)
			if len(issues) != tt.wantIssues {
				t.Fatalf("issues = %v, want %d", issues, tt.wantIssues)
			}
			if !equalIntPtr(record.PublishedYear, tt.wantYear) {
				t.Fatalf("year = %v, want %v", deref(record.PublishedYear), deref(tt.wantYear))
			}
			if !equalFloatPtr(record.Ratings, tt.wantRating) {
				t.Fatalf("rating mismatch")
			}
			if !equalIntPtr(record.PageCount, tt.wantPages) {
				t.Fatalf("page count = %v, want %v", deref(record.PageCount), deref(tt.wantPages))
			}
		})
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	record := models.BookRecord{
		PublishedDate: models.StringPtr("2010"),
		RatingText:    "3",
		PageCountText: "100",
	}
	Clean(&record)
	record.PublishedDate = models.StringPtr("bad")
	Clean(&record)
	if record.PublishedYear != nil {
		t.Fatalf("stale year kept after re-clean: %d", *record.PublishedYear)
	}
}

func TestJoinOrDefault(t *testing.T) {
	if got := JoinOrDefault(nil, DefaultAuthor); got != "Unknown" {
		t.Fatalf("JoinOrDefault(nil) = %q", got)
	}
	if got := JoinOrDefault([]string{}, DefaultCategory); got != "None" {
		t.Fatalf("JoinOrDefault([]) = %q, want default for a present but empty list", got)
	}
	if got := JoinOrDefault([]string{"A", "B"}, DefaultAuthor); got != "A, B" {
		t.Fatalf("JoinOrDefault = %q, want %q", got, "A, B")
	}
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalFloatPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func deref(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
