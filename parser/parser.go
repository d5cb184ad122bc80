package parser

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aluiziolira/go-books-dashboard/models"
)

// Issue names a value the cleaner could not coerce.
type Issue string

const (
	IssueUnparsableDate      Issue = "unparsable_date"
	IssueNonNumericRating    Issue = "non_numeric_rating"
	IssueNonNumericPageCount Issue = "non_numeric_page_count"
)

const (
	DefaultAuthor   = "Unknown"
	DefaultCategory = "None"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01",
	"2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
}

// Clean derives PublishedYear, Ratings and PageCount from the raw fields.
// Absent values stay nil without an issue; present but unparsable values
// become nil and are reported.
func Clean(b *models.BookRecord) []Issue {
	if b == nil {
		return nil
	}
	var issues []Issue

	b.PublishedYear = nil
	if b.PublishedDate != nil {
		if year, ok := ParseYear(*b.PublishedDate); ok {
			b.PublishedYear = &year
		} else {
			issues = append(issues, IssueUnparsableDate)
		}
	}

	b.Ratings = nil
	if strings.TrimSpace(b.RatingText) != "" {
		if rating, ok := ParseRating(b.RatingText); ok {
			b.Ratings = &rating
		} else {
			issues = append(issues, IssueNonNumericRating)
		}
	}

	b.PageCount = nil
	if strings.TrimSpace(b.PageCountText) != "" {
		if pages, ok := ParsePageCount(b.PageCountText); ok {
			b.PageCount = &pages
		} else {
			issues = append(issues, IssueNonNumericPageCount)
		}
	}

	return issues
}

// ParseYear extracts the calendar year from a publication date.
func ParseYear(date string) (int, bool) {
	date = strings.TrimSpace(date)
	if date == "" {
		return 0, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Year(), true
		}
	}
	return 0, false
}

// ParseRating converts rating text to a finite float.
func ParseRating(text string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParsePageCount converts page-count text to an integer. Integral float text
// such as "320.0" is accepted.
func ParsePageCount(text string) (int, bool) {
	text = strings.TrimSpace(text)
	if n, err := strconv.Atoi(text); err == nil {
		return n, true
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, false
	}
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, false
	}
	return int(v), true
}

// JoinOrDefault joins values with ", ", or returns def when there are none.
func JoinOrDefault(values []string, def string) string {
	if len(values) == 0 {
		return def
	}
	return strings.Join(values, ", ")
}
