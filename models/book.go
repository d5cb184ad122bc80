// Package models defines data structures shared by the dashboard stages.
package models

import "time"

// Column names as shown in tables, exports and the missing-value map.
const (
	ColTitle         = "Title"
	ColAuthors       = "Authors"
	ColPublishedDate = "Published Date"
	ColCategories    = "Categories"
	ColRatings       = "Ratings"
	ColPageCount     = "Page Count"
	ColCategory      = "Category"
	ColPublishedYear = "Published Year"
)

// Columns lists every dataset column in display order.
var Columns = []string{
	ColTitle,
	ColAuthors,
	ColPublishedDate,
	ColCategories,
	ColRatings,
	ColPageCount,
	ColCategory,
	ColPublishedYear,
}

// BookRecord is one normalized catalog search result.
//
// RatingText and PageCountText hold the values as the API returned them;
// Ratings, PageCount and PublishedYear are filled in by the cleaner and stay
// nil when the source value is absent or unparsable.
type BookRecord struct {
	Title         *string  `csv:"title" json:"title"`
	Authors       string   `csv:"authors" json:"authors"`
	PublishedDate *string  `csv:"published_date" json:"published_date"`
	Categories    string   `csv:"categories" json:"categories"`
	RatingText    string   `csv:"-" json:"-"`
	Ratings       *float64 `csv:"ratings" json:"ratings"`
	PageCountText string   `csv:"-" json:"-"`
	PageCount     *int     `csv:"page_count" json:"page_count"`
	Category      string   `csv:"category" json:"category"`
	PublishedYear *int     `csv:"published_year" json:"published_year"`
}

// IsNull reports whether the named column holds no value for this row.
func (b *BookRecord) IsNull(column string) bool {
	switch column {
	case ColTitle:
		return b.Title == nil
	case ColPublishedDate:
		return b.PublishedDate == nil
	case ColRatings:
		return b.Ratings == nil
	case ColPageCount:
		return b.PageCount == nil
	case ColPublishedYear:
		return b.PublishedYear == nil
	default:
		return false
	}
}

// Dataset is the cleaned, immutable collection built once per session.
type Dataset struct {
	Rows    []BookRecord
	Topics  []string
	BuiltAt time.Time
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Categories returns the distinct Category values in first-seen order.
func (d *Dataset) Categories() []string {
	if d == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(d.Topics))
	out := make([]string, 0, len(d.Topics))
	for _, row := range d.Rows {
		if _, ok := seen[row.Category]; ok {
			continue
		}
		seen[row.Category] = struct{}{}
		out = append(out, row.Category)
	}
	return out
}

// BuildResult summarizes a dataset build for logs and the dashboard footer.
type BuildResult struct {
	StartTime    time.Time
	EndTime      time.Time
	TotalCount   int
	RowsByTopic  map[string]int
	ErrorsByType map[string]int
	FailedTopics []string
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// FloatPtr returns a pointer to f.
func FloatPtr(f float64) *float64 { return &f }

// IntPtr returns a pointer to i.
func IntPtr(i int) *int { return &i }
