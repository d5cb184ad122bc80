// Package report computes read-only summaries of a filtered view and renders
// them as interactive charts.
package report

import (
	"math"
	"sort"

	"github.com/aluiziolira/go-books-dashboard/models"
	"github.com/montanaflynn/stats"
)

// ColumnSummary is one row of the summary-statistics table. Numeric fields
// are NaN when they do not apply or cannot be computed.
type ColumnSummary struct {
	Column  string
	Numeric bool
	Count   int

	Unique int
	Top    string
	Freq   int

	Mean float64
	Std  float64
	Min  float64
	Q25  float64
	Q50  float64
	Q75  float64
	Max  float64
}

var numericColumns = map[string]bool{
	models.ColRatings:       true,
	models.ColPageCount:     true,
	models.ColPublishedYear: true,
}

// Describe summarizes every column of rows, in models.Columns order.
func Describe(rows []models.BookRecord) []ColumnSummary {
	out := make([]ColumnSummary, 0, len(models.Columns))
	for _, col := range models.Columns {
		if numericColumns[col] {
			out = append(out, describeNumeric(col, numericValues(rows, col)))
		} else {
			out = append(out, describeCategorical(col, stringValues(rows, col)))
		}
	}
	return out
}

func describeNumeric(col string, values []float64) ColumnSummary {
	nan := math.NaN()
	s := ColumnSummary{
		Column: col, Numeric: true, Count: len(values),
		Unique: -1, Freq: -1,
		Mean: nan, Std: nan, Min: nan, Q25: nan, Q50: nan, Q75: nan, Max: nan,
	}
	if len(values) == 0 {
		return s
	}

	s.Mean, _ = stats.Mean(values)
	s.Min, _ = stats.Min(values)
	s.Max, _ = stats.Max(values)
	if len(values) > 1 {
		s.Std, _ = stats.StandardDeviationSample(values)
	}
	s.Q25, s.Q50, s.Q75 = quartiles(values)
	return s
}

func describeCategorical(col string, values []string) ColumnSummary {
	nan := math.NaN()
	s := ColumnSummary{
		Column: col, Count: len(values),
		Mean: nan, Std: nan, Min: nan, Q25: nan, Q50: nan, Q75: nan, Max: nan,
	}
	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
		if counts[v] > s.Freq {
			s.Top, s.Freq = v, counts[v]
		}
	}
	s.Unique = len(counts)
	return s
}

// quartiles returns the 25th, 50th and 75th percentiles, interpolating
// between closest ranks. values must be non-empty.
func quartiles(values []float64) (q1, q2, q3 float64) {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return quantile(sorted, 0.25), quantile(sorted, 0.5), quantile(sorted, 0.75)
}

// quantile uses position (n-1)*p on sorted data.
func quantile(sorted []float64, p float64) float64 {
	pos := float64(len(sorted)-1) * p
	lo := int(math.Floor(pos))
	if lo+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

func numericValues(rows []models.BookRecord, col string) []float64 {
	out := make([]float64, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		switch col {
		case models.ColRatings:
			if r.Ratings != nil {
				out = append(out, *r.Ratings)
			}
		case models.ColPageCount:
			if r.PageCount != nil {
				out = append(out, float64(*r.PageCount))
			}
		case models.ColPublishedYear:
			if r.PublishedYear != nil {
				out = append(out, float64(*r.PublishedYear))
			}
		}
	}
	return out
}

func stringValues(rows []models.BookRecord, col string) []string {
	out := make([]string, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		switch col {
		case models.ColTitle:
			if r.Title != nil {
				out = append(out, *r.Title)
			}
		case models.ColAuthors:
			out = append(out, r.Authors)
		case models.ColPublishedDate:
			if r.PublishedDate != nil {
				out = append(out, *r.PublishedDate)
			}
		case models.ColCategories:
			out = append(out, r.Categories)
		case models.ColCategory:
			out = append(out, r.Category)
		}
	}
	return out
}
