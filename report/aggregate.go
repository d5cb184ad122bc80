package report

import (
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	"github.com/aluiziolira/go-books-dashboard/models"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// MaxAuthorNameLen is the longest author label drawn untruncated.
	MaxAuthorNameLen = 40
	truncatedNameLen = 37
)

// BoxStats is the five-number summary of ratings for one category.
type BoxStats struct {
	Category string
	N        int
	Min      float64
	Q1       float64
	Median   float64
	Q3       float64
	Max      float64
}

// RatingDistributions summarizes Ratings per category, in first-seen order.
// Categories without any rating are omitted.
func RatingDistributions(rows []models.BookRecord) []BoxStats {
	order, groups := groupFloats(rows, func(r *models.BookRecord) (float64, bool) {
		if r.Ratings == nil {
			return 0, false
		}
		return *r.Ratings, true
	})

	out := make([]BoxStats, 0, len(order))
	for _, cat := range order {
		values := groups[cat]
		minV, _ := stats.Min(values)
		maxV, _ := stats.Max(values)
		q1, q2, q3 := quartiles(values)
		out = append(out, BoxStats{
			Category: cat,
			N:        len(values),
			Min:      minV,
			Q1:       q1,
			Median:   q2,
			Q3:       q3,
			Max:      maxV,
		})
	}
	return out
}

// HistogramSeries holds per-bin counts for one category.
type HistogramSeries struct {
	Category string
	Counts   []float64
}

// Histogram is a page-count histogram with bins shared across categories.
type Histogram struct {
	Edges  []float64
	Series []HistogramSeries
}

// Labels returns a "lo-hi" label per bin.
func (h Histogram) Labels() []string {
	if len(h.Edges) < 2 {
		return nil
	}
	out := make([]string, len(h.Edges)-1)
	for i := range out {
		out[i] = fmt.Sprintf("%.0f-%.0f", h.Edges[i], h.Edges[i+1])
	}
	return out
}

// PageCountHistogram bins PageCount into bins equal-width buckets spanning
// the observed range and counts rows per category.
func PageCountHistogram(rows []models.BookRecord, bins int) Histogram {
	if bins <= 0 {
		bins = 1
	}
	order, groups := groupFloats(rows, func(r *models.BookRecord) (float64, bool) {
		if r.PageCount == nil {
			return 0, false
		}
		return float64(*r.PageCount), true
	})
	if len(order) == 0 {
		return Histogram{}
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, values := range groups {
		for _, v := range values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	edges := floats.Span(make([]float64, bins+1), lo, hi)
	// stat.Histogram treats the last divider as exclusive.
	dividers := make([]float64, len(edges))
	copy(dividers, edges)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	h := Histogram{Edges: edges}
	for _, cat := range order {
		values := groups[cat]
		sort.Float64s(values)
		h.Series = append(h.Series, HistogramSeries{
			Category: cat,
			Counts:   stat.Histogram(nil, dividers, values, nil),
		})
	}
	return h
}

// ScatterPoint is one (year, rating) observation.
type ScatterPoint struct {
	Year      int
	Rating    float64
	PageCount *int
	Title     string
}

// ScatterSeries groups points by category.
type ScatterSeries struct {
	Category string
	Points   []ScatterPoint
}

// Scatter is the year-vs-rating view with its Pearson correlation.
type Scatter struct {
	Series         []ScatterSeries
	MaxPageCount   int
	Correlation    float64
	HasCorrelation bool
}

// YearRatingScatter collects rows having a year, a rating and a page count;
// the page count sizes the marker, so rows without one are not plotted.
func YearRatingScatter(rows []models.BookRecord) Scatter {
	var sc Scatter
	index := make(map[string]int)
	var years, ratings []float64

	for i := range rows {
		r := &rows[i]
		if r.PublishedYear == nil || r.Ratings == nil || r.PageCount == nil {
			continue
		}
		idx, ok := index[r.Category]
		if !ok {
			idx = len(sc.Series)
			index[r.Category] = idx
			sc.Series = append(sc.Series, ScatterSeries{Category: r.Category})
		}
		title := ""
		if r.Title != nil {
			title = *r.Title
		}
		sc.Series[idx].Points = append(sc.Series[idx].Points, ScatterPoint{
			Year:      *r.PublishedYear,
			Rating:    *r.Ratings,
			PageCount: r.PageCount,
			Title:     title,
		})
		if *r.PageCount > sc.MaxPageCount {
			sc.MaxPageCount = *r.PageCount
		}
		years = append(years, float64(*r.PublishedYear))
		ratings = append(ratings, *r.Ratings)
	}

	if len(years) >= 2 {
		// NaN when either variable is constant.
		if c := stat.Correlation(years, ratings, nil); !math.IsNaN(c) {
			sc.Correlation, sc.HasCorrelation = c, true
		}
	}
	return sc
}

// AuthorCount is one bar of the top-authors chart.
type AuthorCount struct {
	Name    string
	Display string
	Count   int
}

// TopAuthors counts rows per Authors value, keeps the n most frequent (ties
// ordered by first appearance) and returns them in ascending count order.
// Equal counts keep first-appearance order in the result too.
func TopAuthors(rows []models.BookRecord, n int) []AuthorCount {
	counts := make(map[string]int)
	var order []string
	for i := range rows {
		name := rows[i].Authors
		if _, ok := counts[name]; !ok {
			order = append(order, name)
		}
		counts[name]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if n >= 0 && len(order) > n {
		order = order[:n]
	}

	out := make([]AuthorCount, len(order))
	for i, name := range order {
		out[i] = AuthorCount{
			Name:    name,
			Display: TruncateName(name),
			Count:   counts[name],
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count < out[j].Count
	})
	return out
}

// TruncateName shortens names longer than MaxAuthorNameLen characters to
// their first 37 characters followed by "...".
func TruncateName(name string) string {
	if utf8.RuneCountInString(name) <= MaxAuthorNameLen {
		return name
	}
	return string([]rune(name)[:truncatedNameLen]) + "..."
}

// NullMap marks, per row and column, whether the value is missing.
type NullMap struct {
	Columns []string
	Cells   [][]bool
}

// NullMatrix builds the missing-value indicator matrix over all columns.
func NullMatrix(rows []models.BookRecord) NullMap {
	m := NullMap{
		Columns: append([]string(nil), models.Columns...),
		Cells:   make([][]bool, len(rows)),
	}
	for i := range rows {
		cells := make([]bool, len(m.Columns))
		for j, col := range m.Columns {
			cells[j] = rows[i].IsNull(col)
		}
		m.Cells[i] = cells
	}
	return m
}

func groupFloats(rows []models.BookRecord, value func(*models.BookRecord) (float64, bool)) ([]string, map[string][]float64) {
	var order []string
	groups := make(map[string][]float64)
	for i := range rows {
		v, ok := value(&rows[i])
		if !ok {
			continue
		}
		cat := rows[i].Category
		if _, seen := groups[cat]; !seen {
			order = append(order, cat)
		}
		groups[cat] = append(groups[cat], v)
	}
	return order, groups
}
