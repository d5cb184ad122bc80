// Package view turns sidebar selections into a filtered view of a dataset.
package view

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-books-dashboard/models"
)

// Params is the immutable filter state for one render.
type Params struct {
	Categories []string
	MinYear    int
	MaxYear    int
}

// Result is the working view produced by Filter.
type Result struct {
	Rows []models.BookRecord
	// Applied is the category set actually used, after default substitution.
	Applied Params
	Warning string
}

// Bounds returns the observed min and max PublishedYear. ok is false when no
// row has a year.
func Bounds(ds *models.Dataset) (minYear, maxYear int, ok bool) {
	if ds == nil {
		return 0, 0, false
	}
	for _, row := range ds.Rows {
		if row.PublishedYear == nil {
			continue
		}
		y := *row.PublishedYear
		if !ok {
			minYear, maxYear, ok = y, y, true
			continue
		}
		if y < minYear {
			minYear = y
		}
		if y > maxYear {
			maxYear = y
		}
	}
	return minYear, maxYear, ok
}

// DefaultCategory is the single category substituted for an empty selection:
// the first category present in the dataset, else the first topic.
func DefaultCategory(ds *models.Dataset) string {
	if cats := ds.Categories(); len(cats) > 0 {
		return cats[0]
	}
	if ds != nil && len(ds.Topics) > 0 {
		return ds.Topics[0]
	}
	return ""
}

// Filter returns, in dataset order, the rows whose Category is selected and
// whose PublishedYear lies in [MinYear, MaxYear]. Rows without a year never
// match. The source dataset is not modified.
func Filter(ds *models.Dataset, p Params) Result {
	res := Result{Applied: p}
	if len(p.Categories) == 0 {
		def := DefaultCategory(ds)
		res.Applied.Categories = []string{def}
		res.Warning = "At least one category must be selected. Resetting to default."
	}
	if ds == nil {
		return res
	}

	allowed := make(map[string]struct{}, len(res.Applied.Categories))
	for _, c := range res.Applied.Categories {
		allowed[c] = struct{}{}
	}

	rows := make([]models.BookRecord, 0, len(ds.Rows))
	for _, row := range ds.Rows {
		if _, ok := allowed[row.Category]; !ok {
			continue
		}
		if row.PublishedYear == nil {
			continue
		}
		if y := *row.PublishedYear; y < p.MinYear || y > p.MaxYear {
			continue
		}
		rows = append(rows, row)
	}
	res.Rows = rows
	return res
}

// ParseParams decodes the sidebar form. Without the "submitted" marker every
// category is selected and the range spans the dataset. Years are clamped to
// the dataset bounds and swapped when inverted.
func ParseParams(values url.Values, ds *models.Dataset) Params {
	minYear, maxYear, _ := Bounds(ds)
	p := Params{MinYear: minYear, MaxYear: maxYear}

	if values.Get("submitted") == "" {
		p.Categories = ds.Categories()
		return p
	}

	known := make(map[string]struct{})
	for _, c := range ds.Categories() {
		known[c] = struct{}{}
	}
	for _, c := range values["category"] {
		if _, ok := known[c]; ok {
			p.Categories = append(p.Categories, c)
		}
	}

	if v, err := strconv.Atoi(strings.TrimSpace(values.Get("min_year"))); err == nil {
		p.MinYear = clamp(v, minYear, maxYear)
	}
	if v, err := strconv.Atoi(strings.TrimSpace(values.Get("max_year"))); err == nil {
		p.MaxYear = clamp(v, minYear, maxYear)
	}
	if p.MinYear > p.MaxYear {
		p.MinYear, p.MaxYear = p.MaxYear, p.MinYear
	}
	return p
}

// Encode renders p as a query string understood by ParseParams.
func (p Params) Encode() string {
	values := url.Values{}
	values.Set("submitted", "1")
	for _, c := range p.Categories {
		values.Add("category", c)
	}
	values.Set("min_year", strconv.Itoa(p.MinYear))
	values.Set("max_year", strconv.Itoa(p.MaxYear))
	return values.Encode()
}

// Selected reports whether category is part of the selection.
func (p Params) Selected(category string) bool {
	for _, c := range p.Categories {
		if c == category {
			return true
		}
	}
	return false
}

func (p Params) String() string {
	return fmt.Sprintf("categories=%v years=[%d,%d]", p.Categories, p.MinYear, p.MaxYear)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
