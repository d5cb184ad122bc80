package report

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/aluiziolira/go-books-dashboard/models"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Chart names in the order the dashboard shows them.
const (
	ChartRatings = "ratings"
	ChartPages   = "pages"
	ChartScatter = "scatter"
	ChartAuthors = "authors"
	ChartMissing = "missing"
)

// ChartNames lists every chart in display order.
var ChartNames = []string{ChartRatings, ChartPages, ChartScatter, ChartAuthors, ChartMissing}

// ErrUnknownChart is returned for a chart name outside ChartNames.
var ErrUnknownChart = errors.New("report: unknown chart")

const noDataSubtitle = "No data for the current selection"

// Options tunes chart computations.
type Options struct {
	HistogramBins int
	TopAuthors    int
}

// DefaultOptions returns the dashboard defaults.
func DefaultOptions() Options {
	return Options{HistogramBins: 20, TopAuthors: 8}
}

// Chart is anything that renders itself as a standalone HTML page.
type Chart interface {
	Render(w io.Writer) error
}

// BuildChart computes and builds the named chart over rows.
func BuildChart(name string, rows []models.BookRecord, o Options) (Chart, error) {
	switch name {
	case ChartRatings:
		return RatingsChart(RatingDistributions(rows)), nil
	case ChartPages:
		return PageCountChart(PageCountHistogram(rows, o.HistogramBins)), nil
	case ChartScatter:
		return ScatterChart(YearRatingScatter(rows)), nil
	case ChartAuthors:
		return AuthorsChart(TopAuthors(rows, o.TopAuthors), o.TopAuthors), nil
	case ChartMissing:
		return MissingChart(NullMatrix(rows)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownChart, name)
	}
}

func baseOpts(title, subtitle string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Width:     "1200px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
			Left:     "center",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true}),
	}
}

func subtitleIf(empty bool) string {
	if empty {
		return noDataSubtitle
	}
	return ""
}

// RatingsChart draws one box per category.
func RatingsChart(boxes []BoxStats) *charts.BoxPlot {
	box := charts.NewBoxPlot()
	box.SetGlobalOptions(append(baseOpts("Ratings Distribution by Category", subtitleIf(len(boxes) == 0)),
		charts.WithYAxisOpts(opts.YAxis{Name: "Average Rating", Min: 0, Max: 5}),
	)...)

	categories := make([]string, 0, len(boxes))
	data := make([]opts.BoxPlotData, 0, len(boxes))
	for _, b := range boxes {
		categories = append(categories, b.Category)
		data = append(data, opts.BoxPlotData{
			Name:  fmt.Sprintf("%s (n=%d)", b.Category, b.N),
			Value: []float64{b.Min, b.Q1, b.Median, b.Q3, b.Max},
		})
	}
	box.SetXAxis(categories).AddSeries("Ratings", data)
	return box
}

// PageCountChart draws the shared-bin histogram as stacked bars per category.
func PageCountChart(h Histogram) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(append(baseOpts("Page Count Distribution", subtitleIf(len(h.Series) == 0)),
		charts.WithLegendOpts(opts.Legend{Show: true, Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Number of Pages"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Books"}),
	)...)

	bar.SetXAxis(h.Labels())
	for _, s := range h.Series {
		data := make([]opts.BarData, len(s.Counts))
		for i, c := range s.Counts {
			data[i] = opts.BarData{Value: c}
		}
		bar.AddSeries(s.Category, data, charts.WithBarChartOpts(opts.BarChart{Stack: "pages"}))
	}
	return bar
}

// ScatterChart plots year against rating, sized by page count.
func ScatterChart(sc Scatter) *charts.Scatter {
	subtitle := subtitleIf(len(sc.Series) == 0)
	if sc.HasCorrelation {
		subtitle = "Pearson r = " + strconv.FormatFloat(sc.Correlation, 'f', 3, 64)
	}

	scatter := charts.NewScatter()
	global := append(baseOpts("Published Year vs Ratings", subtitle),
		charts.WithLegendOpts(opts.Legend{Show: true, Top: "bottom"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Average Rating", Min: 0, Max: 5}),
	)
	if minYear, maxYear, ok := yearRange(sc); ok {
		global = append(global, charts.WithXAxisOpts(opts.XAxis{Name: "Year", Type: "value", Min: minYear - 1, Max: maxYear + 1}))
	} else {
		global = append(global, charts.WithXAxisOpts(opts.XAxis{Name: "Year", Type: "value"}))
	}
	scatter.SetGlobalOptions(global...)

	for _, s := range sc.Series {
		data := make([]opts.ScatterData, 0, len(s.Points))
		for _, p := range s.Points {
			data = append(data, opts.ScatterData{
				Name:       p.Title,
				Value:      []interface{}{p.Year, p.Rating},
				SymbolSize: symbolSize(p.PageCount, sc.MaxPageCount),
			})
		}
		scatter.AddSeries(s.Category, data)
	}
	return scatter
}

func yearRange(sc Scatter) (int, int, bool) {
	minYear, maxYear, ok := 0, 0, false
	for _, s := range sc.Series {
		for _, p := range s.Points {
			if !ok {
				minYear, maxYear, ok = p.Year, p.Year, true
				continue
			}
			if p.Year < minYear {
				minYear = p.Year
			}
			if p.Year > maxYear {
				maxYear = p.Year
			}
		}
	}
	return minYear, maxYear, ok
}

// symbolSize maps page count onto a marker diameter; area grows linearly.
func symbolSize(pages *int, maxPages int) int {
	const minSize, maxSize = 6, 30
	if pages == nil || maxPages <= 0 || *pages <= 0 {
		return minSize
	}
	return minSize + int(math.Round(float64(maxSize-minSize)*math.Sqrt(float64(*pages)/float64(maxPages))))
}

// AuthorsChart draws a horizontal bar per author, ascending by count.
func AuthorsChart(authors []AuthorCount, n int) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(append(baseOpts(fmt.Sprintf("Top %d Authors by Number of Books", n), subtitleIf(len(authors) == 0)),
		charts.WithXAxisOpts(opts.XAxis{Name: "Author"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Number of Books"}),
	)...)

	names := make([]string, len(authors))
	data := make([]opts.BarData, len(authors))
	for i, a := range authors {
		names[i] = a.Display
		data[i] = opts.BarData{Name: a.Name, Value: a.Count}
	}
	bar.SetXAxis(names).AddSeries("Books", data)
	bar.XYReversal()
	return bar
}

// MissingChart draws the null-value matrix as a heatmap; 1 marks a missing cell.
func MissingChart(m NullMap) *charts.HeatMap {
	rowLabels := make([]string, len(m.Cells))
	for i := range rowLabels {
		rowLabels[i] = strconv.Itoa(i)
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(append(baseOpts("Missing Data Heatmap", subtitleIf(len(m.Cells) == 0)),
		charts.WithXAxisOpts(opts.XAxis{Name: "Columns", Type: "category", Data: m.Columns}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Rows", Type: "category", Data: rowLabels}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: true,
			Min:        0,
			Max:        1,
			InRange:    &opts.VisualMapInRange{Color: []string{"#0b1d3a", "#e8f4fb"}},
		}),
	)...)

	data := make([]opts.HeatMapData, 0, len(m.Cells)*len(m.Columns))
	for i, row := range m.Cells {
		for j, missing := range row {
			v := 0
			if missing {
				v = 1
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{j, i, v}})
		}
	}
	hm.SetXAxis(m.Columns).AddSeries("missing", data)
	return hm
}
