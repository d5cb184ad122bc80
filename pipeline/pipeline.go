package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aluiziolira/go-books-dashboard/catalog"
	"github.com/aluiziolira/go-books-dashboard/models"
	"github.com/aluiziolira/go-books-dashboard/parser"
)

// Fetcher returns the rows for one topic search.
type Fetcher interface {
	Fetch(ctx context.Context, topic string, limit int) ([]models.BookRecord, error)
}

// Pipeline fetches every topic in order, tags and cleans the rows, and
// concatenates them into a dataset.
type Pipeline struct {
	fetcher Fetcher
	topics  []string
	limit   int

	metrics metrics
}

// NewPipeline builds a pipeline over topics with a per-topic result limit.
func NewPipeline(fetcher Fetcher, topics []string, limit int) *Pipeline {
	t := make([]string, len(topics))
	copy(t, topics)
	return &Pipeline{
		fetcher: fetcher,
		topics:  t,
		limit:   limit,
		metrics: newMetrics(),
	}
}

// Build runs one fetch per topic sequentially. A topic whose fetch fails
// contributes no rows. Rows are not de-duplicated across topics.
func (p *Pipeline) Build(ctx context.Context) (*models.Dataset, *models.BuildResult, error) {
	result := &models.BuildResult{
		StartTime:    time.Now(),
		RowsByTopic:  make(map[string]int, len(p.topics)),
		ErrorsByType: make(map[string]int),
	}
	ds := &models.Dataset{
		Topics: append([]string(nil), p.topics...),
	}

	for _, topic := range p.topics {
		if err := ctx.Err(); err != nil {
			return nil, nil, fmt.Errorf("build dataset: %w", err)
		}

		books, err := p.fetcher.Fetch(ctx, topic, p.limit)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, fmt.Errorf("build dataset: %w", ctxErr)
			}
			label := catalog.ErrorTypeLabel(err)
			result.ErrorsByType[label]++
			result.FailedTopics = append(result.FailedTopics, topic)
			p.metrics.addFetchError(label)
			slog.Warn("topic skipped",
				slog.String("topic", topic),
				slog.String("category", label),
				slog.Any("error", err),
			)
			continue
		}

		for i := range books {
			row := p.prepare(books[i], topic)
			ds.Rows = append(ds.Rows, row)
		}
		result.RowsByTopic[topic] = len(books)
	}

	ds.BuiltAt = time.Now()
	result.EndTime = ds.BuiltAt
	result.TotalCount = len(ds.Rows)

	slog.Info("dataset built",
		slog.Int("rows", result.TotalCount),
		slog.Int("topics", len(p.topics)),
		slog.Int("failed_topics", len(result.FailedTopics)),
		slog.Duration("elapsed", result.EndTime.Sub(result.StartTime)),
	)
	return ds, result, nil
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.metrics.snapshot()
}

func (p *Pipeline) prepare(book models.BookRecord, topic string) models.BookRecord {
	book.Category = topic
	for _, issue := range parser.Clean(&book) {
		p.metrics.addIssue(string(issue))
	}
	p.metrics.incrementProcessed()
	return book
}

type metrics struct {
	mu          sync.Mutex
	processed   int64
	issues      map[string]int
	fetchErrors map[string]int
}

func newMetrics() metrics {
	return metrics{
		issues:      make(map[string]int),
		fetchErrors: make(map[string]int),
	}
}

func (m *metrics) incrementProcessed() {
	m.mu.Lock()
	m.processed++
	m.mu.Unlock()
}

func (m *metrics) addIssue(kind string) {
	m.mu.Lock()
	m.issues[kind]++
	m.mu.Unlock()
}

func (m *metrics) addFetchError(kind string) {
	m.mu.Lock()
	m.fetchErrors[kind]++
	m.mu.Unlock()
}

func (m *metrics) snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	copyIssues := make(map[string]int, len(m.issues))
	for k, v := range m.issues {
		copyIssues[k] = v
	}
	copyFetch := make(map[string]int, len(m.fetchErrors))
	for k, v := range m.fetchErrors {
		copyFetch[k] = v
	}

	return map[string]interface{}{
		"processed_books": m.processed,
		"coercion_issues": copyIssues,
		"fetch_errors":    copyFetch,
	}
}
