// Package catalog queries the Google Books volumes search API.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aluiziolira/go-books-dashboard/config"
	"github.com/aluiziolira/go-books-dashboard/models"
	"github.com/aluiziolira/go-books-dashboard/parser"
	"github.com/gocolly/colly/v2"
)

const (
	ctxStart    = "start"
	ctxStatus   = "status"
	ctxResponse = "volumes"
)

// Client wraps a synchronous colly collector pointed at the volumes endpoint.
type Client struct {
	cfg       *config.Config
	collector *colly.Collector
	endpoint  string
	Metrics   *Metrics
}

// NewClient builds a catalog client configured from cfg. metrics may be nil.
func NewClient(cfg *config.Config, metrics *Metrics) (*Client, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Hostname()),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = true
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	c := &Client{
		cfg:       cfg,
		collector: collector,
		endpoint:  strings.TrimSuffix(cfg.BaseURL, "/") + "/volumes",
		Metrics:   metrics,
	}
	c.configureHandlers()
	return c, nil
}

// WithTransport replaces the HTTP transport used by the collector.
func (c *Client) WithTransport(rt http.RoundTripper) {
	c.collector.WithTransport(rt)
}

// Fetch runs one search for topic and maps every returned volume to a row.
// Rows are returned in API order; Category is left for the caller to tag.
// A failed request yields no rows and a classified error.
func (c *Client) Fetch(ctx context.Context, topic string, limit int) ([]models.BookRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > config.MaxResultsLimit {
		limit = config.MaxResultsLimit
	}

	reqCtx := colly.NewContext()
	err := c.collector.Request(http.MethodGet, c.searchURL(topic, limit), nil, reqCtx, nil)
	if err != nil {
		err = c.redactKey(err)
		status, _ := reqCtx.GetAny(ctxStatus).(int)
		classified := classifyError(err, status)
		label := ErrorTypeLabel(classified)
		c.Metrics.IncError(label)
		slog.Error("catalog request failed",
			slog.String("topic", topic),
			slog.String("category", label),
			slog.Int("status", status),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("fetch %q: %w", topic, classified)
	}

	body, _ := reqCtx.GetAny(ctxResponse).([]byte)
	books, total, err := decodeVolumes(body)
	if err != nil {
		c.Metrics.IncError(ErrorTypeLabel(err))
		return nil, fmt.Errorf("fetch %q: %w", topic, err)
	}

	c.Metrics.AddRows(topic, len(books))
	slog.Debug("catalog topic fetched",
		slog.String("topic", topic),
		slog.Int("rows", len(books)),
		slog.Int("total_items", total),
	)
	return books, nil
}

func (c *Client) searchURL(topic string, limit int) string {
	q := url.Values{}
	q.Set("q", topic)
	q.Set("maxResults", strconv.Itoa(limit))
	if c.cfg.APIKey != "" {
		q.Set("key", c.cfg.APIKey)
	}
	return c.endpoint + "?" + q.Encode()
}

// redactKey removes the developer key from request URLs carried by err.
func (c *Client) redactKey(err error) error {
	if c.cfg.APIKey == "" {
		return err
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		uerr.URL = redactURL(uerr.URL)
	}
	if msg := err.Error(); strings.Contains(msg, c.cfg.APIKey) {
		return redactedError{msg: strings.ReplaceAll(msg, c.cfg.APIKey, redactedValue), err: err}
	}
	return err
}

const redactedValue = "REDACTED"

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if !q.Has("key") {
		return raw
	}
	q.Set("key", redactedValue)
	u.RawQuery = q.Encode()
	return u.String()
}

// redactedError keeps the cause for errors.Is/As but replaces its message.
type redactedError struct {
	msg string
	err error
}

func (e redactedError) Error() string { return e.msg }

func (e redactedError) Unwrap() error { return e.err }

func (c *Client) configureHandlers() {
	c.collector.OnRequest(func(r *colly.Request) {
		r.Ctx.Put(ctxStart, time.Now())
		c.Metrics.IncRequest("started")
	})

	c.collector.OnResponse(func(r *colly.Response) {
		c.observe(r)
		c.Metrics.IncRequest("completed")
		r.Ctx.Put(ctxStatus, r.StatusCode)
		r.Ctx.Put(ctxResponse, r.Body)
	})

	c.collector.OnError(func(r *colly.Response, err error) {
		if r == nil || r.Ctx == nil {
			return
		}
		c.observe(r)
		c.Metrics.IncRequest("failed")
		r.Ctx.Put(ctxStatus, r.StatusCode)
	})
}

func (c *Client) observe(r *colly.Response) {
	if start, ok := r.Ctx.GetAny(ctxStart).(time.Time); ok {
		c.Metrics.ObserveDuration(time.Since(start))
	}
}

type volumesResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []volume `json:"items"`
}

type volume struct {
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title         *string         `json:"title"`
	Authors       []string        `json:"authors"`
	PublishedDate *string         `json:"publishedDate"`
	Categories    []string        `json:"categories"`
	AverageRating json.RawMessage `json:"averageRating"`
	PageCount     json.RawMessage `json:"pageCount"`
}

// decodeVolumes maps a volumes payload to rows and returns the API's total
// match count. An empty body or a payload without items yields an empty slice.
func decodeVolumes(body []byte) ([]models.BookRecord, int, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return []models.BookRecord{}, 0, nil
	}

	var resp volumesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, 0, ErrDecode{Err: err}
	}

	books := make([]models.BookRecord, 0, len(resp.Items))
	for _, item := range resp.Items {
		info := item.VolumeInfo
		books = append(books, models.BookRecord{
			Title:         info.Title,
			Authors:       parser.JoinOrDefault(info.Authors, parser.DefaultAuthor),
			PublishedDate: info.PublishedDate,
			Categories:    parser.JoinOrDefault(info.Categories, parser.DefaultCategory),
			RatingText:    rawText(info.AverageRating),
			PageCountText: rawText(info.PageCount),
		})
	}
	return books, resp.TotalItems, nil
}

// rawText renders a JSON scalar as text: strings unquoted, null and absent as "".
func rawText(raw json.RawMessage) string {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return ""
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return text
}

func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode != 0 {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch statusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return ErrForbidden{Err: wrapped}
		case http.StatusNotFound:
			return ErrNotFound{Err: wrapped}
		case http.StatusTooManyRequests:
			return ErrRateLimited{Err: wrapped}
		}
	}

	if err == nil {
		return nil
	}
	return err
}
