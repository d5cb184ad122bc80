package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aluiziolira/go-books-dashboard/models"
	"github.com/aluiziolira/go-books-dashboard/pipeline"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// SessionCookie names the cookie carrying the session id.
const SessionCookie = "session_id"

// Builder produces a fresh dataset.
type Builder func(ctx context.Context) (*models.Dataset, *models.BuildResult, error)

// PipelineBuilder returns a Builder running a new pipeline over fetcher for
// every build.
func PipelineBuilder(fetcher pipeline.Fetcher, topics []string, limit int) Builder {
	return func(ctx context.Context) (*models.Dataset, *models.BuildResult, error) {
		p := pipeline.NewPipeline(fetcher, topics, limit)
		ds, result, err := p.Build(ctx)
		if err != nil {
			return nil, nil, err
		}
		slog.Debug("pipeline metrics", slog.Any("metrics", p.GetMetrics()))
		return ds, result, nil
	}
}

// Session holds one visitor's dataset. The dataset is built on first use and
// kept until Invalidate.
type Session struct {
	ID string

	mu      sync.Mutex
	build   Builder
	dataset *models.Dataset
	result  *models.BuildResult
	onBuild func(error)
}

// Dataset returns the memoized dataset, building it if needed. Concurrent
// callers wait for a single build. Failed builds are not memoized.
func (s *Session) Dataset(ctx context.Context) (*models.Dataset, *models.BuildResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dataset != nil {
		return s.dataset, s.result, nil
	}

	ds, result, err := s.build(ctx)
	if s.onBuild != nil {
		s.onBuild(err)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("session %s: %w", s.ID, err)
	}
	s.dataset, s.result = ds, result
	return ds, result, nil
}

// Invalidate drops the memoized dataset so the next access rebuilds it.
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.dataset, s.result = nil, nil
	s.mu.Unlock()
}

// SessionStore is a bounded set of sessions; the least recently used session
// is evicted when full.
type SessionStore struct {
	cache   *lru.Cache[string, *Session]
	build   Builder
	onBuild func(error)
}

// NewSessionStore keeps at most size sessions.
func NewSessionStore(size int, build Builder) (*SessionStore, error) {
	cache, err := lru.New[string, *Session](size)
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	return &SessionStore{cache: cache, build: build}, nil
}

// Get looks up an existing session.
func (st *SessionStore) Get(id string) (*Session, bool) {
	return st.cache.Get(id)
}

// Create starts a new session with a random id.
func (st *SessionStore) Create() *Session {
	sess := &Session{
		ID:      uuid.NewString(),
		build:   st.build,
		onBuild: st.onBuild,
	}
	st.cache.Add(sess.ID, sess)
	return sess
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	return st.cache.Len()
}

// Resolve returns the session named by the request cookie, creating one and
// setting the cookie when it is missing or evicted.
func (st *SessionStore) Resolve(w http.ResponseWriter, r *http.Request) *Session {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if sess, ok := st.Get(c.Value); ok {
			return sess
		}
	}

	sess := st.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	slog.Debug("session created", slog.String("session", sess.ID))
	return sess
}
