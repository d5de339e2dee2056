package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/overlap-core/internal/core/domain"
	"github.com/custodia-labs/overlap-core/internal/core/ports/driven"
)

// Shared test doubles for the service tests. Function fields override
// default no-op behaviour per test.

type mockCheckStore struct {
	mu      sync.Mutex
	checks  map[string]*domain.Check
	matches map[string][]domain.AggregatedMatch

	createFn   func(ctx context.Context, check *domain.Check) error
	completeFn func(ctx context.Context, check *domain.Check, matches []domain.AggregatedMatch) error
}

func newMockCheckStore() *mockCheckStore {
	return &mockCheckStore{
		checks:  make(map[string]*domain.Check),
		matches: make(map[string][]domain.AggregatedMatch),
	}
}

func (m *mockCheckStore) Create(ctx context.Context, check *domain.Check) error {
	if m.createFn != nil {
		return m.createFn(ctx, check)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *check
	m.checks[check.ID] = &copied
	return nil
}

func (m *mockCheckStore) Get(ctx context.Context, id string) (*domain.Check, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	check, ok := m.checks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *check
	return &copied, nil
}

func (m *mockCheckStore) GetWithMatches(ctx context.Context, id string) (*domain.Check, error) {
	check, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	check.Matches = m.matches[id]
	return check, nil
}

func (m *mockCheckStore) Update(ctx context.Context, check *domain.Check) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.checks[check.ID]; !ok {
		return domain.ErrNotFound
	}
	copied := *check
	m.checks[check.ID] = &copied
	return nil
}

func (m *mockCheckStore) CompleteWithMatches(ctx context.Context, check *domain.Check, matches []domain.AggregatedMatch) error {
	if m.completeFn != nil {
		return m.completeFn(ctx, check, matches)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.checks[check.ID]; !ok {
		return domain.ErrNotFound
	}
	copied := *check
	m.checks[check.ID] = &copied
	m.matches[check.ID] = matches
	return nil
}

func (m *mockCheckStore) MarkFailed(ctx context.Context, checkID, errorMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	check, ok := m.checks[checkID]
	if !ok {
		return domain.ErrNotFound
	}
	check.MarkFailed(errorMessage)
	delete(m.matches, checkID)
	return nil
}

func (m *mockCheckStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

type mockOrgStore struct {
	consumeFn func(ctx context.Context, orgID string) error
	consumed  int
	refunded  int
}

func (m *mockOrgStore) Get(ctx context.Context, id string) (*domain.Organization, error) {
	return nil, domain.ErrNotFound
}

func (m *mockOrgStore) Save(ctx context.Context, org *domain.Organization) error {
	return nil
}

func (m *mockOrgStore) ConsumeQuota(ctx context.Context, orgID string) error {
	m.consumed++
	if m.consumeFn != nil {
		return m.consumeFn(ctx, orgID)
	}
	return nil
}

func (m *mockOrgStore) RefundQuota(ctx context.Context, orgID string) error {
	m.refunded++
	return nil
}

func (m *mockOrgStore) ResetMonthlyCounters(ctx context.Context) error {
	return nil
}

type mockTaskQueue struct {
	mu       sync.Mutex
	enqueued []*domain.Task

	enqueueFn func(ctx context.Context, task *domain.Task) error
}

func (m *mockTaskQueue) Enqueue(ctx context.Context, task *domain.Task) error {
	if m.enqueueFn != nil {
		return m.enqueueFn(ctx, task)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enqueued = append(m.enqueued, task)
	return nil
}

func (m *mockTaskQueue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	return nil, nil
}
func (m *mockTaskQueue) Ack(ctx context.Context, taskID string) error { return nil }

func (m *mockTaskQueue) Nack(ctx context.Context, taskID, reason string) error { return nil }

func (m *mockTaskQueue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	return nil, nil
}

func (m *mockTaskQueue) PurgeTasks(ctx context.Context, olderThan int) (int, error) { return 0, nil }

func (m *mockTaskQueue) Ping(ctx context.Context) error { return nil }

func (m *mockTaskQueue) Close() error { return nil }

type mockUsageStore struct {
	mu   sync.Mutex
	logs []*domain.UsageLog
}

func (m *mockUsageStore) Record(ctx context.Context, log *domain.UsageLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

// stubEmbedder maps known texts to fixed unit vectors; unknown texts
// embed to a default direction.
type stubEmbedder struct {
	vectors map[string][]float32
	dim     int
	err     error
}

func newStubEmbedder(dim int) *stubEmbedder {
	return &stubEmbedder{vectors: make(map[string][]float32), dim: dim}
}

func (s *stubEmbedder) vectorFor(text string) []float32 {
	if v, ok := s.vectors[text]; ok {
		return v
	}
	v := make([]float32, s.dim)
	v[0] = 1
	return v
}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = s.vectorFor(t)
	}
	return out, nil
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vectorFor(query), nil
}

func (s *stubEmbedder) Dimensions() int { return s.dim }

func (s *stubEmbedder) Model() string { return "stub" }

func (s *stubEmbedder) HealthCheck(ctx context.Context) error { return nil }

func (s *stubEmbedder) Close() error { return nil }

// stubFetcher returns canned matches
type stubFetcher struct {
	name    string
	matches []domain.RawMatch
	err     error

	mu     sync.Mutex
	called int
}

func (s *stubFetcher) Name() string { return s.name }

func (s *stubFetcher) Fetch(ctx context.Context, sub Submission) ([]domain.RawMatch, error) {
	s.mu.Lock()
	s.called++
	s.mu.Unlock()
	return s.matches, s.err
}

// memoryVideoCache is an in-process VideoCache
type memoryVideoCache struct {
	mu     sync.Mutex
	videos map[string]*driven.CachedVideo
}

func newMemoryVideoCache() *memoryVideoCache {
	return &memoryVideoCache{videos: make(map[string]*driven.CachedVideo)}
}

func (c *memoryVideoCache) Get(ctx context.Context, videoID string) (*driven.CachedVideo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.videos[videoID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (c *memoryVideoCache) Set(ctx context.Context, video *driven.CachedVideo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.videos[video.VideoID] = video
	return nil
}

// memoryPageCache is an in-process PageCache
type memoryPageCache struct {
	mu    sync.Mutex
	pages map[string]string
}

func newMemoryPageCache() *memoryPageCache {
	return &memoryPageCache{pages: make(map[string]string)}
}

func (c *memoryPageCache) Get(ctx context.Context, url string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	text, ok := c.pages[url]
	if !ok {
		return "", domain.ErrNotFound
	}
	return text, nil
}

func (c *memoryPageCache) Set(ctx context.Context, url, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[url] = text
	return nil
}

// stubVideoPlatform returns canned videos and transcripts
type stubVideoPlatform struct {
	videos      []driven.VideoInfo
	transcripts map[string][]driven.TranscriptSegment

	mu              sync.Mutex
	transcriptCalls []string
}

func (s *stubVideoPlatform) Search(ctx context.Context, query string, opts driven.VideoSearchOptions) ([]driven.VideoInfo, error) {
	return s.videos, nil
}

func (s *stubVideoPlatform) Transcript(ctx context.Context, videoID string) ([]driven.TranscriptSegment, error) {
	s.mu.Lock()
	s.transcriptCalls = append(s.transcriptCalls, videoID)
	s.mu.Unlock()
	segs, ok := s.transcripts[videoID]
	if !ok {
		return nil, domain.ErrNoTranscript
	}
	return segs, nil
}

// fakeIndex serves canned search hits and records writes
type fakeIndex struct {
	mu      sync.Mutex
	hits    []driven.SearchHit
	added   []domain.VectorRecord
	removed []string
	nextID  int64
}

func (f *fakeIndex) Add(vectors [][]float32, records []domain.VectorRecord) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int64, len(records))
	for i := range records {
		ids[i] = f.nextID
		f.nextID++
	}
	f.added = append(f.added, records...)
	return ids, nil
}

func (f *fakeIndex) Search(query []float32, k int, predicate func(domain.VectorRecord) bool) ([]driven.SearchHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []driven.SearchHit
	for _, h := range f.hits {
		if predicate != nil && !predicate(h.Record) {
			continue
		}
		out = append(out, h)
		if len(out) == k {
			break
		}
	}
	return out, nil
}

func (f *fakeIndex) RemoveBySource(sourceID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, sourceID)
	return 0
}

func (f *fakeIndex) Size() int { return 0 }

func (f *fakeIndex) Save() error { return nil }

func (f *fakeIndex) Load() error { return nil }
