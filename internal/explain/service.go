package explain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/linchen/gokao/internal/engine"
	"github.com/linchen/gokao/internal/llm"
	"github.com/linchen/gokao/internal/quiz"
)

// ErrGeneration wraps a backend failure. The cache is never populated
// from a failed or partial generation.
var ErrGeneration = errors.New("explanation generation failed")

// Result is the outcome of an explanation request.
type Result struct {
	Text          string
	Cached        bool
	CurrentTokens int
	TotalTokens   int
}

type cacheEntry struct {
	text   string
	prompt string
}

// Service generates and caches question explanations. Entries are
// keyed by question identifier; a hit additionally requires the stored
// prompt to match the requested one exactly, so any change in Params
// (or in the question content) forces regeneration.
type Service struct {
	provider llm.Provider
	store    *quiz.Store
	cfg      Config

	mu          sync.Mutex
	cache       map[string]cacheEntry
	restored    map[string]struct{}
	totalTokens int
}

// NewService creates a Service backed by the given provider and corpus.
func NewService(provider llm.Provider, store *quiz.Store, cfg Config) *Service {
	return &Service{
		provider: provider,
		store:    store,
		cfg:      cfg,
		cache:    make(map[string]cacheEntry),
		restored: make(map[string]struct{}),
	}
}

// corpus returns the question store the service currently resolves
// cross-references against. It is swapped on snapshot restore.
func (s *Service) corpus() *quiz.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store
}

// prompt builds the deterministic prompt for q, injecting the body of
// a cross-referenced question when one is present in the corpus.
func (s *Service) prompt(q quiz.Question, p Params) string {
	relatedBody := ""
	if id := RelatedID(q); id != "" {
		if related, ok := s.corpus().ByID(id); ok {
			relatedBody = related.Body
		}
	}
	return BuildPrompt(q, p, relatedBody)
}

// Related returns the question cross-referenced by q's body.
// It returns engine.ErrNotFound when the body has no marker or the
// referenced identifier is not in the corpus.
func (s *Service) Related(q quiz.Question) (quiz.Question, error) {
	id := RelatedID(q)
	if id == "" {
		return quiz.Question{}, engine.ErrNotFound
	}
	related, ok := s.corpus().ByID(id)
	if !ok {
		return quiz.Question{}, engine.ErrNotFound
	}
	return related, nil
}

// Explain returns the explanation for q, generating it on a cache miss.
func (s *Service) Explain(ctx context.Context, q quiz.Question, p Params) (*Result, error) {
	prompt := s.prompt(q, p)

	s.mu.Lock()
	if entry, ok := s.cache[q.ID]; ok && entry.prompt == prompt {
		res := &Result{Text: entry.text, Cached: true, TotalTokens: s.totalTokens}
		s.mu.Unlock()
		return res, nil
	}
	s.mu.Unlock()

	resp, err := s.provider.Generate(llm.WithPurpose(ctx, "explanation"), llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	return s.commit(q.ID, prompt, resp), nil
}

// ExplainStream streams the explanation for q through emit. A cache hit
// emits the stored text as a single chunk. The cache is only populated
// once the stream has completed; a failure mid-stream leaves it
// untouched.
func (s *Service) ExplainStream(ctx context.Context, q quiz.Question, p Params, emit func(llm.Chunk) error) (*Result, error) {
	prompt := s.prompt(q, p)

	s.mu.Lock()
	if entry, ok := s.cache[q.ID]; ok && entry.prompt == prompt {
		res := &Result{Text: entry.text, Cached: true, TotalTokens: s.totalTokens}
		s.mu.Unlock()
		if err := emit(llm.Chunk{Text: res.Text}); err != nil {
			return nil, err
		}
		return res, nil
	}
	s.mu.Unlock()

	resp, err := s.provider.GenerateStream(llm.WithPurpose(ctx, "explanation"), llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	}, emit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	return s.commit(q.ID, prompt, resp), nil
}

// commit stores a completed generation and accumulates token usage.
// Double-checked: when a concurrent call populated the same id+prompt
// while this generation was in flight, the already-cached text is kept
// and returned, so every caller sees the text the cache holds. Both
// generations' tokens count; the spend was real either way.
func (s *Service) commit(id, prompt string, resp *llm.Response) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalTokens += resp.Usage.TotalTokens

	if entry, ok := s.cache[id]; ok && entry.prompt == prompt {
		return &Result{
			Text:          entry.text,
			Cached:        true,
			CurrentTokens: resp.Usage.TotalTokens,
			TotalTokens:   s.totalTokens,
		}
	}

	s.cache[id] = cacheEntry{text: resp.Text, prompt: prompt}
	delete(s.restored, id)

	return &Result{
		Text:          resp.Text,
		CurrentTokens: resp.Usage.TotalTokens,
		TotalTokens:   s.totalTokens,
	}
}

// Cached returns the cached explanation text for id, if present.
func (s *Service) Cached(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[id]
	return entry.text, ok
}

// Keys returns the sorted identifiers with a cached or restored
// explanation. Restored keys come from a snapshot; their text is
// regenerated on demand.
func (s *Service) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(s.cache)+len(s.restored))
	for id := range s.cache {
		seen[id] = struct{}{}
	}
	for id := range s.restored {
		seen[id] = struct{}{}
	}

	keys := make([]string, 0, len(seen))
	for id := range seen {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	return keys
}

// AdoptKeys replaces the restored key set and the corpus from a
// snapshot. The live cache is cleared: snapshot restore swaps in a
// different session whose explanations exist only as keys, and
// cross-references must resolve against the restored corpus, not the
// one this service was created over.
func (s *Service) AdoptKeys(store *quiz.Store, keys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if store != nil {
		s.store = store
	}
	s.cache = make(map[string]cacheEntry)
	s.restored = make(map[string]struct{}, len(keys))
	for _, id := range keys {
		s.restored[id] = struct{}{}
	}
}

// TotalTokens returns the running token total for this session.
func (s *Service) TotalTokens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalTokens
}
