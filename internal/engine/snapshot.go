package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/linchen/gokao/internal/quiz"
)

// ErrCorruptSnapshot means a snapshot could not be parsed or failed
// consistency checks. The restore is abandoned and the engine keeps its
// prior state.
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// snapshotVersion is the current snapshot document version. Readers
// ignore unknown fields and default absent ones, so the format stays
// forward-readable as optional fields are added.
const snapshotVersion = 1

// snapshotDoc is the self-describing snapshot document.
type snapshotDoc struct {
	Version    int             `json:"version"`
	SessionID  string          `json:"session_id,omitempty"`
	SavedAt    time.Time       `json:"saved_at"`
	Questions  []quiz.Question `json:"questions"`
	Index      map[string]int  `json:"index,omitempty"`
	Answered   []string        `json:"answered,omitempty"`
	Wrong      []quiz.Question `json:"wrong,omitempty"`
	WrongSeen  int             `json:"wrong_seen,omitempty"`
	Marked     []string        `json:"marked,omitempty"`
	Remaining  []string        `json:"remaining,omitempty"`
	Cursor     int             `json:"cursor,omitempty"`
	PrevCursor int             `json:"prev_cursor,omitempty"`
	Explained  []string        `json:"explained,omitempty"`
}

// SaveSnapshot serializes the full engine state, plus the explanation
// cache key set supplied by the caller, as a snapshot document.
func (e *Engine) SaveSnapshot(explained []string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc := snapshotDoc{
		Version:    snapshotVersion,
		SessionID:  e.sessionID,
		SavedAt:    time.Now().UTC(),
		Questions:  e.store.All(),
		Index:      indexOf(e.store),
		Answered:   sortedKeys(e.answered),
		Wrong:      append([]quiz.Question(nil), e.wrong...),
		WrongSeen:  e.wrongSeen,
		Marked:     sortedKeys(e.marked),
		Remaining:  append([]string(nil), e.remaining...),
		Cursor:     e.cursor,
		PrevCursor: e.prev,
		Explained:  append([]string(nil), explained...),
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// RestoreSnapshot replaces all engine state with the snapshot's. The new
// state is built and verified completely before it is swapped in; on any
// failure the engine keeps its prior state untouched. The identifier
// index is rebuilt from the corpus before any scheduler state is adopted.
// Returns the restored explanation cache key set.
func (e *Engine) RestoreSnapshot(data []byte) ([]string, error) {
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	store, err := buildStore(doc)
	if err != nil {
		return nil, err
	}

	answered, err := idSet(doc.Answered, store, "answered")
	if err != nil {
		return nil, err
	}
	marked, err := idSet(doc.Marked, store, "marked")
	if err != nil {
		return nil, err
	}

	remaining := doc.Remaining
	if remaining == nil {
		remaining = []string{}
	}
	for _, id := range remaining {
		if _, ok := store.ByID(id); !ok {
			return nil, fmt.Errorf("%w: remaining id %q not in corpus", ErrCorruptSnapshot, id)
		}
		if _, dup := answered[id]; dup {
			return nil, fmt.Errorf("%w: id %q both answered and remaining", ErrCorruptSnapshot, id)
		}
	}

	if err := checkCursor(doc.Cursor, store.Len()); err != nil {
		return nil, err
	}
	if err := checkCursor(doc.PrevCursor, store.Len()); err != nil {
		return nil, err
	}
	if doc.WrongSeen < 0 || (len(doc.Wrong) > 0 && doc.WrongSeen >= len(doc.Wrong)) {
		return nil, fmt.Errorf("%w: wrong_seen %d out of range", ErrCorruptSnapshot, doc.WrongSeen)
	}

	// Everything validated: swap atomically.
	e.mu.Lock()
	defer e.mu.Unlock()
	if doc.SessionID != "" {
		e.sessionID = doc.SessionID
	}
	e.store = store
	e.answered = answered
	e.wrong = append([]quiz.Question(nil), doc.Wrong...)
	e.wrongSeen = doc.WrongSeen
	e.marked = marked
	e.remaining = append([]string(nil), remaining...)
	e.cursor = doc.Cursor
	e.prev = doc.PrevCursor

	return doc.Explained, nil
}

func buildStore(doc snapshotDoc) (*quiz.Store, error) {
	seen := make(map[string]struct{}, len(doc.Questions))
	for _, q := range doc.Questions {
		if q.ID == "" {
			return nil, fmt.Errorf("%w: question with empty id", ErrCorruptSnapshot)
		}
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate question id %q", ErrCorruptSnapshot, q.ID)
		}
		seen[q.ID] = struct{}{}
	}

	store := quiz.NewStore(doc.Questions)

	// A serialized index is advisory; the rebuilt one is authoritative,
	// but disagreement means the document is damaged.
	for id, pos := range doc.Index {
		got, ok := store.PositionOf(id)
		if !ok || got != pos {
			return nil, fmt.Errorf("%w: index entry %q=%d disagrees with corpus", ErrCorruptSnapshot, id, pos)
		}
	}

	return store, nil
}

func idSet(ids []string, store *quiz.Store, field string) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := store.ByID(id); !ok {
			return nil, fmt.Errorf("%w: %s id %q not in corpus", ErrCorruptSnapshot, field, id)
		}
		set[id] = struct{}{}
	}
	return set, nil
}

func checkCursor(c, n int) error {
	if c < 0 || (n > 0 && c >= n) || (n == 0 && c != 0) {
		return fmt.Errorf("%w: cursor %d out of range for %d questions", ErrCorruptSnapshot, c, n)
	}
	return nil
}

func indexOf(s *quiz.Store) map[string]int {
	m := make(map[string]int, s.Len())
	for i, q := range s.All() {
		m[q.ID] = i
	}
	return m
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
