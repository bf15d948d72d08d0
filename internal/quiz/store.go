package quiz

// Store owns the immutable corpus and the identifier→position index every
// other component reads. It is rebuilt wholesale on load or snapshot
// restore, never patched incrementally.
type Store struct {
	corpus []Question
	index  map[string]int
}

func newStore(corpus []Question) *Store {
	s := &Store{corpus: corpus}
	s.rebuildIndex()
	return s
}

// NewStore builds a Store over an already-normalized corpus, e.g. one
// reconstructed from a snapshot.
func NewStore(corpus []Question) *Store {
	return newStore(corpus)
}

func (s *Store) rebuildIndex() {
	s.index = make(map[string]int, len(s.corpus))
	for i, q := range s.corpus {
		s.index[q.ID] = i
	}
}

// Len returns the corpus size.
func (s *Store) Len() int { return len(s.corpus) }

// ByID resolves a question by identifier in O(1).
func (s *Store) ByID(id string) (Question, bool) {
	i, ok := s.index[id]
	if !ok {
		return Question{}, false
	}
	return s.corpus[i], true
}

// PositionOf returns the corpus position of id.
func (s *Store) PositionOf(id string) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// At returns the question at position i.
func (s *Store) At(i int) Question { return s.corpus[i] }

// All returns the corpus in load order. The returned slice is a copy;
// callers cannot mutate stored questions through it.
func (s *Store) All() []Question {
	out := make([]Question, len(s.corpus))
	copy(out, s.corpus)
	return out
}

// IDs returns every identifier in load order.
func (s *Store) IDs() []string {
	out := make([]string, len(s.corpus))
	for i, q := range s.corpus {
		out[i] = q.ID
	}
	return out
}
