// Package engine implements the quiz session state machine: question
// selection, answer tracking, mark toggling, and snapshot save/restore.
// One Engine owns all mutable session state; there are no package-level
// collections.
package engine

import (
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"

	"github.com/linchen/gokao/internal/quiz"
)

// Mode selects how the next question is chosen. It is chosen per call,
// not pinned to the engine.
type Mode string

const (
	ModeOrder  Mode = "order"
	ModeRandom Mode = "random"
	ModeWrong  Mode = "wrong"
)

// Expected end-of-pool conditions. These are ordinary outcomes the caller
// reacts to (offer a reset, switch modes), not failures.
var (
	// ErrExhausted means every question in the pass has been answered;
	// random mode has nothing left to draw.
	ErrExhausted = errors.New("question pool exhausted")

	// ErrNoWrongQuestions means the wrong-replay queue is empty.
	ErrNoWrongQuestions = errors.New("no wrong questions")

	// ErrNotFound means a jump or lookup referenced an unknown identifier.
	ErrNotFound = errors.New("question not found")
)

// NextOptions modifies NextQuestion. JumpTo overrides the mode with a
// direct identifier lookup; StepBack revisits the previous sequential
// position.
type NextOptions struct {
	JumpTo   string
	StepBack bool
}

// AnswerResult reports the outcome of a submitted answer together with a
// counters snapshot for the presentation layer.
type AnswerResult struct {
	Correct       bool   `json:"correct"`
	RightAnswer   string `json:"right_answer"`
	AnsweredCount int    `json:"answered_count"`
	TotalCount    int    `json:"total_count"`
	TotalWrong    int    `json:"total_wrong"`
}

// MarkResult reflects the mark state after a toggle.
type MarkResult struct {
	Marked bool `json:"marked"`
}

// Progress is a derived counters snapshot.
type Progress struct {
	Answered  int `json:"answered"`
	Remaining int `json:"remaining"`
	Wrong     int `json:"wrong"`
	Marked    int `json:"marked"`
	Total     int `json:"total"`
}

// Engine is the quiz session state machine. All methods are safe for
// concurrent use; a single mutex serializes every read-modify-write of the
// tracking sets so concurrent transport requests cannot lose updates.
type Engine struct {
	mu sync.Mutex

	sessionID string
	store     *quiz.Store

	answered  map[string]struct{}
	wrong     []quiz.Question
	wrongSeen int // answers served in the current wrong-replay cycle
	marked    map[string]struct{}
	remaining []string // corpus order, shrinks on answer
	cursor    int
	prev      int
}

// New creates an Engine over store with a fresh pass: nothing answered,
// everything remaining, cursor at the first question.
func New(store *quiz.Store) *Engine {
	e := &Engine{
		sessionID: uuid.NewString(),
		store:     store,
		answered:  make(map[string]struct{}),
		marked:    make(map[string]struct{}),
		remaining: store.IDs(),
	}
	return e
}

// SessionID identifies this engine instance in snapshots and event logs.
func (e *Engine) SessionID() string { return e.sessionID }

// Store returns the question store the engine operates over.
func (e *Engine) Store() *quiz.Store {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store
}

// NextQuestion chooses the next question for the given mode and options.
// The returned value is an annotated copy; the stored record is never
// touched.
func (e *Engine) NextQuestion(mode Mode, opts NextOptions) (quiz.Annotated, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if opts.JumpTo != "" {
		return e.jumpTo(opts.JumpTo)
	}
	if opts.StepBack {
		return e.stepBack()
	}

	switch mode {
	case ModeRandom:
		return e.nextRandom()
	case ModeWrong:
		return e.nextWrong()
	default:
		return e.nextOrder()
	}
}

func (e *Engine) nextOrder() (quiz.Annotated, error) {
	n := e.store.Len()
	if n == 0 {
		return quiz.Annotated{}, ErrExhausted
	}
	q := e.store.At(e.cursor)
	e.prev = e.cursor
	e.cursor = (e.cursor + 1) % n // wrap: the sequence restarts, it never terminates
	return e.annotate(q), nil
}

func (e *Engine) nextRandom() (quiz.Annotated, error) {
	if len(e.remaining) == 0 {
		return quiz.Annotated{}, ErrExhausted
	}
	// The drawn id stays in remaining: removal happens on answer
	// submission, so an unanswered draw can recur.
	id := e.remaining[rand.IntN(len(e.remaining))]
	q, ok := e.store.ByID(id)
	if !ok {
		return quiz.Annotated{}, ErrNotFound
	}
	return e.annotate(q), nil
}

func (e *Engine) nextWrong() (quiz.Annotated, error) {
	if len(e.wrong) == 0 {
		return quiz.Annotated{}, ErrNoWrongQuestions
	}

	// Round robin: head to tail, reshuffle once every entry has been
	// served so repeats come in a fresh order.
	q := e.wrong[0]
	e.wrong = append(e.wrong[1:], q)
	e.wrongSeen++
	if e.wrongSeen >= len(e.wrong) {
		e.wrongSeen = 0
		rand.Shuffle(len(e.wrong), func(i, j int) {
			e.wrong[i], e.wrong[j] = e.wrong[j], e.wrong[i]
		})
	}
	return e.annotate(q), nil
}

func (e *Engine) jumpTo(id string) (quiz.Annotated, error) {
	pos, ok := e.store.PositionOf(id)
	if !ok {
		return quiz.Annotated{}, ErrNotFound
	}
	e.prev = pos
	e.cursor = (pos + 1) % e.store.Len() // sequential mode continues after the jump target
	return e.annotate(e.store.At(pos)), nil
}

// stepBack re-derives the previous sequential position. Navigation only:
// remaining/wrong bookkeeping is untouched.
func (e *Engine) stepBack() (quiz.Annotated, error) {
	n := e.store.Len()
	if n == 0 {
		return quiz.Annotated{}, ErrExhausted
	}
	pos := e.cursor - 2
	if pos < 0 {
		pos = 0
	}
	e.prev = pos
	e.cursor = (pos + 1) % n
	return e.annotate(e.store.At(pos)), nil
}

func (e *Engine) annotate(q quiz.Question) quiz.Annotated {
	_, marked := e.marked[q.ID]
	return quiz.Annotate(q, marked)
}

// Annotate returns the presentation copy of q under the engine's current
// mark state.
func (e *Engine) Annotate(q quiz.Question) quiz.Annotated {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.annotate(q)
}

// SubmitAnswer grades the given answer against q. Comparison is
// case-insensitive, whitespace-trimmed, and exact: multi-answer questions
// must match the full stored letter set. An incorrect answer enqueues the
// question for wrong-replay unless it is already queued.
func (e *Engine) SubmitAnswer(q quiz.Question, answer string) AnswerResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Prefer the canonical stored record over the caller's copy.
	if stored, ok := e.store.ByID(q.ID); ok {
		q = stored
	}

	right := quiz.NormalizeAnswer(q.Answer)
	correct := quiz.NormalizeAnswer(answer) == right

	if !correct && !e.inWrong(q.ID) {
		e.wrong = append(e.wrong, q)
	}

	e.answered[q.ID] = struct{}{}
	e.removeRemaining(q.ID)

	return AnswerResult{
		Correct:       correct,
		RightAnswer:   right,
		AnsweredCount: len(e.answered),
		TotalCount:    e.store.Len(),
		TotalWrong:    len(e.wrong),
	}
}

func (e *Engine) inWrong(id string) bool {
	for _, w := range e.wrong {
		if w.ID == id {
			return true
		}
	}
	return false
}

func (e *Engine) removeRemaining(id string) {
	for i, r := range e.remaining {
		if r == id {
			e.remaining = append(e.remaining[:i], e.remaining[i+1:]...)
			return
		}
	}
}

// ToggleMark flips the mark on q and reports the state after the toggle.
func (e *Engine) ToggleMark(q quiz.Question) MarkResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.marked[q.ID]; ok {
		delete(e.marked, q.ID)
		return MarkResult{Marked: false}
	}
	e.marked[q.ID] = struct{}{}
	return MarkResult{Marked: true}
}

// Reset starts a new pass: everything remaining, nothing answered, cursor
// at the start. The wrong queue and marks survive across passes.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.remaining = e.store.IDs()
	e.answered = make(map[string]struct{})
	e.cursor = 0
	e.prev = 0
}

// Progress returns the derived counters.
func (e *Engine) Progress() Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Progress{
		Answered:  len(e.answered),
		Remaining: len(e.remaining),
		Wrong:     len(e.wrong),
		Marked:    len(e.marked),
		Total:     e.store.Len(),
	}
}

// WrongQuestions returns the wrong-replay queue in its current order.
func (e *Engine) WrongQuestions() []quiz.Question {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]quiz.Question, len(e.wrong))
	copy(out, e.wrong)
	return out
}

// MarkedQuestions returns the flagged questions in corpus order.
func (e *Engine) MarkedQuestions() []quiz.Question {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []quiz.Question
	for _, q := range e.store.All() {
		if _, ok := e.marked[q.ID]; ok {
			out = append(out, q)
		}
	}
	return out
}
