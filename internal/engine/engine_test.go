package engine

import (
	"errors"
	"testing"

	"github.com/linchen/gokao/internal/quiz"
)

func testQuestions(n int) []quiz.Question {
	qs := make([]quiz.Question, n)
	letters := []string{"A", "B", "C", "D", "E"}
	for i := range qs {
		qs[i] = quiz.Question{
			ID:      string(rune('a'+i)) + "_1",
			Body:    "question",
			Options: []string{"o1", "o2", "o3", "o4", "o5"},
			Answer:  letters[i%len(letters)],
		}
	}
	return qs
}

func testEngine(t *testing.T, n int) *Engine {
	t.Helper()
	return New(quiz.NewStore(testQuestions(n)))
}

func TestOrderModeCycles(t *testing.T) {
	const n = 4
	e := testEngine(t, n)

	var first string
	for i := 0; i <= n; i++ {
		q, err := e.NextQuestion(ModeOrder, NextOptions{})
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if i == 0 {
			first = q.ID
		}
		if i == n && q.ID != first {
			t.Errorf("call %d returned %q, want wraparound to %q", i, q.ID, first)
		}
	}
}

func TestRandomModeDrawDoesNotRemove(t *testing.T) {
	e := testEngine(t, 3)

	for i := 0; i < 10; i++ {
		if _, err := e.NextQuestion(ModeRandom, NextOptions{}); err != nil {
			t.Fatalf("draw %d: %v", i, err)
		}
	}
	if got := e.Progress().Remaining; got != 3 {
		t.Errorf("Remaining = %d after unanswered draws, want 3", got)
	}
}

func TestRandomModeExhaustsWhenEveryDrawIsAnswered(t *testing.T) {
	const n = 5
	e := testEngine(t, n)

	// When every draw is answered immediately, each draw removes exactly
	// one question and N draws exhaust the pass.
	for i := 0; i < n; i++ {
		p := e.Progress()
		if p.Remaining != n-i {
			t.Fatalf("Remaining = %d before draw %d, want %d", p.Remaining, i, n-i)
		}
		q, err := e.NextQuestion(ModeRandom, NextOptions{})
		if err != nil {
			t.Fatalf("draw %d: %v", i, err)
		}
		e.SubmitAnswer(q.Question, q.Answer)
	}

	_, err := e.NextQuestion(ModeRandom, NextOptions{})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("draw after exhaustion: err = %v, want ErrExhausted", err)
	}
}

func TestWrongModeEmptyQueue(t *testing.T) {
	e := testEngine(t, 3)
	_, err := e.NextQuestion(ModeWrong, NextOptions{})
	if !errors.Is(err, ErrNoWrongQuestions) {
		t.Fatalf("err = %v, want ErrNoWrongQuestions", err)
	}
}

func TestWrongModeRoundRobin(t *testing.T) {
	e := testEngine(t, 3)

	// Seed the wrong queue with all three questions, in order.
	for _, q := range e.Store().All() {
		res := e.SubmitAnswer(q, "Z")
		if res.Correct {
			t.Fatal("expected incorrect answer")
		}
	}
	seeded := e.WrongQuestions()
	if len(seeded) != 3 {
		t.Fatalf("wrong queue length = %d, want 3", len(seeded))
	}

	// First full cycle replays the queue in FIFO order.
	for i := 0; i < 3; i++ {
		q, err := e.NextQuestion(ModeWrong, NextOptions{})
		if err != nil {
			t.Fatalf("wrong draw %d: %v", i, err)
		}
		if q.ID != seeded[i].ID {
			t.Errorf("draw %d = %q, want %q", i, q.ID, seeded[i].ID)
		}
	}

	// After the counter wraps the queue is reshuffled, but it still holds
	// exactly the same members: the next cycle serves each exactly once.
	want := map[string]int{}
	for _, q := range seeded {
		want[q.ID] = 0
	}
	for i := 0; i < 3; i++ {
		q, err := e.NextQuestion(ModeWrong, NextOptions{})
		if err != nil {
			t.Fatalf("second cycle draw %d: %v", i, err)
		}
		if _, ok := want[q.ID]; !ok {
			t.Fatalf("draw returned %q, not in wrong queue", q.ID)
		}
		want[q.ID]++
	}
	for id, n := range want {
		if n != 1 {
			t.Errorf("question %q served %d times in one cycle, want 1", id, n)
		}
	}
}

func TestWrongQueueNoDuplicates(t *testing.T) {
	e := testEngine(t, 2)
	q := e.Store().At(0)

	e.SubmitAnswer(q, "Z")
	e.SubmitAnswer(q, "Z")
	if got := len(e.WrongQuestions()); got != 1 {
		t.Errorf("wrong queue length = %d after repeated misses, want 1", got)
	}
}

func TestWrongQueueSurvivesCorrectReanswer(t *testing.T) {
	e := testEngine(t, 2)
	q := e.Store().At(0)

	e.SubmitAnswer(q, "Z")
	e.SubmitAnswer(q, q.Answer) // correct now, but removal is via replay consumption only
	if got := len(e.WrongQuestions()); got != 1 {
		t.Errorf("wrong queue length = %d, want 1", got)
	}
}

func TestJumpSetsSequentialCursor(t *testing.T) {
	e := testEngine(t, 4)
	ids := e.Store().IDs()

	q, err := e.NextQuestion(ModeOrder, NextOptions{JumpTo: ids[2]})
	if err != nil {
		t.Fatalf("jump: %v", err)
	}
	if q.ID != ids[2] {
		t.Fatalf("jump returned %q, want %q", q.ID, ids[2])
	}

	next, err := e.NextQuestion(ModeOrder, NextOptions{})
	if err != nil {
		t.Fatalf("next after jump: %v", err)
	}
	if next.ID != ids[3] {
		t.Errorf("next after jump = %q, want %q", next.ID, ids[3])
	}
}

func TestJumpUnknownID(t *testing.T) {
	e := testEngine(t, 2)
	_, err := e.NextQuestion(ModeOrder, NextOptions{JumpTo: "nope_9"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStepBack(t *testing.T) {
	e := testEngine(t, 4)
	ids := e.Store().IDs()

	e.NextQuestion(ModeOrder, NextOptions{}) // serves ids[0], cursor → 1
	e.NextQuestion(ModeOrder, NextOptions{}) // serves ids[1], cursor → 2

	back, err := e.NextQuestion(ModeOrder, NextOptions{StepBack: true})
	if err != nil {
		t.Fatalf("step back: %v", err)
	}
	if back.ID != ids[0] {
		t.Errorf("step back = %q, want %q", back.ID, ids[0])
	}

	// Step-back at the start floors at the first question.
	e2 := testEngine(t, 4)
	first, err := e2.NextQuestion(ModeOrder, NextOptions{StepBack: true})
	if err != nil {
		t.Fatalf("step back at start: %v", err)
	}
	if first.ID != ids[0] {
		t.Errorf("step back at start = %q, want %q", first.ID, ids[0])
	}

	// Navigation must not shrink remaining.
	if got := e.Progress().Remaining; got != 4 {
		t.Errorf("Remaining = %d after navigation, want 4", got)
	}
}

func TestSubmitAnswerComparison(t *testing.T) {
	e := New(quiz.NewStore([]quiz.Question{
		{ID: "A_1", Body: "q", Options: []string{"1", "2", "3", "4", "5"}, Answer: "B"},
		{ID: "A_2", Kind: quiz.KindMulti, Body: "q", Options: []string{"1", "2", "3", "4", "5"}, Answer: "AC"},
	}))

	tests := []struct {
		id     string
		answer string
		want   bool
	}{
		{"A_1", "b", true},
		{"A_1", " B ", true},
		{"A_1", "a", false},
		{"A_2", "ac", true},
		{"A_2", "a", false},  // no partial credit
		{"A_2", "ca", false}, // letter order must match as stored
	}

	for _, tt := range tests {
		q, _ := e.Store().ByID(tt.id)
		res := e.SubmitAnswer(q, tt.answer)
		if res.Correct != tt.want {
			t.Errorf("SubmitAnswer(%s, %q).Correct = %v, want %v", tt.id, tt.answer, res.Correct, tt.want)
		}
	}
}

func TestToggleMarkIdempotentCycle(t *testing.T) {
	e := testEngine(t, 2)
	q := e.Store().At(0)

	if res := e.ToggleMark(q); !res.Marked {
		t.Error("first toggle: Marked = false, want true")
	}
	if res := e.ToggleMark(q); res.Marked {
		t.Error("second toggle: Marked = true, want false")
	}
	if res := e.ToggleMark(q); !res.Marked {
		t.Error("third toggle: Marked = false, want true")
	}
}

func TestMarkAnnotation(t *testing.T) {
	e := testEngine(t, 2)
	q := e.Store().At(0)
	e.ToggleMark(q)

	got, err := e.NextQuestion(ModeOrder, NextOptions{JumpTo: q.ID})
	if err != nil {
		t.Fatalf("jump: %v", err)
	}
	if !got.IsMarked {
		t.Error("IsMarked = false on annotated copy, want true")
	}
	// The stored record must stay clean.
	stored, _ := e.Store().ByID(q.ID)
	if stored.Answer != q.Answer || stored.Body != q.Body {
		t.Error("stored question mutated by annotation")
	}
}

func TestResetKeepsWrongAndMarked(t *testing.T) {
	e := New(quiz.NewStore([]quiz.Question{
		{ID: "A_1", Body: "q", Options: []string{"1", "2", "3", "4", "5"}, Answer: "B"},
		{ID: "A_2", Kind: quiz.KindMulti, Body: "q", Options: []string{"1", "2", "3", "4", "5"}, Answer: "AC"},
	}))

	q1, _ := e.Store().ByID("A_1")
	q2, _ := e.Store().ByID("A_2")

	if res := e.SubmitAnswer(q1, "b"); !res.Correct {
		t.Fatal("expected correct answer for A_1")
	}
	res := e.SubmitAnswer(q2, "a")
	if res.Correct {
		t.Fatal("expected incorrect answer for A_2")
	}
	if res.TotalWrong != 1 {
		t.Fatalf("TotalWrong = %d, want 1", res.TotalWrong)
	}
	e.ToggleMark(q1)

	e.Reset()

	p := e.Progress()
	if p.Answered != 0 {
		t.Errorf("Answered = %d after reset, want 0", p.Answered)
	}
	if p.Remaining != 2 {
		t.Errorf("Remaining = %d after reset, want 2", p.Remaining)
	}
	wrong := e.WrongQuestions()
	if len(wrong) != 1 || wrong[0].ID != "A_2" {
		t.Errorf("wrong queue = %v after reset, want [A_2]", wrong)
	}
	if len(e.MarkedQuestions()) != 1 {
		t.Error("marks cleared by reset")
	}

	// Sequential cursor restarted.
	q, err := e.NextQuestion(ModeOrder, NextOptions{})
	if err != nil {
		t.Fatalf("next after reset: %v", err)
	}
	if q.ID != "A_1" {
		t.Errorf("first question after reset = %q, want A_1", q.ID)
	}
}

func TestAnsweredAndRemainingDisjoint(t *testing.T) {
	e := testEngine(t, 5)

	for i, q := range e.Store().All() {
		if i%2 == 0 {
			e.SubmitAnswer(q, q.Answer)
		} else {
			e.SubmitAnswer(q, "Z")
		}
		p := e.Progress()
		if p.Answered+p.Remaining != p.Total {
			t.Fatalf("Answered(%d) + Remaining(%d) != Total(%d)", p.Answered, p.Remaining, p.Total)
		}
	}
}
