package tui

import (
	"fmt"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/linchen/gokao/internal/engine"
	"github.com/linchen/gokao/internal/quiz"
)

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func testModel(t *testing.T) Model {
	t.Helper()
	eng := engine.New(quiz.NewStore([]quiz.Question{
		{ID: "113司法-1", Kind: quiz.KindSingle, Body: "題目一",
			Options: []string{"(A)甲", "(B)乙", "(C)丙", "(D)丁"}, Answer: "A"},
		{ID: "113司法-2", Kind: quiz.KindSingle, Body: "題目二",
			Options: []string{"(A)甲", "(B)乙", "(C)丙", "(D)丁"}, Answer: "B"},
	}))
	return NewModel(eng, nil, engine.ModeOrder)
}

func typeAnswer(m tea.Model, answer string) tea.Model {
	for _, r := range answer {
		m, _ = m.Update(keyPress(r))
	}
	m, _ = m.Update(specialKey(tea.KeyEnter))
	return m
}

func TestModel_StartsOnFirstQuestion(t *testing.T) {
	m := testModel(t)
	if m.phase != phaseQuestion {
		t.Fatalf("phase = %d, want question", m.phase)
	}
	view := m.render()
	if !strings.Contains(view, "題目一") {
		t.Fatalf("view missing question body: %q", view)
	}
}

func TestModel_CorrectAnswerFeedback(t *testing.T) {
	var m tea.Model = testModel(t)
	m = typeAnswer(m, "A")

	model := m.(Model)
	if model.phase != phaseFeedback {
		t.Fatalf("phase = %d, want feedback", model.phase)
	}
	if !model.lastRes.Correct {
		t.Fatal("expected correct answer")
	}
	if !strings.Contains(model.render(), "答對了") {
		t.Fatalf("feedback view missing success text: %q", model.render())
	}
}

func TestModel_WrongAnswerShowsRightAnswer(t *testing.T) {
	var m tea.Model = testModel(t)
	m = typeAnswer(m, "D")

	model := m.(Model)
	if model.lastRes.Correct {
		t.Fatal("expected wrong answer")
	}
	if !strings.Contains(model.render(), "正確答案：A") {
		t.Fatalf("feedback view missing right answer: %q", model.render())
	}
}

func TestModel_AnyKeyAdvancesAfterFeedback(t *testing.T) {
	var m tea.Model = testModel(t)
	m = typeAnswer(m, "A")
	m, _ = m.Update(keyPress(' '))

	model := m.(Model)
	if model.phase != phaseQuestion {
		t.Fatalf("phase = %d, want question", model.phase)
	}
	if model.current.ID != "113司法-2" {
		t.Fatalf("current = %q, want 113司法-2", model.current.ID)
	}
}

func TestModel_EmptyAnswerIgnored(t *testing.T) {
	var m tea.Model = testModel(t)
	m, _ = m.Update(specialKey(tea.KeyEnter))

	model := m.(Model)
	if model.phase != phaseQuestion {
		t.Fatal("empty submit should stay on the question")
	}
}

func TestModel_MarkToggleInQuestionPhase(t *testing.T) {
	var m tea.Model = testModel(t)
	m, _ = m.Update(tea.KeyPressMsg{Code: 't', Mod: tea.ModCtrl})

	model := m.(Model)
	if !model.current.IsMarked {
		t.Fatal("ctrl+t should mark the question")
	}
	if model.eng.Progress().Marked != 1 {
		t.Fatal("engine should record the mark")
	}
}

func TestModel_FinishedAfterPoolExhausts(t *testing.T) {
	var m tea.Model = testModel(t)
	m = typeAnswer(m, "A")
	m, _ = m.Update(keyPress(' '))
	m = typeAnswer(m, "B")
	m, _ = m.Update(keyPress(' '))

	model := m.(Model)
	if model.phase != phaseFinished {
		t.Fatalf("phase = %d, want finished", model.phase)
	}
	if !strings.Contains(model.render(), "已作答 2/2") {
		t.Fatalf("finished view missing progress: %q", model.render())
	}
}

func TestModel_ViewSatisfiesProgramContract(t *testing.T) {
	m := testModel(t)
	var _ tea.Model = m

	v := m.View()
	content := fmt.Sprint(v.Content)
	if !strings.Contains(content, "題目一") {
		t.Fatalf("view content missing question body: %q", content)
	}
}

func TestModel_ResetRestartsFromFinished(t *testing.T) {
	var m tea.Model = testModel(t)
	m = typeAnswer(m, "A")
	m, _ = m.Update(keyPress(' '))
	m = typeAnswer(m, "B")
	m, _ = m.Update(keyPress(' '))
	m, _ = m.Update(keyPress('r'))

	model := m.(Model)
	if model.phase != phaseQuestion {
		t.Fatalf("phase = %d, want question after reset", model.phase)
	}
	if model.eng.Progress().Answered != 0 {
		t.Fatal("reset should clear answered count")
	}
}
