package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/linchen/gokao/internal/engine"
	"github.com/linchen/gokao/internal/explain"
	"github.com/linchen/gokao/internal/quiz"
)

type phase int

const (
	phaseQuestion phase = iota
	phaseFeedback
	phaseExplaining
	phaseExplanation
	phaseFinished
)

type explanationMsg struct {
	text string
	err  error
}

// Model is the terminal play mode: one question at a time, answers
// typed as option letters, with the same selection modes the web API
// serves.
type Model struct {
	eng  *engine.Engine
	expl *explain.Service
	mode engine.Mode

	phase    phase
	current  quiz.Annotated
	input    textinput.Model
	lastRes  engine.AnswerResult
	lastText string
	errMsg   string
	width    int
}

// NewModel creates the play model. expl may be nil when no API key is
// configured; the explanation key is then disabled.
func NewModel(eng *engine.Engine, expl *explain.Service, mode engine.Mode) Model {
	ti := textinput.New()
	ti.Placeholder = "作答（如 B 或 AC）"
	ti.CharLimit = 5
	ti.Focus()

	m := Model{
		eng:   eng,
		expl:  expl,
		mode:  mode,
		input: ti,
	}
	m.advance(engine.NextOptions{})
	return m
}

func (m Model) Init() tea.Cmd {
	return m.input.Focus()
}

// advance pulls the next question, moving to the finished phase when
// the pool is exhausted. Sequential mode wraps forever at the engine
// level, so the drill ends a pass itself once nothing remains.
func (m *Model) advance(opts engine.NextOptions) {
	if m.mode != engine.ModeWrong && !opts.StepBack && m.eng.Progress().Remaining == 0 {
		m.phase = phaseFinished
		m.errMsg = "所有題目都已出完！"
		return
	}

	q, err := m.eng.NextQuestion(m.mode, opts)
	switch {
	case errors.Is(err, engine.ErrExhausted):
		m.phase = phaseFinished
		m.errMsg = "所有題目都已出完！"
	case errors.Is(err, engine.ErrNoWrongQuestions):
		m.phase = phaseFinished
		m.errMsg = "目前沒有錯題"
	case err != nil:
		m.phase = phaseFinished
		m.errMsg = err.Error()
	default:
		m.phase = phaseQuestion
		m.current = q
		m.errMsg = ""
		m.input.SetValue("")
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case explanationMsg:
		if msg.err != nil {
			m.errMsg = "無法取得 AI 詳解，請稍後再試。"
			m.phase = phaseFeedback
		} else {
			m.lastText = msg.text
			m.phase = phaseExplanation
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.phase {
	case phaseQuestion:
		switch key {
		case "esc":
			return m, tea.Quit
		case "enter":
			answer := m.input.Value()
			if strings.TrimSpace(answer) == "" {
				return m, nil
			}
			m.lastRes = m.eng.SubmitAnswer(m.current.Question, answer)
			m.phase = phaseFeedback
			return m, nil
		case "ctrl+b":
			m.advance(engine.NextOptions{StepBack: true})
			return m, nil
		case "ctrl+t":
			res := m.eng.ToggleMark(m.current.Question)
			m.current.IsMarked = res.Marked
			return m, nil
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case phaseFeedback:
		switch key {
		case "esc", "q":
			return m, tea.Quit
		case "e":
			if m.expl == nil {
				return m, nil
			}
			m.phase = phaseExplaining
			return m, m.fetchExplanation()
		case "m":
			res := m.eng.ToggleMark(m.current.Question)
			m.current.IsMarked = res.Marked
			return m, nil
		default:
			m.advance(engine.NextOptions{})
			return m, nil
		}

	case phaseExplanation:
		switch key {
		case "esc", "q":
			return m, tea.Quit
		default:
			m.advance(engine.NextOptions{})
			return m, nil
		}

	case phaseFinished:
		switch key {
		case "r":
			m.eng.Reset()
			m.advance(engine.NextOptions{})
			return m, nil
		default:
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m Model) fetchExplanation() tea.Cmd {
	q := m.current.Question
	svc := m.expl
	return func() tea.Msg {
		res, err := svc.Explain(context.Background(), q, explain.Params{})
		if err != nil {
			return explanationMsg{err: err}
		}
		return explanationMsg{text: res.Text}
	}
}

func (m Model) View() tea.View {
	return tea.NewView(m.render())
}

// render draws the current phase as plain text. Split from View so
// tests can assert on the frame content directly.
func (m Model) render() string {
	switch m.phase {
	case phaseFeedback:
		return m.viewFeedback()
	case phaseExplaining:
		return styleCard.Render(styleHint.Render("AI 詳解生成中…"))
	case phaseExplanation:
		return m.viewExplanation()
	case phaseFinished:
		return m.viewFinished()
	default:
		return m.viewQuestion()
	}
}

func (m Model) viewQuestion() string {
	var b strings.Builder

	p := m.eng.Progress()
	header := fmt.Sprintf("題號 %s  [%d/%d]", m.current.ID, p.Answered, p.Total)
	if m.current.IsMarked {
		header += "  ★"
	}
	if m.current.IsMultiple {
		header += "  （複選）"
	}
	b.WriteString(styleTitle.Render(header) + "\n\n")
	b.WriteString(styleBody.Render(m.current.Body) + "\n\n")

	for _, opt := range m.current.Options {
		b.WriteString(styleBody.Render("  "+opt) + "\n")
	}

	b.WriteString("\n" + m.input.View() + "\n")
	b.WriteString(styleHint.Render("Enter 作答 · Ctrl+T 標記 · Ctrl+B 上一題 · Esc 離開"))

	return styleCard.Render(b.String())
}

func (m Model) viewFeedback() string {
	var b strings.Builder

	if m.lastRes.Correct {
		b.WriteString(styleCorrect.Render("✓ 答對了！") + "\n\n")
	} else {
		b.WriteString(styleIncorrect.Render("✗ 答錯了") + "\n")
		b.WriteString(styleBody.Render("正確答案："+m.lastRes.RightAnswer) + "\n\n")
	}

	b.WriteString(styleDim.Render(fmt.Sprintf("進度 %d/%d · 錯題 %d",
		m.lastRes.AnsweredCount, m.lastRes.TotalCount, m.lastRes.TotalWrong)) + "\n\n")

	if m.errMsg != "" {
		b.WriteString(styleIncorrect.Render(m.errMsg) + "\n\n")
	}

	hint := "任意鍵下一題 · m 標記 · q 離開"
	if m.expl != nil {
		hint = "任意鍵下一題 · e AI 詳解 · m 標記 · q 離開"
	}
	b.WriteString(styleHint.Render(hint))

	return styleCard.Render(b.String())
}

func (m Model) viewExplanation() string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("AI 詳解") + "\n\n")
	b.WriteString(styleBody.Render(m.lastText) + "\n\n")
	b.WriteString(styleHint.Render("任意鍵下一題 · q 離開"))
	return styleCard.Render(b.String())
}

func (m Model) viewFinished() string {
	var b strings.Builder
	p := m.eng.Progress()
	b.WriteString(styleTitle.Render(m.errMsg) + "\n\n")
	b.WriteString(styleBody.Render(fmt.Sprintf("已作答 %d/%d · 錯題 %d · 標記 %d",
		p.Answered, p.Total, p.Wrong, p.Marked)) + "\n\n")
	b.WriteString(styleHint.Render("r 重新開始 · 任意鍵離開"))
	return styleCard.Render(b.String())
}
