package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/linchen/gokao/internal/engine"
	"github.com/linchen/gokao/internal/quiz"
)

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	mode := engine.Mode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = engine.ModeRandom
	}

	opts := engine.NextOptions{
		JumpTo:   r.URL.Query().Get("question_id"),
		StepBack: r.URL.Query().Get("step_back") == "true",
	}

	q, err := s.eng.NextQuestion(mode, opts)
	switch {
	case errors.Is(err, engine.ErrExhausted):
		writeJSON(w, http.StatusOK, map[string]any{
			"error":    "所有題目都已出完！",
			"finished": true,
		})
		return
	case errors.Is(err, engine.ErrNoWrongQuestions):
		writeJSON(w, http.StatusOK, map[string]any{"error": "目前沒有錯題"})
		return
	case errors.Is(err, engine.ErrNotFound):
		writeError(w, http.StatusNotFound, "找不到題號為 "+opts.JumpTo+" 的題目")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, q)
}

type answerRequest struct {
	ID     string `json:"id"`
	Answer string `json:"answer"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	q, ok := s.eng.Store().ByID(req.ID)
	if !ok {
		writeError(w, http.StatusNotFound, "找不到題號為 "+req.ID+" 的題目")
		return
	}

	writeJSON(w, http.StatusOK, s.eng.SubmitAnswer(q, req.Answer))
}

type markRequest struct {
	ID string `json:"id"`
}

func (s *Server) handleMark(w http.ResponseWriter, r *http.Request) {
	var req markRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	q, ok := s.eng.Store().ByID(req.ID)
	if !ok {
		writeError(w, http.StatusNotFound, "找不到題號為 "+req.ID+" 的題目")
		return
	}

	writeJSON(w, http.StatusOK, s.eng.ToggleMark(q))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.eng.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.Progress())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	matches, err := s.eng.Store().Search(r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"matches": matches,
		"count":   len(matches),
	})
}

func (s *Server) handleReviewWrong(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.annotateAll(s.eng.WrongQuestions()))
}

func (s *Server) handleReviewMarked(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.annotateAll(s.eng.MarkedQuestions()))
}

// handleReviewExplained lists questions with a cached explanation, each
// paired with its text.
func (s *Server) handleReviewExplained(w http.ResponseWriter, r *http.Request) {
	expl := s.explainService()
	if expl == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}

	type explained struct {
		quiz.Annotated
		Explanation string `json:"ai_explanation"`
	}

	var out []explained
	for _, id := range expl.Keys() {
		text, ok := expl.Cached(id)
		if !ok {
			continue // restored key, text regenerates on demand
		}
		q, found := s.eng.Store().ByID(id)
		if !found {
			continue
		}
		out = append(out, explained{
			Annotated:   s.eng.Annotate(q),
			Explanation: text,
		})
	}
	if out == nil {
		out = []explained{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) annotateAll(qs []quiz.Question) []quiz.Annotated {
	out := make([]quiz.Annotated, len(qs))
	for i, q := range qs {
		out[i] = s.eng.Annotate(q)
	}
	return out
}
