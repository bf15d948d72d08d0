package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/linchen/gokao/internal/explain"
	"github.com/linchen/gokao/internal/llm"
)

type explanationRequest struct {
	ID string `json:"id"`
}

func (s *Server) explanationParams(r *http.Request) explain.Params {
	q := r.URL.Query()
	return explain.Params{
		Detail:     q.Get("detail") == "true",
		Honest:     q.Get("honest") == "true",
		ChoiceOnly: q.Get("choice_only") == "true",
	}
}

func (s *Server) handleExplanation(w http.ResponseWriter, r *http.Request) {
	expl := s.explainService()
	if expl == nil {
		writeError(w, http.StatusForbidden, "缺少 API Key")
		return
	}

	var req explanationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	q, ok := s.eng.Store().ByID(req.ID)
	if !ok {
		writeError(w, http.StatusNotFound, "找不到題號為 "+req.ID+" 的題目")
		return
	}

	res, err := expl.Explain(r.Context(), q, s.explanationParams(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "無法取得 AI 詳解，請稍後再試。")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"explanation":    res.Text,
		"current_tokens": res.CurrentTokens,
		"total_tokens":   res.TotalTokens,
	})
}

// handleExplanationStream streams the explanation body as text/html.
// Token usage is appended as a hidden element the client parses out of
// the body; a cache hit arrives as one write.
func (s *Server) handleExplanationStream(w http.ResponseWriter, r *http.Request) {
	expl := s.explainService()
	if expl == nil {
		writeError(w, http.StatusForbidden, "缺少 API Key")
		return
	}

	var req explanationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	q, ok := s.eng.Store().ByID(req.ID)
	if !ok {
		writeError(w, http.StatusNotFound, "找不到題號為 "+req.ID+" 的題目")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	flusher, _ := w.(http.Flusher)

	res, err := expl.ExplainStream(r.Context(), q, s.explanationParams(r), func(c llm.Chunk) error {
		if _, err := w.Write([]byte(c.Text)); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		// Headers are already out; surface the failure in the body.
		fmt.Fprint(w, `<p style="color:red;">無法取得 AI 詳解，請稍後再試。</p>`)
		return
	}

	tokenInfo, _ := json.Marshal(map[string]int{
		"current_tokens": res.CurrentTokens,
		"total_tokens":   res.TotalTokens,
	})
	fmt.Fprintf(w, "<div data-tokens='%s' style='display:none;'></div>", tokenInfo)
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	totals, err := s.cfg.Events.Totals(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sessionTokens := 0
	if expl := s.explainService(); expl != nil {
		sessionTokens = expl.TotalTokens()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_tokens": sessionTokens,
		"requests":       totals.Requests,
		"input_tokens":   totals.InputTokens,
		"output_tokens":  totals.OutputTokens,
	})
}
