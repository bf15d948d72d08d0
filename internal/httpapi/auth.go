package httpapi

import (
	"encoding/json"
	"net/http"
)

type loginRequest struct {
	Password string `json:"password"`
	APIKey   string `json:"api_key"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Password != s.cfg.Password {
		writeError(w, http.StatusUnauthorized, "密碼錯誤")
		return
	}
	if req.APIKey == "" && s.explainService() == nil {
		writeError(w, http.StatusBadRequest, "請輸入 API Key")
		return
	}

	if req.APIKey != "" {
		if err := s.configureProvider(r.Context(), req.APIKey); err != nil {
			writeError(w, http.StatusBadRequest, "API Key 無法使用")
			return
		}
	}

	sess, _ := s.cookies.Get(r, sessionName)
	sess.Values["logged_in"] = true
	if err := sess.Save(r, w); err != nil {
		writeError(w, http.StatusInternalServerError, "session save failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.cookies.Get(r, sessionName)
	delete(sess.Values, "logged_in")
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		writeError(w, http.StatusInternalServerError, "session save failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireLogin gates the API behind the password login.
func (s *Server) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := s.cookies.Get(r, sessionName)
		if ok, _ := sess.Values["logged_in"].(bool); !ok {
			writeError(w, http.StatusForbidden, "未登入")
			return
		}
		next.ServeHTTP(w, r)
	})
}
