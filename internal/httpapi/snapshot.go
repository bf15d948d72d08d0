package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/linchen/gokao/internal/engine"
	"github.com/linchen/gokao/internal/store"
)

// snapshotKeep caps the archived snapshot history kept per database.
const snapshotKeep = 20

func (s *Server) handleSnapshotSave(w http.ResponseWriter, r *http.Request) {
	var explained []string
	if expl := s.explainService(); expl != nil {
		explained = expl.Keys()
	}

	data, err := s.eng.SaveSnapshot(explained)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if s.cfg.SnapshotPath != "" {
		if err := writeFileAtomic(s.cfg.SnapshotPath, data); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	if s.cfg.Snapshots != nil {
		err := s.cfg.Snapshots.Save(r.Context(), &store.SessionSnapshot{
			SessionID: s.eng.SessionID(),
			Data:      data,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		// The save already succeeded; a failed prune only delays cleanup.
		if err := s.cfg.Snapshots.Prune(r.Context(), snapshotKeep); err != nil {
			slog.Warn("snapshot prune failed", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "saved",
		"session_id": s.eng.SessionID(),
		"bytes":      len(data),
	})
}

func (s *Server) handleSnapshotRestore(w http.ResponseWriter, r *http.Request) {
	var data []byte

	if s.cfg.SnapshotPath != "" {
		b, err := os.ReadFile(s.cfg.SnapshotPath)
		if err == nil {
			data = b
		} else if !os.IsNotExist(err) {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	if data == nil && s.cfg.Snapshots != nil {
		snap, err := s.cfg.Snapshots.Latest(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if snap != nil {
			data = snap.Data
		}
	}

	if data == nil {
		writeError(w, http.StatusNotFound, "沒有可還原的存檔")
		return
	}

	explained, err := s.eng.RestoreSnapshot(data)
	if errors.Is(err, engine.ErrCorruptSnapshot) {
		writeError(w, http.StatusUnprocessableEntity, "存檔已損毀，狀態未變更")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if expl := s.explainService(); expl != nil {
		expl.AdoptKeys(s.eng.Store(), explained)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "restored",
		"progress": s.eng.Progress(),
	})
}

// writeFileAtomic writes via a temp file in the target directory, then
// renames over the destination.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
