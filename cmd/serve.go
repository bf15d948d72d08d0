package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/gorilla/securecookie"
	"github.com/linchen/gokao/internal/engine"
	"github.com/linchen/gokao/internal/httpapi"
	"github.com/linchen/gokao/internal/llm"
	"github.com/linchen/gokao/internal/quiz"
	"github.com/linchen/gokao/internal/store"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the quiz session over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		snapshotPath, _ := cmd.Flags().GetString("snapshot")
		origins, _ := cmd.Flags().GetStringSlice("origin")
		secureCookies, _ := cmd.Flags().GetBool("secure-cookies")

		password := os.Getenv("GOKAO_PASSWORD")
		if password == "" {
			return fmt.Errorf("GOKAO_PASSWORD is not set")
		}

		qs, err := loadBanks(cmd)
		if err != nil {
			return err
		}

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		eventRepo := st.EventRepo()
		srv := httpapi.NewServer(httpapi.Config{
			Password:      password,
			SessionSecret: sessionSecret(),
			Engine:        engine.New(qs),
			NewProvider: func(ctx context.Context, apiKey string) (llm.Provider, error) {
				cfg := llm.ConfigFromEnv().WithAPIKey(apiKey)
				if err := cfg.Validate(); err != nil {
					return nil, err
				}
				return llm.NewProvider(ctx, cfg, eventRepo)
			},
			Events:         eventRepo,
			Snapshots:      st.SnapshotRepo(),
			SnapshotPath:   snapshotPath,
			AllowedOrigins: origins,
			SecureCookies:  secureCookies,
		})

		slog.Info("question banks loaded", "questions", qs.Len())
		slog.Info("serving quiz API", "addr", addr)
		return http.ListenAndServe(addr, srv.Router())
	},
}

// loadBanks reads the question bank files named by --bank. A flag value
// naming a directory loads every *.json file inside it.
func loadBanks(cmd *cobra.Command) (*quiz.Store, error) {
	banks, _ := cmd.Flags().GetStringSlice("bank")
	if len(banks) == 0 {
		return nil, fmt.Errorf("no question banks given (use --bank)")
	}

	var paths []string
	for _, b := range banks {
		info, err := os.Stat(b)
		if err != nil {
			return nil, fmt.Errorf("stat bank %s: %w", b, err)
		}
		if info.IsDir() {
			matches, err := filepath.Glob(filepath.Join(b, "*.json"))
			if err != nil {
				return nil, err
			}
			sort.Strings(matches)
			paths = append(paths, matches...)
		} else {
			paths = append(paths, b)
		}
	}

	qs, loadErrs := quiz.Load(paths)
	for _, le := range loadErrs {
		slog.Warn("question bank skipped", "source", le.Source, "error", le.Err)
	}
	if qs.Len() == 0 {
		return nil, fmt.Errorf("no questions loaded from %d bank file(s)", len(paths))
	}
	return qs, nil
}

// sessionSecret uses GOKAO_SESSION_SECRET when set, otherwise a random
// per-process key. Random keys invalidate cookies across restarts.
func sessionSecret() []byte {
	if s := os.Getenv("GOKAO_SESSION_SECRET"); s != "" {
		return []byte(s)
	}
	return securecookie.GenerateRandomKey(32)
}

func init() {
	serveCmd.Flags().String("addr", ":5000", "Listen address")
	serveCmd.Flags().StringSlice("bank", nil, "Question bank JSON file or directory (repeatable)")
	serveCmd.Flags().String("snapshot", "gokao_save.json", "Session snapshot file (empty disables file persistence)")
	serveCmd.Flags().StringSlice("origin", nil, "Allowed CORS origin (repeatable)")
	serveCmd.Flags().Bool("secure-cookies", false, "Mark the session cookie Secure (requires HTTPS)")
}
