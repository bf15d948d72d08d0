package cmd

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/linchen/gokao/internal/engine"
	"github.com/linchen/gokao/internal/explain"
	"github.com/linchen/gokao/internal/llm"
	"github.com/linchen/gokao/internal/store"
	"github.com/linchen/gokao/internal/tui"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Drill questions in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		modeFlag, _ := cmd.Flags().GetString("mode")
		mode := engine.Mode(modeFlag)
		switch mode {
		case engine.ModeOrder, engine.ModeRandom, engine.ModeWrong:
		default:
			return fmt.Errorf("unknown mode %q (order, random, wrong)", modeFlag)
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

		eng := engine.New(qs)

		// AI explanations are optional in the terminal. Missing keys
		// leave the drill fully usable.
		var expl *explain.Service
		cfg := llm.ConfigFromEnv()
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
			fmt.Fprintln(os.Stderr, "AI explanations will be unavailable.")
		} else {
			provider, err := llm.NewProvider(ctx, cfg, st.EventRepo())
			if err != nil {
				return fmt.Errorf("init LLM provider: %w", err)
			}
			expl = explain.NewService(provider, qs, explain.DefaultConfig())
		}

		p := tea.NewProgram(tui.NewModel(eng, expl, mode))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("run program: %w", err)
		}
		return nil
	},
}

func init() {
	playCmd.Flags().StringSlice("bank", nil, "Question bank JSON file or directory (repeatable)")
	playCmd.Flags().String("mode", "order", "Question selection mode: order, random, or wrong")
}
