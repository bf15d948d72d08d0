package cmd

import (
	"fmt"
	"strings"

	"github.com/linchen/gokao/internal/ingest"
	"github.com/spf13/cobra"
)

var fixCmd = &cobra.Command{
	Use:   "fix <bank.json>",
	Short: "Normalize fullwidth letters in a bank and report option problems",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = strings.TrimSuffix(args[0], ".json") + "_fixed.json"
		}

		issues, err := ingest.FixFile(args[0], out)
		if err != nil {
			return fmt.Errorf("fix bank: %w", err)
		}

		for _, is := range issues {
			fmt.Println(is)
		}
		if len(issues) == 0 {
			fmt.Println("沒有發現問題")
		}
		fmt.Printf("已寫入 %s\n", out)
		return nil
	},
}

func init() {
	fixCmd.Flags().StringP("out", "o", "", "Output JSON path (default: input name with _fixed.json)")
}
