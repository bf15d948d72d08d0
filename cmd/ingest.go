package cmd

import (
	"fmt"
	"strings"

	"github.com/linchen/gokao/internal/ingest"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <exam.pdf>",
	Short: "Convert an exam PDF into a question bank JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		autoItem, _ := cmd.Flags().GetBool("autoitem")

		if out == "" {
			out = strings.TrimSuffix(args[0], ".pdf") + ".json"
		}

		p := ingest.NewParser(args[0])
		p.AutoItem = autoItem
		records, err := p.Parse()
		if err != nil {
			return fmt.Errorf("parse PDF: %w", err)
		}
		if len(records) == 0 {
			return fmt.Errorf("no questions found in %s", args[0])
		}

		if err := ingest.WriteBank(out, records); err != nil {
			return fmt.Errorf("write bank: %w", err)
		}
		fmt.Printf("已轉出 %d 題 → %s\n", len(records), out)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringP("out", "o", "", "Output JSON path (default: input name with .json)")
	ingestCmd.Flags().Bool("autoitem", false, "Split option lists out of the question body")
}
