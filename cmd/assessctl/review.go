package main

import (
	"fmt"
	"strings"

	"jobassess/internal/report"

	"github.com/spf13/cobra"
)

func newReviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Print the review text for every visible question",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, answers, err := loadInputs(cmd)
			if err != nil {
				return err
			}
			rows := report.BuildRows(a, answers)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%3s  %-10s  %-40s  %s\n", "#", "ID", "Prompt", "Answer")
			fmt.Fprintln(out, strings.Repeat("─", 80))
			for _, r := range rows {
				prompt := r.Prompt
				if r.Required {
					prompt += " *"
				}
				if len([]rune(prompt)) > 40 {
					prompt = string([]rune(prompt)[:37]) + "..."
				}
				fmt.Fprintf(out, "%3d  %-10s  %-40s  %s\n", r.Position, r.QuestionID, prompt, r.Answer)
			}
			fmt.Fprintf(out, "\n%d visible of %d questions\n", len(rows), len(a.Questions))
			return nil
		},
	}
}
