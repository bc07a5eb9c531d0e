package main

import (
	"errors"
	"fmt"
	"strings"

	"jobassess/internal/assessment"

	"github.com/spf13/cobra"
)

var errCannotSubmit = errors.New("required questions are unanswered")

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Show visible questions and blocking required fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			strict, _ := cmd.Flags().GetBool("strict")

			a, answers, err := loadInputs(cmd)
			if err != nil {
				return err
			}
			d := assessment.Derive(a, answers)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-12s %s (%s)\n", "Assessment", a.Title, a.ID)
			fmt.Fprintf(out, "%-12s %s\n", "Visible", joinIDs(assessment.QuestionIDs(d.Visible)))
			fmt.Fprintf(out, "%-12s %s\n", "Violations", joinIDs(assessment.QuestionIDs(d.Violations)))
			fmt.Fprintf(out, "%-12s %s\n", "Can submit", yesNo(d.CanSubmit))

			if strict && !d.CanSubmit {
				return errCannotSubmit
			}
			return nil
		},
	}
	cmd.Flags().Bool("strict", false, "Exit non-zero when the answers cannot be submitted")
	return cmd
}

func joinIDs(ids []assessment.ID) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
