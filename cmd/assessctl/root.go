package main

import (
	"fmt"
	"os"

	"jobassess/internal/assessment"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "assessctl",
		Short:         "Evaluate job assessment documents offline",
		Long:          "assessctl loads an assessment document and an answer file and shows what a candidate would see: visible questions, blocking required fields, review text.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("assessment", "a", "", "Assessment document (.json, .yaml or .yml)")
	root.PersistentFlags().StringP("answers", "r", "", "Answer file keyed by question id (.json, .yaml or .yml)")
	_ = root.MarkPersistentFlagRequired("assessment")

	root.AddCommand(newCheckCmd())
	root.AddCommand(newReviewCmd())
	root.AddCommand(newExportCmd())
	return root
}

// loadInputs reads the assessment and answer files named by the persistent
// flags. A missing answer file means no answers yet.
func loadInputs(cmd *cobra.Command) (*assessment.Assessment, assessment.Answers, error) {
	docPath, _ := cmd.Flags().GetString("assessment")
	answersPath, _ := cmd.Flags().GetString("answers")

	data, err := os.ReadFile(docPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read assessment: %w", err)
	}
	a, err := assessment.ParseDocument(data, assessment.FormatFromPath(docPath))
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", docPath, err)
	}

	answers := assessment.Answers{}
	if answersPath != "" {
		raw, err := os.ReadFile(answersPath)
		if err != nil {
			return nil, nil, fmt.Errorf("read answers: %w", err)
		}
		answers, err = assessment.ParseAnswers(raw, assessment.FormatFromPath(answersPath))
		if err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", answersPath, err)
		}
	}
	return a, answers, nil
}
