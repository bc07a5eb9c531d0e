package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"jobassess/internal/report"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the review to a .csv or .xlsx file",
		RunE: func(cmd *cobra.Command, args []string) error {
			outPath, _ := cmd.Flags().GetString("output")

			a, answers, err := loadInputs(cmd)
			if err != nil {
				return err
			}
			rows := report.BuildRows(a, answers)

			var data []byte
			switch strings.ToLower(filepath.Ext(outPath)) {
			case ".xlsx":
				data, err = report.ExcelBytes(a.Title, rows)
				if err != nil {
					return err
				}
			case ".csv":
				var buf bytes.Buffer
				if err := report.WriteCSV(&buf, rows); err != nil {
					return err
				}
				data = buf.Bytes()
			default:
				return fmt.Errorf("unsupported output %q: use .csv or .xlsx", outPath)
			}

			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s (%s)\n", len(rows), outPath, humanize.Bytes(uint64(len(data))))
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output file (.csv or .xlsx)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
