package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"jobassess/internal/assessment"

	"github.com/xuri/excelize/v2"
)

// Row is one visible question with its rendered answer.
type Row struct {
	Position   int                     `json:"position"`
	QuestionID assessment.ID           `json:"question_id"`
	Type       assessment.QuestionType `json:"type"`
	Prompt     string                  `json:"prompt"`
	Required   bool                    `json:"required"`
	Answer     string                  `json:"answer"`
}

var headers = []string{"position", "question_id", "type", "prompt", "required", "answer"}

// BuildRows renders review text for every currently visible question, in
// display order. Hidden questions are left out even when they hold answers.
func BuildRows(a *assessment.Assessment, answers assessment.Answers) []Row {
	if a == nil {
		return []Row{}
	}
	visible := assessment.ResolveVisible(a.Questions, answers)
	rows := make([]Row, 0, len(visible))
	for i, q := range visible {
		v, ok := answers[q.ID]
		text := assessment.NoAnswer
		if ok {
			text = assessment.Review(q, v)
		}
		rows = append(rows, Row{
			Position:   i + 1,
			QuestionID: q.ID,
			Type:       q.Type,
			Prompt:     q.Prompt,
			Required:   q.Required,
			Answer:     text,
		})
	}
	return rows
}

func (r Row) values() []string {
	return []string{
		strconv.Itoa(r.Position),
		string(r.QuestionID),
		string(r.Type),
		r.Prompt,
		strconv.FormatBool(r.Required),
		r.Answer,
	}
}

func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.values()); err != nil {
			return fmt.Errorf("write csv row %d: %w", r.Position, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func ExcelBytes(title string, rows []Row) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if title != "" {
		name := sheetName(title)
		if err := f.SetSheetName(sheet, name); err == nil {
			sheet = name
		}
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for i, r := range rows {
		values := []any{r.Position, string(r.QuestionID), string(r.Type), r.Prompt, r.Required, r.Answer}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	_ = f.SetColWidth(sheet, "A", "C", 14)
	_ = f.SetColWidth(sheet, "D", "D", 48)
	_ = f.SetColWidth(sheet, "E", "E", 10)
	_ = f.SetColWidth(sheet, "F", "F", 48)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

// sheetName trims a title to Excel's sheet name rules: at most 31
// characters and none of []:*?/\.
func sheetName(title string) string {
	out := make([]rune, 0, 31)
	for _, r := range title {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			continue
		}
		out = append(out, r)
		if len(out) == 31 {
			break
		}
	}
	if len(out) == 0 {
		return "Sheet1"
	}
	return string(out)
}
