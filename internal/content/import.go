package content

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"github.com/xuri/excelize/v2"

	"github.com/revisehub/revisehub/internal/platform/errs"
)

// ImportResult summarizes a bulk upload.
type ImportResult struct {
	Processed int      `json:"processed"`
	Upserted  int      `json:"upserted"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

// Importer bulk-loads content items from tabular or JSON uploads.
type Importer struct {
	store Store
}

// NewImporter creates an importer writing to store.
func NewImporter(store Store) *Importer {
	return &Importer{store: store}
}

// Import dispatches on the file extension: .csv, .xlsx or .json.
func (imp *Importer) Import(ctx context.Context, filename string, r io.Reader) (*ImportResult, error) {
	switch {
	case strings.HasSuffix(filename, ".csv"):
		return imp.ImportCSV(ctx, r)
	case strings.HasSuffix(filename, ".xlsx"):
		return imp.ImportXLSX(ctx, r)
	case strings.HasSuffix(filename, ".json"):
		return imp.ImportJSON(ctx, r)
	}
	return nil, fmt.Errorf("%w: unsupported upload format %q", errs.ErrInvalidInput, filename)
}

// ImportCSV reads a header-keyed CSV. Tags are comma-separated within
// their cell, alternate answers pipe-separated.
func (imp *Importer) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading CSV header: %v", errs.ErrInvalidInput, err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}

	result := &ImportResult{}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			result.Skipped++
			continue
		}
		result.Processed++

		cell := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		item := Item{
			ID:           cell("id"),
			Grade:        cell("grade"),
			Term:         cell("term"),
			Topic:        cell("topic"),
			Subtopic:     cell("subtopic"),
			Difficulty:   Difficulty(cell("difficulty")),
			QuestionText: cell("question_text"),
			AnswerText:   cell("answer_text"),
			Explanation:  cell("explanation"),
			Source:       cell("source"),
		}
		if tags := cell("tags"); tags != "" {
			item.Tags = splitAndTrim(tags, ",")
		}
		if alts := cell("alternate_answers"); alts != "" {
			item.AlternateAnswers = splitAndTrim(alts, "|")
		}

		imp.upsertRow(ctx, item, fmt.Sprintf("line %d", line), result)
	}
	return result, nil
}

// ImportXLSX reads the first sheet of an Excel workbook. The first row
// must be a header using the same column names as the CSV format.
func (imp *Importer) ImportXLSX(ctx context.Context, r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: opening workbook: %v", errs.ErrInvalidInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", errs.ErrInvalidInput)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return &ImportResult{}, nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("converting sheet row: %w", err)
		}
	}
	w.Flush()

	return imp.ImportCSV(ctx, &buf)
}

// itemsSchema constrains JSON uploads: an array of item objects with
// the required fields and a known difficulty tier.
const itemsSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["grade", "term", "topic", "difficulty", "question_text", "answer_text"],
		"properties": {
			"id": {"type": "string"},
			"grade": {"type": "string", "minLength": 1},
			"term": {"type": "string", "minLength": 1},
			"topic": {"type": "string", "minLength": 1},
			"subtopic": {"type": "string"},
			"difficulty": {"enum": ["High", "Medium", "Low"]},
			"question_text": {"type": "string", "minLength": 1},
			"answer_text": {"type": "string", "minLength": 1},
			"explanation": {"type": "string"},
			"source": {"type": "string"},
			"alternate_answers": {"type": "array", "items": {"type": "string"}},
			"tags": {"type": "array", "items": {"type": "string"}}
		}
	}
}`

// ImportJSON validates the upload against itemsSchema before upserting.
func (imp *Importer) ImportJSON(ctx context.Context, r io.Reader) (*ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	validation, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(itemsSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: validating upload: %v", errs.ErrInvalidInput, err)
	}
	if !validation.Valid() {
		msgs := make([]string, 0, len(validation.Errors()))
		for _, desc := range validation.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidInput, strings.Join(msgs, "; "))
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: decoding upload: %v", errs.ErrInvalidInput, err)
	}

	result := &ImportResult{}
	for i, item := range items {
		result.Processed++
		imp.upsertRow(ctx, item, fmt.Sprintf("item %d", i), result)
	}
	return result, nil
}

func (imp *Importer) upsertRow(ctx context.Context, item Item, pos string, result *ImportResult) {
	if item.QuestionText == "" || item.AnswerText == "" {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: missing question or answer text", pos))
		result.Skipped++
		return
	}
	if item.Difficulty != "" && !item.Difficulty.Valid() {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: unknown difficulty %q", pos, item.Difficulty))
		result.Skipped++
		return
	}
	if _, err := imp.store.Upsert(ctx, item); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", pos, err))
		result.Skipped++
		return
	}
	result.Upserted++
}

func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
