package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/studytrack/internal/review"
	"github.com/example/studytrack/pkg/models"
)

// ItemCreator creates tracked items
type ItemCreator interface {
	CreateItem(ctx context.Context, in models.NewItem) (*models.SpacedRepetitionItem, error)
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath          string // Path to the Excel or CSV file
	UserID            string // Owner of every imported item
	SubjectColumn     string // Column with the subject
	TopicColumn       string // Column with the topic name
	ChapterColumn     string // Column with the chapter reference, optional
	ConfidenceColumn  string // Column with the confidence (1-5)
	DifficultyColumn  string // Column with the difficulty (1-5)
	SheetName         string // Name of the sheet to import, empty for the first sheet
	StartRow          int    // The row to start importing from (1-based index)
	DefaultConfidence int    // Used when the confidence cell is empty
	DefaultDifficulty int    // Used when the difficulty cell is empty
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		SubjectColumn:     "A",
		TopicColumn:       "B",
		ChapterColumn:     "C",
		ConfidenceColumn:  "D",
		DifficultyColumn:  "E",
		StartRow:          2, // By default, start from the second row (skip header)
		DefaultConfidence: 3,
		DefaultDifficulty: 3,
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int
	CreatedIDs     []string
	Errors         []string
}

// columns holds zero-based column indexes; -1 means absent.
type columns struct {
	subject, topic, chapter, confidence, difficulty int
}

// ImportItems imports items from an Excel or CSV file. Rows that fail
// validation are reported in the result; a storage failure aborts the import.
func ImportItems(ctx context.Context, creator ItemCreator, config ImportConfig) (*ImportResult, error) {
	if strings.TrimSpace(config.UserID) == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if config.StartRow < 1 {
		config.StartRow = 1
	}
	cols, err := config.columns()
	if err != nil {
		return nil, err
	}

	var rows [][]string
	// Check the file extension
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, err
	}

	imp := &importer{creator: creator, config: config, cols: cols}
	return imp.run(ctx, rows)
}

func (c ImportConfig) columns() (columns, error) {
	var cols columns
	var err error
	if cols.subject, err = columnIndex(c.SubjectColumn, true); err != nil {
		return cols, err
	}
	if cols.topic, err = columnIndex(c.TopicColumn, true); err != nil {
		return cols, err
	}
	if cols.chapter, err = columnIndex(c.ChapterColumn, false); err != nil {
		return cols, err
	}
	if cols.confidence, err = columnIndex(c.ConfidenceColumn, false); err != nil {
		return cols, err
	}
	if cols.difficulty, err = columnIndex(c.DifficultyColumn, false); err != nil {
		return cols, err
	}
	return cols, nil
}

// columnIndex converts an Excel column letter to a zero-based index
func columnIndex(column string, required bool) (int, error) {
	if column == "" {
		if required {
			return -1, fmt.Errorf("column letter is required")
		}
		return -1, nil
	}
	n, err := excelize.ColumnNameToNumber(column)
	if err != nil {
		return -1, fmt.Errorf("invalid column %q: %w", column, err)
	}
	return n - 1, nil
}

// readExcel returns the rows of a sheet
func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

// readCSV returns all records of a CSV file
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type importer struct {
	creator ItemCreator
	config  ImportConfig
	cols    columns
}

func (imp *importer) run(ctx context.Context, rows [][]string) (*ImportResult, error) {
	result := &ImportResult{
		CreatedIDs: make([]string, 0),
		Errors:     make([]string, 0),
	}

	// A row carrying only a subject starts a section; following rows with an
	// empty subject cell inherit it.
	currentSubject := ""
	for i, row := range rows {
		rowNum := i + 1
		if rowNum < imp.config.StartRow {
			continue
		}
		if blank(row) {
			continue
		}

		subject := cell(row, imp.cols.subject)
		topic := cell(row, imp.cols.topic)
		if subject != "" && topic == "" && imp.onlySubject(row) {
			currentSubject = subject
			continue
		}
		if subject == "" {
			subject = currentSubject
		}

		result.TotalProcessed++

		in, err := imp.newItem(row, subject, topic)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}

		item, err := imp.creator.CreateItem(ctx, in)
		if err != nil {
			if errors.Is(err, review.ErrValidation) {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
				continue
			}
			return result, fmt.Errorf("row %d: %w", rowNum, err)
		}
		result.Created++
		result.CreatedIDs = append(result.CreatedIDs, item.ID)
	}

	return result, nil
}

func (imp *importer) newItem(row []string, subject, topic string) (models.NewItem, error) {
	confidence, err := parseLevel(cell(row, imp.cols.confidence), imp.config.DefaultConfidence)
	if err != nil {
		return models.NewItem{}, fmt.Errorf("confidence: %w", err)
	}
	difficulty, err := parseLevel(cell(row, imp.cols.difficulty), imp.config.DefaultDifficulty)
	if err != nil {
		return models.NewItem{}, fmt.Errorf("difficulty: %w", err)
	}

	in := models.NewItem{
		UserID:          imp.config.UserID,
		SubjectID:       subject,
		TopicName:       topic,
		Confidence:      confidence,
		DifficultyLevel: difficulty,
	}
	if chapter := cell(row, imp.cols.chapter); chapter != "" {
		in.ChapterReference = &chapter
	}
	return in, nil
}

// onlySubject reports whether every cell other than the subject is empty.
func (imp *importer) onlySubject(row []string) bool {
	for i, v := range row {
		if i != imp.cols.subject && strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// parseLevel parses a 1-5 rating. Range checks are left to item creation.
func parseLevel(s string, defaultVal int) (int, error) {
	if s == "" {
		return defaultVal, nil
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return val, nil
}
