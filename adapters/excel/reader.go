package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"jugglerbayes/domain/core"
	"jugglerbayes/domain/setting"
)

// CatalogReader loads a setting catalog from an Excel or CSV sheet with
// columns setting, probability and an optional prior
type CatalogReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewCatalogReader creates a reader that handles both Excel and CSV files
func NewCatalogReader(filePath string) *CatalogReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &CatalogReader{filePath: filePath, fileType: fileType}
}

// Load reads the sheet and builds a validated catalog named after the file
func (r *CatalogReader) Load(ctx context.Context) (*setting.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := r.ReadData()
	if err != nil {
		return nil, err
	}

	entries, err := r.entries(data)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(r.filePath), filepath.Ext(r.filePath))
	return setting.NewCatalog(name, entries)
}

// ReadData reads the raw sheet rows from Excel or CSV
func (r *CatalogReader) ReadData() (*SheetData, error) {
	log.WithField("component", "CatalogReader").Debugf("Reading %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s file %s", core.ErrCatalogNotFound, strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, r.fileType)
	}
}

// readExcelData reads the first sheet of the workbook
func (r *CatalogReader) readExcelData() (*SheetData, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook %s has no sheets", core.ErrEmptyCatalog, r.filePath)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	log.WithField("component", "CatalogReader").Debugf("Sheet %s read in %.2fms (%d rows)",
		sheets[0], float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: Excel file must have a header row and at least one setting", core.ErrEmptyCatalog)
	}

	return r.processRows(rows), nil
}

// readCSVData reads CSV data into structured format
func (r *CatalogReader) readCSVData() (*SheetData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.Comment = '#'
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: CSV file must have a header row and at least one setting", core.ErrEmptyCatalog)
	}

	return r.processRows(rows), nil
}

// processRows converts raw string rows into SheetData, skipping blank rows
func (r *CatalogReader) processRows(rows [][]string) *SheetData {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimPrefix(strings.TrimSpace(header), "\ufeff")
	}

	var dataRows []RawRowData
	for _, row := range rows[1:] {
		rowData := make(RawRowData)
		blank := true
		for j, cell := range row {
			if j < len(headers) {
				v := strings.TrimSpace(cell)
				rowData[headers[j]] = v
				if v != "" {
					blank = false
				}
			}
		}
		if !blank {
			dataRows = append(dataRows, rowData)
		}
	}

	log.WithField("component", "CatalogReader").Debugf("%s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(headers), len(dataRows))

	return &SheetData{Headers: headers, Rows: dataRows}
}

// entries maps sheet rows onto catalog entries
func (r *CatalogReader) entries(data *SheetData) ([]setting.Entry, error) {
	labelCol := findColumn(data.Headers, labelHeaders)
	probCol := findColumn(data.Headers, probabilityHeaders)
	if labelCol == "" || probCol == "" {
		return nil, fmt.Errorf("%w: %s needs a setting column and a probability column, got %v",
			core.ErrUnsupportedFormat, r.filePath, data.Headers)
	}
	priorCol := findColumn(data.Headers, priorHeaders)

	entries := make([]setting.Entry, 0, len(data.Rows))
	for i, row := range data.Rows {
		p, err := setting.ParseProbability(row[probCol])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entry := setting.Entry{Label: setting.Label(row[labelCol]), Probability: p}

		if priorCol != "" && row[priorCol] != "" {
			w, err := setting.ParseProbability(row[priorCol])
			if err != nil {
				return nil, fmt.Errorf("row %d prior: %w", i+2, err)
			}
			entry.Prior = &w
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func findColumn(headers []string, accepted []string) string {
	for _, h := range headers {
		for _, a := range accepted {
			if strings.EqualFold(h, a) {
				return h
			}
		}
	}
	return ""
}
