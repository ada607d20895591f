/*
Package csvcodec reads and writes flat resource rows as CSV or XLSX sheets.

Columns are bound to struct fields with the csv tag:

	type ProductRow struct {
		UPC   string   `csv:"upc"`
		Price *float64 `csv:"price"`
		Notes string   `csv:"-"`
	}

Fields without a tag use their field name. Headers are matched case
insensitively, and a trailing " *" required marker is ignored. When the
struct carries a metadata.Metadata field, the fields whose column appeared
in the sheet are recorded as its defined fields.
*/
package csvcodec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/xuri/excelize/v2"

	"github.com/samar-hassan/django-oscar-odin/metadata"
	"github.com/samar-hassan/django-oscar-odin/reflectutil"
)

// SheetName is the worksheet written by WriteXLSX and preferred by ReadXLSX
const SheetName = "Products"

// ErrEmptySheet is returned when a file has no header row
var ErrEmptySheet = errors.New("sheet has no header row")

// Row is one data row keyed by normalized header. Line is the 1-based line
// of the row in the source file, the header being line 1.
type Row struct {
	Line   int
	Values map[string]string
}

// Table is a decoded sheet
type Table struct {
	Headers []string
	Rows    []Row
}

// Has reports whether the sheet has a column named header
func (t *Table) Has(header string) bool {
	header = normalizeHeader(header)
	for _, h := range t.Headers {
		if h == header {
			return true
		}
	}
	return false
}

func normalizeHeader(header string) string {
	header = strings.TrimSpace(strings.ToLower(header))
	return strings.TrimSpace(strings.TrimSuffix(header, "*"))
}

// newTable builds a table from raw records. lines holds the source line of
// each record; when nil, records are taken to be consecutive lines.
func newTable(records [][]string, lines []int) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrEmptySheet
	}

	table := &Table{Headers: make([]string, len(records[0]))}
	for i, header := range records[0] {
		table.Headers[i] = normalizeHeader(strings.TrimPrefix(header, "\ufeff"))
	}

	for i, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		line := i + 2
		if lines != nil {
			line = lines[i+1]
		}
		row := Row{Line: line, Values: make(map[string]string, len(table.Headers))}
		for j, value := range record {
			if j < len(table.Headers) {
				row.Values[table.Headers[j]] = strings.TrimSpace(value)
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func isBlank(record []string) bool {
	for _, value := range record {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

// ReadCSV reads a comma separated sheet
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var records [][]string
	var lines []int
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		line, _ := reader.FieldPos(0)
		records = append(records, record)
		lines = append(lines, line)
	}
	return newTable(records, lines)
}

// ReadXLSX reads the Products worksheet of a workbook, or its first sheet
// when there is none
func ReadXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}
	sheetName := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, SheetName) {
			sheetName = name
			break
		}
	}

	records, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}
	return newTable(records, nil)
}

// ReadFile reads a .csv or .xlsx file
func ReadFile(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(file)
	case ".xlsx":
		return ReadXLSX(file)
	}
	return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
}

type column struct {
	header string
	index  int
	name   string
}

func columnsOf(t reflect.Type) ([]column, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s is not a struct", t)
	}

	var columns []column
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" || field.Type == reflect.TypeOf(metadata.Metadata{}) {
			continue
		}
		header, ok := field.Tag.Lookup("csv")
		if header == "-" {
			continue
		}
		if !ok || header == "" {
			header = field.Name
		}
		columns = append(columns, column{header: header, index: i, name: field.Name})
	}
	return columns, nil
}

// Decode binds every row of table to a new T. Rows that fail are left out of
// the result and their errors are returned together.
func Decode[T any](table *Table) ([]*T, error) {
	columns, err := columnsOf(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return nil, err
	}

	var result *multierror.Error
	records := make([]*T, 0, len(table.Rows))
	for _, row := range table.Rows {
		record := new(T)
		if err := decodeRow(reflect.ValueOf(record).Elem(), columns, row); err != nil {
			result = multierror.Append(result, fmt.Errorf("line %d: %w", row.Line, err))
			continue
		}
		records = append(records, record)
	}
	return records, result.ErrorOrNil()
}

func decodeRow(value reflect.Value, columns []column, row Row) error {
	metadataValue := metadata.GetMetadataValue(value)
	metadata.InitializeDefinedFields(metadataValue)

	for _, c := range columns {
		cell, ok := row.Values[normalizeHeader(c.header)]
		if !ok {
			continue
		}
		metadata.AddDefinedField(metadataValue, c.name)
		if cell == "" {
			continue
		}
		if err := reflectutil.SetValue(value.Field(c.index), cell); err != nil {
			return fmt.Errorf("column %s: %w", c.header, err)
		}
	}
	return nil
}

// Encode renders records as a header row followed by one row per record
func Encode[T any](records []*T) ([][]string, error) {
	columns, err := columnsOf(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return nil, err
	}

	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c.header
	}

	rows := [][]string{headers}
	for _, record := range records {
		if record == nil {
			continue
		}
		value := reflect.ValueOf(record).Elem()
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = formatCell(value.Field(c.index))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func formatCell(v reflect.Value) string {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	}
	if t, ok := v.Interface().(time.Time); ok {
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339)
	}
	return fmt.Sprint(v.Interface())
}

// WriteCSV writes records as a comma separated sheet
func WriteCSV[T any](w io.Writer, records []*T) error {
	rows, err := Encode(records)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

// WriteXLSX writes records to the Products worksheet of a new workbook
func WriteXLSX[T any](w io.Writer, records []*T) error {
	rows, err := Encode(records)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return err
	}

	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellStr(SheetName, cell, value); err != nil {
				return err
			}
			if i == 0 {
				if err := f.SetCellStyle(SheetName, cell, cell, headerStyle); err != nil {
					return err
				}
			}
		}
	}

	for j := range rows[0] {
		colName, err := excelize.ColumnNumberToName(j + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, colName, colName, 20); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}
