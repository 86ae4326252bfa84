package ingest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/net/html"
)

// Workbook is the parsed tabular input, one Sheet per worksheet.
type Workbook struct {
	Sheets []Sheet
}

type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// RowMap pairs the i-th data row with the header row.
func (s *Sheet) RowMap(i int) map[string]string {
	row := s.Rows[i]
	m := make(map[string]string, len(s.Headers))
	for j, h := range s.Headers {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if j < len(row) {
			m[h] = row[j]
		} else {
			m[h] = ""
		}
	}
	return m
}

func allEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// SelectSalesSheet picks the first sheet whose name starts with "Sales"
// (case-insensitive). Exports occasionally rename the worksheet, so any
// other name falls back to the first sheet rather than failing the run.
func (wb *Workbook) SelectSalesSheet() (*Sheet, error) {
	if len(wb.Sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	for i := range wb.Sheets {
		if strings.HasPrefix(strings.ToLower(wb.Sheets[i].Name), "sales") {
			return &wb.Sheets[i], nil
		}
	}
	return &wb.Sheets[0], nil
}

// ReadWorkbook parses workbook bytes by extension. ".xls" needs sniffing:
// many POS "xls" exports are actually HTML tables with an .xls extension.
func ReadWorkbook(data []byte, filename string) (*Workbook, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return readXLSX(data)
	case ".xls":
		if looksLikeHTML(data) {
			return readHTMLTable(data)
		}
		return readLegacyXLS(data)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filename)
	}
}

func readXLSX(data []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	wb := &Workbook{}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		sheet := Sheet{Name: name}
		for i, row := range rows {
			for j := range row {
				if iso, ok := dateCellISO(f, name, i, j); ok {
					row[j] = iso
				}
			}
			if i == 0 {
				sheet.Headers = row
				continue
			}
			if allEmptyRow(row) {
				continue
			}
			sheet.Rows = append(sheet.Rows, row)
		}
		wb.Sheets = append(wb.Sheets, sheet)
	}
	return wb, nil
}

// dateCellISO rewrites a date-styled cell to an ISO date string. GetRows
// renders date-typed cells through the workbook's display format, which
// usually drops the century ("01-05-24"); the raw serial keeps it.
func dateCellISO(f *excelize.File, sheet string, rowIdx, colIdx int) (string, bool) {
	cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
	if err != nil {
		return "", false
	}
	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil {
		return "", false
	}
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return "", false
	}
	isDate := isDateNumFmt(style.NumFmt)
	if !isDate && style.CustomNumFmt != nil {
		isDate = isDateCustomFmt(*style.CustomNumFmt)
	}
	if !isDate {
		return "", false
	}
	raw, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return "", false
	}
	serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

// Built-in number format ids Excel reserves for date/time renderings.
func isDateNumFmt(id int) bool {
	return (id >= 14 && id <= 22) || (id >= 27 && id <= 36) ||
		(id >= 45 && id <= 47) || (id >= 50 && id <= 58)
}

// isDateCustomFmt flags custom formats built from date tokens. Digit
// placeholders mean a numeric format even when letters appear in literals.
func isDateCustomFmt(fmtStr string) bool {
	s := strings.ToLower(fmtStr)
	if strings.ContainsAny(s, "#0?") {
		return false
	}
	return strings.ContainsAny(s, "ymdh")
}

func readLegacyXLS(data []byte) (*Workbook, error) {
	book, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open legacy xls: %w", err)
	}
	wb := &Workbook{}
	for i := 0; i < book.NumSheets(); i++ {
		ws := book.GetSheet(i)
		if ws == nil {
			continue
		}
		sheet := Sheet{Name: ws.Name}
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := ws.Row(r)
			if row == nil {
				continue
			}
			cells := make([]string, 0, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			if r == 0 {
				sheet.Headers = cells
				continue
			}
			if allEmptyRow(cells) {
				continue
			}
			sheet.Rows = append(sheet.Rows, cells)
		}
		wb.Sheets = append(wb.Sheets, sheet)
	}
	return wb, nil
}

func looksLikeHTML(data []byte) bool {
	head := data
	if len(head) > 4096 {
		head = head[:4096]
	}
	lower := bytes.ToLower(head)
	return bytes.Contains(lower, []byte("<html")) ||
		bytes.Contains(lower, []byte("<!doctype html")) ||
		bytes.Contains(lower, []byte("<table"))
}

type htmlTable struct {
	rows [][]string
}

// readHTMLTable handles .xls files that are really HTML. When the document
// carries several tables, the one whose header row best matches the known
// column map wins.
func readHTMLTable(data []byte) (*Workbook, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML xls: %w", err)
	}
	tables := collectTables(doc)
	if len(tables) == 0 {
		return nil, fmt.Errorf("HTML xls contained no tables")
	}

	expected := map[string]bool{}
	for k := range colMap {
		expected[strings.ToLower(strings.TrimSpace(k))] = true
	}
	best := tables[0]
	bestScore := -1
	for _, t := range tables {
		if len(t.rows) == 0 {
			continue
		}
		score := 0
		for _, h := range t.rows[0] {
			if expected[strings.ToLower(strings.TrimSpace(h))] {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = t
		}
	}
	if len(best.rows) == 0 {
		return nil, fmt.Errorf("HTML xls table had no rows")
	}

	sheet := Sheet{Name: "Sales", Headers: best.rows[0]}
	for _, row := range best.rows[1:] {
		if allEmptyRow(row) {
			continue
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return &Workbook{Sheets: []Sheet{sheet}}, nil
}

func collectTables(n *html.Node) []htmlTable {
	var tables []htmlTable
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == "table" {
			tables = append(tables, htmlTable{rows: tableRows(node)})
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return tables
}

func tableRows(table *html.Node) [][]string {
	var rows [][]string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == "tr" {
			var cells []string
			for c := node.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					cells = append(cells, cellText(c))
				}
			}
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
	return rows
}

// cellText flattens a cell to text. Hyperlinked cells keep the href
// ("text (href)") because Note links in the exports matter downstream.
func cellText(cell *html.Node) string {
	var href string
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		if node.Type == html.ElementNode && node.Data == "a" && href == "" {
			for _, a := range node.Attr {
				if a.Key == "href" {
					href = a.Val
					break
				}
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(cell)
	text := strings.Join(strings.Fields(sb.String()), " ")
	if href == "" {
		return text
	}
	if text == "" {
		return href
	}
	return fmt.Sprintf("%s (%s)", text, href)
}
