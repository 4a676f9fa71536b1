// Package tickers loads ticker symbol lists from text, CSV and HTML sources.
package tickers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocarina/gocsv"
)

const utf8BOM = "\ufeff"

// symbolRow is one line of a CSV ticker list such as Results.csv
type symbolRow struct {
	Symbol string `csv:"Symbol"`
}

// DefaultHTMLColumn is the header looked up by LoadHTML when none is given
const DefaultHTMLColumn = "Symbol"

// Load reads a ticker list, choosing the format by file extension
// (.csv, .html/.htm, anything else is plain text).
// ⭐ SSOT: 티커 파일 로딩은 이 함수를 통해서만
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ticker file: %w", err)
	}
	defer f.Close()

	var symbols []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		symbols, err = LoadCSV(f)
	case ".html", ".htm":
		symbols, err = LoadHTML(f, DefaultHTMLColumn)
	default:
		symbols, err = LoadText(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return Normalize(symbols), nil
}

// LoadText reads one symbol per line. Blank lines and # comments are skipped.
func LoadText(r io.Reader) ([]string, error) {
	var symbols []string

	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, utf8BOM)
			first = false
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		symbols = append(symbols, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ticker list: %w", err)
	}
	return symbols, nil
}

// LoadCSV reads the Symbol column of a CSV file (extra columns are ignored)
func LoadCSV(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	content := strings.TrimPrefix(string(data), utf8BOM)
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	var rows []*symbolRow
	if err := gocsv.UnmarshalString(content, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	symbols := make([]string, 0, len(rows))
	for _, row := range rows {
		if s := strings.TrimSpace(row.Symbol); s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols, nil
}

// LoadHTML reads the given column of the first table whose header row has it
func LoadHTML(r io.Reader, column string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	var symbols []string
	found := false

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		idx := -1
		table.Find("tr").First().Find("th, td").Each(func(i int, cell *goquery.Selection) {
			if strings.EqualFold(strings.TrimSpace(cell.Text()), column) {
				idx = i
			}
		})
		if idx < 0 {
			return true
		}
		found = true

		table.Find("tr").Each(func(i int, row *goquery.Selection) {
			if i == 0 {
				return // header
			}
			cell := row.Find("th, td").Eq(idx)
			if s := strings.TrimSpace(cell.Text()); s != "" {
				symbols = append(symbols, s)
			}
		})
		return false
	})

	if !found {
		return nil, fmt.Errorf("no table with a %q column", column)
	}
	return symbols, nil
}

// Normalize upper-cases symbols and drops duplicates, keeping first occurrence order
func Normalize(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
