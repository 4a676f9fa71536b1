// Package report renders screening results as Markdown, CSV or a console table.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/wonny/moat/internal/contracts"
)

var headers = []string{"Symbol", "ROE", "Volatility", "Low", "High", "Market"}

// csvRow is the Results.csv layout; Symbol must stay the first column
type csvRow struct {
	Symbol     string  `csv:"Symbol"`
	ROE        float64 `csv:"ROE"`
	Volatility float64 `csv:"Volatility"`
	Low        float64 `csv:"Low"`
	High       float64 `csv:"High"`
	Market     string  `csv:"Market"`
}

// FormatNumber rounds to two decimals and drops trailing zeros
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func cells(r contracts.ScreeningResult) []string {
	return []string{
		r.Symbol,
		FormatNumber(r.ROE),
		FormatNumber(r.Volatility),
		FormatNumber(r.Low),
		FormatNumber(r.High),
		r.Market,
	}
}

// Markdown renders results as a GitHub table. No results renders as "".
func Markdown(results []contracts.ScreeningResult) string {
	if len(results) == 0 {
		return ""
	}

	sep := make([]string, len(headers))
	for i := range sep {
		sep[i] = "---"
	}

	lines := make([]string, 0, len(results)+2)
	lines = append(lines, markdownRow(headers), markdownRow(sep))
	for _, r := range results {
		lines = append(lines, markdownRow(cells(r)))
	}
	return strings.Join(lines, "\n")
}

func markdownRow(values []string) string {
	return "| " + strings.Join(values, " | ") + " |"
}

// CSV writes results with gocsv
func CSV(w io.Writer, results []contracts.ScreeningResult) error {
	rows := make([]*csvRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, &csvRow{
			Symbol:     r.Symbol,
			ROE:        round2(r.ROE),
			Volatility: round2(r.Volatility),
			Low:        round2(r.Low),
			High:       round2(r.High),
			Market:     r.Market,
		})
	}

	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, strings.Join(headers, ","))
		return err
	}

	out, err := gocsv.MarshalString(&rows)
	if err != nil {
		return fmt.Errorf("failed to encode csv: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// Console prints a fixed-width table
func Console(w io.Writer, results []contracts.ScreeningResult) {
	widths := []int{8, 10, 12, 10, 10, 12}
	for i, h := range headers {
		if len(h) > widths[i] {
			widths[i] = len(h)
		}
	}
	for _, r := range results {
		for i, c := range cells(r) {
			if len(c) > widths[i] {
				widths[i] = len(c)
			}
		}
	}

	printRow(w, headers, widths)

	total := 0
	for i, width := range widths {
		total += width
		if i < len(widths)-1 {
			total += 2 // spacing
		}
	}
	fmt.Fprintln(w, strings.Repeat("─", total))

	for _, r := range results {
		printRow(w, cells(r), widths)
	}
}

func printRow(w io.Writer, values []string, widths []int) {
	for i, val := range values {
		fmt.Fprintf(w, "%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
