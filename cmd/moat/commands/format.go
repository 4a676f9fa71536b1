package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/wonny/moat/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const timeLayout = "2006-01-02 15:04:05"

// PrintHeader prints a formatted command header
func PrintHeader(title string, lines ...string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	if len(lines) > 0 {
		PrintSeparator()
		for _, line := range lines {
			fmt.Printf("  %s\n", line)
		}
	}
	PrintSeparator()
}

// PrintProgress prints a progress step with counter
// Example: [Screen] AAPL ACCEPTED [3/120]
func PrintProgress(tag string, message string, current int, total int) {
	fmt.Printf("[%s] %s [%d/%d]\n", tag, message, current, total)
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	for i := 0; i < totalWidth; i++ {
		fmt.Print("─")
	}
	fmt.Println()
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Printf("   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintRunSummary prints per-state counts and rejection reasons of a run
func PrintRunSummary(r *contracts.Report) {
	PrintSeparator()
	PrintKeyValue("Symbols", fmt.Sprintf("%d", r.Total), 10)
	for _, state := range []contracts.State{
		contracts.StateAccepted,
		contracts.StateRejected,
		contracts.StateSkipped,
		contracts.StateFailed,
	} {
		PrintKeyValue(string(state), fmt.Sprintf("%d", r.Counts[state]), 10)
	}
	PrintKeyValue("Duration", r.Duration().Round(time.Millisecond).String(), 10)

	if len(r.Rejections) > 0 {
		reasons := make([]string, 0, len(r.Rejections))
		for reason := range r.Rejections {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)

		items := make([]string, 0, len(reasons))
		for _, reason := range reasons {
			items = append(items, fmt.Sprintf("%s: %d", reason, r.Rejections[reason]))
		}
		fmt.Println()
		fmt.Println("   Rejections:")
		PrintList(items)
	}
	PrintSeparator()
}

// PrintCacheEntries prints the freshness cache as a table
func PrintCacheEntries(entries []contracts.CacheEntry, now time.Time) {
	widths := []int{10, 19, 8}
	PrintTableHeader([]string{"Symbol", "Tested At (UTC)", "Age"}, widths)
	for _, e := range entries {
		age := int(now.Sub(e.TestedAt).Hours() / 24)
		PrintTableRow([]string{
			e.Symbol,
			e.TestedAt.UTC().Format(timeLayout),
			fmt.Sprintf("%dd", age),
		}, widths)
	}
}
