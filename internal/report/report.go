package report

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"dupfinder/internal/cluster"
)

const (
	Title         = "DUPLICATE SENTENCES REPORT"
	TimeLayout    = "2006-01-02 15:04:05"
	maxSampleRune = 100
)

// NoDuplicates is emitted verbatim when a run finds nothing.
var NoDuplicates = []string{
	"No duplicate sentences found across the uploaded PDF files.",
	"",
	"TROUBLESHOOTING TIPS:",
	"- Make sure your PDFs contain readable text (not just images)",
	"- Try PDFs with some common content or repeated phrases",
	"- The app looks for sentences with 3+ words",
	"- Both exact matches and similar sentences (70%+ similarity) are detected",
}

type FileGroup struct {
	Filename string
	Pages    []int
}

func Generate(clusters []cluster.Cluster, generatedAt time.Time) string {
	lines := []string{
		Title,
		strings.Repeat("=", 50),
		"Generated on: " + generatedAt.Format(TimeLayout),
		fmt.Sprintf("Total duplicate sentences found: %d", len(clusters)),
		"",
	}

	if len(clusters) == 0 {
		lines = append(lines, NoDuplicates...)
		return strings.Join(lines, "\n")
	}

	for i, c := range clusters {
		lines = append(lines,
			fmt.Sprintf("%d. DUPLICATE SENTENCE:", i+1),
			fmt.Sprintf("   \"%s\"", Truncate(c.Representative, maxSampleRune)),
			fmt.Sprintf("   Found in %d locations:", len(c.Occurrences)),
		)
		for _, g := range GroupByFile(c.Occurrences) {
			lines = append(lines, fmt.Sprintf("   - File: %s, Pages: %s", g.Filename, joinPages(g.Pages)))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// GroupByFile returns one group per filename in first-seen order, each with
// its unique pages sorted ascending.
func GroupByFile(occurrences []cluster.Occurrence) []FileGroup {
	var groups []FileGroup
	pos := map[string]int{}
	for _, o := range occurrences {
		i, ok := pos[o.Filename]
		if !ok {
			i = len(groups)
			pos[o.Filename] = i
			groups = append(groups, FileGroup{Filename: o.Filename})
		}
		groups[i].Pages = append(groups[i].Pages, o.Page)
	}
	for i := range groups {
		slices.Sort(groups[i].Pages)
		groups[i].Pages = slices.Compact(groups[i].Pages)
	}
	return groups
}

// Truncate cuts s to n runes and appends "..." when anything was cut.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func joinPages(pages []int) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}
