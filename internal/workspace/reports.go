package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

func ReportFileName(t time.Time) string {
	return "duplicate_report_" + t.Format("20060102_150405") + ".txt"
}

// SaveReport writes content into dir under the timestamped report name and
// returns the full path.
func SaveReport(dir, content string, generatedAt time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}
	path := filepath.Join(dir, ReportFileName(generatedAt))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// SecureFilename reduces an uploaded name to a safe base name: ASCII letters,
// digits, '.', '_' and '-' only, spaces turned into '_', no leading dots.
// It returns "" when nothing usable is left.
func SecureFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" {
		return ""
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r > unicode.MaxASCII:
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '_', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}
	return strings.TrimLeft(strings.ReplaceAll(b.String(), "..", ""), "._")
}
