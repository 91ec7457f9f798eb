package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

const safeQuestionRunes = 30

// AnalysisFilename builds the archive file name for a question answered at now.
// Non-alphanumeric characters in the first 30 runes become underscores.
func AnalysisFilename(question string, now time.Time) string {
	runes := []rune(question)
	runes = runes[:min(len(runes), safeQuestionRunes)]
	safe := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, string(runes))
	return fmt.Sprintf("analysis_%s_%s.txt", now.Format("20060102_150405"), safe)
}

// WriteAnalysis archives an answer under dir, creating it if needed, and
// returns the path written.
func WriteAnalysis(dir, question, answer string, now time.Time, l Labels) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create analysis directory: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n\n", l.Question, question)
	fmt.Fprintf(&b, "%s: %s\n\n", l.AnalysisTime, now.Format("2006-01-02 15:04:05"))
	b.WriteString(strings.Repeat("=", 50))
	b.WriteString("\n\n")
	b.WriteString(answer)

	path := filepath.Join(dir, AnalysisFilename(question, now))
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write analysis: %w", err)
	}
	return path, nil
}
