package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/verbatim/core"
)

func TestFormatSources(t *testing.T) {
	passages := []core.Passage{
		{SourceID: "ep1.txt", Speaker: "A", Time: "0:01:00-0:01:30", Text: "x"},
		{SourceID: "ep2.txt", Text: "Time: 0:02:00 - 0:02:10\nSpeaker: B\nContent: y"},
		{SourceID: "ep1.txt", Time: "00:00:00 - 00:00:00", Text: "z"},
	}

	got := FormatSources(passages, EnglishLabels)

	want := "=== SOURCES USED ===\n" +
		"\n📄 ep1.txt (2 parts):\n" +
		"  1. Time: 0:01:00-0:01:30, Speaker: A\n" +
		"  3. Time: no time information, Speaker: unknown\n" +
		"\n" +
		"\n📄 ep2.txt (1 parts):\n" +
		"  2. Time: 0:02:00 - 0:02:10, Speaker: B\n" +
		"\n" +
		"\nTotal 3 transcript passages used, from 2 different files."
	assert.Equal(t, want, got)
}

func TestFormatSources_Turkish(t *testing.T) {
	got := FormatSources([]core.Passage{{Text: "x"}}, TurkishLabels)
	assert.Contains(t, got, "=== KULLANILAN KAYNAKLAR ===")
	assert.Contains(t, got, "📄 Bilinmiyor (1 parça):")
	assert.Contains(t, got, "1. Zaman: Zaman bilgisi yok, Konuşmacı: Bilinmiyor")
	assert.True(t, strings.HasSuffix(got, "Toplam 1 transkript parçası kullanıldı, 1 farklı dosyadan."))
}

func TestCitations(t *testing.T) {
	got := Citations([]core.Passage{{SourceID: "ep1.txt", Speaker: "A", Time: "0:01:00-0:01:30"}})
	assert.Equal(t, []core.Citation{{SourceID: "ep1.txt", TimeRange: "0:01:00-0:01:30", Speaker: "A"}}, got)
}

func TestRawExcerpt(t *testing.T) {
	passages := make([]core.Passage, 9)
	for i := range passages {
		passages[i] = core.Passage{
			Text:     "Content: " + strings.Repeat("a", 400),
			SourceID: "/data/transcripts/ep1.txt",
			Speaker:  "A",
			Time:     "0:01:00-0:01:30",
		}
	}

	got := RawExcerpt(passages, EnglishLabels, 7, 300)

	assert.True(t, strings.HasPrefix(got, EnglishLabels.ExcerptIntro))
	assert.True(t, strings.HasSuffix(got, EnglishLabels.ExcerptApology))
	assert.Equal(t, 7, strings.Count(got, "- Source: ep1.txt\n"))
	assert.Contains(t, got, "**7. Passage:**")
	assert.NotContains(t, got, "**8. Passage:**")
	assert.Contains(t, got, "- Content: "+strings.Repeat("a", 297)+"...\n")
}

func TestRawExcerpt_Empty(t *testing.T) {
	got := RawExcerpt(nil, EnglishLabels, 7, 300)
	assert.NotEmpty(t, got)
	assert.Contains(t, got, EnglishLabels.ExcerptApology)
}

func TestAnalysisFilename(t *testing.T) {
	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	got := AnalysisFilename("Enflasyon nasıl etkiledi? Bu çok uzun bir soru metni", now)
	assert.Equal(t, "analysis_20250304_050607_Enflasyon_nasıl_etkiledi__Bu_ç.txt", got)
}

func TestWriteAnalysis(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "analysis")
	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	path, err := WriteAnalysis(dir, "what happened?", "The answer.", now, EnglishLabels)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "analysis_20250304_050607_what_happened_.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "Question: what happened?\n\nAnalysis time: 2025-03-04 05:06:07\n\n" + strings.Repeat("=", 50) + "\n\nThe answer."
	assert.Equal(t, want, string(data))
}

func TestHTMLRenderer(t *testing.T) {
	r := NewHTMLRenderer()
	got, err := r.Render("**bold**\nnext line\n\n<script>alert(1)</script>")
	require.NoError(t, err)
	assert.Contains(t, got, "<strong>bold</strong><br>")
	assert.NotContains(t, got, "<script>")
}
