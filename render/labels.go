package render

// Labels holds every fixed string the renderers emit.
type Labels struct {
	Document           string
	File               string
	Time               string
	Speaker            string
	Content            string
	Unknown            string
	ContentUnavailable string
	NoTimeInfo         string

	SourcesHeader string
	// PartsFormat receives the number of passages from one file.
	PartsFormat string
	// TotalFormat receives the passage count and the file count.
	TotalFormat string

	ExcerptIntro   string
	ExcerptHeading string
	ExcerptItem    string
	Source         string
	ExcerptApology string

	Question     string
	AnalysisTime string
}

// EnglishLabels is the default label set.
var EnglishLabels = Labels{
	Document:           "Document",
	File:               "File",
	Time:               "Time",
	Speaker:            "Speaker",
	Content:            "Content",
	Unknown:            "unknown",
	ContentUnavailable: "content unavailable",
	NoTimeInfo:         "no time information",

	SourcesHeader: "=== SOURCES USED ===",
	PartsFormat:   "%d parts",
	TotalFormat:   "Total %d transcript passages used, from %d different files.",

	ExcerptIntro:   "An answer could not be generated, but these relevant passages were found:",
	ExcerptHeading: "### Relevant Passages",
	ExcerptItem:    "Passage",
	Source:         "Source",
	ExcerptApology: "The system is having trouble generating answers right now. Please try asking your question more specifically.",

	Question:     "Question",
	AnalysisTime: "Analysis time",
}

// TurkishLabels matches the language of the transcript corpus.
var TurkishLabels = Labels{
	Document:           "Belge",
	File:               "Dosya",
	Time:               "Zaman",
	Speaker:            "Konuşmacı",
	Content:            "İçerik",
	Unknown:            "Bilinmiyor",
	ContentUnavailable: "Belge içeriği alınamadı",
	NoTimeInfo:         "Zaman bilgisi yok",

	SourcesHeader: "=== KULLANILAN KAYNAKLAR ===",
	PartsFormat:   "%d parça",
	TotalFormat:   "Toplam %d transkript parçası kullanıldı, %d farklı dosyadan.",

	ExcerptIntro:   "Yanıt oluşturulurken bir sorun oluştu, ancak şu ilgili bilgileri buldum:",
	ExcerptHeading: "### İlgili Bilgi Parçaları",
	ExcerptItem:    "Bilgi Parçası",
	Source:         "Kaynak",
	ExcerptApology: "Sistem şu anda yanıt üretmekte zorlanıyor. Lütfen sorunuzu daha açık bir şekilde yeniden sormayı deneyin.",

	Question:     "Soru",
	AnalysisTime: "Analiz Zamanı",
}

// LabelsFor returns the label set for a language code ("en" or "tr").
// Unknown codes get English.
func LabelsFor(lang string) Labels {
	if lang == "tr" {
		return TurkishLabels
	}
	return EnglishLabels
}
