package answer

// Messages holds every user-facing string the Engine returns in place of a
// generated answer.
type Messages struct {
	InvalidQuestion string
	// RetrievalUnavailable is followed by ": " and the retrieval error.
	RetrievalUnavailable string
	NoInformation        string
	InternalError        string
	// QuickFailed is followed by ": " and the cause.
	QuickFailed string
	// BatchFailed is followed by ": " and the cause.
	BatchFailed string
}

// EnglishMessages is the default message set.
var EnglishMessages = Messages{
	InvalidQuestion:      "Please enter a valid question.",
	RetrievalUnavailable: "There was a problem retrieving information from the database",
	NoInformation:        "No information was found for this question. Please ask a different question or use a more general phrasing.",
	InternalError:        "An answer cannot be generated right now. Please try again later.",
	QuickFailed:          "Quick answer could not be generated",
	BatchFailed:          "Answer could not be generated",
}

// TurkishMessages matches the language of the transcript corpus.
var TurkishMessages = Messages{
	InvalidQuestion:      "Lütfen geçerli bir soru girin.",
	RetrievalUnavailable: "Veritabanından bilgi alınırken bir sorun oluştu",
	NoInformation:        "Bu soruyla ilgili bilgi bulunamadı. Lütfen farklı bir soru sorun veya daha genel bir ifade kullanın.",
	InternalError:        "Şu anda yanıt oluşturulamıyor. Lütfen daha sonra tekrar deneyin.",
	QuickFailed:          "Hızlı yanıt oluşturulamadı",
	BatchFailed:          "Yanıt oluşturulamadı",
}

// MessagesFor returns the message set for a language code ("en" or "tr").
func MessagesFor(lang string) Messages {
	if lang == "tr" {
		return TurkishMessages
	}
	return EnglishMessages
}
