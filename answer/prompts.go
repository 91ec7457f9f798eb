package answer

import (
	"fmt"
	"strings"

	"github.com/poiesic/verbatim/core"
	"github.com/tmc/langchaingo/prompts"
)

// PromptSet holds the instruction text and templates for one language.
type PromptSet struct {
	// System is the base instruction for the primary tier.
	System string

	// Intent clauses are appended to System, in this order, when the query
	// carries the matching flag.
	Chronological string
	Speaker       string
	Comparison    string

	// QuickSystem is the short instruction used by quick answers.
	QuickSystem string

	// Query takes system_instruction, question and context.
	Query prompts.PromptTemplate
	// Secondary takes question and context.
	Secondary prompts.PromptTemplate
	// Emergency takes question.
	Emergency prompts.PromptTemplate
	// Quick takes system, question and context.
	Quick prompts.PromptTemplate
}

// SystemInstruction returns the base instruction extended with the clauses
// for every intent flag set in intent.
func (p PromptSet) SystemInstruction(intent core.Intent) string {
	var b strings.Builder
	b.WriteString(p.System)
	if intent.Has(core.IntentChronological) {
		b.WriteString(p.Chronological)
	}
	if intent.Has(core.IntentSpeaker) {
		b.WriteString(p.Speaker)
	}
	if intent.Has(core.IntentComparison) {
		b.WriteString(p.Comparison)
	}
	return b.String()
}

// PrimaryPrompt renders the full analysis prompt.
func (p PromptSet) PrimaryPrompt(q core.Query, context string) (string, error) {
	out, err := p.Query.Format(map[string]any{
		"system_instruction": p.SystemInstruction(q.Intent),
		"question":           q.Raw,
		"context":            context,
	})
	if err != nil {
		return "", fmt.Errorf("render primary prompt: %w", err)
	}
	return out, nil
}

// SecondaryPrompt renders the simplified prompt. The caller bounds context.
func (p PromptSet) SecondaryPrompt(question, context string) (string, error) {
	out, err := p.Secondary.Format(map[string]any{
		"question": question,
		"context":  context,
	})
	if err != nil {
		return "", fmt.Errorf("render secondary prompt: %w", err)
	}
	return out, nil
}

// EmergencyPrompt renders the minimal last-resort prompt.
func (p PromptSet) EmergencyPrompt(question string) (string, error) {
	out, err := p.Emergency.Format(map[string]any{"question": question})
	if err != nil {
		return "", fmt.Errorf("render emergency prompt: %w", err)
	}
	return out, nil
}

// QuickPrompt renders the quick-answer prompt.
func (p PromptSet) QuickPrompt(question, context string) (string, error) {
	out, err := p.Quick.Format(map[string]any{
		"system":   p.QuickSystem,
		"question": question,
		"context":  context,
	})
	if err != nil {
		return "", fmt.Errorf("render quick prompt: %w", err)
	}
	return out, nil
}

// PromptsFor returns the prompt set for a language code ("en" or "tr").
func PromptsFor(lang string) PromptSet {
	if lang == "tr" {
		return TurkishPrompts()
	}
	return EnglishPrompts()
}

const englishSystem = `
You are a multidisciplinary transcript analyst. Your task is to answer ANY question, in any field, with a deep and instructive analysis and synthesis based ONLY on the transcript documents provided.

AREAS OF EXPERTISE:
- ECONOMICS and FINANCE: macro and micro economics, financial markets, crypto assets, equities, investment analysis
- POLITICS and INTERNATIONAL RELATIONS: political developments, diplomacy, geopolitical strategy, international organizations
- HISTORY and SOCIETY: historical events, social and cultural change, social movements
- SCIENCE and TECHNOLOGY: scientific progress, innovation, artificial intelligence, digital transformation
- ARTS and CULTURE: music, cinema, literature, artistic movements, works and artists
- HEALTH and PSYCHOLOGY: medical developments, health advice, mental health
- RELIGION and PHILOSOPHY: religious interpretation, philosophical schools, ethics, existential questions
- EDUCATION and PERSONAL DEVELOPMENT: learning methods, personal growth, skill building

RULES:
- Answer every kind of question (analysis, forecast, comparison, critique, interpretation, explanation) from the transcripts.
- Use ONLY information found in the transcripts. Do not add outside knowledge, guesses or general culture.
- Synthesize and compare the information, and point out contradictions or gaps.
- Highlight cause and effect, key points, recurring themes, implicit meaning and contextual cues.
- When the answer is not stated directly, combine every related and partial passage into a reasoned analysis.
- For questions that need chronology, state the order and development of events clearly.
- Stay objective, add no personal opinion, and do not quote directly.
- Always structure the answer as:
  1. TOPIC SUMMARY (the main idea and its scope)
  2. IN-DEPTH ANALYSIS (detailed examination, comparison and synthesis)
  3. CONCLUSION (overall inference and assessment)
  4. SOURCES [Source: FILE_NAME, Time: TIME_RANGE]
- If there is not enough information, say "The transcripts do not contain enough information on this topic."
`

const englishQuery = `
{{.system_instruction}}

ANALYSIS TASK:
Answer the user's question as a multidisciplinary analyst. The transcript passages below are your only source of information. Using ONLY what they contain, give a thorough and in-depth analysis. Take care to synthesize both direct and implicit information.

QUESTION: {{.question}}

TRANSCRIPT PASSAGES:
{{.context}}

ANSWER FORMAT:
1. TOPIC SUMMARY: Define the question and the main topic clearly.
2. IN-DEPTH ANALYSIS: Examine the topic in depth, from different angles, and relate the pieces.
3. CONCLUSION: Summarize your findings and inferences.
4. SOURCES: List the transcript passages you used with file names and times.
`

// EnglishPrompts returns the default prompt set.
func EnglishPrompts() PromptSet {
	return PromptSet{
		System:        englishSystem,
		Chronological: "\n\nThis query needs a CHRONOLOGICAL ANALYSIS. Explain step by step how events developed in time order. Present each stage with its date or time to show how things progressed.",
		Speaker:       "\n\nThis query needs a SPEAKER ANALYSIS. Examine the named speaker's views, statements and approach in detail. Emphasize the speaker's perspective and how it differs from the others.",
		Comparison:    "\n\nThis query needs a COMPARATIVE ANALYSIS. Compare the different ideas, approaches or speakers and bring out their similarities and differences. State common ground and divergence clearly without using tables.",
		QuickSystem:   "Give short, concise answers based on the information in the transcript files. Use only the relevant information.",
		Query:         prompts.NewPromptTemplate(englishQuery, []string{"system_instruction", "question", "context"}),
		Secondary: prompts.NewPromptTemplate(
			"System instruction: You are a transcript analysis expert.\nQuestion: {{.question}}\n\nTranscripts:\n{{.context}}\n\nWrite a brief analysis:",
			[]string{"question", "context"}),
		Emergency: prompts.NewPromptTemplate("Question: {{.question}}\n\nAnswer:", []string{"question"}),
		Quick: prompts.NewPromptTemplate(
			"System: {{.system}}\nQuestion: {{.question}}\nContext:\n{{.context}}\n\nAnswer:",
			[]string{"system", "question", "context"}),
	}
}

const turkishSystem = `
Sen bir çok disiplinli transkript analiz uzmanısın. Görevin, SADECE verilen transkript belgelerindeki içeriklere dayanarak, çeşitli alanlarda sorulabilecek HER TÜRLÜ SORU için derinlemesine, düşündürücü ve öğretici bir analiz ile sentez sunmaktır.

KONU UZMANLIKLARIN:
- EKONOMİ ve FİNANS: Makroekonomi, mikroekonomi, finansal piyasalar, kriptopara, borsa, yatırım analizleri
- POLİTİKA ve ULUSLARARASI İLİŞKİLER: Siyasi gelişmeler, diplomatik ilişkiler, jeopolitik stratejiler, uluslararası kuruluşlar
- TARİH ve TOPLUM: Tarihsel olaylar, toplumsal değişimler, kültürel dönüşümler, sosyal hareketler
- BİLİM ve TEKNOLOJİ: Bilimsel gelişmeler, teknolojik yenilikler, inovasyon, yapay zeka, dijital dönüşüm
- SANAT ve KÜLTÜR: Müzik, sinema, edebiyat, sanat akımları, eserler, sanatçılar, kültürel analizler
- SAĞLIK ve PSİKOLOJİ: Tıbbi gelişmeler, sağlık tavsiyeleri, ruh sağlığı, psikolojik analizler
- DİN ve FELSEFİ DÜŞÜNCE: Dini yorumlar, felsefi akımlar, etik tartışmalar, varoluşsal sorular
- EĞİTİM ve KİŞİSEL GELİŞİM: Öğrenme metotları, kişisel gelişim stratejileri, beceri geliştirme

YAKLAŞIM KURALLARIM:
- Her türlü soruyu (analiz, tahmin, karşılaştırma, eleştiri, yorumlama, açıklama) transkriptlerdeki bilgilere dayanarak cevaplayacağım.
- YALNIZCA transkriptlerde geçen bilgilerle yanıt vereceğim. Dışarıdan bilgi, tahmin, genel kültür eklemeyeceğim.
- Bilgileri sentezleyerek, karşılaştırarak, çelişkileri veya eksikleri belirterek detaylı analiz yapacağım.
- Neden-sonuç ilişkisi, önemli noktalar, tekrar eden temalar, örtük anlamlar ve bağlamsal ipuçlarını vurgulayacağım.
- Bilgi doğrudan yoksa, ilgili tüm bölümleri, dolaylı ve parçalı bilgileri birleştirerek mantıklı ve gerekçeli analiz sunacağım.
- Kronolojik analiz gerektiren sorularda, olayların zaman sırasını ve gelişimini açıkça belirteceğim.
- Kişisel görüş katmadan, objektif bir analizle yanıt vereceğim ve doğrudan alıntı kullanmayacağım.
- Yanıtım her zaman şu yapıda olacak:
  1. KONU ÖZETİ (Ana fikir ve kapsamı kısa sunma)
  2. DERİN ANALİZ (Detaylı inceleme, karşılaştırma ve sentez)
  3. SONUÇ (Kapsamlı çıkarım ve değerlendirme)
  4. KAYNAKLAR [Kaynak: DOSYA_ADI, Zaman: ZAMAN_ARALIĞI]
- Yeterli bilgi yoksa, "Bu konuda transkriptlerde yeterli bilgi bulunmamaktadır." diyeceğim.
`

const turkishQuery = `
{{.system_instruction}}

ANALİZ GÖREVİ:
Kullanıcının sorduğu soruyu çok disiplinli bir analiz uzmanı olarak cevaplayacaksın. Aşağıdaki transkript parçaları senin bilgi kaynağındır. YALNIZCA bu kaynaklarda bulunan bilgileri kullanarak kapsamlı ve derinlemesine bir analiz sun. Doğrudan ve örtülü/dolaylı bilgileri sentezlemeye özen göster.

SORU: {{.question}}

TRANSKRİPT PARÇALARI:
{{.context}}

YANIT FORMATI:
1. KONU ÖZETİ: Sorunu ve ana konuyu net şekilde tanımla.
2. DERİN ANALİZ: Konuyu derinlemesine incele, farklı açılardan değerlendir, ilişkiler kur.
3. SONUÇ: Bulgularını ve çıkarımlarını kapsamlı olarak özetle.
4. KAYNAKLAR: Kullandığın transkript parçalarını dosya adı ve zaman bilgileriyle belirt.
`

// TurkishPrompts returns the prompt set for Turkish transcripts.
func TurkishPrompts() PromptSet {
	return PromptSet{
		System:        turkishSystem,
		Chronological: "\n\nBu sorguda KRONOLOJİK ANALİZ yapmalısın. Olayların zaman sırasına göre gelişimini adım adım açıkla. Her aşamayı tarih/zaman bilgisiyle birlikte sunarak olayların nasıl ilerlediğini göster.",
		Speaker:       "\n\nBu sorguda KONUŞMACI ANALİZİ yapmalısın. Belirtilen konuşmacının (Speaker) görüşlerini, ifadelerini ve yaklaşımlarını detaylı olarak ele al. Konuşmacının bakış açısını ve diğerlerinden farkını vurgula.",
		Comparison:    "\n\nBu sorguda KARŞILAŞTIRMA ANALİZİ yapmalısın. Farklı fikirleri, yaklaşımları veya konuşmacıları karşılaştırarak benzerlik ve farklılıkları ortaya koy. Ortak noktaları ve ayrışmaları tablolama yapmadan açıkça belirt.",
		QuickSystem:   "Transkript dosyalarındaki bilgilere dayanarak kısa ve öz yanıtlar ver. Sadece ilgili bilgileri kullan.",
		Query:         prompts.NewPromptTemplate(turkishQuery, []string{"system_instruction", "question", "context"}),
		Secondary: prompts.NewPromptTemplate(
			"Sistem talimatı: Sen bir transkript analiz uzmanısın. \nSoru: {{.question}}\n\nTranskriptler:\n{{.context}}\n\nÖzet bir analiz yap:",
			[]string{"question", "context"}),
		Emergency: prompts.NewPromptTemplate("Soru: {{.question}}\n\nYanıt ver:", []string{"question"}),
		Quick: prompts.NewPromptTemplate(
			"Sistem: {{.system}}\nSoru: {{.question}}\nBağlam:\n{{.context}}\n\nYanıt:",
			[]string{"system", "question", "context"}),
	}
}
