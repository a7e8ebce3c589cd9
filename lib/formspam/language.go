package formspam

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var (
	reLangURL      = regexp.MustCompile(`https?://\S+`)
	reEmail        = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	reLanguageCode = regexp.MustCompile(`^[a-z]{2}$`)
)

// latinLanguage describes keyword and diacritic markers of a latin-script language.
// Each non-empty marker group found in the text counts as a single hit.
type latinLanguage struct {
	code       string
	words      map[string]bool
	pronouns   map[string]bool
	diacritics string
}

// order matters, the first language with enough hits wins
var latinLanguages = []latinLanguage{
	{
		code: "de",
		words: wordSet("der die das und ist für auf mit zu den von sich nicht dem auch es an werden aus ein einer " +
			"eines einen einem wird wie im in zur zum über dass kann dann wenn haben nur oder aber vor nach bis seit " +
			"durch bei gegen ohne um unter zwischen während trotz wegen dank gemäß entsprechend bezüglich hinsichtlich " +
			"anlässlich zufolge gegenüber außerhalb innerhalb oberhalb unterhalb diesseits jenseits beiderseits abseits " +
			"längs entlang entgegen zuzüglich einschließlich ausschließlich ungeachtet unbeschadet vorbehaltlich zwecks " +
			"mittels vermöge kraft laut"),
		pronouns:   wordSet("ich du er sie es wir ihr"),
		diacritics: "äöüß",
	},
	{
		code: "fr",
		words: wordSet("le la les un une des de du et à dans pour sur avec sans par parmi pendant depuis jusqu avant " +
			"après entre sous hors vers chez selon malgré grâce envers contre"),
		pronouns:   wordSet("je tu il elle nous vous ils elles"),
		diacritics: "àâäéèêëïîôùûüÿç",
	},
	{
		code: "es",
		words: wordSet("el la los las un una unos unas y de del en a por para con sin sobre bajo entre hacia desde " +
			"hasta durante mediante según contra frente tras"),
		pronouns:   wordSet("yo tú él ella nosotros vosotros ellos ellas"),
		diacritics: "áéíóúñü¿¡",
	},
	{
		code: "it",
		words: wordSet("il la lo gli le un una uno e di del della dei delle in a da per con su sopra sotto tra fra " +
			"durante mentre prima dopo verso lungo attraverso oltre entro fino secondo contro senza tranne eccetto salvo " +
			"invece grazie nonostante malgrado benché sebbene quasi pressoché circa intorno vicino lontano davanti dietro " +
			"accanto dentro fuori giù destra sinistra avanti indietro qui qua là laggiù dove dovunque ovunque quando " +
			"finché appena subito immediatamente presto tardi sempre mai spesso raramente"),
		diacritics: "àèéìíîòóù",
	},
}

// DetectLanguage guesses a two-letter language code of the text.
// Script ranges take priority, then keyword and diacritic markers of latin languages,
// then mostly-ascii text is considered english. Returns empty string if unknown.
func DetectLanguage(text string) string {
	text = reLangURL.ReplaceAllString(text, "")
	text = reEmail.ReplaceAllString(text, "")
	if strings.TrimSpace(text) == "" {
		return ""
	}

	if isRussian(text) {
		return "ru"
	}

	scripts := []struct {
		code  string
		inSet func(r rune) bool
	}{
		{"zh", func(r rune) bool { return r >= 0x4E00 && r <= 0x9FFF }},
		{"ja", func(r rune) bool {
			return (r >= 0x3040 && r <= 0x309F) || (r >= 0x30A0 && r <= 0x30FF) || (r >= 0x4E00 && r <= 0x9FAF)
		}},
		{"ko", func(r rune) bool { return r >= 0xAC00 && r <= 0xD7AF }},
		{"ar", func(r rune) bool { return r >= 0x0600 && r <= 0x06FF }},
		{"th", func(r rune) bool { return r >= 0x0E00 && r <= 0x0E7F }},
	}
	for _, s := range scripts {
		if strings.IndexFunc(text, s.inSet) >= 0 {
			return s.code
		}
	}

	lower := strings.ToLower(text)
	words := strings.FieldsFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) })
	for _, lang := range latinLanguages {
		if lang.hits(lower, words) >= 2 {
			return lang.code
		}
	}

	var total, nonASCII int
	for _, r := range text {
		total++
		if r > 127 && r != 0x00A0 {
			nonASCII++
		}
	}
	if total > 0 && float64(nonASCII)/float64(total) < 0.1 {
		return "en"
	}
	return ""
}

// NormalizeLanguageCode reduces a locale-like tag (de_DE, en-US, "English") to a two-letter
// lowercase code. Returns empty string for unknown or invalid tags.
func NormalizeLanguageCode(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" || tag == "unknown" {
		return ""
	}
	if len(tag) > 2 {
		tag = tag[:2]
	}
	if !reLanguageCode.MatchString(tag) {
		return ""
	}
	return tag
}

// LanguageName returns english name of the language by two-letter code, "English" if unknown
func LanguageName(code string) string {
	code = NormalizeLanguageCode(code)
	if code == "" {
		return "English"
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "English"
	}
	name := display.English.Languages().Name(tag)
	if name == "" {
		return "English"
	}
	return name
}

// isRussian checks cyrillic density over non-space characters and russian-only letters
func isRussian(text string) bool {
	var cyrillic, total int
	hasRussian, hasOther := false, false
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if r < 0x0400 || r > 0x04FF {
			continue
		}
		cyrillic++
		switch lr := unicode.ToLower(r); {
		case lr == 'і' || lr == 'ї' || lr == 'є' || lr == 'ґ' || lr == 'ў':
			hasOther = true
		case (lr >= 'а' && lr <= 'я') || lr == 'ё':
			hasRussian = true
		}
	}
	if total == 0 || float64(cyrillic)/float64(total) <= 0.3 {
		return false
	}
	return hasRussian && !hasOther
}

func (l latinLanguage) hits(lower string, words []string) int {
	res := 0
	for _, set := range []map[string]bool{l.words, l.pronouns} {
		if len(set) == 0 {
			continue
		}
		for _, w := range words {
			if set[w] {
				res++
				break
			}
		}
	}
	if l.diacritics != "" && strings.ContainsAny(lower, l.diacritics) {
		res++
	}
	return res
}

func wordSet(words string) map[string]bool {
	res := map[string]bool{}
	for _, w := range strings.Fields(words) {
		res[w] = true
	}
	return res
}
