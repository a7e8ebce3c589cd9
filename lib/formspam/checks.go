package formspam

import (
	"fmt"
	"net/netip"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/forPelevin/gomoji"

	"github.com/umputun/form-spam/lib/spamcheck"
)

// Check is a single heuristic check of a normalized text
type Check func(text string) spamcheck.CheckResult

// names of the heuristic checks
const (
	CheckLinks      = "link_check"
	CheckCharacters = "character_check"
	CheckPhrases    = "phrase_check"
	CheckEmails     = "email_check"
)

var (
	reURL       = regexp.MustCompile(`(?i)https?://[^\s<>"'\]\[)]+`)
	reMixedCase = regexp.MustCompile(`\b([A-Z][a-z]+ ){3,}[A-Z][a-z]+\b`)
	reSentences = regexp.MustCompile(`[.!?]+`)
	reLocalPart = regexp.MustCompile(`(?i)^[a-z0-9]{10,}$`)
)

var shorteners = []string{"bit.ly", "tinyurl.com", "t.co", "goo.gl", "ow.ly", "buff.ly", "adf.ly", "adfly",
	"short.link", "cutt.ly", "is.gd", "v.gd", "rebrand.ly", "shorten.it", "tiny.cc", "shorturl.at"}

var suspiciousTLDs = []string{".tk", ".ml", ".ga", ".cf", ".gq", ".xyz", ".click", ".top", ".download",
	".stream", ".online", ".site", ".website"}

var disposableProviders = []string{"temp-mail", "guerrillamail", "mailinator", "throwaway", "10minutemail",
	"tempmail", "fakemail", "trashmail"}

// SpamPhrases is the built-in list of spam phrases, lowercase
var SpamPhrases = []string{
	// english
	"buy now", "click here", "free money", "make money fast", "work from home", "limited time offer", "act now",
	"guaranteed income", "risk free", "no credit check", "one weird trick", "doctors hate", "lose weight fast",
	"get rich quick", "miracle cure", "winner", "congratulations", "you have won", "claim your prize",
	"click below", "visit our website", "special promotion",
	// german
	"jetzt kaufen", "klicken sie hier", "kostenlos geld", "schnell geld verdienen", "von zuhause arbeiten",
	"begrenztes angebot", "jetzt handeln", "garantiertes einkommen", "ohne kreditprüfung", "sie haben gewonnen",
	"gewinnspiel", "gratis", "kostenlos",
	// generic
	"urgent", "dringend", "important", "wichtig", "asap", "sofort", "100% free", "100% kostenlos", "no investment",
	"keine investition", "turn $1 into $1000", "from $0 to millionaire",
	// seo
	"best price", "lowest price", "cheap", "discount", "sale", "promotion", "best deal", "special offer",
	"limited offer", "hurry up",
}

// LinksCheck scores number of links, link-to-text ratio, shorteners, suspicious TLDs and ip hosts
func LinksCheck() Check {
	return func(text string) spamcheck.CheckResult {
		res := spamcheck.CheckResult{Name: CheckLinks}
		urls := reURL.FindAllString(text, -1)

		switch n := len(urls); {
		case n > 5:
			res.Add(0.4, fmt.Sprintf("Too many links (%d)", n))
		case n >= 3:
			res.Add(0.2, fmt.Sprintf("Multiple links (%d)", n))
		}

		if textLen := utf8.RuneCountInString(text); textLen > 0 && len(urls) > 0 {
			linksLen := 0
			for _, u := range urls {
				linksLen += utf8.RuneCountInString(u)
			}
			switch ratio := float64(linksLen) / float64(textLen); {
			case ratio > 0.5:
				res.Add(0.5, "Very high link-to-text ratio")
			case ratio > 0.3:
				res.Add(0.3, "High link-to-text ratio")
			}
		}

		for _, u := range urls {
			host := urlHost(u)
			if host == "" {
				continue
			}
			for _, s := range shorteners {
				if strings.Contains(host, s) {
					res.Add(0.3, "URL shortener detected: "+s)
					break
				}
			}
			for _, tld := range suspiciousTLDs {
				if strings.HasSuffix(host, tld) {
					res.Add(0.2, "Suspicious TLD: "+tld)
					break
				}
			}
			if addr, err := netip.ParseAddr(host); err == nil && addr.Is4() {
				res.Add(0.4, "IP address used as URL")
			}
		}

		res.Clamp()
		return res
	}
}

// CharactersCheck scores repeated characters, uppercase ratio, mixed case, special characters,
// long sentences without punctuation and emoji count
func CharactersCheck() Check {
	return func(text string) spamcheck.CheckResult {
		res := spamcheck.CheckResult{Name: CheckCharacters}

		if hasRepeatedRunes(text, 5) {
			res.Add(0.3, "Repeated characters detected")
		}

		upper, letters := 0, 0
		for _, r := range text {
			switch {
			case isUpperLetter(r):
				upper++
				letters++
			case isLowerLetter(r):
				letters++
			}
		}
		if letters > 10 {
			switch ratio := float64(upper) / float64(letters); {
			case ratio > 0.8:
				res.Add(0.4, "Text is mostly in uppercase")
			case ratio > 0.5:
				res.Add(0.2, "High percentage of uppercase text")
			}
		}

		if reMixedCase.MatchString(text) {
			res.Add(0.3, "Suspicious mixed case pattern")
		}

		if letters > 0 {
			special := 0
			for _, r := range text {
				if strings.ContainsRune(`!@#$%^&*()_+={}[]:;"'<>?,./\-`, r) {
					special++
				}
			}
			if float64(special)/float64(letters) > 0.3 {
				res.Add(0.3, "Too many special characters")
			}
		}

		for _, sentence := range reSentences.Split(text, -1) {
			sentence = strings.TrimSpace(sentence)
			if utf8.RuneCountInString(sentence) > 200 && !strings.ContainsAny(sentence, ".!?;:") {
				res.Add(0.2, "Very long sentence without punctuation")
				break
			}
		}

		if n := countEmojiRunes(text); n > 5 {
			res.Add(0.2, fmt.Sprintf("Too many emojis (%d)", n))
		}

		res.Clamp()
		return res
	}
}

// PhrasesCheck scores known spam phrases and keyword stuffing.
// The phrases func is called on every check, so the list can be updated at runtime.
func PhrasesCheck(phrases func() []string) Check {
	return func(text string) spamcheck.CheckResult {
		res := spamcheck.CheckResult{Name: CheckPhrases}
		lower := strings.ToLower(text)

		found := 0
		for _, p := range phrases() {
			if p != "" && strings.Contains(lower, p) {
				found++
				res.Add(0, fmt.Sprintf("Spam phrase detected: %q", p))
			}
		}
		switch {
		case found >= 3:
			res.Score += 0.6
		case found == 2:
			res.Score += 0.4
		case found == 1:
			res.Score += 0.2
		}

		counts, order := map[string]int{}, []string{}
		for _, w := range strings.Fields(lower) {
			w = strings.TrimSpace(gomoji.RemoveEmojis(w))
			if utf8.RuneCountInString(w) <= 4 {
				continue
			}
			if _, ok := counts[w]; !ok {
				order = append(order, w)
			}
			counts[w]++
		}
		for _, w := range order {
			if counts[w] > 5 {
				res.Add(0.3, fmt.Sprintf("Keyword stuffing: %q repeated %d times", w, counts[w]))
				break
			}
		}

		res.Clamp()
		return res
	}
}

// EmailsCheck scores multiple addresses, disposable providers and random-looking local parts
func EmailsCheck() Check {
	return func(text string) spamcheck.CheckResult {
		res := spamcheck.CheckResult{Name: CheckEmails}

		emails := []string{}
		seen := map[string]bool{}
		for _, e := range reEmail.FindAllString(text, -1) {
			if key := strings.ToLower(e); !seen[key] {
				seen[key] = true
				emails = append(emails, e)
			}
		}

		if len(emails) > 1 {
			res.Add(0.3, fmt.Sprintf("Multiple email addresses (%d)", len(emails)))
		}

		for _, e := range emails {
			at := strings.LastIndex(e, "@")
			local, domain := e[:at], strings.ToLower(e[at+1:])
			for _, p := range disposableProviders {
				if strings.Contains(domain, p) {
					res.Add(0.4, "Suspicious email provider: "+p)
					break
				}
			}
			if reLocalPart.MatchString(local) && countDigits(local) > 3 {
				res.Add(0.2, "Suspicious random email pattern")
			}
		}

		res.Clamp()
		return res
	}
}

func urlHost(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// hasRepeatedRunes reports whether text has a run of at least n identical runes, newlines break runs
func hasRepeatedRunes(text string, n int) bool {
	var prev rune
	count := 0
	for _, r := range text {
		if r == prev && r != '\n' {
			count++
			if count >= n {
				return true
			}
			continue
		}
		prev, count = r, 1
	}
	return false
}

func isUpperLetter(r rune) bool {
	return (r >= 'A' && r <= 'Z') || strings.ContainsRune("ÄÖÜÀÁÂÃÈÉÊÌÍÎÒÓÔÕÙÚÛ", r)
}

func isLowerLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || strings.ContainsRune("äöüàáâãèéêìíîòóôõùúû", r)
}

// countEmojiRunes counts code points in the common emoji and symbol blocks
func countEmojiRunes(text string) int {
	res := 0
	for _, r := range text {
		if (r >= 0x1F300 && r <= 0x1F9FF) || (r >= 0x2600 && r <= 0x26FF) || (r >= 0x2700 && r <= 0x27BF) {
			res++
		}
	}
	return res
}

func countDigits(s string) int {
	res := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			res++
		}
	}
	return res
}
