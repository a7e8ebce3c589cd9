package lua

import (
	"regexp"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/umputun/form-spam/lib/formspam"
)

var (
	reLink  = regexp.MustCompile(`(?i)https?://\S+`)
	reEmail = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
)

// RegisterHelpers registers helper functions for Lua scripts
func (c *Checker) RegisterHelpers() {
	c.vm.SetGlobal("detect_language", c.vm.NewFunction(detectLanguage))
	c.vm.SetGlobal("count_links", c.vm.NewFunction(countLinks))
	c.vm.SetGlobal("count_emails", c.vm.NewFunction(countEmails))
	c.vm.SetGlobal("heuristic_score", c.vm.NewFunction(heuristicScore))
	c.vm.SetGlobal("count_substring", c.vm.NewFunction(countSubstring))
	c.vm.SetGlobal("match_regex", c.vm.NewFunction(matchRegex))
	c.vm.SetGlobal("contains_any", c.vm.NewFunction(containsAny))
	c.vm.SetGlobal("to_lower", c.vm.NewFunction(toLowerCase))
	c.vm.SetGlobal("trim", c.vm.NewFunction(trim))
	c.vm.SetGlobal("split", c.vm.NewFunction(split))
	c.vm.SetGlobal("join", c.vm.NewFunction(join))
}

// detectLanguage returns two-letter language code of the text, empty if unknown
func detectLanguage(l *lua.LState) int {
	l.Push(lua.LString(formspam.DetectLanguage(l.CheckString(1))))
	return 1
}

// countLinks counts http(s) links in the text
func countLinks(l *lua.LState) int {
	l.Push(lua.LNumber(len(reLink.FindAllString(l.CheckString(1), -1))))
	return 1
}

// countEmails counts email addresses in the text
func countEmails(l *lua.LState) int {
	l.Push(lua.LNumber(len(reEmail.FindAllString(l.CheckString(1), -1))))
	return 1
}

// heuristicScore runs the named built-in check (link_check, character_check, phrase_check, email_check)
// and returns its score and reasons joined with "; "
func heuristicScore(l *lua.LState) int {
	text := l.CheckString(1)
	var check formspam.Check
	switch name := l.CheckString(2); name {
	case formspam.CheckLinks:
		check = formspam.LinksCheck()
	case formspam.CheckCharacters:
		check = formspam.CharactersCheck()
	case formspam.CheckPhrases:
		check = formspam.PhrasesCheck(func() []string { return formspam.SpamPhrases })
	case formspam.CheckEmails:
		check = formspam.EmailsCheck()
	default:
		l.Push(lua.LNumber(0))
		l.Push(lua.LString("unknown check " + name))
		return 2
	}
	res := check(text)
	l.Push(lua.LNumber(res.Score))
	l.Push(lua.LString(strings.Join(res.Reasons, "; ")))
	return 2
}

// countSubstring counts occurrences of a substring
func countSubstring(l *lua.LState) int {
	str := l.CheckString(1)
	substr := l.CheckString(2)
	count := strings.Count(str, substr)
	l.Push(lua.LNumber(count))
	return 1
}

// matchRegex checks if a string matches a regex pattern
func matchRegex(l *lua.LState) int {
	text := l.CheckString(1)
	pattern := l.CheckString(2)

	re, err := regexp.Compile(pattern)
	if err != nil {
		l.Push(lua.LBool(false))
		l.Push(lua.LString("invalid pattern: " + err.Error()))
		return 2
	}

	matched := re.MatchString(text)
	l.Push(lua.LBool(matched))
	return 1
}

// containsAny checks if a string contains any of the given substrings
func containsAny(l *lua.LState) int {
	str := l.CheckString(1)

	// check if second argument is a table
	if l.GetTop() >= 2 && l.Get(2).Type() == lua.LTTable {
		table := l.ToTable(2)
		var items []string

		table.ForEach(func(_, v lua.LValue) {
			if v.Type() == lua.LTString {
				items = append(items, v.String())
			}
		})

		for _, item := range items {
			if strings.Contains(str, item) {
				l.Push(lua.LBool(true))
				l.Push(lua.LString(item))
				return 2
			}
		}

		l.Push(lua.LBool(false))
		return 1
	}

	// if not a table, treat remaining arguments as strings
	for i := 2; i <= l.GetTop(); i++ {
		substr := l.CheckString(i)
		if strings.Contains(str, substr) {
			l.Push(lua.LBool(true))
			l.Push(lua.LString(substr))
			return 2
		}
	}

	l.Push(lua.LBool(false))
	return 1
}

// toLowerCase converts a string to lowercase
func toLowerCase(l *lua.LState) int {
	str := l.CheckString(1)
	l.Push(lua.LString(strings.ToLower(str)))
	return 1
}

// trim removes whitespace from both ends of a string
func trim(l *lua.LState) int {
	str := l.CheckString(1)
	l.Push(lua.LString(strings.TrimSpace(str)))
	return 1
}

// split splits a string by a separator
func split(l *lua.LState) int {
	str := l.CheckString(1)
	sep := l.CheckString(2)

	parts := strings.Split(str, sep)

	resultTable := l.NewTable()
	for i, part := range parts {
		resultTable.RawSetInt(i+1, lua.LString(part))
	}

	l.Push(resultTable)
	return 1
}

// join joins strings with a separator
func join(l *lua.LState) int {
	sep := l.CheckString(1)

	if l.GetTop() >= 2 && l.Get(2).Type() == lua.LTTable {
		table := l.ToTable(2)
		var items []string

		table.ForEach(func(_, v lua.LValue) {
			if v.Type() == lua.LTString {
				items = append(items, v.String())
			}
		})

		l.Push(lua.LString(strings.Join(items, sep)))
		return 1
	}

	var strs []string
	for i := 2; i <= l.GetTop(); i++ {
		strs = append(strs, l.CheckString(i))
	}

	l.Push(lua.LString(strings.Join(strs, sep)))
	return 1
}
