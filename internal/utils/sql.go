package utils

import (
	"regexp"
	"strings"
	"unicode"
)

var readKeywords = []string{"SELECT", "WITH", "PRAGMA", "EXPLAIN", "VALUES"}

// FirstKeyword returns the upper-cased first word of a statement,
// skipping leading whitespace, comments and opening parentheses.
func FirstKeyword(query string) string {
	s := query
	for {
		s = strings.TrimLeftFunc(s, func(r rune) bool { return unicode.IsSpace(r) || r == '(' })
		switch {
		case strings.HasPrefix(s, "--"):
			if i := strings.IndexByte(s, '\n'); i >= 0 {
				s = s[i+1:]
			} else {
				return ""
			}
		case strings.HasPrefix(s, "/*"):
			if i := strings.Index(s[2:], "*/"); i >= 0 {
				s = s[i+4:]
			} else {
				return ""
			}
		default:
			end := strings.IndexFunc(s, func(r rune) bool { return !isWordRune(r) })
			if end < 0 {
				end = len(s)
			}
			return strings.ToUpper(s[:end])
		}
	}
}

// IsReadStatement reports whether the statement produces a result set.
// A WITH clause in front of INSERT, UPDATE or DELETE is a write.
func IsReadStatement(query string) bool {
	kw := FirstKeyword(query)
	if kw == "WITH" {
		return !hasWriteClause(query)
	}
	return Contains(readKeywords, kw)
}

// hasWriteClause looks for DML keywords outside quotes and comments.
func hasWriteClause(query string) bool {
	runes := []rune(query)
	n := len(runes)
	prev := ""

	for i := 0; i < n; i++ {
		r := runes[i]
		switch {
		case isWordRune(r):
			j := i
			for j < n && isWordRune(runes[j]) {
				j++
			}
			w := strings.ToUpper(string(runes[i:j]))
			switch {
			case w == "INSERT", w == "UPDATE", w == "DELETE":
				return true
			case w == "INTO" && prev == "REPLACE":
				return true
			}
			prev = w
			i = j - 1
		case r == '\'' || r == '"' || r == '`':
			i = skipQuoted(runes, i, r)
		case r == '[':
			i = skipQuoted(runes, i, ']')
		case r == '-' && i+1 < n && runes[i+1] == '-':
			for i < n && runes[i] != '\n' {
				i++
			}
		case r == '/' && i+1 < n && runes[i+1] == '*':
			i += 2
			for i+1 < n && !(runes[i] == '*' && runes[i+1] == '/') {
				i++
			}
			i++
		}
	}
	return false
}

var intoPattern = regexp.MustCompile(`(?i)\bINTO\b`)

// TouchesFiles reports whether the statement opens or writes a database
// file next to the connection: ATTACH, DETACH and VACUUM INTO.
func TouchesFiles(query string) bool {
	switch FirstKeyword(query) {
	case "ATTACH", "DETACH":
		return true
	case "VACUUM":
		return intoPattern.MatchString(MaskLiterals(query))
	}
	return false
}

// MaskLiterals blanks the contents of single-quoted string literals,
// keeping the quotes and the length of the text.
func MaskLiterals(query string) string {
	runes := []rune(query)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '\'' {
			continue
		}
		end := skipQuoted(runes, i, '\'')
		if end == i || runes[end] != '\'' {
			// Unterminated: blank to the end.
			end = len(runes)
		}
		for j := i + 1; j < end; j++ {
			runes[j] = ' '
		}
		i = end
	}
	return string(runes)
}

// SplitStatements cuts a script into statements on top-level semicolons.
// Quotes, comments and CREATE TRIGGER bodies are respected. Chunks that
// hold nothing but whitespace or comments are dropped.
func SplitStatements(script string) []string {
	var (
		out      []string
		start    int
		hasToken bool
		inWord   bool
		wordFrom int
		words    []string
		depth    int
	)

	runes := []rune(script)
	n := len(runes)

	flushWord := func(end int) {
		if !inWord {
			return
		}
		inWord = false
		w := strings.ToUpper(string(runes[wordFrom:end]))
		if len(words) < 4 {
			words = append(words, w)
		}
		if !isTrigger(words) {
			return
		}
		switch w {
		case "BEGIN", "CASE":
			depth++
		case "END":
			if depth > 0 {
				depth--
			}
		}
	}

	emit := func(end int) {
		if hasToken {
			out = append(out, strings.TrimSpace(string(runes[start:end])))
		}
		start = end + 1
		hasToken = false
		words = words[:0]
		depth = 0
	}

	for i := 0; i < n; i++ {
		r := runes[i]

		if isWordRune(r) {
			if !inWord {
				inWord = true
				wordFrom = i
			}
			hasToken = true
			continue
		}
		flushWord(i)

		switch {
		case r == '\'' || r == '"' || r == '`':
			hasToken = true
			i = skipQuoted(runes, i, r)
		case r == '[':
			hasToken = true
			i = skipQuoted(runes, i, ']')
		case r == '-' && i+1 < n && runes[i+1] == '-':
			for i < n && runes[i] != '\n' {
				i++
			}
		case r == '/' && i+1 < n && runes[i+1] == '*':
			i += 2
			for i+1 < n && !(runes[i] == '*' && runes[i+1] == '/') {
				i++
			}
			i++
		case r == ';':
			if depth == 0 {
				emit(i)
			}
		case !unicode.IsSpace(r):
			hasToken = true
		}
	}
	flushWord(n)
	if start < n {
		emit(n)
	}

	return out
}

// skipQuoted returns the index of the closing quote. Doubled quotes are escapes.
func skipQuoted(runes []rune, i int, closer rune) int {
	for j := i + 1; j < len(runes); j++ {
		if runes[j] != closer {
			continue
		}
		if closer != ']' && j+1 < len(runes) && runes[j+1] == closer {
			j++
			continue
		}
		return j
	}
	return len(runes) - 1
}

func isTrigger(words []string) bool {
	if len(words) < 2 || words[0] != "CREATE" {
		return false
	}
	if words[1] == "TRIGGER" {
		return true
	}
	return len(words) >= 3 && (words[1] == "TEMP" || words[1] == "TEMPORARY") && words[2] == "TRIGGER"
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// QuoteIdent quotes an SQLite identifier with double quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
