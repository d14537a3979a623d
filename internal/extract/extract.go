// Package extract pulls bibliographic fields out of raw document strings.
//
// Every function here is pure: callers hand in metadata-dictionary values or
// page text already produced by the probe package.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// matcher returns a candidate value and whether it matched.
type matcher func(text string) (string, bool)

// firstMatch tries matchers in order and returns the first accepted value.
// accept may reject a candidate, in which case the next matcher is tried.
func firstMatch(text string, matchers []matcher, accept func(string) (string, bool)) (string, bool) {
	for _, m := range matchers {
		v, ok := m(text)
		if !ok {
			continue
		}
		if accept == nil {
			return v, true
		}
		if v, ok = accept(v); ok {
			return v, true
		}
	}
	return "", false
}

// submatch builds a matcher returning capture group 1 if the pattern has
// one, otherwise the whole match.
func submatch(re *regexp.Regexp) matcher {
	return func(text string) (string, bool) {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		if len(m) > 1 && m[1] != "" {
			return m[1], true
		}
		return m[0], true
	}
}

var doiMatchers = []matcher{
	submatch(regexp.MustCompile(`(?i)10\.\d{4,}/\S+`)),
	submatch(regexp.MustCompile(`(?i)doi[:\s]+(\S+)`)),
	submatch(regexp.MustCompile(`(?i)https?://(?:dx\.)?doi\.org/(\S+)`)),
}

// doiTrailing is the set of characters stripped from the end of a DOI match.
const doiTrailing = ".,;)]}>"

// DOI finds a DOI in text and returns it in bare 10.xxxx/... form.
// Returns "" if no pattern yields a value starting with "10.".
func DOI(text string) string {
	if text == "" {
		return ""
	}
	doi, _ := firstMatch(text, doiMatchers, func(v string) (string, bool) {
		v = strings.TrimRight(v, doiTrailing)
		return v, strings.HasPrefix(v, "10.")
	})
	return doi
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// Year extracts a standalone 19xx/20xx year from a date string such as an
// OPF dc:date. Returns 0 if none. A PDF date ("D:20190412...") has no word
// boundary after its year and yields 0, leaving the year to page text.
func Year(date string) int {
	m := yearPattern.FindString(date)
	if m == "" {
		return 0
	}
	y, _ := strconv.Atoi(m)
	return y
}

var textYearMatchers = []matcher{
	submatch(regexp.MustCompile(`\((\d{4})\)`)),
	submatch(regexp.MustCompile(`(?i)published[:\s]+(\d{4})`)),
	submatch(regexp.MustCompile(`©\s*(\d{4})`)),
	submatch(regexp.MustCompile(`\b(20[0-2]\d)\b`)),
}

// YearFromText looks for a publication year in page text, e.g. "(2023)",
// "Published: 2023" or "© 2023". Returns 0 if none.
func YearFromText(text string) int {
	if text == "" {
		return 0
	}
	v, ok := firstMatch(text, textYearMatchers, nil)
	if !ok {
		return 0
	}
	y, _ := strconv.Atoi(v)
	return y
}

var (
	titlePrefix = regexp.MustCompile(`(?i)^(Microsoft Word - |untitled|Document)`)
	titleSuffix = regexp.MustCompile(`(?i)\.pdf$`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// CleanTitle removes word-processor artifacts from a metadata title.
func CleanTitle(raw string) string {
	if raw == "" {
		return ""
	}
	t := titlePrefix.ReplaceAllString(raw, "")
	t = titleSuffix.ReplaceAllString(t, "")
	t = whitespace.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// Title-from-text limits
const (
	minTitleLineLen = 10
	maxTitleLen     = 200
)

// TitleFromText returns the first substantial line of page text, which is
// usually the title. Returns "" if no line is longer than 10 characters.
func TitleFromText(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if utf8.RuneCountInString(strings.TrimSpace(line)) <= minTitleLineLen {
			continue
		}
		runes := []rune(line)
		if len(runes) > maxTitleLen {
			runes = runes[:maxTitleLen]
		}
		return strings.TrimSpace(string(runes))
	}
	return ""
}

var (
	andSeparator       = regexp.MustCompile(`(?i)\s+and\s+`)
	ampersandSeparator = regexp.MustCompile(`\s+&\s+`)
	authorSplit        = regexp.MustCompile(`,\s*|\s+and\s+|\s*&\s*`)
)

// ParseAuthors normalizes separators in a loosely-delimited author string to
// ", ". The result is a display string, not a list.
func ParseAuthors(raw string) string {
	if raw == "" {
		return ""
	}
	s := strings.ReplaceAll(raw, ";", ",")
	s = andSeparator.ReplaceAllString(s, ", ")
	s = ampersandSeparator.ReplaceAllString(s, ", ")
	return strings.TrimSpace(s)
}

// SplitAuthors splits an author display string on ",", " and " or "&",
// dropping empty tokens.
func SplitAuthors(s string) []string {
	var out []string
	for _, a := range authorSplit.Split(s, -1) {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
