package parex

import (
	"regexp"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// Matcher decides whether an entry is a match.
//
// Implementations must be pure with respect to engine state and safe for
// concurrent use: the engine calls Match from many worker goroutines without
// external synchronization. A matcher must not hold locks that could
// deadlock against the engine's own collection mutexes.
type Matcher interface {
	Match(entry *Entry) bool
}

// MatcherFunc adapts a plain function to the Matcher interface.
type MatcherFunc func(entry *Entry) bool

// Match implements Matcher.
func (f MatcherFunc) Match(entry *Entry) bool { return f(entry) }

// AllMatcher matches every entry. Used when no matcher is configured.
type AllMatcher struct{}

// Match implements Matcher.
func (AllMatcher) Match(*Entry) bool { return true }

// SubstringMatcher matches entries whose Name contains a pattern,
// case-insensitively.
type SubstringMatcher struct {
	pattern string
}

// MatchSubstring creates the built-in case-insensitive substring matcher.
func MatchSubstring(pattern string) *SubstringMatcher {
	return &SubstringMatcher{pattern: strings.ToLower(pattern)}
}

// Match implements Matcher.
func (m *SubstringMatcher) Match(entry *Entry) bool {
	return strings.Contains(strings.ToLower(entry.Name), m.pattern)
}

// RegexMatcher matches entries whose Name matches a compiled regular
// expression.
type RegexMatcher struct {
	re *regexp.Regexp
}

// MatchRegex compiles expr into a RegexMatcher. A compile failure is
// reported as ErrInvalidPattern.
func MatchRegex(expr string) (*RegexMatcher, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &Error{Kind: ErrInvalidPattern, Detail: expr, Err: err}
	}
	return &RegexMatcher{re: re}, nil
}

// Match implements Matcher.
func (m *RegexMatcher) Match(entry *Entry) bool {
	return m.re.MatchString(entry.Name)
}

// LanguageMatcher matches file entries whose name maps to a given programming
// language. Detection is filename-based only; entry content is never read.
type LanguageMatcher struct {
	language string
}

// MatchLanguage creates a matcher for the given language name as understood
// by go-enry (e.g. "Go", "Python", "Rust").
func MatchLanguage(language string) *LanguageMatcher {
	return &LanguageMatcher{language: language}
}

// Match implements Matcher.
func (m *LanguageMatcher) Match(entry *Entry) bool {
	if entry.Kind != KindFile {
		return false
	}
	lang, _ := enry.GetLanguageByExtension(entry.Name)
	if lang == "" {
		lang, _ = enry.GetLanguageByFilename(entry.Name)
	}
	return strings.EqualFold(lang, m.language)
}
