package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reNonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
	reMultiHyphen  = regexp.MustCompile(`-+`)
)

// TrimAndNormalize trims the string and collapses interior whitespace runs
// to a single space.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeSlug lowercases the input and replaces every run of characters
// outside [a-z0-9] with a single hyphen. "Quick Chat!" becomes "quick-chat".
func NormalizeSlug(input string) string {
	p := Pipeline{
		TrimAndNormalize,
		strings.ToLower,
		func(s string) string { return reNonSlugChars.ReplaceAllString(s, "-") },
		func(s string) string { return reMultiHyphen.ReplaceAllString(s, "-") },
		func(s string) string { return strings.Trim(s, "-") },
	}
	return p.Apply(input)
}

func NormalizeStringSlice(items []string, normalizer Strategy) []string {
	if len(items) == 0 {
		return []string{}
	}

	seen := make(map[string]bool)
	result := make([]string, 0, len(items))

	for _, item := range items {
		normalized := normalizer(item)

		if normalized == "" {
			continue
		}

		if seen[normalized] {
			continue
		}

		seen[normalized] = true
		result = append(result, normalized)
	}

	return result
}

// NormalizeGuests dedupes and lowercases a guest email list.
func NormalizeGuests(guests []string) []string {
	return NormalizeStringSlice(guests, NormalizeEmail)
}

// NormalizeTimezone trims the IANA zone name. Zone names are case sensitive,
// so casing is preserved.
func NormalizeTimezone(tz string) string {
	return strings.TrimSpace(tz)
}
