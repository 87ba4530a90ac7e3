package eval

import (
	"regexp"
	"strings"
)

// Matches is the built-in rule-based evaluation for challenge types that
// do not need the model to judge them. The expected pattern is tried as
// a regular expression first; otherwise it is treated as a keyword list.
// Alternates are accepted as whole answers.
//
// Effectiveness: a regex or alternate match is full; keyword matches
// scale with how many keywords hit.
func Matches(response, pattern string, alternates []string) (matched bool, effectiveness int) {
	answer := strings.ToLower(strings.TrimSpace(response))
	if answer == "" {
		return false, 0
	}

	for _, alternate := range alternates {
		if strings.EqualFold(strings.TrimSpace(alternate), answer) {
			return true, 100
		}
	}

	expected := strings.ToLower(strings.TrimSpace(pattern))
	if expected == "" {
		return false, 0
	}

	if re, err := regexp.Compile(expected); err == nil {
		if re.MatchString(answer) {
			return true, 100
		}
	}

	keywords := splitKeywords(expected)
	if len(keywords) == 0 {
		return false, 0
	}
	hits := 0
	for _, keyword := range keywords {
		if strings.Contains(answer, keyword) {
			hits++
		}
	}
	switch {
	case hits == len(keywords):
		return true, 100
	case hits > 0:
		return true, 50
	default:
		return false, 0
	}
}

func splitKeywords(pattern string) []string {
	raw := strings.FieldsFunc(pattern, func(r rune) bool {
		return r == '|' || r == ','
	})
	keywords := make([]string, 0, len(raw))
	for _, keyword := range raw {
		keyword = strings.TrimSpace(keyword)
		if keyword != "" {
			keywords = append(keywords, keyword)
		}
	}
	return keywords
}
