package common

import "regexp"

// MatchRegex reports whether text matches the given regular expression.
// The pattern is compiled on every call; an invalid pattern yields an error
// rather than a panic, since patterns here come from user-edited criteria.
func MatchRegex(pattern, text string) (bool, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(text), nil
}
