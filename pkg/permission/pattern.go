package permission

import (
	"path/filepath"
	"regexp"
	"strings"
)

// MatchesPattern implements the name-pattern rule: a pattern
// wrapped in backslashes (`\…\`) is a regex, otherwise it's a shell-style
// glob (`*`, `?`).
func MatchesPattern(name, pattern string) (bool, error) {
	if len(pattern) >= 2 && strings.HasPrefix(pattern, `\`) && strings.HasSuffix(pattern, `\`) {
		re, err := regexp.Compile(pattern[1 : len(pattern)-1])
		if err != nil {
			return false, err
		}
		return re.MatchString(name), nil
	}
	return filepath.Match(pattern, name)
}

// MatchesAnyPattern splits a comma-separated pattern list and reports
// whether name matches at least one entry.
func MatchesAnyPattern(name, patternList string) (bool, error) {
	for _, pattern := range strings.Split(patternList, ",") {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		ok, err := MatchesPattern(name, pattern)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
