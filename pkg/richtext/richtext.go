// Package richtext finds and rewrites image sources in rich text bodies.
// It matches src="..." attributes with a pattern and is not an html parser.
package richtext

import (
	"regexp"
)

var srcPattern = regexp.MustCompile(`(?i)src\s*=\s*"(.+?)"`)

// Sources returns every distinct src attribute value in order of appearance
func Sources(body string) []string {
	matches := srcPattern.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	sources := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		sources = append(sources, m[1])
	}
	return sources
}

// Rewrite replaces src attribute values found in replacements. Text outside
// of src attributes is never touched.
func Rewrite(body string, replacements map[string]string) string {
	if len(replacements) == 0 {
		return body
	}
	return srcPattern.ReplaceAllStringFunc(body, func(match string) string {
		idx := srcPattern.FindStringSubmatchIndex(match)
		if idx == nil {
			return match
		}
		replacement, ok := replacements[match[idx[2]:idx[3]]]
		if !ok {
			return match
		}
		return match[:idx[2]] + replacement + match[idx[3]:]
	})
}
