package pipeline

import "strings"

// TitleMentionsCompany is the cheap lexical gate applied before a headline
// is sent for classification. It passes when the first token of the
// company name (or of any alias) appears in the title case-insensitively, or
// the ticker appears verbatim. It is not a relevance judgment; the
// classification step scores relevance on its own.
func TitleMentionsCompany(title, companyName, ticker string, aliases []string) bool {
	lowerTitle := strings.ToLower(title)

	names := make([]string, 0, len(aliases)+1)
	names = append(names, companyName)
	names = append(names, aliases...)

	for _, name := range names {
		token := firstToken(name)
		if token != "" && strings.Contains(lowerTitle, strings.ToLower(token)) {
			return true
		}
	}

	return ticker != "" && strings.Contains(title, ticker)
}

func firstToken(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
