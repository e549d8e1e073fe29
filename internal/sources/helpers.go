package sources

import "regexp"

var urlPattern = regexp.MustCompile(`https?://\S+`)

// ExtractURLs scans free text for http(s) URLs. Empty or URL-free input
// yields an empty slice, never nil.
func ExtractURLs(text string) []string {
	if text == "" {
		return []string{}
	}
	urls := urlPattern.FindAllString(text, -1)
	if urls == nil {
		return []string{}
	}
	return urls
}
