package utils

import (
	"net/url"
	"path"
	"regexp"
)

var extensionRe = regexp.MustCompile(`\.([a-zA-Z0-9]{3,4})$`)

func GetFileNameFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return path.Base(u.Path)
}

// GetExtension returns the 3 or 4 character extension of the last path
// segment of urlStr, without the dot, or "" if there is none.
func GetExtension(urlStr string) string {
	m := extensionRe.FindStringSubmatch(GetFileNameFromURL(urlStr))
	if m == nil {
		return ""
	}
	return m[1]
}

func JoinURL(baseURL, relativePath string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}

	relative, err := url.Parse(relativePath)
	if err != nil {
		return ""
	}

	return base.ResolveReference(relative).String()
}
