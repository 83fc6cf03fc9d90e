package naming

import (
	"regexp"
	"strings"
)

// Sanitizers for values embedded in generated Kubernetes manifests.
// All outputs satisfy the DNS-1123 grammar the API server enforces.

var (
	invalidNameChars   = regexp.MustCompile(`[^a-z0-9-]`)
	invalidLabelChars  = regexp.MustCompile(`[^a-z0-9._-]`)
	invalidFolderChars = regexp.MustCompile(`[^a-zA-Z0-9._/-]`)
	dashRuns           = regexp.MustCompile(`-{2,}`)
)

// AppName builds a generated Application name from the namespace and tool,
// sanitized to a DNS-1123 label capped at 50 characters.
func AppName(namespace, tool string) string {
	return Name(namespace + "-" + tool)
}

// Name sanitizes a string into a DNS-1123 name: lowercase alphanumeric and
// hyphens, no leading or trailing hyphen, at most 50 characters.
func Name(s string) string {
	s = strings.ToLower(s)
	s = invalidNameChars.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = s[:50]
		s = strings.TrimRight(s, "-")
	}
	return s
}

// Label sanitizes a string into a Kubernetes label value: lowercase, dots,
// underscores and hyphens allowed inside, at most 63 characters, collapsed
// dash runs.
func Label(s string) string {
	s = strings.ToLower(s)
	s = invalidLabelChars.ReplaceAllString(s, "-")
	s = strings.TrimLeft(s, "-")
	s = strings.TrimRight(s, "-")
	if len(s) > 63 {
		s = s[:63]
	}
	return dashRuns.ReplaceAllString(s, "-")
}

// Folder strips a repository folder path of anything outside letters,
// digits, dots, hyphens, underscores and slashes, capped at 100 characters.
func Folder(s string) string {
	s = invalidFolderChars.ReplaceAllString(s, "")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}
