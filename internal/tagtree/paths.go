package tagtree

import (
	"regexp"
	"strings"

	"promptvault/internal/storage"
)

const maxTagNameLength = 50

var allowedTagChars = regexp.MustCompile(`^[a-zA-Z0-9\s\-_/]+$`)
var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Validation is the result of a tag name or color check. Error is empty when
// Valid is true.
type Validation struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func invalid(msg string) Validation {
	return Validation{Valid: false, Error: msg}
}

// ValidateTagName checks a tag path against the tag-name grammar. The checks
// run in a fixed order; the first failing rule determines the reported error.
func ValidateTagName(name string) Validation {
	if strings.TrimSpace(name) == "" {
		return invalid("Tag name cannot be empty")
	}
	if len(name) > maxTagNameLength {
		return invalid("Tag name must be 50 characters or less")
	}
	if !allowedTagChars.MatchString(name) {
		return invalid("Tag name can only contain letters, numbers, spaces, hyphens, underscores, and forward slashes")
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") || strings.Contains(name, "//") {
		return invalid("Invalid tag hierarchy structure")
	}
	return Validation{Valid: true}
}

// ValidateColor checks for the exact #RRGGBB hex form.
func ValidateColor(color string) Validation {
	if !hexColor.MatchString(color) {
		return invalid("Color must be in hex format (#RRGGBB)")
	}
	return Validation{Valid: true}
}

// PrefixPaths returns every ancestor path of a tag name inclusive, in
// root-to-leaf order: "a/b/c" yields ["a", "a/b", "a/b/c"].
func PrefixPaths(name string) []string {
	parts := strings.Split(name, "/")
	paths := make([]string, 0, len(parts))
	for i := 1; i <= len(parts); i++ {
		paths = append(paths, strings.Join(parts[:i], "/"))
	}
	return paths
}

// ChildrenOf returns the tags that are strict descendants of parentPath.
// The parent itself is never included.
func ChildrenOf(parentPath string, tags []storage.Tag) []storage.Tag {
	prefix := parentPath + "/"
	var children []storage.Tag
	for _, t := range tags {
		if strings.HasPrefix(t.Name, prefix) {
			children = append(children, t)
		}
	}
	return children
}
