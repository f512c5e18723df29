package core

import (
	"slices"
	"strings"
)

// Namespaces whose pages are never search nodes. Compared lower-cased.
var excludedNamespaces = []string{
	"file", "image", "media",
	"category",
	"portal",
	"template",
	"help",
	"special",
	"wikipedia", "wp", "project",
	"module",
	"draft",
	"mediawiki",
	"user",
	"talk",
	"timedtext",
	"book",
	"gadget", "gadget definition",
}

// Section headings that end the article body. Links at or after the first one
// are citations and navigation, not topical links.
var referenceSections = []string{
	"references",
	"notes",
	"notes and references",
	"citations",
	"sources",
	"bibliography",
	"footnotes",
	"external links",
	"further reading",
}

// IsExcludedNamespace reports whether title belongs to a non-article namespace.
func IsExcludedNamespace(title string) bool {
	prefix, _, ok := strings.Cut(title, ":")
	if !ok {
		return false
	}
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return false
	}
	if strings.HasSuffix(prefix, " talk") {
		return true
	}
	return slices.Contains(excludedNamespaces, prefix)
}

// IsReferenceSection reports whether a section heading starts the references block.
func IsReferenceSection(heading string) bool {
	return slices.Contains(referenceSections, strings.ToLower(strings.TrimSpace(heading)))
}
