package gmail

import (
	"strings"
)

const (
	// DefaultMaxResults is used when the caller gives no max_results.
	DefaultMaxResults = 10

	// MaxListResults caps a single listing.
	MaxListResults = 50
)

// systemLabels maps lowercase system label names to their ids.
var systemLabels = map[string]string{
	"inbox":               "INBOX",
	"sent":                "SENT",
	"draft":               "DRAFT",
	"spam":                "SPAM",
	"trash":               "TRASH",
	"starred":             "STARRED",
	"important":           "IMPORTANT",
	"unread":              "UNREAD",
	"chat":                "CHAT",
	"category_personal":   "CATEGORY_PERSONAL",
	"category_social":     "CATEGORY_SOCIAL",
	"category_promotions": "CATEGORY_PROMOTIONS",
	"category_updates":    "CATEGORY_UPDATES",
	"category_forums":     "CATEGORY_FORUMS",
}

// SystemLabelID returns the id of a system label name, case-insensitively.
func SystemLabelID(name string) (string, bool) {
	id, ok := systemLabels[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}

// ClampMaxResults applies the default and the 1..MaxListResults bounds.
func ClampMaxResults(n int) int {
	switch {
	case n <= 0:
		return DefaultMaxResults
	case n > MaxListResults:
		return MaxListResults
	default:
		return n
	}
}

// ListFilter holds the list_emails filters.
type ListFilter struct {
	MaxResults int
	Label      string
	Category   string
	UnreadOnly bool
	Query      string
}

// Build returns the search query for f. Terms appear in the order label,
// category, unread, raw query, separated by single spaces, each at most once.
// System label names are lowercased; custom names are quoted when needed.
func (f ListFilter) Build() string {
	var terms []string

	if label := strings.TrimSpace(f.Label); label != "" {
		if _, ok := SystemLabelID(label); ok {
			label = strings.ToLower(label)
		}
		terms = append(terms, "label:"+quoteTerm(label))
	}
	if category := strings.TrimSpace(f.Category); category != "" {
		terms = append(terms, "category:"+strings.ToLower(category))
	}
	if f.UnreadOnly {
		terms = append(terms, "is:unread")
	}
	if raw := strings.TrimSpace(f.Query); raw != "" {
		terms = append(terms, raw)
	}

	return strings.Join(terms, " ")
}

// quoteTerm quotes label names that Gmail would otherwise split.
func quoteTerm(v string) string {
	if !strings.ContainsAny(v, " \t\"(){}") {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
}
