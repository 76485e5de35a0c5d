package google

import (
	gmail "google.golang.org/api/gmail/v1"
)

// DefaultOAuthScopes are requested during consent. readonly covers listing,
// reading and downloading; modify covers archiving and labelling.
var DefaultOAuthScopes = []string{
	gmail.GmailReadonlyScope,
	gmail.GmailModifyScope,
}

// HasScopes reports whether granted contains every scope in required.
func HasScopes(granted, required []string) bool {
	set := make(map[string]struct{}, len(granted))
	for _, s := range granted {
		set[s] = struct{}{}
	}
	for _, s := range required {
		if _, ok := set[s]; !ok {
			return false
		}
	}
	return true
}
