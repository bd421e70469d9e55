package model

import "strings"

// Label is a technology category assigned to a ticket. The set is
// closed; anything the classifier cannot resolve becomes
// LabelUnclassified.
type Label string

const (
	LabelDatabase       Label = "database"
	LabelNetworking     Label = "networking"
	LabelAuthentication Label = "authentication"
	LabelAPI            Label = "api"
	LabelStorage        Label = "storage"

	// LabelUnclassified is the reserved fallback. It is deliberately
	// not part of the allowed set the classifier may return from the
	// service response.
	LabelUnclassified Label = "unclassified"
)

// AllowedLabels returns the closed set of labels the classification
// service may legitimately answer with, in prompt order.
func AllowedLabels() []Label {
	return []Label{
		LabelDatabase,
		LabelNetworking,
		LabelAuthentication,
		LabelAPI,
		LabelStorage,
	}
}

// ParseLabel maps a normalized token to an allowed label. It returns
// false for anything outside the allowed set, including "unclassified".
func ParseLabel(s string) (Label, bool) {
	l := Label(strings.ToLower(s))
	for _, allowed := range AllowedLabels() {
		if l == allowed {
			return l, true
		}
	}
	return "", false
}
