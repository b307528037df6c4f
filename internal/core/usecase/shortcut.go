package usecase

import "strings"

// clientListPhrases is the closed class of "enumerate my clients" intents.
// Deterministic enumeration is required for these; semantic search over note
// content cannot guarantee a complete roster.
var clientListPhrases = []string{
	"who are my clients",
	"my clients",
	"list of clients",
	"show me my clients",
	"what clients do i have",
	"clients i work with",
	"my client list",
	"which clients",
	"clients assigned to me",
}

// IsClientListQuery reports whether the message should bypass semantic
// search in favor of direct roster enumeration.
func IsClientListQuery(message string) bool {
	normalized := strings.ToLower(message)
	for _, phrase := range clientListPhrases {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}
	return false
}
