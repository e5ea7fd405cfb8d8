package domain

import "strings"

// ModelTier is the capability class of the generation backend.
type ModelTier string

const (
	TierStandard ModelTier = "standard"
	TierPro      ModelTier = "pro"
)

// TierFromModel derives the tier from the admin-selected model identifier.
// Any identifier mentioning "pro" selects the Pro tier.
func TierFromModel(selectedModel string) ModelTier {
	if strings.Contains(strings.ToLower(selectedModel), "pro") {
		return TierPro
	}
	return TierStandard
}
