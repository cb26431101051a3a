package patcher

import (
	"strings"
)

// Substitution replaces every occurrence of Search with Replace.
type Substitution struct {
	Search  string
	Replace string
}

// PatchSet is an ordered list of literal substitutions applied to the
// markup entry. Later substitutions see the output of earlier ones.
type PatchSet []Substitution

// NewPatchSet builds the fixed substitutions, templating website into the
// bootstrap markup once.
func NewPatchSet(website string) PatchSet {
	return PatchSet{
		{Search: "openProductUpgradePage", Replace: "openWebsite"},
		{Search: "UPGRADE_LABEL", Replace: "'EZBlocker'"},
		{Search: "UPGRADE_TOOLTIP_TEXT", Replace: "'Open EZBlocker Website'"},
		{Search: `<script type="text/javascript" src="/zlink.bundle.js"></script>`, Replace: bootstrapMarkup(website)},
	}
}

// Apply runs every substitution in order and returns the result together
// with the search strings that matched nothing.
func (ps PatchSet) Apply(text string) (string, []string) {
	var unmatched []string
	for _, sub := range ps {
		if !strings.Contains(text, sub.Search) {
			unmatched = append(unmatched, sub.Search)
			continue
		}
		text = strings.ReplaceAll(text, sub.Search, sub.Replace)
	}
	return text, unmatched
}
