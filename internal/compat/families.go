package compat

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FamilyRule maps any platform whose compact name contains one of Aliases to
// Family. Aliases are written in compact form: lowercase letters and digits.
type FamilyRule struct {
	Family  string
	Aliases []string
}

// FamilyTable is an ordered rule list; the first matching rule wins, so more
// specific aliases must precede the ones they contain.
type FamilyTable []FamilyRule

// DefaultFamilies returns the built-in platform family rules.
func DefaultFamilies() FamilyTable {
	return FamilyTable{
		{Family: "xbox-series", Aliases: []string{"xboxseries"}},
		{Family: "xbox-one", Aliases: []string{"xboxone"}},
		{Family: "xbox-360", Aliases: []string{"xbox360"}},
		{Family: "xbox", Aliases: []string{"xbox"}},
		{Family: "ps5", Aliases: []string{"playstation5", "ps5"}},
		{Family: "ps4", Aliases: []string{"playstation4", "ps4"}},
		{Family: "ps3", Aliases: []string{"playstation3", "ps3"}},
		{Family: "ps-vita", Aliases: []string{"vita"}},
		{Family: "ps2", Aliases: []string{"playstation2", "ps2"}},
		{Family: "psp", Aliases: []string{"playstationportable", "psp"}},
		{Family: "ps1", Aliases: []string{"playstation", "ps1", "psone", "psx"}},
		{Family: "pc-engine", Aliases: []string{"pcengine", "turbografx"}},
		{Family: "switch-2", Aliases: []string{"switch2"}},
		{Family: "switch", Aliases: []string{"switch"}},
		{Family: "3ds", Aliases: []string{"3ds"}},
		{Family: "wii-u", Aliases: []string{"wiiu"}},
		{Family: "wii", Aliases: []string{"wii"}},
		{Family: "ds", Aliases: []string{"nintendods", "nds"}},
		{Family: "ios", Aliases: []string{"ios", "iphone", "ipad"}},
		{Family: "android", Aliases: []string{"android"}},
		{Family: "pc", Aliases: []string{"windows", "steam", "pc"}},
		{Family: "mac", Aliases: []string{"macos", "mac", "osx"}},
		{Family: "linux", Aliases: []string{"linux"}},
	}
}

var caseFolder = cases.Fold()

// Compact folds case and drops everything but letters and digits.
func Compact(platform string) string {
	folded := caseFolder.String(platform)
	var b strings.Builder
	b.Grow(len(folded))
	for i := 0; i < len(folded); i++ {
		c := folded[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Family returns the family for a platform name. Unknown platforms form their
// own family keyed by the compact name; blank names return "".
func (t FamilyTable) Family(platform string) string {
	compact := Compact(platform)
	if compact == "" {
		return ""
	}
	for _, rule := range t {
		for _, alias := range rule.Aliases {
			if strings.Contains(compact, alias) {
				return rule.Family
			}
		}
	}
	return compact
}

// Families maps each platform to its family and returns the distinct set.
func (t FamilyTable) Families(platforms []string) map[string]struct{} {
	out := make(map[string]struct{}, len(platforms))
	for _, platform := range platforms {
		if family := t.Family(platform); family != "" {
			out[family] = struct{}{}
		}
	}
	return out
}

// With returns a copy of the table with rules placed ahead of the existing ones.
func (t FamilyTable) With(rules ...FamilyRule) FamilyTable {
	out := make(FamilyTable, 0, len(rules)+len(t))
	out = append(out, rules...)
	return append(out, t...)
}

var titleCaser = cases.Title(language.English)

// Label renders a family key for display, e.g. "xbox-series" as "Xbox Series".
func Label(family string) string {
	return titleCaser.String(strings.ReplaceAll(family, "-", " "))
}
