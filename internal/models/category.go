package models

import "strings"

// Categories is the fixed set of expense categories. Every component
// that deals in categories validates against this list; "miscellaneous"
// is the catch-all.
var Categories = []string{
	"meals",
	"travel_airfare",
	"travel_ground",
	"lodging",
	"office_supplies",
	"software_subscriptions",
	"professional_services",
	"telecommunications",
	"postage_shipping",
	"printing_reproduction",
	"equipment",
	"conferences_training",
	"dues_memberships",
	"marketing_advertising",
	"client_gifts",
	"insurance",
	"bank_fees",
	"taxes_licenses",
	"repairs_maintenance",
	"utilities",
	"rent",
	"charitable_contributions",
	"miscellaneous",
}

var categorySet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(Categories))
	for _, c := range Categories {
		set[c] = struct{}{}
	}
	return set
}()

// IsValidCategory reports whether c is a member of the fixed category set.
func IsValidCategory(c string) bool {
	_, ok := categorySet[c]
	return ok
}

// CategoryLabel renders a category for display, e.g.
// "travel_airfare" -> "Travel Airfare".
func CategoryLabel(c string) string {
	words := strings.Split(c, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
