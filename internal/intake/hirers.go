package intake

import "strings"

// Hirer is a high-volume employer tagged on the board for cross-linking to
// its hiring guide.
type Hirer struct {
	Slug     string
	Name     string
	Icon     string
	Patterns []string
}

// DefaultHirers is the built-in frequent hirer table, in match order.
var DefaultHirers = []Hirer{
	{Slug: "walmart", Name: "Walmart / Sam's Club", Icon: "🛒", Patterns: []string{"walmart", "sam's club", "sams club"}},
	{Slug: "amazon", Name: "Amazon", Icon: "📦", Patterns: []string{"amazon", "aws", "whole foods"}},
	{Slug: "target", Name: "Target", Icon: "🎯", Patterns: []string{"target"}},
	{Slug: "fedex", Name: "FedEx", Icon: "📬", Patterns: []string{"fedex", "federal express"}},
	{Slug: "ups", Name: "UPS", Icon: "📦", Patterns: []string{"ups", "united parcel"}},
	{Slug: "foster_farms", Name: "Foster Farms", Icon: "🐔", Patterns: []string{"foster farms"}},
	{Slug: "pridestaff", Name: "PrideStaff", Icon: "🤝", Patterns: []string{"pridestaff"}},
	{Slug: "randstad", Name: "Randstad", Icon: "🤝", Patterns: []string{"randstad"}},
	{Slug: "adecco", Name: "Adecco", Icon: "🤝", Patterns: []string{"adecco"}},
	{Slug: "home_depot", Name: "Home Depot", Icon: "🧰", Patterns: []string{"home depot", "homedepot", "the home depot"}},
	{Slug: "lowes", Name: "Lowe's", Icon: "🔨", Patterns: []string{"lowe's", "lowes", "lowe"}},
	{Slug: "starbucks", Name: "Starbucks", Icon: "☕", Patterns: []string{"starbucks", "starbucks coffee"}},
	{Slug: "mcdonalds", Name: "McDonald's", Icon: "🍟", Patterns: []string{"mcdonald's", "mcdonalds", "mcd"}},
	{Slug: "kroger", Name: "Kroger / Food 4 Less", Icon: "🛒", Patterns: []string{"kroger", "food 4 less", "food4less", "ralphs", "fred meyer"}},
	{Slug: "goodwill", Name: "Goodwill Industries", Icon: "💚", Patterns: []string{"goodwill", "goodwill industries"}},
	{Slug: "taco_bell", Name: "Taco Bell", Icon: "🌮", Patterns: []string{"taco bell", "tacobell"}},
	{Slug: "burger_king", Name: "Burger King", Icon: "🍔", Patterns: []string{"burger king", "burgerking", "bk"}},
}

// HirerTable matches free text against frequent hirer patterns. It is
// immutable after construction.
type HirerTable struct {
	hirers []Hirer
}

// NewHirerTable builds a table from hirers. Patterns are lowercased; the
// input slice is not retained.
func NewHirerTable(hirers []Hirer) *HirerTable {
	t := &HirerTable{hirers: make([]Hirer, 0, len(hirers))}
	for _, h := range hirers {
		patterns := make([]string, 0, len(h.Patterns))
		for _, p := range h.Patterns {
			if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
				patterns = append(patterns, p)
			}
		}
		h.Patterns = patterns
		t.hirers = append(t.hirers, h)
	}
	return t
}

// Match returns the slug of the first hirer with a pattern contained in
// text, case-insensitively, or "" if none matches.
func (t *HirerTable) Match(text string) string {
	if t == nil {
		return ""
	}
	lower := strings.ToLower(text)
	for _, h := range t.hirers {
		for _, p := range h.Patterns {
			if strings.Contains(lower, p) {
				return h.Slug
			}
		}
	}
	return ""
}

// Lookup returns the hirer registered under slug.
func (t *HirerTable) Lookup(slug string) (Hirer, bool) {
	if t == nil {
		return Hirer{}, false
	}
	for _, h := range t.hirers {
		if h.Slug == slug {
			return h, true
		}
	}
	return Hirer{}, false
}

// Label renders the hirer stored under slug as its icon and name, falling
// back to the slug itself when the table does not know it.
func (t *HirerTable) Label(slug string) string {
	h, ok := t.Lookup(slug)
	if !ok || h.Name == "" {
		return slug
	}
	return strings.TrimSpace(h.Icon + " " + h.Name)
}
