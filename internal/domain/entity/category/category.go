package category

// Category is the closed set of directory categories.
type Category string

// Category constants. The catalog order is the display order.
const (
	Bank          Category = "bank"
	Legal         Category = "legal"
	Insurance     Category = "insurance"
	Accounting    Category = "accounting"
	Laboratory    Category = "laboratory"
	Supplier      Category = "supplier"
	Logistics     Category = "logistics"
	Marketing     Category = "marketing"
	Consulting    Category = "consulting"
	Retail        Category = "retail"
	Uncategorized Category = "uncategorized"
)

var catalog = []Category{
	Bank, Legal, Insurance, Accounting, Laboratory,
	Supplier, Logistics, Marketing, Consulting, Retail,
}

// labels must have an entry for every catalog value plus Uncategorized.
var labels = map[Category]string{
	Bank:          "Banque",
	Legal:         "Juridique",
	Insurance:     "Assurance",
	Accounting:    "Comptabilité",
	Laboratory:    "Laboratoire",
	Supplier:      "Fournisseur",
	Logistics:     "Logistique",
	Marketing:     "Marketing",
	Consulting:    "Conseil",
	Retail:        "Boutique",
	Uncategorized: "Non classé",
}

// All returns the selectable categories in display order.
// Uncategorized is not selectable and is not listed.
func All() []Category {
	out := make([]Category, len(catalog))
	copy(out, catalog)
	return out
}

// Parse returns the category for s and whether s is a catalog value.
// Matching is exact and case-sensitive.
func Parse(s string) (Category, bool) {
	c := Category(s)
	for _, known := range catalog {
		if c == known {
			return c, true
		}
	}
	if c == Uncategorized {
		return c, true
	}
	return Uncategorized, false
}

// Normalize maps unknown values to Uncategorized.
func Normalize(s string) Category {
	c, _ := Parse(s)
	return c
}

// IsValid reports whether c is a known value (catalog or Uncategorized).
func (c Category) IsValid() bool {
	_, ok := labels[c]
	return ok
}

// Label returns the display label.
func (c Category) Label() string {
	if l, ok := labels[c]; ok {
		return l
	}
	return labels[Uncategorized]
}

func (c Category) String() string { return string(c) }
