package core

// DefaultCategoryColor is used for categories that are not in a catalog.
const DefaultCategoryColor = "#6b7280"

// Category is static reference data used for grouping and display.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Kind  Kind   `json:"type"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

var (
	ExpenseCategories = []Category{
		{ID: "1", Name: "Alimentation", Kind: Expense, Color: "#ef4444", Icon: "UtensilsCrossed"},
		{ID: "2", Name: "Transport", Kind: Expense, Color: "#f97316", Icon: "Car"},
		{ID: "3", Name: "Logement", Kind: Expense, Color: "#eab308", Icon: "Home"},
		{ID: "4", Name: "Santé", Kind: Expense, Color: "#84cc16", Icon: "Heart"},
		{ID: "5", Name: "Loisirs", Kind: Expense, Color: "#06b6d4", Icon: "Gamepad2"},
		{ID: "6", Name: "Shopping", Kind: Expense, Color: "#8b5cf6", Icon: "ShoppingBag"},
		{ID: "7", Name: "Éducation", Kind: Expense, Color: "#ec4899", Icon: "GraduationCap"},
		{ID: "8", Name: "Autres", Kind: Expense, Color: "#6b7280", Icon: "MoreHorizontal"},
	}

	IncomeCategories = []Category{
		{ID: "1", Name: "Salaire", Kind: Income, Color: "#10b981", Icon: "Briefcase"},
		{ID: "2", Name: "Freelance", Kind: Income, Color: "#059669", Icon: "Laptop"},
		{ID: "3", Name: "Investissements", Kind: Income, Color: "#047857", Icon: "TrendingUp"},
		{ID: "4", Name: "Autres", Kind: Income, Color: "#065f46", Icon: "Plus"},
	}
)

// Categories returns the catalog for the given kind.
func Categories(kind Kind) []Category {
	if kind == Income {
		return IncomeCategories
	}
	return ExpenseCategories
}

// LookupCategory finds a catalog entry by exact name.
func LookupCategory(kind Kind, name string) (Category, bool) {
	for _, c := range Categories(kind) {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// CategoryColor returns the display color for a category name, falling back
// to DefaultCategoryColor when the name is unknown.
func CategoryColor(kind Kind, name string) string {
	if c, ok := LookupCategory(kind, name); ok {
		return c.Color
	}
	return DefaultCategoryColor
}
