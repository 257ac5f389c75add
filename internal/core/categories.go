package core

// DefaultCategory collects expenses without a category.
const DefaultCategory = "Diğer"

// DefaultCardName labels credit-card spend without a card name.
const DefaultCardName = "Diğer / Genel Kart"

var (
	DefaultExpenseCategories = []string{"Market", "Ulaşım", "Konut", "Fatura", "Eğlence", "Sağlık", "Eğitim", "Giyim", DefaultCategory}
	DefaultIncomeCategories  = []string{"Maaş", "Freelance", "Yatırım", "Ek Gelir", DefaultCategory}

	// NeedsCategories are the necessary expense categories; everything
	// else counts as wants.
	NeedsCategories = []string{"Market", "Ulaşım", "Konut", "Fatura", "Sağlık", "Eğitim"}
)

// SubscriptionCategory is the expense category of subscription payments.
const SubscriptionCategory = "Fatura"

// IsNeed reports whether category is classified as a necessary expense.
func IsNeed(category string) bool {
	for _, c := range NeedsCategories {
		if c == category {
			return true
		}
	}
	return false
}
