package categories

import "github.com/dvloznov/finance-ingest/internal/domain"

// Seed is one entry of the default tree. Parent refers to another entry by name.
type Seed struct {
	Name      string
	Parent    string
	Type      domain.CategoryType
	SortOrder int
}

// Defaults is the category tree every new user starts with.
var Defaults = []Seed{
	{Name: "Debits", Type: domain.CategoryDebit, SortOrder: 0},
	{Name: "Transfer In", Parent: "Debits", Type: domain.CategoryDebit, SortOrder: 0},
	{Name: "Income", Parent: "Debits", Type: domain.CategoryDebit, SortOrder: 1},
	{Name: "Salary", Parent: "Income", Type: domain.CategoryDebit, SortOrder: 0},
	{Name: "Freelance", Parent: "Income", Type: domain.CategoryDebit, SortOrder: 1},
	{Name: "Investment Returns", Parent: "Income", Type: domain.CategoryDebit, SortOrder: 2},
	{Name: "Other Income", Parent: "Income", Type: domain.CategoryDebit, SortOrder: 3},

	{Name: "Credits", Type: domain.CategoryCredit, SortOrder: 1},
	{Name: "Transfer Out", Parent: "Credits", Type: domain.CategoryCredit, SortOrder: 0},
	{Name: "Supplies", Parent: "Credits", Type: domain.CategoryCredit, SortOrder: 1},
	{Name: "Items", Parent: "Credits", Type: domain.CategoryCredit, SortOrder: 2},
	{Name: "Food", Parent: "Credits", Type: domain.CategoryCredit, SortOrder: 3},
	{Name: "Groceries", Parent: "Food", Type: domain.CategoryCredit, SortOrder: 0},
	{Name: "Restaurants", Parent: "Food", Type: domain.CategoryCredit, SortOrder: 1},
	{Name: "Transportation", Parent: "Credits", Type: domain.CategoryCredit, SortOrder: 4},
	{Name: "Gas", Parent: "Transportation", Type: domain.CategoryCredit, SortOrder: 0},
	{Name: "Public Transit", Parent: "Transportation", Type: domain.CategoryCredit, SortOrder: 1},
	{Name: "Rideshare", Parent: "Transportation", Type: domain.CategoryCredit, SortOrder: 2},
	{Name: "Utilities", Parent: "Credits", Type: domain.CategoryCredit, SortOrder: 5},
	{Name: "Electric", Parent: "Utilities", Type: domain.CategoryCredit, SortOrder: 0},
	{Name: "Water", Parent: "Utilities", Type: domain.CategoryCredit, SortOrder: 1},
	{Name: "Internet", Parent: "Utilities", Type: domain.CategoryCredit, SortOrder: 2},
	{Name: "Phone", Parent: "Utilities", Type: domain.CategoryCredit, SortOrder: 3},
	{Name: "Housing", Parent: "Credits", Type: domain.CategoryCredit, SortOrder: 6},
	{Name: "Rent", Parent: "Housing", Type: domain.CategoryCredit, SortOrder: 0},
	{Name: "Mortgage", Parent: "Housing", Type: domain.CategoryCredit, SortOrder: 1},
	{Name: "Maintenance", Parent: "Housing", Type: domain.CategoryCredit, SortOrder: 2},
	{Name: "Subscriptions", Parent: "Credits", Type: domain.CategoryCredit, SortOrder: 7},
	{Name: "Streaming Services", Parent: "Subscriptions", Type: domain.CategoryCredit, SortOrder: 0},
	{Name: "Software", Parent: "Subscriptions", Type: domain.CategoryCredit, SortOrder: 1},
	{Name: "Loan Repayments", Parent: "Credits", Type: domain.CategoryCredit, SortOrder: 8},
	{Name: "Student Loans", Parent: "Loan Repayments", Type: domain.CategoryCredit, SortOrder: 0},
	{Name: "Personal Loans", Parent: "Loan Repayments", Type: domain.CategoryCredit, SortOrder: 1},
	{Name: "Tuition", Parent: "Credits", Type: domain.CategoryCredit, SortOrder: 9},
	{Name: "Miscellaneous", Parent: "Credits", Type: domain.CategoryCredit, SortOrder: 10},
}
