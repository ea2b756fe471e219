package domain

// AccountType classifies an Account.
type AccountType string

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountCredit     AccountType = "credit"
	AccountInvestment AccountType = "investment"
	AccountLoan       AccountType = "loan"
	AccountOther      AccountType = "other"
)

// Account is owned by user-facing CRUD; ingestion only references it by id.
type Account struct {
	Name        string      `firestore:"name" json:"name"`
	Type        AccountType `firestore:"type" json:"type"`
	Institution string      `firestore:"institution,omitempty" json:"institution,omitempty"`
	Balance     float64     `firestore:"balance" json:"balance"`
	Currency    string      `firestore:"currency" json:"currency"`
	Metadata    Metadata    `firestore:"metadata" json:"metadata"`
}
