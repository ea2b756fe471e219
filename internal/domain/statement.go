package domain

import "time"

// Statement is the extracted summary of one account period.
type Statement struct {
	AccountID        string    `firestore:"account_id" json:"account_id"`
	RawFileID        string    `firestore:"raw_file_id" json:"raw_file_id"`
	PeriodStart      time.Time `firestore:"period_start" json:"period_start"`
	PeriodEnd        time.Time `firestore:"period_end" json:"period_end"`
	OpeningBalance   float64   `firestore:"opening_balance" json:"opening_balance"`
	ClosingBalance   float64   `firestore:"closing_balance" json:"closing_balance"`
	IsValidated      bool      `firestore:"is_validated" json:"is_validated"`
	ValidationErrors []string  `firestore:"validation_errors" json:"validation_errors"`
	Metadata         Metadata  `firestore:"metadata" json:"metadata"`
}

// Transaction is a single monetary movement. Amount is signed:
// positive is an inflow, negative an outflow.
type Transaction struct {
	AccountID    string    `firestore:"account_id" json:"account_id"`
	StatementID  *string   `firestore:"statement_id" json:"statement_id"`
	Date         time.Time `firestore:"date" json:"date"`
	Amount       float64   `firestore:"amount" json:"amount"`
	Description  string    `firestore:"description" json:"description"`
	Merchant     *string   `firestore:"merchant" json:"merchant"`
	CategoryID   *string   `firestore:"category_id" json:"category_id"`
	ReceiptID    *string   `firestore:"receipt_id" json:"receipt_id"`
	IsReconciled bool      `firestore:"is_reconciled" json:"is_reconciled"`
	Metadata     Metadata  `firestore:"metadata" json:"metadata"`
}
