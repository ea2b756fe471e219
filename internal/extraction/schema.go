package extraction

// StatementResult is the statement extraction contract. Dates are ISO-8601
// strings that have already been checked to parse with ParseDate.
type StatementResult struct {
	AccountName    string                 `json:"account_name,omitempty"`
	PeriodStart    string                 `json:"period_start"`
	PeriodEnd      string                 `json:"period_end"`
	OpeningBalance float64                `json:"opening_balance"`
	ClosingBalance float64                `json:"closing_balance"`
	Transactions   []StatementTransaction `json:"transactions"`
}

// StatementTransaction is one extracted statement line. Amount keeps the sign
// the model reported: positive for money in, negative for money out.
type StatementTransaction struct {
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Merchant    string  `json:"merchant,omitempty"`
}

// ReceiptResult is the receipt extraction contract.
type ReceiptResult struct {
	Date        string        `json:"date"`
	Merchant    string        `json:"merchant"`
	TotalAmount float64       `json:"total_amount"`
	TaxAmount   *float64      `json:"tax_amount,omitempty"`
	Items       []ReceiptItem `json:"items"`
}

// ReceiptItem is one extracted receipt line.
type ReceiptItem struct {
	Description string   `json:"description"`
	Quantity    *float64 `json:"quantity,omitempty"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
	TotalPrice  float64  `json:"total_price"`
}

// Wire shapes: every field is a pointer so absent required fields can be
// told apart from zero values during validation.

type wireStatement struct {
	AccountName    *string        `json:"account_name"`
	PeriodStart    *string        `json:"period_start" validate:"required,isodate"`
	PeriodEnd      *string        `json:"period_end" validate:"required,isodate"`
	OpeningBalance *float64       `json:"opening_balance" validate:"required"`
	ClosingBalance *float64       `json:"closing_balance" validate:"required"`
	Transactions   []wireStmtLine `json:"transactions" validate:"required,dive"`
}

type wireStmtLine struct {
	Date        *string  `json:"date" validate:"required,isodate"`
	Amount      *float64 `json:"amount" validate:"required"`
	Description *string  `json:"description" validate:"required"`
	Merchant    *string  `json:"merchant"`
}

type wireReceipt struct {
	Date        *string       `json:"date" validate:"required,isodate"`
	Merchant    *string       `json:"merchant" validate:"required"`
	TotalAmount *float64      `json:"total_amount" validate:"required"`
	TaxAmount   *float64      `json:"tax_amount"`
	Items       []wireRcptRow `json:"items" validate:"required,dive"`
}

type wireRcptRow struct {
	Description *string  `json:"description" validate:"required"`
	Quantity    *float64 `json:"quantity"`
	UnitPrice   *float64 `json:"unit_price"`
	TotalPrice  *float64 `json:"total_price" validate:"required"`
}

func (w *wireStatement) result() *StatementResult {
	out := &StatementResult{
		AccountName:    deref(w.AccountName),
		PeriodStart:    *w.PeriodStart,
		PeriodEnd:      *w.PeriodEnd,
		OpeningBalance: *w.OpeningBalance,
		ClosingBalance: *w.ClosingBalance,
		Transactions:   make([]StatementTransaction, 0, len(w.Transactions)),
	}
	for _, t := range w.Transactions {
		out.Transactions = append(out.Transactions, StatementTransaction{
			Date:        *t.Date,
			Amount:      *t.Amount,
			Description: *t.Description,
			Merchant:    deref(t.Merchant),
		})
	}
	return out
}

func (w *wireReceipt) result() *ReceiptResult {
	out := &ReceiptResult{
		Date:        *w.Date,
		Merchant:    *w.Merchant,
		TotalAmount: *w.TotalAmount,
		TaxAmount:   w.TaxAmount,
		Items:       make([]ReceiptItem, 0, len(w.Items)),
	}
	for _, it := range w.Items {
		out.Items = append(out.Items, ReceiptItem{
			Description: *it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  *it.TotalPrice,
		})
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
