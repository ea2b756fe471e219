package domain

import "time"

// Receipt is an extracted purchase record. Items is kept empty on the parent;
// line items live in their own collection.
type Receipt struct {
	RawFileID     *string   `firestore:"raw_file_id" json:"raw_file_id"`
	TransactionID *string   `firestore:"transaction_id" json:"transaction_id"`
	Date          time.Time `firestore:"date" json:"date"`
	Merchant      string    `firestore:"merchant" json:"merchant"`
	TotalAmount   float64   `firestore:"total_amount" json:"total_amount"`
	TaxAmount     float64   `firestore:"tax_amount" json:"tax_amount"`
	Items         []Item    `firestore:"items" json:"items"`
	StoragePath   string    `firestore:"storage_path" json:"storage_path"`
	Metadata      Metadata  `firestore:"metadata" json:"metadata"`
}

// Item is one line of a receipt.
type Item struct {
	ReceiptID   string   `firestore:"receipt_id" json:"receipt_id"`
	Description string   `firestore:"description" json:"description"`
	Quantity    float64  `firestore:"quantity" json:"quantity"`
	UnitPrice   float64  `firestore:"unit_price" json:"unit_price"`
	TotalPrice  float64  `firestore:"total_price" json:"total_price"`
	CategoryID  *string  `firestore:"category_id" json:"category_id"`
	Metadata    Metadata `firestore:"metadata" json:"metadata"`
}
