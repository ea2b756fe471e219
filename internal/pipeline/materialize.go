package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-ingest/internal/docstore"
	"github.com/dvloznov/finance-ingest/internal/domain"
	"github.com/dvloznov/finance-ingest/internal/extraction"
)

// materializeStatement writes one Statement and one Transaction per
// extracted line. Transactions always commit as a single batch.
func (p *Processor) materializeStatement(ctx context.Context, state *State) error {
	res := state.Result.Statement
	if res == nil {
		return &Error{Kind: KindExtraction, Op: "materialize statement", Err: fmt.Errorf("missing statement result")}
	}

	periodStart, err := extraction.ParseDate(res.PeriodStart)
	if err != nil {
		return &Error{Kind: KindExtraction, Op: "parse period_start", Err: err}
	}
	periodEnd, err := extraction.ParseDate(res.PeriodEnd)
	if err != nil {
		return &Error{Kind: KindExtraction, Op: "parse period_end", Err: err}
	}

	now := p.now()
	accountID := *state.Raw.AccountID
	stmt := domain.Statement{
		AccountID:        accountID,
		RawFileID:        state.FileID,
		PeriodStart:      periodStart,
		PeriodEnd:        periodEnd,
		OpeningBalance:   res.OpeningBalance,
		ClosingBalance:   res.ClosingBalance,
		IsValidated:      false,
		ValidationErrors: []string{},
		Metadata:         domain.NewMetadata(now),
	}

	txns := make([]domain.Transaction, 0, len(res.Transactions))
	for i, t := range res.Transactions {
		date, err := extraction.ParseDate(t.Date)
		if err != nil {
			return &Error{Kind: KindExtraction, Op: fmt.Sprintf("parse transactions[%d].date", i), Err: err}
		}
		txns = append(txns, domain.Transaction{
			AccountID:    accountID,
			Date:         date,
			Amount:       t.Amount,
			Description:  t.Description,
			Merchant:     domain.StringPtr(t.Merchant),
			IsReconciled: false,
			Metadata:     domain.NewMetadata(now),
		})
	}

	batch := p.store.NewBatch(state.UserID)
	var stmtID string
	if p.opts.SingleCommit {
		stmtID = batch.Create(docstore.Statements, stmt)
	} else {
		stmtID, err = p.store.Add(ctx, state.UserID, docstore.Statements, stmt)
		if err != nil {
			return &Error{Kind: KindMaterialization, Op: "insert statement", Err: err}
		}
	}
	state.ParentID = stmtID

	for i := range txns {
		txns[i].StatementID = &stmtID
		batch.Create(docstore.Transactions, txns[i])
	}
	if err := p.commit(ctx, batch, "commit transactions"); err != nil {
		return err
	}
	state.Children = len(txns)
	return nil
}

// materializeReceipt writes one Receipt and one Item per extracted line.
func (p *Processor) materializeReceipt(ctx context.Context, state *State) error {
	res := state.Result.Receipt
	if res == nil {
		return &Error{Kind: KindExtraction, Op: "materialize receipt", Err: fmt.Errorf("missing receipt result")}
	}

	date, err := extraction.ParseDate(res.Date)
	if err != nil {
		return &Error{Kind: KindExtraction, Op: "parse date", Err: err}
	}

	now := p.now()
	fileID := state.FileID
	rcpt := domain.Receipt{
		RawFileID:   &fileID,
		Date:        date,
		Merchant:    res.Merchant,
		TotalAmount: res.TotalAmount,
		TaxAmount:   orDefault(res.TaxAmount, 0),
		Items:       []domain.Item{},
		StoragePath: state.Raw.StoragePath,
		Metadata:    domain.NewMetadata(now),
	}

	batch := p.store.NewBatch(state.UserID)
	var rcptID string
	if p.opts.SingleCommit {
		rcptID = batch.Create(docstore.Receipts, rcpt)
	} else {
		rcptID, err = p.store.Add(ctx, state.UserID, docstore.Receipts, rcpt)
		if err != nil {
			return &Error{Kind: KindMaterialization, Op: "insert receipt", Err: err}
		}
	}
	state.ParentID = rcptID

	for _, it := range res.Items {
		batch.Create(docstore.Items, domain.Item{
			ReceiptID:   rcptID,
			Description: it.Description,
			Quantity:    orDefault(it.Quantity, 1),
			UnitPrice:   orDefault(it.UnitPrice, it.TotalPrice),
			TotalPrice:  it.TotalPrice,
			Metadata:    domain.NewMetadata(now),
		})
	}
	if err := p.commit(ctx, batch, "commit items"); err != nil {
		return err
	}
	state.Children = len(res.Items)
	return nil
}

func (p *Processor) commit(ctx context.Context, batch docstore.Batch, op string) error {
	if batch.Len() == 0 {
		return nil
	}
	if err := batch.Commit(ctx); err != nil {
		return &Error{Kind: KindMaterialization, Op: op, Err: err}
	}
	return nil
}

// orDefault treats a missing or zero value as absent.
func orDefault(v *float64, def float64) float64 {
	if v == nil || *v == 0 {
		return def
	}
	return *v
}
