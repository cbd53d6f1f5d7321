package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"paygate/internal/status"
	"paygate/models"
)

const (
	collectionInvoices = "invoices"
	collectionPayments = "payments"
)

// PocketBaseStore keeps invoices and payments in pocketbase collections
// (see migrations/). Amounts are stored as decimal strings so the
// integer satoshi value survives storage bit-for-bit.
type PocketBaseStore struct {
	app core.App
}

func NewPocketBaseStore(app core.App) *PocketBaseStore {
	return &PocketBaseStore{app: app}
}

func (s *PocketBaseStore) Create(_ context.Context, inv *models.Invoice) (*models.Invoice, error) {
	col, err := s.app.FindCollectionByNameOrId(collectionInvoices)
	if err != nil {
		return nil, fmt.Errorf("find invoices collection: %w", err)
	}

	origin, err := json.Marshal(inv.Origin)
	if err != nil {
		return nil, fmt.Errorf("marshal origin event: %w", err)
	}

	record := core.NewRecord(col)
	record.Set("network", string(inv.Network))
	record.Set("address", inv.Address)
	record.Set("amount", strconv.FormatInt(inv.Amount, 10))
	record.Set("memo", inv.Memo)
	record.Set("origin", string(origin))
	record.Set("paid", false)
	record.Set("version", models.InvoiceSchemaVersion)

	if err := s.app.Save(record); err != nil {
		return nil, fmt.Errorf("save invoice: %w", err)
	}
	return invoiceFromRecord(record)
}

func (s *PocketBaseStore) GetUnpaid(ctx context.Context, id string) (*models.Invoice, error) {
	inv, err := s.GetAny(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Paid {
		return nil, status.ErrAlreadyPaid
	}
	return inv, nil
}

func (s *PocketBaseStore) GetAny(_ context.Context, id string) (*models.Invoice, error) {
	record, err := s.app.FindRecordById(collectionInvoices, id)
	if err != nil {
		return nil, status.ErrInvoiceNotFound
	}
	return invoiceFromRecord(record)
}

func (s *PocketBaseStore) SavePayment(_ context.Context, invoiceID, txID string, vout uint32) (*models.Payment, error) {
	var payment *models.Payment

	err := s.app.RunInTransaction(func(txApp core.App) error {
		record, err := txApp.FindRecordById(collectionInvoices, invoiceID)
		if err != nil {
			return status.ErrInvoiceNotFound
		}
		// Re-checked inside the transaction: the first writer flips
		// paid, every later writer lands here and backs off.
		if record.GetBool("paid") {
			return status.ErrAlreadyPaid
		}

		paidAt := time.Now().UTC()
		record.Set("paid", true)
		record.Set("paid_at", paidAt)
		if err := txApp.Save(record); err != nil {
			return fmt.Errorf("mark invoice paid: %w", err)
		}

		col, err := txApp.FindCollectionByNameOrId(collectionPayments)
		if err != nil {
			return fmt.Errorf("find payments collection: %w", err)
		}
		payRecord := core.NewRecord(col)
		payRecord.Set("invoice", invoiceID)
		payRecord.Set("tx_id", txID)
		payRecord.Set("vout", int(vout))
		payRecord.Set("paid_at", paidAt)
		if err := txApp.Save(payRecord); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}

		payment = &models.Payment{
			InvoiceID: invoiceID,
			TxID:      txID,
			Vout:      vout,
			PaidAt:    paidAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// GetPayment returns the payment attached to an invoice, if any.
func (s *PocketBaseStore) GetPayment(_ context.Context, invoiceID string) (*models.Payment, error) {
	records := []*core.Record{}
	err := s.app.RecordQuery(collectionPayments).
		AndWhere(dbx.HashExp{"invoice": invoiceID}).
		Limit(1).
		All(&records)
	if err != nil || len(records) == 0 {
		return nil, status.ErrInvoiceNotFound
	}

	record := records[0]
	return &models.Payment{
		InvoiceID: invoiceID,
		TxID:      record.GetString("tx_id"),
		Vout:      uint32(record.GetInt("vout")),
		PaidAt:    record.GetDateTime("paid_at").Time(),
	}, nil
}

func invoiceFromRecord(record *core.Record) (*models.Invoice, error) {
	amount, err := strconv.ParseInt(record.GetString("amount"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invoice %s has bad amount %q: %w", record.Id, record.GetString("amount"), err)
	}

	var origin models.OriginEvent
	if raw := record.GetString("origin"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &origin); err != nil {
			return nil, fmt.Errorf("invoice %s has bad origin event: %w", record.Id, err)
		}
	}

	inv := &models.Invoice{
		ID:        record.Id,
		Network:   models.Network(record.GetString("network")),
		Address:   record.GetString("address"),
		Amount:    amount,
		Memo:      record.GetString("memo"),
		Origin:    origin,
		Paid:      record.GetBool("paid"),
		CreatedAt: record.GetDateTime("created").Time(),
		Version:   record.GetInt("version"),
	}
	if inv.Paid {
		paidAt := record.GetDateTime("paid_at").Time()
		inv.PaidAt = &paidAt
	}
	return inv, nil
}
