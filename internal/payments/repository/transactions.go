package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Transaction struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	PlanID            *uuid.UUID
	PropertyID        *uuid.UUID
	SubscriptionID    *uuid.UUID
	TransactionType   string
	AmountCents       int64
	Currency          string
	Description       string
	Phone             string
	AccountReference  string
	MerchantRequestID string
	CheckoutRequestID string
	ReceiptNumber     string
	TransactionDate   *time.Time
	Status            string
	StatusMessage     string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

const transactionColumns = `id, user_id, plan_id, property_id, subscription_id,
		transaction_type, amount_cents, currency, description, phone, account_reference,
		merchant_request_id, checkout_request_id, receipt_number, transaction_date,
		status, status_message, created_at, updated_at`

type CreateTransactionParams struct {
	UserID            uuid.UUID
	PlanID            *uuid.UUID
	PropertyID        *uuid.UUID
	TransactionType   string
	AmountCents       int64
	Description       string
	Phone             string
	AccountReference  string
	CheckoutRequestID string
}

func (r *Repository) CreateTransaction(ctx context.Context, params CreateTransactionParams) (Transaction, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO mpesa_transactions (user_id, plan_id, property_id, transaction_type,
			amount_cents, description, phone, account_reference, checkout_request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+transactionColumns,
		params.UserID, params.PlanID, params.PropertyID, params.TransactionType,
		params.AmountCents, params.Description, params.Phone,
		params.AccountReference, params.CheckoutRequestID,
	)
	return scanTransaction(row)
}

func (r *Repository) GetTransaction(ctx context.Context, id uuid.UUID) (Transaction, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM mpesa_transactions WHERE id = $1`, id)
	txn, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrNotFound
	}
	return txn, err
}

func (r *Repository) GetTransactionByCheckoutID(ctx context.Context, checkoutRequestID string) (Transaction, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM mpesa_transactions WHERE checkout_request_id = $1`,
		checkoutRequestID,
	)
	txn, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrNotFound
	}
	return txn, err
}

func (r *Repository) ListTransactionsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+` FROM mpesa_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, txn)
	}
	return transactions, rows.Err()
}

type ResolveTransactionParams struct {
	Status            string
	StatusMessage     string
	ReceiptNumber     string
	Phone             string
	MerchantRequestID string
	SubscriptionID    *uuid.UUID
	TransactionDate   *time.Time
}

// ResolveTransaction moves a pending transaction to its terminal state. Only
// pending transactions resolve: a replayed callback finds no row and returns
// ErrNotFound, which callers treat as already-processed.
func (r *Repository) ResolveTransaction(ctx context.Context, id uuid.UUID, params ResolveTransactionParams) (Transaction, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE mpesa_transactions SET
			status = $2,
			status_message = $3,
			receipt_number = COALESCE(NULLIF($4, ''), receipt_number),
			phone = COALESCE(NULLIF($5, ''), phone),
			merchant_request_id = COALESCE(NULLIF($6, ''), merchant_request_id),
			subscription_id = COALESCE($7, subscription_id),
			transaction_date = COALESCE($8, transaction_date),
			updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+transactionColumns,
		id, params.Status, params.StatusMessage, params.ReceiptNumber,
		params.Phone, params.MerchantRequestID, params.SubscriptionID, params.TransactionDate,
	)
	txn, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrNotFound
	}
	return txn, err
}

// RecordCallback persists the raw callback payload for audit.
func (r *Repository) RecordCallback(ctx context.Context, payload []byte, processed bool, notes string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO payment_webhooks (payload, processed, processing_notes)
		VALUES ($1, $2, $3)`,
		payload, processed, notes,
	)
	return err
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(
		&t.ID, &t.UserID, &t.PlanID, &t.PropertyID, &t.SubscriptionID,
		&t.TransactionType, &t.AmountCents, &t.Currency, &t.Description,
		&t.Phone, &t.AccountReference, &t.MerchantRequestID, &t.CheckoutRequestID,
		&t.ReceiptNumber, &t.TransactionDate, &t.Status, &t.StatusMessage,
		&t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}
