package orders

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/toxidity-18/GLAM-BACKEND/internal/apperr"
	"github.com/toxidity-18/GLAM-BACKEND/internal/auth"
	"github.com/toxidity-18/GLAM-BACKEND/internal/database"
)

// TransactionUseCase records payments and lets a confirmed payment ship its
// order. The transaction write, the order lock and the status change share
// one database transaction.
type TransactionUseCase struct {
	repository        LedgerRepository
	paymentsRecorded  metric.Int64Counter
	paymentsConfirmed metric.Int64Counter
	orderTransitions  metric.Int64Counter
}

func NewTransactionUseCase(repository LedgerRepository, meter metric.Meter) (*TransactionUseCase, error) {
	paymentsRecorded, err := meter.Int64Counter("payments.recorded",
		metric.WithDescription("Transactions recorded, by payment status"))
	if err != nil {
		return nil, fmt.Errorf("failed to create payments.recorded counter: %w", err)
	}
	paymentsConfirmed, err := meter.Int64Counter("payments.confirmed",
		metric.WithDescription("Transactions moved to Paid"))
	if err != nil {
		return nil, fmt.Errorf("failed to create payments.confirmed counter: %w", err)
	}
	orderTransitions, err := newTransitionCounter(meter)
	if err != nil {
		return nil, err
	}

	return &TransactionUseCase{
		repository:        repository,
		paymentsRecorded:  paymentsRecorded,
		paymentsConfirmed: paymentsConfirmed,
		orderTransitions:  orderTransitions,
	}, nil
}

// RecordTransaction stores a payment for an order. The amount must equal
// the order total. A Paid transaction ships a Pending order.
func (uc *TransactionUseCase) RecordTransaction(ctx context.Context, actor auth.Principal, req CreateTransactionRequest) (*Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	status := req.PaymentStatus
	if status == "" {
		status = PaymentPending
	}

	log.Printf("➡️ [RECORD PAYMENT] OrderID: %s | Amount: %s | Status: %s", req.OrderID, req.Amount.StringFixed(2), status)

	// 1. Begin the transaction
	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer tx.Rollback()

	// 2. Lock the order (SELECT FOR UPDATE) until commit or rollback
	order, err := uc.repository.GetOrderForUpdate(ctx, tx, req.OrderID)
	if err != nil {
		log.Printf("❌ RECORD PAYMENT FAILED: GetOrderForUpdate | OrderID=%s | Error=%v", req.OrderID, err)
		return nil, err
	}
	if !actor.CanAccess(order.UserID) {
		return nil, apperr.ErrForbidden
	}

	// 3. Business rule: the payment covers exactly the order total
	if !req.Amount.Equal(order.TotalAmount) {
		return nil, ErrAmountMismatch.WithMessage("amount %s does not match the order total %s",
			req.Amount.StringFixed(2), order.TotalAmount.StringFixed(2))
	}

	// 4. Write the transaction and apply the payment
	txn := NewTransaction(order, req, status)
	if err := uc.repository.CreateTransaction(ctx, tx, txn); err != nil {
		return nil, err
	}

	var from OrderStatus
	shipped := false
	if status == PaymentPaid {
		from = order.Status
		if shipped, err = uc.applyPayment(ctx, tx, order, txn.ID); err != nil {
			return nil, err
		}
	}

	// 5. Commit
	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to commit transaction: %w", err))
	}

	uc.paymentsRecorded.Add(ctx, 1, metric.WithAttributes(attribute.String("payment_status", string(status))))
	if status == PaymentPaid {
		uc.paymentsConfirmed.Add(ctx, 1)
	}
	uc.logShipped(ctx, shipped, order, from)
	log.Printf("✅ [RECORD PAYMENT] TransactionID: %s | OrderID: %s", txn.ID, order.ID)
	return txn, nil
}

// UpdatePaymentStatus changes a transaction's payment status and contact
// fields. Pending to Paid ships the order; repeating Paid is a no-op that
// still leaves the order at least Shipped; Paid is never undone.
func (uc *TransactionUseCase) UpdatePaymentStatus(ctx context.Context, actor auth.Principal, id string, req UpdateTransactionRequest) (*Transaction, error) {
	if !req.PaymentStatus.Valid() {
		return nil, ErrInvalidPaymentStatus
	}

	current, err := uc.repository.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer tx.Rollback()

	// Lock the order first, then the transaction, as RecordTransaction does.
	order, err := uc.repository.GetOrderForUpdate(ctx, tx, current.OrderID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(order.UserID) {
		return nil, apperr.ErrForbidden
	}
	txn, err := uc.repository.GetTransactionForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	changed, err := txn.PaymentStatus.CheckTransition(req.PaymentStatus)
	if err != nil {
		return nil, err
	}
	contactChanged, err := applyContact(txn, req)
	if err != nil {
		return nil, err
	}

	if changed || contactChanged {
		txn.PaymentStatus = req.PaymentStatus
		txn.UpdatedAt = time.Now().UTC()
		if err := uc.repository.UpdateTransaction(ctx, tx, txn); err != nil {
			return nil, err
		}
	}

	from := order.Status
	shipped := false
	if txn.PaymentStatus == PaymentPaid {
		if shipped, err = uc.applyPayment(ctx, tx, order, txn.ID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to commit transaction update: %w", err))
	}

	if changed && txn.PaymentStatus == PaymentPaid {
		uc.paymentsConfirmed.Add(ctx, 1)
	}
	uc.logShipped(ctx, shipped, order, from)
	log.Printf("✅ [UPDATE PAYMENT] TransactionID: %s | Status: %s", txn.ID, txn.PaymentStatus)
	return txn, nil
}

func (uc *TransactionUseCase) GetTransaction(ctx context.Context, actor auth.Principal, id string) (*Transaction, error) {
	txn, err := uc.repository.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(txn.UserID) {
		return nil, apperr.ErrForbidden
	}
	return txn, nil
}

// ListTransactions lists transactions. Non-admins only see those on their
// own orders.
func (uc *TransactionUseCase) ListTransactions(ctx context.Context, actor auth.Principal, filter TransactionFilter) ([]Transaction, error) {
	if !actor.IsAdmin {
		if filter.UserID != "" && filter.UserID != actor.UserID {
			return nil, apperr.ErrForbidden
		}
		filter.UserID = actor.UserID
	}
	return uc.repository.ListTransactions(ctx, filter)
}

// DeleteTransaction removes a Pending transaction. Paid ones are kept.
func (uc *TransactionUseCase) DeleteTransaction(ctx context.Context, actor auth.Principal, id string) error {
	if !actor.IsAdmin {
		return apperr.ErrForbidden.WithMessage("admin role required")
	}

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	defer tx.Rollback()

	txn, err := uc.repository.GetTransactionForUpdate(ctx, tx, id)
	if err != nil {
		return err
	}
	if txn.PaymentStatus == PaymentPaid {
		return ErrPaidTransactionDelete
	}
	if err := uc.repository.DeleteTransaction(ctx, tx, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperr.Internal(fmt.Errorf("failed to commit transaction delete: %w", err))
	}

	log.Printf("🗑️ [DELETE TRANSACTION] TransactionID: %s", id)
	return nil
}

// applyPayment ships a Pending order. It reports whether the order changed.
func (uc *TransactionUseCase) applyPayment(ctx context.Context, tx database.Tx, order *Order, transactionID string) (bool, error) {
	from := order.Status
	if !order.MarkPaid() {
		log.Printf("ℹ️ [IDEMPOTENCY] Order already %s, payment leaves it unchanged | OrderID=%s", order.Status, order.ID)
		return false, nil
	}
	if err := recordTransition(ctx, uc.repository, tx, order, from, CausePayment, transactionID); err != nil {
		return false, err
	}
	return true, nil
}

func (uc *TransactionUseCase) logShipped(ctx context.Context, shipped bool, order *Order, from OrderStatus) {
	if !shipped {
		return
	}
	uc.orderTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", string(order.Status)),
		attribute.String("cause", CausePayment),
	))
	log.Printf("🚚 [ORDER STATUS] OrderID: %s | %s -> %s", order.ID, from, order.Status)
}

func applyContact(txn *Transaction, req UpdateTransactionRequest) (bool, error) {
	changed := false
	for _, f := range []struct {
		name  string
		value *string
		dst   *string
	}{
		{"name", req.Name, &txn.Name},
		{"email", req.Email, &txn.Email},
		{"phone", req.Phone, &txn.Phone},
		{"address", req.Address, &txn.Address},
		{"city", req.City, &txn.City},
		{"zipCode", req.ZipCode, &txn.ZipCode},
	} {
		if f.value == nil {
			continue
		}
		v := strings.TrimSpace(*f.value)
		if v == "" {
			return false, apperr.MissingFields(f.name)
		}
		if v != *f.dst {
			*f.dst = v
			changed = true
		}
	}
	return changed, nil
}
