package admin

import (
	"context"
	"log"

	"github.com/shopspring/decimal"
)

// Summary is the store-wide dashboard served to admins.
type Summary struct {
	Users                  int64            `json:"users"`
	Products               int64            `json:"products"`
	Categories             int64            `json:"categories"`
	Suppliers              int64            `json:"suppliers"`
	Orders                 int64            `json:"orders"`
	OrdersByStatus         map[string]int64 `json:"orders_by_status"`
	Transactions           int64            `json:"transactions"`
	PaidTransactions       int64            `json:"paid_transactions"`
	TotalTransactionAmount decimal.Decimal  `json:"total_transaction_amount"`
	PaidTransactionAmount  decimal.Decimal  `json:"paid_transaction_amount"`
}

// orderStatuses are always present in OrdersByStatus, with zero when no
// order has that status.
var orderStatuses = []string{"Pending", "Shipped", "Delivered"}

type SummaryUseCase struct {
	repository Repository
}

func NewSummaryUseCase(repository Repository) *SummaryUseCase {
	return &SummaryUseCase{repository: repository}
}

func (uc *SummaryUseCase) Summary(ctx context.Context) (*Summary, error) {
	summary, err := uc.repository.Counts(ctx)
	if err != nil {
		return nil, err
	}

	byStatus, err := uc.repository.OrdersByStatus(ctx)
	if err != nil {
		return nil, err
	}
	summary.OrdersByStatus = make(map[string]int64, len(orderStatuses))
	for _, status := range orderStatuses {
		summary.OrdersByStatus[status] = byStatus[status]
	}

	log.Printf("📊 [ADMIN SUMMARY] Orders: %d | Paid: %s", summary.Orders, summary.PaidTransactionAmount.StringFixed(2))
	return summary, nil
}
