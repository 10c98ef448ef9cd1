package statement

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the coarse classification of a transaction.
type Kind string

const (
	KindExpense         Kind = "expense"
	KindPaymentTransfer Kind = "payment_transfer"
	KindUncategorized   Kind = "uncategorized"
)

// DefaultCategory is assigned when a row has no usable category cell.
const DefaultCategory = "Uncategorized"

// Transaction is one normalized statement line item. Positive amounts are
// money out (expenses), negative amounts are inflows/payments.
type Transaction struct {
	ID           string          `json:"id"`
	Date         time.Time       `json:"date"`
	Name         string          `json:"name"`
	Amount       decimal.Decimal `json:"amount"`
	CategoryRaw  string          `json:"category"`
	CategoryBase string          `json:"categoryBase"`
	Tags         []string        `json:"tags"`
	Type         Kind            `json:"type"`
}

// DroppedRow records why a data row was excluded during normalization.
// Row is the zero-based index of the row in the input file, header excluded.
type DroppedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Result holds everything produced by one Normalize call.
type Result struct {
	BatchID      string        `json:"batchId"`
	Transactions []Transaction `json:"transactions"`
	Dropped      []DroppedRow  `json:"dropped"`
}
