package dashboard

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/cwj5/spendlens/internal/statement"
)

// Aggregation limits for the chart views.
const (
	categoryLimit = 12
	merchantLimit = 10
)

// FilterOptions selects which transactions feed the table and chart views.
type FilterOptions struct {
	IncludeTransfers bool
	SearchText       string
}

// CategoryTotal is the summed spend for one base category.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// DayTotal is the summed spend for one calendar day.
type DayTotal struct {
	Day   string          `json:"day"`
	Total decimal.Decimal `json:"total"`
}

// MerchantTotal is the summed spend for one merchant name.
type MerchantTotal struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

// SortKey selects the field used by SortTransactions.
type SortKey string

const (
	SortByDate     SortKey = "date"
	SortByName     SortKey = "name"
	SortByCategory SortKey = "category"
	SortByAmount   SortKey = "amount"
)

// SortDirection selects ascending or descending order.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Filter returns the transactions matching opts, preserving input order.
// Transfers are excluded unless requested; a non-empty search text keeps
// only transactions whose name, category, or any tag contains it
// (case-insensitive).
func Filter(txs []statement.Transaction, opts FilterOptions) []statement.Transaction {
	needle := strings.ToLower(strings.TrimSpace(opts.SearchText))

	out := make([]statement.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !opts.IncludeTransfers && tx.Type == statement.KindPaymentTransfer {
			continue
		}
		if needle != "" && !matchesSearch(tx, needle) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func matchesSearch(tx statement.Transaction, needle string) bool {
	if strings.Contains(strings.ToLower(tx.Name), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(tx.CategoryRaw), needle) {
		return true
	}
	for _, tag := range tx.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// TotalSpend sums the amounts of expense-type transactions. Transfers and
// uncategorized rows are excluded regardless of any display filter; this is
// a policy of the total, not of the filter.
func TotalSpend(txs []statement.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Type == statement.KindExpense {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// GroupByCategory sums expense spend per base category, sorted by total
// descending and truncated to the top entries. Ties keep the
// first-encountered category first.
func GroupByCategory(txs []statement.Transaction) []CategoryTotal {
	totals := make(map[string]decimal.Decimal)
	var order []string
	for _, tx := range txs {
		if tx.Type != statement.KindExpense {
			continue
		}
		if _, ok := totals[tx.CategoryBase]; !ok {
			order = append(order, tx.CategoryBase)
		}
		totals[tx.CategoryBase] = totals[tx.CategoryBase].Add(tx.Amount)
	}

	out := make([]CategoryTotal, 0, len(order))
	for _, category := range order {
		out = append(out, CategoryTotal{Category: category, Total: totals[category]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.GreaterThan(out[j].Total)
	})
	if len(out) > categoryLimit {
		out = out[:categoryLimit]
	}
	return out
}

// DailyTotals sums expense spend per calendar day, sorted by day ascending.
// Day keys are YYYY-MM-DD, so lexicographic order is chronological.
func DailyTotals(txs []statement.Transaction) []DayTotal {
	totals := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx.Type != statement.KindExpense {
			continue
		}
		day := tx.Date.Format("2006-01-02")
		totals[day] = totals[day].Add(tx.Amount)
	}

	days := make([]string, 0, len(totals))
	for day := range totals {
		days = append(days, day)
	}
	sort.Strings(days)

	out := make([]DayTotal, 0, len(days))
	for _, day := range days {
		out = append(out, DayTotal{Day: day, Total: totals[day]})
	}
	return out
}

// TopMerchants sums expense spend per merchant name, sorted by total
// descending and truncated to the top entries.
func TopMerchants(txs []statement.Transaction) []MerchantTotal {
	totals := make(map[string]decimal.Decimal)
	var order []string
	for _, tx := range txs {
		if tx.Type != statement.KindExpense {
			continue
		}
		if _, ok := totals[tx.Name]; !ok {
			order = append(order, tx.Name)
		}
		totals[tx.Name] = totals[tx.Name].Add(tx.Amount)
	}

	out := make([]MerchantTotal, 0, len(order))
	for _, name := range order {
		out = append(out, MerchantTotal{Name: name, Total: totals[name]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.GreaterThan(out[j].Total)
	})
	if len(out) > merchantLimit {
		out = out[:merchantLimit]
	}
	return out
}

// SortTransactions returns a new slice sorted by the chosen key. The sort is
// stable; date and amount compare chronologically/numerically, name and
// category compare with an English collator.
func SortTransactions(txs []statement.Transaction, key SortKey, dir SortDirection) []statement.Transaction {
	out := make([]statement.Transaction, len(txs))
	copy(out, txs)

	coll := collate.New(language.English)
	less := func(a, b statement.Transaction) bool {
		switch key {
		case SortByName:
			return coll.CompareString(a.Name, b.Name) < 0
		case SortByCategory:
			return coll.CompareString(a.CategoryRaw, b.CategoryRaw) < 0
		case SortByAmount:
			return a.Amount.LessThan(b.Amount)
		default:
			return a.Date.Before(b.Date)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if dir == SortDesc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}
