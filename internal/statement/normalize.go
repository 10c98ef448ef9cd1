package statement

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MalformedInputError reports input that could not be read as delimited
// text at all. Row-level defects never produce this error.
type MalformedInputError struct {
	Err error
}

func (e *MalformedInputError) Error() string {
	return "malformed input: " + e.Err.Error()
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// Header aliases for each logical column, checked in priority order.
// Matching is case-sensitive; the first alias present in the header wins.
var (
	dateAliases     = []string{"date", "Date", "Transaction Date"}
	nameAliases     = []string{"name", "Name", "description", "Description", "merchant", "Merchant"}
	amountAliases   = []string{"amount", "Amount"}
	categoryAliases = []string{"category", "Category"}
)

// Normalize parses raw CSV text into a sorted batch of transactions.
// The first row is the header; column order is irrelevant and unrecognized
// columns are ignored. Rows that cannot produce a valid date, name, and
// amount are dropped and reported in Result.Dropped. Only input that cannot
// be read as delimited text at all fails with *MalformedInputError.
func Normalize(raw string) (*Result, error) {
	reader := csv.NewReader(strings.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	result := &Result{BatchID: uuid.NewString()}

	header, err := reader.Read()
	if err == io.EOF {
		// Empty file: an empty batch, not an error.
		return result, nil
	}
	if err != nil {
		return nil, &MalformedInputError{Err: err}
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, ok := columns[name]; !ok {
			columns[name] = i
		}
	}

	dateCol, hasDate := findColumn(columns, dateAliases)
	nameCol, hasName := findColumn(columns, nameAliases)
	amountCol, hasAmount := findColumn(columns, amountAliases)
	categoryCol, hasCategory := findColumn(columns, categoryAliases)

	for row := 0; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.drop(row, "unreadable line: "+err.Error())
			continue
		}

		if !hasDate || !hasName || !hasAmount {
			result.drop(row, "missing required column")
			continue
		}

		name := strings.TrimSpace(cell(record, nameCol))
		if name == "" {
			result.drop(row, "empty name")
			continue
		}

		date, ok := parseDate(cell(record, dateCol))
		if !ok {
			result.drop(row, fmt.Sprintf("invalid date %q", cell(record, dateCol)))
			continue
		}

		amount, ok := parseAmount(cell(record, amountCol))
		if !ok {
			result.drop(row, fmt.Sprintf("invalid amount %q", cell(record, amountCol)))
			continue
		}

		categoryRaw := ""
		if hasCategory {
			categoryRaw = cell(record, categoryCol)
		}
		base, tags := splitCategory(categoryRaw)

		tx := Transaction{
			ID:           fmt.Sprintf("%s|%d|%s", date.Format(time.RFC3339), row, name),
			Date:         date,
			Name:         name,
			Amount:       amount,
			CategoryRaw:  categoryRaw,
			CategoryBase: base,
			Tags:         tags,
			Type:         classify(amount, name, categoryRaw),
		}
		if strings.TrimSpace(tx.CategoryRaw) == "" {
			tx.CategoryRaw = DefaultCategory
		}
		result.Transactions = append(result.Transactions, tx)
	}

	sortNewestFirst(result.Transactions)
	return result, nil
}

func (r *Result) drop(row int, reason string) {
	r.Dropped = append(r.Dropped, DroppedRow{Row: row, Reason: reason})
}

// findColumn returns the index of the first candidate present in the header.
func findColumn(columns map[string]int, candidates []string) (int, bool) {
	for _, name := range candidates {
		if idx, ok := columns[name]; ok {
			return idx, true
		}
	}
	return 0, false
}

// cell tolerates short records produced by FieldsPerRecord = -1.
func cell(record []string, idx int) string {
	if idx < len(record) {
		return record[idx]
	}
	return ""
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"2006-01-02T15:04:05Z07:00",
	"Jan 2, 2006",
	"January 2, 2006",
	"02-Jan-2006",
}

// parseDate accepts the documented date encodings and truncates the result
// to date-only precision in UTC.
func parseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// parseAmount accepts plain decimals, currency-prefixed and
// thousands-separated values, and accounting-negative parenthesized forms:
// "(12.34)" parses to -12.34. Values that do not reduce to a finite number
// report false; an amount is never defaulted to zero.
func parseAmount(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Decimal{}, false
	}
	negated := len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')'

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if negated {
		d = d.Neg()
	}
	return d, true
}

// splitCategory separates a raw category cell into its base name and the
// parenthesized tags that follow it, left to right. Nested parentheses are
// not supported; the scan is a naive non-nested match.
func splitCategory(raw string) (string, []string) {
	base := raw
	if i := strings.IndexByte(raw, '('); i >= 0 {
		base = raw[:i]
	}
	base = strings.TrimSpace(base)
	if base == "" {
		base = DefaultCategory
	}

	var tags []string
	rest := raw
	for {
		open := strings.IndexByte(rest, '(')
		if open < 0 {
			break
		}
		close := strings.IndexByte(rest[open+1:], ')')
		if close < 0 {
			break
		}
		tags = append(tags, strings.TrimSpace(rest[open+1:open+1+close]))
		rest = rest[open+1+close+1:]
	}
	return base, tags
}

// classify applies the classification rules in order; the first match wins.
// The category check uses the original cell value, before the
// "Uncategorized" default is applied.
func classify(amount decimal.Decimal, name, categoryRaw string) Kind {
	if amount.IsNegative() {
		return KindPaymentTransfer
	}
	lower := strings.ToLower(name)
	if strings.Contains(lower, "payment") && strings.Contains(lower, "thank you") {
		return KindPaymentTransfer
	}
	if strings.TrimSpace(categoryRaw) == "" {
		return KindUncategorized
	}
	return KindExpense
}

// sortNewestFirst orders transactions by date descending. Rows sharing a
// date come out in reversed input order: stable ascending sort, then
// reverse.
func sortNewestFirst(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.Before(txs[j].Date)
	})
	for i, j := 0, len(txs)-1; i < j; i, j = i+1, j-1 {
		txs[i], txs[j] = txs[j], txs[i]
	}
}
