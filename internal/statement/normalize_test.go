package statement

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"$1,234.56", "1234.56", true},
		{"(12.34)", "-12.34", true},
		{"-12.34", "-12.34", true},
		{"12.34", "12.34", true},
		{"$4.50", "4.5", true},
		{"($1,000.00)", "-1000", true},
		{"  42  ", "42", true},
		{"", "", false},
		{"   ", "", false},
		{"abc", "", false},
		{"$", "", false},
		{"12.34.56", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseAmount(tt.input)
			if ok != tt.ok {
				t.Fatalf("parseAmount(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if !ok {
				return
			}
			want := decimal.RequireFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("parseAmount(%q) = %s, want %s", tt.input, got, want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		input string
		want  time.Time
		ok    bool
	}{
		{"01/02/2024", day(2024, time.January, 2), true},
		{"1/2/2024", day(2024, time.January, 2), true},
		{"2024-01-02", day(2024, time.January, 2), true},
		{"2024/01/02", day(2024, time.January, 2), true},
		{"Jan 2, 2024", day(2024, time.January, 2), true},
		{"", time.Time{}, false},
		{"not a date", time.Time{}, false},
		{"13/45/2024", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseDate(tt.input)
			if ok != tt.ok {
				t.Fatalf("parseDate(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("parseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitCategory(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantBase string
		wantTags []string
	}{
		{"plain", "Food", "Food", nil},
		{"one tag", "Food (Groceries)", "Food", []string{"Groceries"}},
		{"two tags", "Food (Groceries) (Recurring)", "Food", []string{"Groceries", "Recurring"}},
		{"empty", "", DefaultCategory, nil},
		{"whitespace", "   ", DefaultCategory, nil},
		{"tag only", "(Groceries)", DefaultCategory, []string{"Groceries"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, tags := splitCategory(tt.input)
			if base != tt.wantBase {
				t.Errorf("base = %q, want %q", base, tt.wantBase)
			}
			if !reflect.DeepEqual(tags, tt.wantTags) {
				t.Errorf("tags = %v, want %v", tags, tt.wantTags)
			}
		})
	}
}

// Nested parentheses are not supported; this pins the naive-scan behavior
// so a change to it shows up as a test failure rather than a silent drift.
func TestSplitCategoryNestedParens(t *testing.T) {
	base, tags := splitCategory("Food (A (B))")
	if base != "Food" {
		t.Errorf("base = %q, want %q", base, "Food")
	}
	if !reflect.DeepEqual(tags, []string{"A (B"}) {
		t.Errorf("tags = %v, want %v", tags, []string{"A (B"})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		amount      string
		txName      string
		categoryRaw string
		want        Kind
	}{
		{"negative amount", "-5.00", "Grocery Store", "Food", KindPaymentTransfer},
		{"payment thank you", "20.00", "Payment Thank You - Visa", "Food", KindPaymentTransfer},
		{"payment thank you mixed case", "20.00", "PAYMENT THANK YOU", "", KindPaymentTransfer},
		{"blank category", "20.00", "Mystery Charge", "", KindUncategorized},
		{"whitespace category", "20.00", "Mystery Charge", "   ", KindUncategorized},
		{"expense", "20.00", "Grocery Store", "Food", KindExpense},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			got := classify(amount, tt.txName, tt.categoryRaw)
			if got != tt.want {
				t.Errorf("classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeEndToEnd(t *testing.T) {
	raw := "date,name,amount,category\n" +
		"01/02/2024,Coffee Shop,$4.50,Food (Coffee)\n" +
		"01/01/2024,Payment Thank You - Visa,-100.00,\n"

	result, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if result.BatchID == "" {
		t.Error("expected a batch ID")
	}
	if len(result.Dropped) != 0 {
		t.Fatalf("expected no dropped rows, got %v", result.Dropped)
	}
	if len(result.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(result.Transactions))
	}

	first := result.Transactions[0]
	if first.Name != "Coffee Shop" {
		t.Errorf("first transaction = %q, want Coffee Shop (newest first)", first.Name)
	}
	if !first.Amount.Equal(decimal.RequireFromString("4.5")) {
		t.Errorf("amount = %s, want 4.5", first.Amount)
	}
	if first.CategoryRaw != "Food (Coffee)" || first.CategoryBase != "Food" {
		t.Errorf("category = %q / %q, want Food (Coffee) / Food", first.CategoryRaw, first.CategoryBase)
	}
	if !reflect.DeepEqual(first.Tags, []string{"Coffee"}) {
		t.Errorf("tags = %v, want [Coffee]", first.Tags)
	}
	if first.Type != KindExpense {
		t.Errorf("type = %v, want expense", first.Type)
	}

	second := result.Transactions[1]
	if second.Type != KindPaymentTransfer {
		t.Errorf("payment row type = %v, want payment_transfer", second.Type)
	}
	if second.CategoryRaw != DefaultCategory {
		t.Errorf("blank category normalized to %q, want %q", second.CategoryRaw, DefaultCategory)
	}
}

func TestNormalizeHeaderAliases(t *testing.T) {
	raw := "Transaction Date,Description,Amount,Category\n" +
		"2024-03-05,Hardware Store,19.99,Home\n"

	result, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(result.Transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d (dropped: %v)", len(result.Transactions), result.Dropped)
	}
	tx := result.Transactions[0]
	if tx.Name != "Hardware Store" || tx.CategoryRaw != "Home" {
		t.Errorf("aliased columns not picked up: %+v", tx)
	}
}

func TestNormalizeDropsBadRows(t *testing.T) {
	raw := "date,name,amount,category\n" +
		"01/02/2024,Coffee Shop,,Food\n" + // missing amount
		"not-a-date,Bookstore,5.00,Shopping\n" + // bad date
		"01/03/2024,   ,5.00,Shopping\n" + // empty name
		"01/04/2024,Bakery,3.25,Food\n" // survives

	result, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(result.Transactions) != 1 {
		t.Fatalf("expected 1 surviving transaction, got %d", len(result.Transactions))
	}
	if result.Transactions[0].Name != "Bakery" {
		t.Errorf("surviving transaction = %q, want Bakery", result.Transactions[0].Name)
	}
	if len(result.Dropped) != 3 {
		t.Fatalf("expected 3 dropped rows, got %v", result.Dropped)
	}
	// Row indexes are zero-based over data rows, including dropped ones.
	if result.Dropped[0].Row != 0 || result.Dropped[1].Row != 1 || result.Dropped[2].Row != 2 {
		t.Errorf("unexpected dropped row indexes: %v", result.Dropped)
	}
}

func TestNormalizeMissingRequiredColumn(t *testing.T) {
	raw := "date,name,category\n" +
		"01/02/2024,Coffee Shop,Food\n"

	result, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(result.Transactions) != 0 {
		t.Errorf("expected no transactions, got %d", len(result.Transactions))
	}
	if len(result.Dropped) != 1 {
		t.Errorf("expected 1 dropped row, got %v", result.Dropped)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	result, err := Normalize("")
	if err != nil {
		t.Fatalf("empty input should not error, got %v", err)
	}
	if len(result.Transactions) != 0 || len(result.Dropped) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestNormalizeMalformedInput(t *testing.T) {
	_, err := Normalize("\"unterminated quote")
	if err == nil {
		t.Fatal("expected an error for unreadable input")
	}
	var malformed *MalformedInputError
	if !errors.As(err, &malformed) {
		t.Errorf("expected *MalformedInputError, got %T: %v", err, err)
	}
}

func TestNormalizeOrdering(t *testing.T) {
	raw := "date,name,amount,category\n" +
		"01/01/2024,First Of Day,1.00,Misc\n" +
		"01/01/2024,Second Of Day,2.00,Misc\n" +
		"01/05/2024,Newest,3.00,Misc\n" +
		"01/03/2024,Middle,4.00,Misc\n"

	result, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	var names []string
	for _, tx := range result.Transactions {
		names = append(names, tx.Name)
	}
	// Newest first; same-date rows come out in reversed input order.
	want := []string{"Newest", "Middle", "Second Of Day", "First Of Day"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("order = %v, want %v", names, want)
	}
}

func TestNormalizeIDsUnique(t *testing.T) {
	// Duplicate merchant/date pairs still get distinct IDs via the row index.
	raw := "date,name,amount,category\n" +
		"01/02/2024,Coffee Shop,4.50,Food\n" +
		"01/02/2024,Coffee Shop,4.50,Food\n"

	result, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(result.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(result.Transactions))
	}
	if result.Transactions[0].ID == result.Transactions[1].ID {
		t.Errorf("duplicate IDs: %q", result.Transactions[0].ID)
	}
}
