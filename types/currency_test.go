package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Currency
		wantErr bool
	}{
		{"upper", "ARTC", ARTC, false},
		{"lower", "artc", ARTC, false},
		{"padded", " pi ", PI, false},
		{"usd", "USD", USD, false},
		{"unknown", "DOGE", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCurrency(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCurrency(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCurrency(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRoundingPolicy(t *testing.T) {
	tests := []struct {
		name     string
		currency Currency
		input    string
		want     string
	}{
		{"PI rounds to whole units", PI, "12.6", "13"},
		{"PI rounds down", PI, "12.4", "12"},
		{"ARTC keeps 2 decimals", ARTC, "1.005", "1.01"},
		{"USD keeps 2 decimals", USD, "3.14159", "3.14"},
		{"GOLD keeps 2 decimals", GOLD, "0.0005", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := decimal.RequireFromString(tt.input)
			got := tt.currency.Round(in)
			if got.String() != tt.want {
				t.Errorf("%s.Round(%s) = %s, want %s", tt.currency, tt.input, got, tt.want)
			}
		})
	}
}

func TestBalances(t *testing.T) {
	b := NewBalances()

	if !b.Get(ARTC).IsZero() {
		t.Error("expected zero for absent currency")
	}

	b.Add(ARTC, decimal.NewFromInt(10))
	b.Sub(ARTC, decimal.NewFromInt(3))
	if got := b.Get(ARTC); !got.Equal(decimal.NewFromInt(7)) {
		t.Errorf("balance = %s, want 7", got)
	}

	if !b.Covers(ARTC, decimal.NewFromInt(7)) {
		t.Error("Covers should allow exact amount")
	}
	if b.Covers(ARTC, decimal.NewFromInt(8)) {
		t.Error("Covers should reject amount above balance")
	}

	clone := b.Clone()
	clone.Add(ARTC, decimal.NewFromInt(1))
	if b.Get(ARTC).Equal(clone.Get(ARTC)) {
		t.Error("Clone should be independent of the original")
	}

	other := NewBalances()
	other.Set(ARTC, decimal.NewFromInt(7))
	other.Set(PI, decimal.Zero)
	if !b.Equal(other) {
		t.Error("Equal should treat absent keys as zero")
	}
}
