package rate

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/artgap/treasury/types"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestConvert(t *testing.T) {
	table := New()

	tests := []struct {
		name   string
		amount string
		from   types.Currency
		to     types.Currency
		want   string
	}{
		{"identity", "10", types.USD, types.USD, "10"},
		{"USD to ARTC", "1", types.USD, types.ARTC, "100"},
		{"ARTC to USD", "100", types.ARTC, types.USD, "1"},
		{"USD to PI rounds whole", "1", types.USD, types.PI, "200"},
		{"ARTC to PI rounds whole", "1", types.ARTC, types.PI, "2"},
		{"USD to EUR two decimals", "10", types.USD, types.EUR, "9.09"},
		{"GOLD to USD", "2", types.GOLD, types.USD, "3800"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.Convert(dec(tt.amount), tt.from, tt.to)
			if err != nil {
				t.Fatalf("Convert failed: %v", err)
			}
			if !got.Equal(dec(tt.want)) {
				t.Errorf("Convert(%s, %s, %s) = %s, want %s", tt.amount, tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestConvertUnsupported(t *testing.T) {
	table := New()
	_, err := table.Convert(dec("1"), types.Currency("DOGE"), types.USD)
	if !errors.Is(err, ErrUnsupportedCurrency) {
		t.Errorf("expected ErrUnsupportedCurrency, got %v", err)
	}
	_, err = table.Convert(dec("1"), types.USD, types.Currency("DOGE"))
	if !errors.Is(err, ErrUnsupportedCurrency) {
		t.Errorf("expected ErrUnsupportedCurrency, got %v", err)
	}
}

func TestRateOverrides(t *testing.T) {
	table := New(WithRate(types.ARTC, dec("0.02")))
	got, err := table.Convert(dec("1"), types.USD, types.ARTC)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if !got.Equal(dec("50")) {
		t.Errorf("Convert with override = %s, want 50", got)
	}
}

func TestDisplayPrices(t *testing.T) {
	table := New()
	order := []types.Currency{types.PI, types.USD, types.EUR, types.Currency("DOGE")}

	prices := table.DisplayPrices(dec("10"), types.USD, order)

	if _, ok := prices[types.Currency("DOGE")]; ok {
		t.Error("unsupported currency should be omitted")
	}
	if !prices[types.PI].Equal(dec("2000")) {
		t.Errorf("PI price = %s, want 2000", prices[types.PI])
	}
	if !prices[types.USD].Equal(dec("10")) {
		t.Errorf("USD price = %s, want 10", prices[types.USD])
	}
}

func TestBalancesToUSD(t *testing.T) {
	table := New()

	balances := types.NewBalances()
	balances.Set(types.ARTC, dec("100")) // 1 USD
	balances.Set(types.PI, dec("200"))   // 1 USD
	balances.Set(types.USD, dec("3"))

	v := table.BalancesToUSD(balances, true)

	if !v.USDGross.Equal(dec("5")) {
		t.Errorf("gross = %s, want 5", v.USDGross)
	}
	// 5 * (1 - 0.012) = 4.94, rounded to 4 decimals
	if !v.USDNet.Equal(dec("4.94")) {
		t.Errorf("net = %s, want 4.94", v.USDNet)
	}
	if !v.NetworkRate.Equal(dec("0.012")) {
		t.Errorf("network rate = %s, want 0.012", v.NetworkRate)
	}

	noFee := table.BalancesToUSD(balances, false)
	if !noFee.USDNet.Equal(noFee.USDGross) {
		t.Error("net should equal gross when fee is not applied")
	}

	if per, ok := v.Per[types.ARTC]; !ok || !per.USD.Equal(dec("1")) {
		t.Errorf("per-currency ARTC valuation = %+v, want 1 USD", per)
	}
}
