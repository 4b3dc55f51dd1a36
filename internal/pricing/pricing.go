// Package pricing computes effective prices for catalog items. Everything
// here is a pure function over decimal amounts; the rest of the system never
// does money arithmetic on its own.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aminasaas/storefront-backend/internal/entity"
)

// Amount parses a decimal-as-string price. Empty or malformed values come
// back as zero rather than an error: the admin surface stores free-form
// strings and the storefront must keep serving whatever is there.
func Amount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// UnitPrice returns the effective per-unit price for qty units of p.
// Wholesale pricing activates only when a threshold is configured
// (MinWholesaleQty > 0) and the quantity meets it; an unset wholesale price
// falls back to the regular price even when the threshold is met.
func UnitPrice(p entity.Product, qty int) decimal.Decimal {
	regular := Amount(p.Price)
	if p.MinWholesaleQty <= 0 || qty < p.MinWholesaleQty {
		return regular
	}
	if strings.TrimSpace(p.WholesalePrice) == "" {
		return regular
	}
	return Amount(p.WholesalePrice)
}

// LineTotal is UnitPrice * qty for a cart line.
func LineTotal(line entity.CartLine) decimal.Decimal {
	return UnitPrice(line.Product, line.Qty).Mul(decimal.NewFromInt(int64(line.Qty)))
}

// Total sums LineTotal over all lines, wholesale-aware per line.
func Total(lines []entity.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(LineTotal(line))
	}
	return total
}

// FormatAmount renders an amount for display, dropping a trailing ".00".
// Display only: stored totals keep their full decimal form.
func FormatAmount(d decimal.Decimal) string {
	s := d.String()
	return strings.TrimSuffix(s, ".00")
}
