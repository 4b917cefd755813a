package service

import "github.com/shopspring/decimal"

// Monetary totals are mutated many times over a ticket's life, so every
// intermediate result is truncated to 2 decimal places to stop float drift
// from accumulating. Truncation, not rounding, to match how totals were
// always computed here.

func truncate2(f float64) float64 {
	return decimal.NewFromFloat(f).Truncate(2).InexactFloat64()
}

func addMoney(total, delta float64) float64 {
	return truncate2(total + delta)
}

func subMoney(total, delta float64) float64 {
	return truncate2(total - delta)
}
