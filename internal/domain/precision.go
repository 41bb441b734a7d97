package domain

import "math/bits"

// pow10 holds 10^n for n up to MaxAssetScale.
var pow10 = [MaxAssetScale + 1]uint64{
	1, 10, 100, 1000, 10000, 100000, 1000000, 10000000, 100000000,
	1000000000, 10000000000, 100000000000, 1000000000000, 10000000000000,
	100000000000000, 1000000000000000, 10000000000000000,
	100000000000000000, 1000000000000000000,
}

// Pow10 returns 10^n. n must be at most MaxAssetScale.
func Pow10(n uint) uint64 {
	return pow10[n]
}

// ValidatePrice checks that price is a positive, exact multiple of the
// market's tic.
func ValidatePrice(m *Market, price uint64) error {
	if price == 0 || price%m.Tic != 0 {
		return ErrTicViolation
	}
	return nil
}

// QuoteAmount computes baseAmt × price / 10^baseScale with a 128-bit
// intermediate product. The price is quoted in quote native units per
// whole base unit, so the result is already in quote native units.
// The division must be exact: a non-zero remainder means the fill
// would silently drop value below the quote asset's resolution, and
// ErrBaseDirty is returned. A quotient that does not fit in 64 bits
// returns ErrQuoteOverflow.
func QuoteAmount(m *Market, baseAmt, price uint64) (uint64, error) {
	quote, rem, err := mulDiv(baseAmt, price, pow10[m.BaseScale])
	if err != nil {
		return 0, err
	}
	if rem != 0 {
		return 0, ErrBaseDirty
	}
	return quote, nil
}

// QuoteFloor is QuoteAmount rounded down instead of rejected on an
// inexact division. It is used to size escrow for resting buy orders:
// every fill against a resting order settles an exact quote amount, so
// the floored total is always sufficient and any floored-away fraction
// is absorbed as dust when the order leaves the book.
func QuoteFloor(m *Market, baseAmt, price uint64) (uint64, error) {
	quote, _, err := mulDiv(baseAmt, price, pow10[m.BaseScale])
	return quote, err
}

// MeetsDust reports whether baseAmt is large enough to rest on the
// book.
func MeetsDust(m *Market, baseAmt uint64) bool {
	return baseAmt >= m.Dust
}

// mulDiv computes (a × b) / den and the remainder using a full
// double-width multiply, so a and b may each use all 64 bits without
// wrapping.
func mulDiv(a, b, den uint64) (quo, rem uint64, err error) {
	hi, lo := bits.Mul64(a, b)
	if hi >= den {
		// Quotient would need more than 64 bits; bits.Div64 panics in
		// this case.
		return 0, 0, ErrQuoteOverflow
	}
	quo, rem = bits.Div64(hi, lo, den)
	return quo, rem, nil
}
