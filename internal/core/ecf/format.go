package ecf

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DateLayout is the layout of calendar dates on input.
	DateLayout = "2006-01-02"
	// WireDateLayout is the layout of calendar dates in the document.
	WireDateLayout = "02-01-2006"
	// TimestampLayout is the layout of FechaHoraFirma.
	TimestampLayout = "02-01-2006 15:04:05"

	amountPlaces       = 2
	exchangeRatePlaces = 4
)

// FormatAmount renders a monetary or quantity value with two fractional digits.
func FormatAmount(v any) (string, error) {
	d, err := toDecimal(v)
	if err != nil {
		return "", err
	}
	return d.StringFixed(amountPlaces), nil
}

// FormatExchangeRate renders TipoCambio with four fractional digits.
func FormatExchangeRate(v any) (string, error) {
	d, err := toDecimal(v)
	if err != nil {
		return "", err
	}
	return d.StringFixed(exchangeRatePlaces), nil
}

// FormatPaddedCode renders an integer category code zero-padded to two digits.
func FormatPaddedCode(v any) (string, error) {
	n, err := toInt(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d", n), nil
}

// FormatDate converts YYYY-MM-DD to DD-MM-YYYY. Text that does not parse as a
// calendar date is returned unchanged.
func FormatDate(s string) string {
	if s == "" {
		return ""
	}
	// "2006-1-2" accepts both padded and unpadded month and day.
	t, err := time.Parse("2006-1-2", strings.TrimSpace(s))
	if err != nil {
		return s
	}
	return t.Format(WireDateLayout)
}

// FormatTimestamp renders the signature timestamp.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case json.Number:
		return decimal.NewFromString(t.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(t))
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int32:
		return decimal.NewFromInt32(t), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case uint64:
		return decimal.NewFromInt(int64(t)), nil
	case float32:
		return decimal.NewFromFloat32(t), nil
	case float64:
		return decimal.NewFromFloat(t), nil
	case decimal.Decimal:
		return t, nil
	default:
		return decimal.Zero, fmt.Errorf("expected number, got %T", v)
	}
}

func toInt(v any) (int64, error) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, nil
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return n, nil
		}
		return 0, fmt.Errorf("expected integer, got %q", t)
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case int64:
		return t, nil
	case uint64:
		return int64(t), nil
	}

	// Whole-valued decimals such as 31.0 are accepted.
	d, err := toDecimal(v)
	if err != nil {
		return 0, err
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("expected integer, got %s", d.String())
	}
	return d.IntPart(), nil
}
