// Package instrument derives canonical instrument keys and builds the
// instruments bound to subscription ids.
package instrument

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rickgao/ibmirror/internal/model"
)

// ErrMalformedInstrument is returned when no class rule can be applied.
var ErrMalformedInstrument = errors.New("malformed instrument")

// monthCodes maps calendar month (1-12) to the futures month letter.
var monthCodes = [13]string{"", "F", "G", "H", "J", "K", "M", "N", "Q", "U", "V", "X", "Z"}

// CanonicalKey derives the canonical key for inst by security type:
//
//	OPT, FOP: <symbol><expiry><right>_<strike without decimal point>
//	FUT:      <symbol><month code><year>
//	CASH:     <symbol><currency>
//	other:    <symbol>_<sectype>, with "_STK" stripped
func CanonicalKey(inst model.Instrument) (string, error) {
	switch inst.SecType {
	case model.SecTypeOption, model.SecTypeFutureOption:
		strike, err := formatStrike(inst.Strike)
		if err != nil {
			return "", err
		}
		return inst.Symbol + inst.Expiry + inst.Right + "_" + strings.ReplaceAll(strike, ".", ""), nil

	case model.SecTypeFuture:
		month, err := contractMonth(inst.Expiry)
		if err != nil {
			return "", err
		}
		return inst.Symbol + month, nil

	case model.SecTypeCash:
		return inst.Symbol + inst.Currency, nil

	// No security type keys as the bare symbol, not "<symbol>_".
	case "":
		return inst.Symbol, nil

	default:
		return strings.ReplaceAll(inst.Symbol+"_"+inst.SecType, "_"+model.SecTypeStock, ""), nil
	}
}

// formatStrike renders a strike with two decimals. Strikes that need more
// than cent precision are returned unformatted.
// TODO: sub-cent strikes can collide with cent strikes once the decimal point
// is removed ("1.005" and "10.05" both become "1005"); needs a fixed-width
// rule agreed with consumers of persisted keys.
// Cent-exact strikes always get two decimals, so 150.1 keys as "15010" and
// 0.3 as "030". Keys built with a float remainder test come out as "1501"
// and "03" for those strikes and will not join against these.
func formatStrike(strike float64) (string, error) {
	if math.IsNaN(strike) || math.IsInf(strike, 0) {
		return "", fmt.Errorf("%w: strike %v", ErrMalformedInstrument, strike)
	}

	d := decimal.NewFromFloat(strike)
	if !d.Shift(2).IsInteger() {
		return d.String(), nil
	}
	return d.StringFixed(2), nil
}

// contractMonth turns a YYYYMM[DD] expiry into "<month code><year>".
func contractMonth(expiry string) (string, error) {
	if len(expiry) < 6 {
		return "", fmt.Errorf("%w: expiry %q too short", ErrMalformedInstrument, expiry)
	}

	year, err := strconv.Atoi(expiry[:4])
	if err != nil {
		return "", fmt.Errorf("%w: expiry year %q", ErrMalformedInstrument, expiry[:4])
	}
	month, err := strconv.Atoi(expiry[4:6])
	if err != nil || month < 1 || month > 12 {
		return "", fmt.Errorf("%w: expiry month %q", ErrMalformedInstrument, expiry[4:6])
	}

	return monthCodes[month] + strconv.Itoa(year), nil
}
