package parcels

import (
	"encoding/json"
	"fmt"

	"github.com/Houeta/logitrack/internal/models"
)

const (
	baseFee     = 5.0
	perKilogram = 2.0
	// FallbackPrice is charged when the weight is not a usable number.
	FallbackPrice = 10.0
)

// Price returns the shipping price for a weight as entered: a base fee plus a
// per-kilogram rate, or FallbackPrice when the weight does not parse.
func Price(weight string) float64 {
	w, err := models.ParseWeight(weight)
	if err != nil {
		return FallbackPrice
	}
	return priceOf(w)
}

func priceOf(w models.Weight) float64 {
	return baseFee + perKilogram*w.Kg()
}

// RawWeight is a weight as entered in a form. JSON numbers and strings are both accepted.
type RawWeight string

func (w *RawWeight) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*w = ""
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		*w = RawWeight(raw)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("weight must be a number or a string: %w", err)
	}
	*w = RawWeight(num.String())

	return nil
}
