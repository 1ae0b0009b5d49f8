// Package weather supplies observed and forecast conditions for the Málaga
// station. The betting core only consumes the Source interface; the
// Open-Meteo client is one implementation of it.
package weather

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when no reading can be produced for the
// requested date. Settlement treats it as "retry next cycle", never as a
// default observation.
var ErrUnavailable = errors.New("weather: data unavailable")

// RainReading is the rain picture for one calendar day.
type RainReading struct {
	Date      time.Time `json:"date"`
	AmountMM  float64   `json:"amount_mm"`  // accumulated precipitation
	ChancePct float64   `json:"chance_pct"` // precipitation probability, 0–100
}

// TemperatureReading is the temperature picture for one calendar day.
type TemperatureReading struct {
	Date     time.Time `json:"date"`
	MinC     float64   `json:"min_c"`
	MaxC     float64   `json:"max_c"`
	CurrentC float64   `json:"current_c"`
}

// WindReading is the wind picture for one calendar day.
type WindReading struct {
	Date         time.Time `json:"date"`
	MaxKmh       float64   `json:"max_kmh"`
	CurrentKmh   float64   `json:"current_kmh"`
	DirectionDeg float64   `json:"direction_deg"`
}

// Source abstracts the weather data provider. All values are metric
// (mm, °C, km/h) and refer to the station's local calendar day containing
// the given instant.
type Source interface {
	GetRainAmount(ctx context.Context, date time.Time) (RainReading, error)
	GetTemperature(ctx context.Context, date time.Time) (TemperatureReading, error)
	GetWindSpeed(ctx context.Context, date time.Time) (WindReading, error)
}
