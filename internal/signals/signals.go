// Package signals supplies the non-market risk cards and risk appetite
// gauges shown beside the market risk panels.
package signals

import (
	"context"
	"fmt"
)

// Band is the traffic-light classification of a gauge value
type Band string

const (
	BandGreen  Band = "green"
	BandYellow Band = "yellow"
	BandRed    Band = "red"
)

// Gauge bounds
const (
	GaugeMin = 0
	GaugeMax = 100
)

// Category is one enterprise risk card. Value is nil for cards without a
// single numeric reading (geopolitical exposures).
type Category struct {
	Key    string   `json:"key"`
	Name   string   `json:"name"`
	Metric string   `json:"metric"`
	Value  *float64 `json:"value"`
	Unit   string   `json:"unit"`
	Text   string   `json:"text"`
}

// Gauge is one risk appetite reading on a 0-100 scale
type Gauge struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Band  Band   `json:"band"`
}

// RiskSignalProvider supplies categories and gauges. Callers must not depend
// on the concrete implementation.
type RiskSignalProvider interface {
	Categories(ctx context.Context) ([]Category, error)
	Appetite(ctx context.Context) ([]Gauge, error)
}

// BandFor classifies a gauge value: green below 33, yellow below 66, red otherwise
func BandFor(value int) Band {
	switch {
	case value < 33:
		return BandGreen
	case value < 66:
		return BandYellow
	default:
		return BandRed
	}
}

// NewGauge clamps value to the gauge bounds and classifies it
func NewGauge(name string, value int) Gauge {
	if value < GaugeMin {
		value = GaugeMin
	}
	if value > GaugeMax {
		value = GaugeMax
	}
	return Gauge{Name: name, Value: value, Min: GaugeMin, Max: GaugeMax, Band: BandFor(value)}
}

func numeric(key, name, metric, unit string, v float64, format string) Category {
	return Category{
		Key:    key,
		Name:   name,
		Metric: metric,
		Value:  &v,
		Unit:   unit,
		Text:   fmt.Sprintf(format, v),
	}
}
