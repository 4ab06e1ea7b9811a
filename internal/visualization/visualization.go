// Package visualization renders health-data charts as PNG images for the
// chat surface: histograms, scatter plots and bar charts over blood-donation
// records. Rendered images persist on disk under unguessable names and are
// served back by URL; a sweep drops anything older than the retention window.
package visualization

import (
	"errors"
	"math"
	"sort"
	"time"
)

var (
	// ErrNoData rejects chart requests without any data points.
	ErrNoData = errors.New("visualization: no data provided")
	// ErrSeriesMismatch rejects scatter input whose series differ in length.
	ErrSeriesMismatch = errors.New("visualization: series lengths must match")
	// ErrImageNotFound reports an unknown or already swept image.
	ErrImageNotFound = errors.New("visualization: image not found")
)

// HistogramRequest bins a single numeric series.
type HistogramRequest struct {
	Data   []float64 `json:"data" validate:"required,min=1"`
	Field  string    `json:"field"`
	Title  string    `json:"title"`
	XLabel string    `json:"xlabel"`
	Bins   int       `json:"bins" validate:"omitempty,min=1,max=100"`
}

// ScatterRequest plots two series against each other. Classes, when given,
// split the points into return and non-return donors.
type ScatterRequest struct {
	X       []float64 `json:"x_data" validate:"required,min=2"`
	Y       []float64 `json:"y_data" validate:"required,min=2"`
	Classes []int     `json:"classes"`
	Title   string    `json:"title"`
	XLabel  string    `json:"xlabel"`
	YLabel  string    `json:"ylabel"`
}

// BarRequest charts one value per named category.
type BarRequest struct {
	Categories []string  `json:"categories" validate:"required,min=1"`
	Values     []float64 `json:"values" validate:"required,min=1"`
	Title      string    `json:"title"`
	XLabel     string    `json:"xlabel"`
	YLabel     string    `json:"ylabel"`
}

// DonationRecord is one row of the blood-donation dataset. Class 1 marks a
// donor who returned.
type DonationRecord struct {
	Recency   float64 `json:"recency"`
	Frequency float64 `json:"frequency"`
	Monetary  float64 `json:"monetary"`
	Time      float64 `json:"time"`
	Class     int     `json:"class"`
}

// BloodDataRequest asks for the full overview chart set.
type BloodDataRequest struct {
	Data []DonationRecord `json:"data" validate:"required,min=1"`
}

// Artifact is a rendered chart: persisted filename, serving URL and an
// inline base64 copy for immediate display.
type Artifact struct {
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	Base64    string    `json:"base64"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats is the summary attached to histogram responses.
type Stats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
}

func computeStats(values []float64) Stats {
	n := float64(len(values))
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}

	return Stats{Mean: mean, Median: median, StdDev: math.Sqrt(sq / n)}
}
