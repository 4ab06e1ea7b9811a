package visualization

import (
	"bytes"
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Palette matching the web app theme.
var (
	colorBlue   = drawing.ColorFromHex("3b82f6")
	colorGreen  = drawing.ColorFromHex("10b981")
	colorRed    = drawing.ColorFromHex("ef4444")
	colorAmber  = drawing.ColorFromHex("f59e0b")
	colorPurple = drawing.ColorFromHex("a855f7")
)

const (
	chartWidth  = 1000
	chartHeight = 600
	defaultBins = 20
)

func renderHistogram(values []float64, title, xlabel string, bins int, fill drawing.Color) ([]byte, error) {
	if bins <= 0 {
		bins = defaultBins
	}
	if bins > len(values) {
		bins = len(values)
	}

	bc := chart.BarChart{
		Title:      title,
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   (chartWidth - 100) / (2 * bins),
		BarSpacing: (chartWidth - 100) / (2 * bins),
		XAxis:      chart.Style{TextRotationDegrees: 45},
		YAxis:      chart.YAxis{Name: "Frequency"},
		Bars:       binValues(values, bins, fill),
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render histogram %q: %w", xlabel, err)
	}
	return buf.Bytes(), nil
}

// binValues buckets values into equal-width bins labelled by bin midpoint.
// Everything on or above the top boundary lands in the last bin.
func binValues(values []float64, bins int, fill drawing.Color) []chart.Value {
	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	width := (hi - lo) / float64(bins)
	if width == 0 {
		width = 1
	}

	counts := make([]float64, bins)
	for _, v := range values {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		counts[i]++
	}

	bars := make([]chart.Value, bins)
	for i, count := range counts {
		bars[i] = chart.Value{
			Label: fmt.Sprintf("%.4g", lo+width*(float64(i)+0.5)),
			Value: count,
			Style: chart.Style{FillColor: fill, StrokeColor: fill},
		}
	}
	return bars
}

func renderScatter(x, y []float64, classes []int, title, xlabel, ylabel string) ([]byte, error) {
	var series []chart.Series
	if len(classes) == len(x) {
		var rx, ry, nx, ny []float64
		for i := range x {
			if classes[i] == 1 {
				rx = append(rx, x[i])
				ry = append(ry, y[i])
			} else {
				nx = append(nx, x[i])
				ny = append(ny, y[i])
			}
		}
		if len(rx) > 0 {
			series = append(series, chart.ContinuousSeries{
				Name:    "Return Donor",
				Style:   dotStyle(colorGreen),
				XValues: rx,
				YValues: ry,
			})
		}
		if len(nx) > 0 {
			series = append(series, chart.ContinuousSeries{
				Name:    "Non-Return Donor",
				Style:   dotStyle(colorRed),
				XValues: nx,
				YValues: ny,
			})
		}
	} else {
		series = []chart.Series{chart.ContinuousSeries{
			Style:   dotStyle(colorBlue),
			XValues: x,
			YValues: y,
		}}
	}

	graph := chart.Chart{
		Title:  title,
		Width:  chartWidth,
		Height: chartHeight,
		XAxis:  chart.XAxis{Name: xlabel},
		YAxis:  chart.YAxis{Name: ylabel},
		Series: series,
	}
	if len(series) > 1 {
		graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render scatter %q: %w", title, err)
	}
	return buf.Bytes(), nil
}

func dotStyle(c drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    5,
		DotColor:    c,
	}
}

func renderBar(categories []string, values []float64, title string) ([]byte, error) {
	palette := []drawing.Color{colorGreen, colorRed, colorBlue, colorAmber}
	bars := make([]chart.Value, len(categories))
	for i, category := range categories {
		c := palette[i%len(palette)]
		bars[i] = chart.Value{
			Label: category,
			Value: values[i],
			Style: chart.Style{FillColor: c, StrokeColor: c},
		}
	}

	bc := chart.BarChart{
		Title:    title,
		Width:    chartWidth,
		Height:   chartHeight,
		BarWidth: 80,
		Bars:     bars,
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render bar chart %q: %w", title, err)
	}
	return buf.Bytes(), nil
}
