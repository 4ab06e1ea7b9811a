package visualization

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2/drawing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hodie-labs/hodie-platform/internal/observability/metrics"
	"github.com/hodie-labs/hodie-platform/pkg/logging"
)

var chartTracer = otel.Tracer("hodie.internal.visualization")

// Service renders chart requests and publishes the images through the store.
type Service struct {
	images   ImageStore
	imageTTL time.Duration
	logger   *logging.Logger
	metrics  *metrics.ChartMetrics
}

// NewService constructs a visualization service. Images older than imageTTL
// are eligible for Cleanup; zero means the one-day default.
func NewService(images ImageStore, imageTTL time.Duration, logger *logging.Logger, m *metrics.ChartMetrics) *Service {
	if images == nil {
		panic("visualization: image store required")
	}
	if imageTTL <= 0 {
		imageTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{images: images, imageTTL: imageTTL, logger: logger, metrics: m}
}

// Histogram renders a binned distribution and returns it with its summary
// statistics.
func (s *Service) Histogram(ctx context.Context, req HistogramRequest) (*Artifact, *Stats, error) {
	_, span := chartTracer.Start(ctx, "visualization.histogram")
	defer span.End()

	if len(req.Data) == 0 {
		return nil, nil, ErrNoData
	}

	field := req.Field
	if field == "" {
		field = "value"
	}
	title := req.Title
	if title == "" {
		title = "Distribution"
	}
	xlabel := req.XLabel
	if xlabel == "" {
		xlabel = strings.ToUpper(field[:1]) + field[1:]
	}

	png, err := renderHistogram(req.Data, title, xlabel, req.Bins, colorBlue)
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}

	artifact, err := s.publish(span, "histogram", png)
	if err != nil {
		return nil, nil, err
	}
	stats := computeStats(req.Data)
	return artifact, &stats, nil
}

// Scatter renders one series against another, optionally split by donor
// class.
func (s *Service) Scatter(ctx context.Context, req ScatterRequest) (*Artifact, error) {
	_, span := chartTracer.Start(ctx, "visualization.scatter")
	defer span.End()

	if len(req.X) == 0 || len(req.Y) == 0 {
		return nil, ErrNoData
	}
	if len(req.X) != len(req.Y) {
		return nil, ErrSeriesMismatch
	}
	if len(req.Classes) > 0 && len(req.Classes) != len(req.X) {
		return nil, ErrSeriesMismatch
	}

	title := req.Title
	if title == "" {
		title = "Scatter Plot"
	}
	png, err := renderScatter(req.X, req.Y, req.Classes, title, req.XLabel, req.YLabel)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return s.publish(span, "scatter", png)
}

// Bar renders one value per category.
func (s *Service) Bar(ctx context.Context, req BarRequest) (*Artifact, error) {
	_, span := chartTracer.Start(ctx, "visualization.bar")
	defer span.End()

	if len(req.Categories) == 0 || len(req.Values) == 0 {
		return nil, ErrNoData
	}
	if len(req.Categories) != len(req.Values) {
		return nil, ErrSeriesMismatch
	}

	title := req.Title
	if title == "" {
		title = "Bar Chart"
	}
	png, err := renderBar(req.Categories, req.Values, title)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return s.publish(span, "bar_chart", png)
}

// BloodOverview renders the full chart set for a blood-donation dataset:
// one histogram per metric, the class-split scatter, the class distribution
// and the recency/frequency scatter. Scatters need at least two records and
// are omitted below that.
func (s *Service) BloodOverview(ctx context.Context, records []DonationRecord) ([]Artifact, error) {
	_, span := chartTracer.Start(ctx, "visualization.blood_overview")
	defer span.End()

	if len(records) == 0 {
		return nil, ErrNoData
	}

	fields := []struct {
		name   string
		color  drawing.Color
		values []float64
	}{
		{"Recency", colorBlue, nil},
		{"Frequency", colorGreen, nil},
		{"Monetary", colorAmber, nil},
		{"Time", colorPurple, nil},
	}
	var recency, frequency, monetary, elapsed []float64
	returns := 0
	for _, rec := range records {
		recency = append(recency, rec.Recency)
		frequency = append(frequency, rec.Frequency)
		monetary = append(monetary, rec.Monetary)
		elapsed = append(elapsed, rec.Time)
		if rec.Class == 1 {
			returns++
		}
	}
	fields[0].values = recency
	fields[1].values = frequency
	fields[2].values = monetary
	fields[3].values = elapsed

	var artifacts []Artifact
	for _, f := range fields {
		png, err := renderHistogram(f.values, f.name+" Distribution", f.name, defaultBins, f.color)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		artifact, err := s.publish(span, "blood_"+strings.ToLower(f.name), png)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, *artifact)
	}

	classes := make([]int, len(records))
	for i, rec := range records {
		classes[i] = rec.Class
	}

	if len(records) >= 2 {
		png, err := renderScatter(frequency, monetary, classes,
			"Frequency vs. Monetary Value", "Frequency (donations)", "Monetary Value (c.c. blood)")
		if err != nil {
			s.logger.Warn("skipping frequency/monetary scatter", "error", err)
		} else if artifact, err := s.publish(span, "frequency_vs_monetary", png); err == nil {
			artifacts = append(artifacts, *artifact)
		}
	}

	png, err := renderBar(
		[]string{"Non-Return Donor", "Return Donor"},
		[]float64{float64(len(records) - returns), float64(returns)},
		"Donor Classification Distribution",
	)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	artifact, err := s.publish(span, "class_distribution", png)
	if err != nil {
		return nil, err
	}
	artifacts = append(artifacts, *artifact)

	if len(records) >= 2 {
		png, err := renderScatter(recency, frequency, nil,
			"Recency vs. Frequency Analysis", "Recency (days since last donation)", "Frequency (total donations)")
		if err != nil {
			s.logger.Warn("skipping recency/frequency scatter", "error", err)
		} else if artifact, err := s.publish(span, "recency_vs_frequency", png); err == nil {
			artifacts = append(artifacts, *artifact)
		}
	}

	s.logger.Info("blood overview rendered", "records", len(records), "charts", len(artifacts))
	return artifacts, nil
}

// Image opens a previously rendered chart.
func (s *Service) Image(ctx context.Context, filename string) (io.ReadCloser, error) {
	_, span := chartTracer.Start(ctx, "visualization.image")
	defer span.End()
	span.SetAttributes(attribute.String("hodie.image", filename))
	return s.images.Open(filename)
}

// Cleanup drops images past the retention window.
func (s *Service) Cleanup(ctx context.Context) (int, error) {
	_, span := chartTracer.Start(ctx, "visualization.cleanup")
	defer span.End()

	deleted, err := s.images.Sweep(s.imageTTL)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	s.metrics.ObserveSwept(deleted)
	if deleted > 0 {
		s.logger.Info("swept chart images", "deleted", deleted)
	}
	return deleted, nil
}

func (s *Service) publish(span trace.Span, kind string, png []byte) (*Artifact, error) {
	filename, err := s.images.Save(kind, png)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("publish %s: %w", kind, err)
	}
	s.metrics.ObserveRendered(kind)
	return &Artifact{
		Filename:  filename,
		URL:       "/images/" + filename,
		Base64:    "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		CreatedAt: time.Now().UTC(),
	}, nil
}
