package extract

import (
	"log/slog"

	"github.com/pricescout/pricescout/internal/metrics"
	domain "github.com/pricescout/pricescout/pkg/types"
)

// Telemetry receives pipeline lifecycle events. The pipeline emits exactly
// one start event per run and exactly one complete event naming the winning
// method, or an empty method when every strategy failed.
type Telemetry interface {
	ExtractionStart(url string)
	ExtractionComplete(url string, method domain.ExtractionMethod, ok bool)
}

// LogTelemetry is the default sink: structured logs plus Prometheus
// counters.
type LogTelemetry struct {
	log *slog.Logger
}

// NewLogTelemetry creates the default telemetry sink.
func NewLogTelemetry(log *slog.Logger) *LogTelemetry {
	return &LogTelemetry{log: log}
}

// ExtractionStart implements Telemetry.
func (t *LogTelemetry) ExtractionStart(url string) {
	metrics.ExtractionAttemptsTotal.Inc()
	t.log.Debug("extraction started", "url", url)
}

// ExtractionComplete implements Telemetry.
func (t *LogTelemetry) ExtractionComplete(
	url string,
	method domain.ExtractionMethod,
	ok bool,
) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	metrics.ExtractionResultsTotal.WithLabelValues(string(method), outcome).Inc()

	if ok {
		t.log.Info("extraction complete", "url", url, "method", method)
		return
	}
	t.log.Info("extraction failed", "url", url, "method", method)
}
