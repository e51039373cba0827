// Package reports publishes correlation summaries to downstream sinks.
package reports

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"reading-effort/internal/common/logger"
)

// Report summarizes one correlation run.
type Report struct {
	ID           string             `json:"id"`
	Operation    string             `json:"operation"`
	Dataset      string             `json:"dataset"`
	MatchedCount int                `json:"matched_count"`
	TotalWords   int                `json:"total_words"`
	Correlations map[string]float64 `json:"metric_correlations"`
	TokenColumn  string             `json:"token_column,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

// NewReport stamps a report with a fresh ID and the current time.
func NewReport(operation, dataset string) *Report {
	return &Report{
		ID:           uuid.NewString(),
		Operation:    operation,
		Dataset:      dataset,
		Correlations: map[string]float64{},
		CreatedAt:    time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, r *Report) error
}

// NopPublisher drops every report.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *Report) error { return nil }

// MultiPublisher fans a report out to every sink. All sinks are attempted;
// their failures are joined.
type MultiPublisher struct {
	publishers []Publisher
	log        logger.Logger
}

func NewMultiPublisher(log logger.Logger, publishers ...Publisher) *MultiPublisher {
	return &MultiPublisher{publishers: publishers, log: log}
}

func (m *MultiPublisher) Len() int { return len(m.publishers) }

func (m *MultiPublisher) Publish(ctx context.Context, r *Report) error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, r); err != nil {
			m.log.Warn("report sink failed", map[string]interface{}{
				"report_id": r.ID,
				"error":     err.Error(),
			})
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
