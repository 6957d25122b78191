package session

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/hololab/tabletop4d/internal/session"

// Metrics are the OTel instruments of the turn loop.
type Metrics struct {
	meter    metric.Meter
	turns    metric.Int64Counter
	captures metric.Int64Counter
	live     metric.Int64ObservableGauge
}

// NewMetrics creates the instruments on m, or on the global meter when m is
// nil (a no-op until a provider is installed).
func NewMetrics(m metric.Meter) (*Metrics, error) {
	if m == nil {
		m = otel.Meter(instrumentationName)
	}
	out := &Metrics{meter: m}

	var err error
	out.turns, err = m.Int64Counter(
		"session.turns",
		metric.WithDescription("Turns resolved"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating turns counter: %w", err)
	}

	out.captures, err = m.Int64Counter(
		"session.captures",
		metric.WithDescription("Pieces captured on both boards"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating captures counter: %w", err)
	}

	out.live, err = m.Int64ObservableGauge(
		"session.pieces.live",
		metric.WithDescription("Live pieces per board"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating live pieces gauge: %w", err)
	}
	return out, nil
}

func (m *Metrics) observe(s *Session) {
	_, err := m.meter.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			v := s.view.Load()
			o.ObserveInt64(m.live, int64(v.pieces), metric.WithAttributes(attribute.String("board", "mini")))
			o.ObserveInt64(m.live, int64(v.pairs), metric.WithAttributes(attribute.String("board", "paired")))
			return nil
		},
		m.live,
	)
	if err != nil {
		s.log.Warn("Failed to register live pieces callback", "error", err)
	}
}
