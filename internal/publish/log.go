package publish

import (
	"log/slog"

	"github.com/AndrewSteel/isin-quotes/internal/model"
)

// LogSink writes every publish event to the structured log.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink logging at debug level.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Publish implements quote.Sink.
func (s *LogSink) Publish(ev model.PublishEvent) {
	attrs := []any{
		"key", ev.Key.String(),
		"state", ev.State.String(),
		"retrieved_at", ev.RetrievedAt,
	}
	if ev.Price != nil {
		attrs = append(attrs, "price", *ev.Price, "currency", ev.CurrencySign)
	}
	if ev.ChangePercent != nil {
		attrs = append(attrs, "change_percent", *ev.ChangePercent)
	}
	s.logger.Debug("publish", attrs...)
}
