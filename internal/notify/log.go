package notify

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utafrali/storefront/pkg/logger"
)

var toastsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_toasts_total",
		Help: "Total number of user-facing notifications emitted",
	},
	[]string{"collection", "kind"},
)

// LogNotifier writes each toast as a structured log line and counts it.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(l *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: l}
}

func (n *LogNotifier) Notify(ctx context.Context, t Notification) {
	toastsTotal.WithLabelValues(t.Collection, string(t.Kind)).Inc()

	level := slog.LevelInfo
	if t.Kind == KindError {
		level = slog.LevelWarn
	}
	logger.WithContext(ctx, n.logger).Log(ctx, level, "toast",
		slog.String("collection", t.Collection),
		slog.String("kind", string(t.Kind)),
		slog.String("title", t.Title),
		slog.String("description", t.Description),
	)
}
