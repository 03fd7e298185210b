package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"

	"github.com/wolfman30/voice-intake/internal/calendar"
	appconfig "github.com/wolfman30/voice-intake/internal/config"
	"github.com/wolfman30/voice-intake/internal/observability/metrics"
	"github.com/wolfman30/voice-intake/pkg/logging"
)

// BuildCalendar selects the calendar backend and wraps it with request metrics.
func BuildCalendar(ctx context.Context, cfg *appconfig.Config, m *metrics.CalendarMetrics, logger *logging.Logger) (calendar.Gateway, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	var gw calendar.Gateway
	switch cfg.CalendarBackend {
	case "memory":
		logger.Warn("using in-memory calendar; bookings are not persisted")
		gw = calendar.NewMemoryGateway()
	case "", "google":
		var opts []option.ClientOption
		if path := strings.TrimSpace(cfg.GoogleCredentialsFile); path != "" {
			opts = append(opts, option.WithCredentialsFile(path))
		}
		google, err := calendar.NewGoogleGateway(ctx, cfg.CalendarID, logger, opts...)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: google calendar: %w", err)
		}
		logger.Info("google calendar configured", "calendar_id", cfg.CalendarID)
		gw = google
	default:
		return nil, fmt.Errorf("bootstrap: unknown calendar backend %q", cfg.CalendarBackend)
	}
	return calendar.Instrument(gw, m), nil
}
