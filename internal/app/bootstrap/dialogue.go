package bootstrap

import (
	"context"
	"fmt"
	"strings"

	appconfig "github.com/wolfman30/voice-intake/internal/config"
	"github.com/wolfman30/voice-intake/internal/dialogue"
	"github.com/wolfman30/voice-intake/pkg/logging"
)

// BuildDialogue wires the Gemini dialogue driver. It returns nil, nil when no
// API key is configured; the HTTP surface then accepts structured actions only.
func BuildDialogue(ctx context.Context, cfg *appconfig.Config, svc dialogue.Intake, logger *logging.Logger) (*dialogue.Driver, *dialogue.GeminiModel, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		logger.Info("no Gemini API key configured; utterance endpoints disabled")
		return nil, nil, nil
	}
	model, err := dialogue.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: gemini: %w", err)
	}
	logger.Info("using Gemini dialogue driver", "model", cfg.GeminiModelID)
	return dialogue.NewDriver(model, svc, logger), model, nil
}
