package platform

import (
	"log/slog"

	"github.com/wwwbq/FlashMemo/internal/config"
	"github.com/wwwbq/FlashMemo/pkg/core"
)

// FromConfig translates a loaded configuration into the uri and options
// expected by New and Init.
func FromConfig(cfg *config.Config, logger *slog.Logger) (string, []Option, error) {
	policy, err := core.ParseSuccessPolicy(cfg.Storage.SavePolicy)
	if err != nil {
		return "", nil, err
	}

	opts := []Option{
		WithAdapter(cfg.Storage.Type),
		WithLogger(logger),
		WithSavePolicy(policy),
	}

	if cfg.Storage.Type == AdapterFeishu {
		opts = append(opts,
			WithFeishuCredentials(cfg.Feishu.AppID, cfg.Feishu.AppSecret),
			WithBaseURL(cfg.Feishu.BaseURL),
			WithRateLimit(cfg.Feishu.RateLimit),
			WithWorkers(cfg.Feishu.Workers),
		)
		return cfg.Feishu.RootToken, opts, nil
	}

	opts = append(opts, WithVersioning(cfg.Storage.Versioning))
	return cfg.Storage.Path, opts, nil
}
