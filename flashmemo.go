package flashmemo

import (
	"log/slog"

	"github.com/wwwbq/FlashMemo/internal/config"
	"github.com/wwwbq/FlashMemo/internal/platform"
	"github.com/wwwbq/FlashMemo/pkg/core"
)

// --- Types ---

// Note is a public alias for the domain note.
type Note = core.Note

// Service is a public alias for the capture service.
type Service = core.Service

// Storage is a public alias for the storage contract.
type Storage = core.Storage

// SaveResult is a public alias for the outcome of Save and Update.
type SaveResult = core.SaveResult

// --- Configuration ---

// Option defines a functional option for configuring FlashMemo.
type Option = platform.Option

// WithLogger sets the logger for the service and its storage.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStorage injects a custom storage.
func WithStorage(s core.Storage) Option {
	return platform.WithStorage(s)
}

// WithAdapter selects the storage backend by name ("local" or "feishu").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithSavePolicy decides whether a multi-tag save needs any or all tags.
func WithSavePolicy(p core.SuccessPolicy) Option {
	return platform.WithSavePolicy(p)
}

// WithVersioning commits every local change to git.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithSystemDir names the hidden directory of the local store.
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithForceTemp re-roots the local store into a temporary directory.
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the sandbox used under `go run` and `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithWatcherErrorHandler receives errors from the local Watch loop.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithFeishuCredentials sets the app credentials for the feishu adapter.
func WithFeishuCredentials(appID, appSecret string) Option {
	return platform.WithFeishuCredentials(appID, appSecret)
}

// WithBaseURL points the feishu adapter at another API root.
func WithBaseURL(url string) Option {
	return platform.WithBaseURL(url)
}

// WithRateLimit caps feishu requests per second.
func WithRateLimit(rps float64) Option {
	return platform.WithRateLimit(rps)
}

// WithWorkers sets the number of concurrent document fetches.
func WithWorkers(n int) Option {
	return platform.WithWorkers(n)
}

// --- Factory ---

// New creates a FlashMemo service. The uri is a directory for the local
// adapter and the root folder token for feishu.
func New(uri string, opts ...Option) (*core.Service, error) {
	return platform.New(uri, opts...)
}

// Init builds and initializes a storage explicitly.
func Init(uri string, opts ...Option) (core.Storage, error) {
	return platform.Init(uri, opts...)
}

// Open creates a service from a configuration file. An empty path searches
// the default locations; see the config package for the keys.
func Open(configPath string, logger *slog.Logger) (*core.Service, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	uri, opts, err := platform.FromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	return platform.New(uri, opts...)
}

// --- Safety & Utils ---

// ResolvePath expands "~" and applies the development sandbox rules.
func ResolvePath(userPath string, forceTemp bool) (string, error) {
	return platform.ResolvePath(userPath, forceTemp)
}

// IsDevRun reports whether the process runs via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}
