package platform

import (
	"log/slog"

	"github.com/wwwbq/FlashMemo/pkg/core"
)

// Adapter names accepted by WithAdapter.
const (
	AdapterLocal  = "local"
	AdapterFS     = "fs" // alias of AdapterLocal
	AdapterFeishu = "feishu"
)

// options holds the internal configuration for the FlashMemo service.
type options struct {
	storage core.Storage
	logger  *slog.Logger
	adapter string
	config  map[string]any
}

// Option defines a functional option for configuring FlashMemo.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter: AdapterLocal,
		config:  make(map[string]any),
	}
}

// WithLogger sets the logger for the service and its storage.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStorage injects a ready storage (e.g. a mock). The adapter options
// are then ignored.
func WithStorage(s core.Storage) Option {
	return func(o *options) {
		o.storage = s
	}
}

// WithAdapter selects the storage backend by name ("local" or "feishu").
// Defaults to "local".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithSavePolicy decides whether a multi-tag save needs any or all tags to
// succeed. Defaults to core.PolicyAny.
func WithSavePolicy(p core.SuccessPolicy) Option {
	return func(o *options) {
		o.config["save_policy"] = p
	}
}

// WithVersioning commits every local change to git. Off by default.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.config["versioning"] = enabled
	}
}

// WithSystemDir names the hidden directory of the local store.
// Defaults to ".flashmemo".
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.config["system_dir"] = name
	}
}

// WithWatcherErrorHandler receives errors from the local Watch loop.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}

// WithForceTemp re-roots the local store into a temporary directory.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.config["temp_dir"] = force
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or
// `go test`: by default the local store is moved into a temporary
// directory. Passing false operates on the real path.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.config["dev_safety"] = enabled
	}
}

// WithFeishuCredentials sets the app credentials for the feishu adapter.
func WithFeishuCredentials(appID, appSecret string) Option {
	return func(o *options) {
		o.config["app_id"] = appID
		o.config["app_secret"] = appSecret
	}
}

// WithBaseURL points the feishu adapter at another API root.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.config["base_url"] = url
	}
}

// WithRateLimit caps feishu requests per second.
func WithRateLimit(rps float64) Option {
	return func(o *options) {
		o.config["rate_limit"] = rps
	}
}

// WithWorkers sets the number of concurrent document fetches in a feishu Load.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.config["workers"] = n
	}
}
