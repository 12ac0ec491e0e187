package platform

import (
	"context"
	"fmt"

	"github.com/wwwbq/FlashMemo/pkg/adapters/feishu"
	"github.com/wwwbq/FlashMemo/pkg/adapters/fs"
	"github.com/wwwbq/FlashMemo/pkg/core"
)

// Init builds and initializes the storage selected by opts.
// The uri argument is adapter-specific (a directory for "local", the root
// folder token for "feishu").
func Init(uri string, opts ...Option) (core.Storage, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if o.storage != nil {
		return o.storage, nil
	}

	var storage core.Storage
	var err error

	switch o.adapter {
	case AdapterLocal, AdapterFS, "":
		storage, err = initFS(uri, o)
	case AdapterFeishu:
		storage, err = initFeishu(uri, o)
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
	if err != nil {
		return nil, err
	}

	if in, ok := storage.(core.Initializer); ok {
		if err := in.Initialize(context.Background()); err != nil {
			return nil, err
		}
	}
	return storage, nil
}

func savePolicy(o *options) core.SuccessPolicy {
	p, _ := o.config["save_policy"].(core.SuccessPolicy)
	if p == "" {
		return core.PolicyAny
	}
	return p
}

// initFS handles the configuration of the local Markdown store.
func initFS(path string, o *options) (core.Storage, error) {
	versioning, _ := o.config["versioning"].(bool)
	tempDir, _ := o.config["temp_dir"].(bool)
	systemDir, _ := o.config["system_dir"].(string)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))

	devSafety := true
	if val, ok := o.config["dev_safety"].(bool); ok {
		devSafety = val
	}

	useTemp := tempDir || (IsDevRun() && devSafety)
	resolved, err := ResolvePath(path, useTemp)
	if err != nil {
		return nil, err
	}
	if useTemp && o.logger != nil && resolved != path {
		o.logger.Warn("running in SAFE MODE (dev sandbox)", "original_path", path, "resolved_path", resolved)
	}

	return fs.NewStore(fs.Config{
		Path:         resolved,
		Versioning:   versioning,
		SystemDir:    systemDir,
		Policy:       savePolicy(o),
		Logger:       o.logger,
		ErrorHandler: errorHandler,
	}), nil
}

// initFeishu handles the configuration of the remote block store.
func initFeishu(rootToken string, o *options) (core.Storage, error) {
	appID, _ := o.config["app_id"].(string)
	appSecret, _ := o.config["app_secret"].(string)
	baseURL, _ := o.config["base_url"].(string)
	rateLimit, _ := o.config["rate_limit"].(float64)
	workers, _ := o.config["workers"].(int)

	return feishu.New(feishu.Config{
		AppID:     appID,
		AppSecret: appSecret,
		RootToken: rootToken,
		BaseURL:   baseURL,
		RateLimit: rateLimit,
		Workers:   workers,
		Policy:    savePolicy(o),
		Logger:    o.logger,
	})
}
