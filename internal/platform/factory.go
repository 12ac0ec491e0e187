package platform

import (
	"github.com/wwwbq/FlashMemo/pkg/core"
)

// New builds the capture service on top of the storage selected by opts.
//
//	svc, err := flashmemo.New("~/notes", flashmemo.WithVersioning(true))
//
// The uri is adapter-specific: a directory for "local", the root folder
// token for "feishu".
func New(uri string, opts ...Option) (*core.Service, error) {
	storage, err := Init(uri, opts...)
	if err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return core.NewService(storage, o.logger), nil
}
