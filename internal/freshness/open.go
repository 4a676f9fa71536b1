package freshness

import (
	"context"
	"fmt"

	"github.com/wonny/moat/internal/contracts"
	"github.com/wonny/moat/pkg/config"
	"github.com/wonny/moat/pkg/logger"
)

// OpenFromConfig opens the store selected by STORE_DRIVER and wraps it in a Cache
func OpenFromConfig(ctx context.Context, cfg config.StoreConfig, log *logger.Logger) (*Cache, error) {
	var (
		store Store
		err   error
	)

	switch cfg.Driver {
	case "postgres":
		store, err = OpenPostgres(ctx, cfg)
	case "sqlite", "":
		store, err = OpenSQLite(ctx, cfg.Path)
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", contracts.ErrStorageFatal, cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s store: %v", contracts.ErrStorageFatal, cfg.Driver, err)
	}

	return Open(ctx, store, log)
}
