package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/Cyrix126/doli-client-api-go/internal/config"
	"github.com/Cyrix126/doli-client-api-go/internal/logger"
	"github.com/Cyrix126/doli-client-api-go/internal/secrets"
	"github.com/Cyrix126/doli-client-api-go/pkg/dolibarr"
)

// NewClient resolves the API token reference from cfg and builds a Dolibarr
// client. A token that cannot be resolved is reported as dolibarr.ErrInvalidToken.
func NewClient(ctx context.Context, cfg *config.Config, resolver secrets.Resolver, log *logger.ZapLogger) (*dolibarr.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if resolver == nil {
		resolver = secrets.NewResolver(cfg.PassBinary, cfg.PasswordStoreDir)
	}

	token, err := resolver.Resolve(ctx, cfg.APIToken)
	if err != nil {
		return nil, errors.Join(dolibarr.ErrInvalidToken, fmt.Errorf("resolve api token: %w", err))
	}

	opts := []dolibarr.Option{
		dolibarr.WithTimeout(cfg.HTTPTimeout),
		dolibarr.WithDebug(cfg.HTTPDebug),
	}
	if log != nil {
		opts = append(opts,
			dolibarr.WithLogger(log),
			dolibarr.WithRestyLogger(log.Sugar()),
		)
	}

	client, err := dolibarr.New(cfg.APIURL, token, opts...)
	if err != nil {
		return nil, fmt.Errorf("init dolibarr client: %w", err)
	}
	return client, nil
}
