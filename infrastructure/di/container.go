package di

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"cardpilot/application/assistant"
	"cardpilot/application/process"
	"cardpilot/application/search"
	"cardpilot/domain/cards"
	"cardpilot/infrastructure/config"
	"cardpilot/infrastructure/remote"
	"cardpilot/pkg/auth"
)

// Container holds every wired dependency of the API process.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Registry  *search.Registry
	Service   *search.Service
	Generator *assistant.Generator

	JWTValidator *auth.JWTValidator
	IPLimiter    *auth.IPRateLimiter
	UserLimiter  *auth.UserRateLimiter
}

// InitializeContainer wires the full dependency graph. Construction order
// matters only bottom-up; everything here is explicit so a missing
// dependency fails at compile time rather than at first request.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	secret := cfg.JWTSecret
	if secret == "" && !cfg.IsProduction() {
		secret = "dev-secret"
		logger.Warn("JWT_SECRET not set, using development secret")
	}

	validator, err := auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: secret,
		Issuer:    cfg.JWTIssuer,
		Audience:  splitAudience(cfg.JWTAudience),
	})
	if err != nil {
		return nil, fmt.Errorf("initialize JWT validator: %w", err)
	}

	client := remote.NewClient(cfg.AssistantBaseURL, cfg.AssistantTimeout, logger)

	cache := search.NewResultCache(cfg.CacheTTL)
	walker := process.NewWalker(cfg.MaxChainDepth)
	service := search.NewService(cache, walker, client, cfg.SearchLimit, logger)
	registry := search.NewRegistry(ctx, service, search.SessionConfig{
		DebounceWindow: cfg.DebounceWindow,
		Mode:           cards.ModeCurrent,
		Logger:         logger,
	})

	generator := assistant.NewGenerator(client, logger)

	return &Container{
		Config:       cfg,
		Logger:       logger,
		Registry:     registry,
		Service:      service,
		Generator:    generator,
		JWTValidator: validator,
		IPLimiter:    auth.NewIPRateLimiter(cfg.IPRequestsPerMinute),
		UserLimiter:  auth.NewUserRateLimiter(cfg.UserRequestsPerMinute),
	}, nil
}

// Shutdown releases resources owned by the container.
func (c *Container) Shutdown() {
	c.Registry.Close()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err == nil {
		zapCfg.Level = level
	}

	return zapCfg.Build()
}

func splitAudience(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
