package app

import (
	"context"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"chat-relay/handler"
	"chat-relay/internal/config"
	"chat-relay/internal/integrations/generator"
	"chat-relay/internal/integrations/paramstore"
	"chat-relay/internal/usecase"
)

// NewHandler wires the generator client, relay and handler from cfg. AWS
// configuration is only loaded when the endpoint comes from Parameter Store.
func NewHandler(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*handler.Handler, error) {
	profile, err := generator.ProfileByName(cfg.GeneratorProfile)
	if err != nil {
		return nil, err
	}

	opts := []generator.Option{generator.WithTimeout(cfg.GeneratorTimeout)}
	if cfg.GeneratorURLParam != "" {
		getter, err := newParamGetter(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, generator.WithEndpointParameter(getter, cfg.GeneratorURLParam))
	}

	genClient, err := generator.NewClient(cfg.GeneratorURL, profile, opts...)
	if err != nil {
		return nil, fmt.Errorf("app: create generator client: %w", err)
	}

	relay, err := usecase.NewRelayService(genClient, cfg.ModelID, usecase.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("app: create relay service: %w", err)
	}

	style, err := handler.StyleFor(cfg.GeneratorProfile, cfg.CORSAllowOrigin)
	if err != nil {
		return nil, err
	}

	logger.Info("handler configured",
		"profile", profile.Name(),
		"model_id", cfg.ModelID,
		"endpoint_param", cfg.GeneratorURLParam,
		"timeout", cfg.GeneratorTimeout.String(),
	)
	return handler.NewHandler(relay, style, handler.WithLogger(logger))
}

var newParamGetter = func(ctx context.Context) (generator.Getter, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("app: load AWS config: %w", err)
	}
	getter, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		return nil, fmt.Errorf("app: create SSM client: %w", err)
	}
	return getter, nil
}
