package app

import (
	"context"
	"time"

	"github.com/uber-go/tally"
	"github.com/uber/analysis-sync/src/anasync/gateway"
	"github.com/uber/analysis-sync/src/anasync/handler"
	"github.com/uber/analysis-sync/src/anasync/internal/core"
	"github.com/uber/analysis-sync/src/anasync/internal/fs"
	"github.com/uber/analysis-sync/src/anasync/internal/jsonrpcfx"
	"go.uber.org/fx"
)

// Module defines the analysis-sync application module.
var Module = fx.Options(
	gateway.Module, // outbounds
	handler.Module, // inbounds
	jsonrpcfx.Module,
	fs.Module,
	core.ConfigModule,
	core.LoggerModule,
	fx.Provide(func(lc fx.Lifecycle) tally.Scope {
		rs, closer := tally.NewRootScope(tally.ScopeOptions{
			Tags: map[string]string{
				"service": "analysis-sync",
			},
		}, 1*time.Second)

		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return closer.Close()
			},
		})

		return rs
	}),
	fx.Decorate(decorateEnvContext),
	fx.Decorate(decorateConfigProvider),
	fx.Provide(func() Context {
		return Context{
			Environment:        EnvLocal,
			RuntimeEnvironment: EnvLocal,
		}
	}),
)
