package controller

import (
	"github.com/uber/analysis-sync/src/anasync/controller/analysis"
	"github.com/uber/analysis-sync/src/anasync/controller/completion"
	"github.com/uber/analysis-sync/src/anasync/controller/diagnostics"
	docsync "github.com/uber/analysis-sync/src/anasync/controller/doc-sync"
	syncdaemon "github.com/uber/analysis-sync/src/anasync/controller/sync-daemon"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(syncdaemon.New),
	fx.Provide(docsync.New),
	fx.Provide(analysis.New),
	fx.Provide(completion.New),
	fx.Provide(diagnostics.New),
	// Diagnostics is a sink only, nothing else depends on it.
	fx.Invoke(func(diagnostics.Controller) {}),
)
