package handler

import (
	controller "github.com/uber/analysis-sync/src/anasync/controller"
	syncdaemon "github.com/uber/analysis-sync/src/anasync/controller/sync-daemon"
	handler "github.com/uber/analysis-sync/src/anasync/handler/sync-daemon"
	"go.uber.org/fx"
)

// Module provides the sync-daemon inbound into an Fx application.
var Module = fx.Options(
	controller.Module,
	fx.Provide(handler.New),
	fx.Invoke(func(m handler.Handler) {}),
	fx.Invoke(func(m syncdaemon.Controller) {}),
)
