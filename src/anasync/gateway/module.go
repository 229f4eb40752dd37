package gateway

import (
	analyzerclient "github.com/uber/analysis-sync/src/anasync/gateway/analyzer-client"
	ideclient "github.com/uber/analysis-sync/src/anasync/gateway/ide-client"
	"go.uber.org/fx"
)

// Module provides the outbound gateways.
var Module = fx.Options(
	fx.Provide(analyzerclient.New),
	fx.Provide(ideclient.New),
)
