package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/uber-go/tally"
	"github.com/uber/analysis-sync/src/anasync/gateway"
	"github.com/uber/analysis-sync/src/anasync/internal/jsonrpcfx"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestModule(t *testing.T) {
	cfg := func() (config.Provider, error) {
		return config.NewStaticProvider(map[string]interface{}{
			"idleTimeoutMinutes": 60,
			"jsonrpc":            map[string]interface{}{"address": "127.0.0.1:0"},
			"analyzer":           map[string]interface{}{"address": "127.0.0.1:0"},
			"docsync":            map[string]interface{}{"maxFileSizeBytes": 1024},
			"analysis":           map[string]interface{}{"maxRestarts": 5},
			"completion": map[string]interface{}{
				"ordering":  "underscoresLast",
				"matchMode": "prefix",
			},
		})
	}

	assert.NoError(t, fx.ValidateApp(
		Module,
		gateway.Module,
		jsonrpcfx.Module,
		fx.Provide(cfg),
		fx.Provide(zap.NewNop),
		fx.Provide(func(l *zap.Logger) *zap.SugaredLogger { return l.Sugar() }),
		fx.Provide(func() tally.Scope { return tally.NoopScope }),
	))
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
