package main

import (
	"github.com/uber/analysis-sync/src/anasync/app"
	"go.uber.org/fx"
)

const _version = "(set at build time)"

func opts() fx.Option {
	return fx.Options(
		app.Module,
	)
}

func main() {
	// New to Fx? Brush up at t.uber.com/fx and https://uber-go.github.io/fx/.
	fx.New(opts()).Run()
}
