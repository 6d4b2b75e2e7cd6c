package sweeper

import (
	"context"

	"github.com/listora/listora/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("sweeper",
	fx.Provide(ProvideConfig),
	fx.Provide(New),
	fx.Invoke(StartSweeper),
)

func StartSweeper(lc fx.Lifecycle, cfg config.Config, sweep *Sweeper) {
	if !cfg.SweepEnabled {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go sweep.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
