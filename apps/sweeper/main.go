package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/listora/listora/internal/boost"
	"github.com/listora/listora/internal/business"
	"github.com/listora/listora/internal/clock"
	"github.com/listora/listora/internal/config"
	"github.com/listora/listora/internal/migration"
	"github.com/listora/listora/internal/mirror"
	"github.com/listora/listora/internal/observability"
	"github.com/listora/listora/internal/subscription"
	"github.com/listora/listora/internal/sweeper"
	"github.com/listora/listora/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Domain services required by the sweep
		boost.Module,
		business.Module,
		subscription.Module,
		mirror.Module,

		fx.Provide(sweeper.ProvideConfig),
		fx.Provide(sweeper.New),

		// No server module!
		fx.Invoke(StartSweeper),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

func StartSweeper(lc fx.Lifecycle, s *sweeper.Sweeper) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go s.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
