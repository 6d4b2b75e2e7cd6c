package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/listora/listora/internal/boost"
	"github.com/listora/listora/internal/business"
	"github.com/listora/listora/internal/clock"
	"github.com/listora/listora/internal/config"
	"github.com/listora/listora/internal/migration"
	"github.com/listora/listora/internal/mirror"
	"github.com/listora/listora/internal/observability"
	"github.com/listora/listora/internal/server"
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

		boost.Module,
		business.Module,
		subscription.Module,
		mirror.Module,
		sweeper.Module,

		server.Module,
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
