package subscription

import (
	"github.com/listora/listora/internal/subscription/repository"
	"github.com/listora/listora/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
