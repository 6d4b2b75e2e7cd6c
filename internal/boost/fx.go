package boost

import (
	"github.com/listora/listora/internal/boost/repository"
	"github.com/listora/listora/internal/boost/service"
	"go.uber.org/fx"
)

var Module = fx.Module("boost",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
