package business

import (
	"github.com/listora/listora/internal/business/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("business",
	fx.Provide(repository.Provide),
)
