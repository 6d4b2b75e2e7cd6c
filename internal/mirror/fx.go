package mirror

import "go.uber.org/fx"

var Module = fx.Module("mirror",
	fx.Provide(NewProjector),
)
