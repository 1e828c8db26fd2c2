package feecollection

import (
	"github.com/schoolworks/feeledger/internal/feecollection/service"
	"go.uber.org/fx"
)

var Module = fx.Module("feecollection.service",
	fx.Provide(service.NewService),
)
