package feestructure

import (
	"github.com/schoolworks/feeledger/internal/feestructure/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("feestructure",
	fx.Provide(repository.Provide),
)
