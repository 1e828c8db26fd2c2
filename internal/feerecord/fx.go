package feerecord

import (
	"github.com/schoolworks/feeledger/internal/feerecord/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("feerecord",
	fx.Provide(repository.Provide),
)
