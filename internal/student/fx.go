package student

import (
	"github.com/schoolworks/feeledger/internal/student/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("student",
	fx.Provide(repository.Provide),
)
