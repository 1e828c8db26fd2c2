package defaulter

import (
	"context"

	"github.com/schoolworks/feeledger/internal/defaulter/service"
	"github.com/schoolworks/feeledger/internal/defaulter/worker"
	"go.uber.org/fx"
)

var Module = fx.Module("defaulter",
	fx.Provide(service.NewService),
	fx.Provide(worker.NewWorker),
	fx.Invoke(runWorker),
)

func runWorker(lc fx.Lifecycle, w *worker.Worker) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go w.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
