package worker

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/schoolworks/feeledger/internal/config"
	defaulterdomain "github.com/schoolworks/feeledger/internal/defaulter/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
	Cfg config.Config
	Svc defaulterdomain.Service
}

// Worker periodically rebuilds the defaulter index for every school that
// has ledgers.
type Worker struct {
	db       *gorm.DB
	log      *zap.Logger
	svc      defaulterdomain.Service
	interval time.Duration
	grace    int
}

func NewWorker(p Params) *Worker {
	interval := p.Cfg.DefaulterSyncInterval
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &Worker{
		db:       p.DB,
		log:      p.Log.Named("defaulter.worker"),
		svc:      p.Svc,
		interval: interval,
		grace:    p.Cfg.DefaulterGraceDays,
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("defaulter sync run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) RunOnce(ctx context.Context) error {
	if w.db == nil || w.svc == nil {
		return errors.New("defaulter_worker_unavailable")
	}

	schoolIDs, err := w.listSchoolsWithLedgers(ctx)
	if err != nil {
		return err
	}
	for _, schoolID := range schoolIDs {
		if _, err := w.svc.SyncDefaultersForSchool(ctx, schoolID, w.grace); err != nil {
			w.log.Warn("defaulter sync failed for school",
				zap.String("school_id", schoolID.String()), zap.Error(err))
		}
	}
	return nil
}

func (w *Worker) listSchoolsWithLedgers(ctx context.Context) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := w.db.WithContext(ctx).Raw(
		`SELECT DISTINCT school_id FROM student_fee_records`,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
