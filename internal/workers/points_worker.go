package workers

import (
	"context"
	"time"

	"studyhub_backend/internal/config"
	"studyhub_backend/internal/logger"
	"studyhub_backend/internal/repositories"
	"studyhub_backend/internal/services"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// PointsWorker гоняет периодические задачи леджера:
// списание просроченных баллов и ежемесячный сброс счетчиков использования.
type PointsWorker struct {
	db            *gorm.DB
	pointsService services.PointsService
	usageRepo     repositories.UsageRepository
	cron          *cron.Cron
}

func NewPointsWorker(db *gorm.DB, pointsService services.PointsService, usageRepo repositories.UsageRepository) *PointsWorker {
	return &PointsWorker{
		db:            db,
		pointsService: pointsService,
		usageRepo:     usageRepo,
		cron:          cron.New(),
	}
}

// Start регистрирует cron-задачи и запускает планировщик.
// Остановка - по отмене контекста.
func (w *PointsWorker) Start(ctx context.Context) error {
	cfg := config.GetConfig().Workers

	if _, err := w.cron.AddFunc(cfg.ExpirySweepSpec, w.runExpirySweep); err != nil {
		return err
	}
	if _, err := w.cron.AddFunc(cfg.UsageResetSpec, w.runUsageReset); err != nil {
		return err
	}

	w.cron.Start()
	logger.Info("Points worker started",
		"expiry_sweep_spec", cfg.ExpirySweepSpec,
		"usage_reset_spec", cfg.UsageResetSpec,
	)

	go func() {
		<-ctx.Done()
		stopCtx := w.cron.Stop()
		<-stopCtx.Done()
		logger.Info("Points worker stopped")
	}()

	return nil
}

// runExpirySweep переводит просроченные начисления в expired
func (w *PointsWorker) runExpirySweep() {
	swept, err := w.pointsService.SweepExpiredPoints(w.db, time.Now())
	logger.WorkerLog("points", "expiry_sweep", err)
	if err == nil && swept > 0 {
		logger.Info("Expired point credits swept", "count", swept)
	}
}

// runUsageReset обнуляет месячные счетчики всех пользователей
func (w *PointsWorker) runUsageReset() {
	affected, err := w.usageRepo.ResetAll(w.db)
	logger.WorkerLog("points", "usage_reset", err)
	if err == nil && affected > 0 {
		logger.Info("Monthly usage counters reset", "records", affected)
	}
}
