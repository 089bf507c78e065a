package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/01moynul/sweetshop-golang/internal/catalog"
	"github.com/01moynul/sweetshop-golang/internal/metrics"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StockReporter periodically refreshes the stock gauges and logs sweets
// that are running low.
type StockReporter struct {
	catalog   *catalog.Service
	metrics   *metrics.Registry
	logger    *zap.Logger
	threshold int
	cron      *cron.Cron
	first     sync.WaitGroup
}

func NewStockReporter(c *catalog.Service, m *metrics.Registry, logger *zap.Logger, threshold int) *StockReporter {
	return &StockReporter{
		catalog:   c,
		metrics:   m,
		logger:    logger,
		threshold: threshold,
		cron:      cron.New(),
	}
}

// Start schedules the report (e.g. "@every 1h") and runs it once right away.
func (r *StockReporter) Start(schedule string) error {
	if _, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		r.Run(ctx)
	}); err != nil {
		return err
	}
	r.cron.Start()
	r.logger.Info("stock report scheduled", zap.String("schedule", schedule))

	r.first.Add(1)
	go func() {
		defer r.first.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		r.Run(ctx)
	}()
	return nil
}

// Stop waits for running reports, including the initial one, to finish or
// for ctx to expire.
func (r *StockReporter) Stop(ctx context.Context) {
	cronDone := r.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		r.first.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Run produces one report.
func (r *StockReporter) Run(ctx context.Context) {
	stats, err := r.catalog.Stats(ctx, r.threshold)
	if err != nil {
		r.logger.Error("stock report failed", zap.Error(err))
		return
	}

	r.metrics.StockItems.Set(float64(stats.Items))
	r.metrics.StockUnits.Set(float64(stats.Units))
	r.metrics.LowStockItems.Set(float64(len(stats.LowStock)))

	for _, sweet := range stats.LowStock {
		r.logger.Warn("low stock",
			zap.String("sweet_id", sweet.ID),
			zap.String("name", sweet.Name),
			zap.Int("quantity", sweet.Quantity),
			zap.Int("threshold", r.threshold),
		)
	}
	r.logger.Info("stock report",
		zap.Int("items", stats.Items),
		zap.Int("units", stats.Units),
		zap.Int("low_stock", len(stats.LowStock)),
	)
}
