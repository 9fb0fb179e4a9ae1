package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/ecommerized/adperfumes-sub001/internal/infrastructure/config"
)

// ObligationSweeper marks filing obligations overdue for one tenant
type ObligationSweeper interface {
	SweepOverdueEvents(ctx context.Context, tenantID uuid.UUID, now time.Time) (int, error)
}

// TenantSource lists the tenants the nightly sweep must visit
type TenantSource interface {
	TenantsWithOpenObligations(ctx context.Context) ([]uuid.UUID, error)
}

// Consumer handles queued ledger tasks. Notification tasks emit structured
// dispatch records; the outbound mail and webhook channels consume those
// outside this module.
type Consumer struct {
	sweeper ObligationSweeper
	tenants TenantSource
	logger  *zap.Logger
}

// NewConsumer creates a Consumer
func NewConsumer(sweeper ObligationSweeper, tenants TenantSource, logger *zap.Logger) *Consumer {
	return &Consumer{
		sweeper: sweeper,
		tenants: tenants,
		logger:  logger,
	}
}

// Register wires the consumer's handlers onto the mux
func (c *Consumer) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskSettlementPaidNotice, c.handleSettlementPaidNotice)
	mux.HandleFunc(TaskRefundProcessedNotice, c.handleRefundProcessedNotice)
	mux.HandleFunc(TaskVatReturnFiledNotice, c.handleVatReturnFiledNotice)
	mux.HandleFunc(TaskComplianceSweep, c.handleComplianceSweep)
}

func (c *Consumer) handleSettlementPaidNotice(_ context.Context, task *asynq.Task) error {
	var payload SettlementPaidNoticePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}
	c.logger.Info("dispatching settlement paid notice",
		zap.String("tenant_id", payload.TenantID.String()),
		zap.String("settlement_number", payload.SettlementNumber),
		zap.String("merchant_id", payload.MerchantID.String()),
		zap.String("net_payout", payload.NetPayout.StringFixed(2)),
		zap.String("transaction_reference", payload.TransactionReference),
	)
	return nil
}

func (c *Consumer) handleRefundProcessedNotice(_ context.Context, task *asynq.Task) error {
	var payload RefundProcessedNoticePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}
	c.logger.Info("dispatching refund processed notice",
		zap.String("tenant_id", payload.TenantID.String()),
		zap.String("refund_number", payload.RefundNumber),
		zap.String("merchant_id", payload.MerchantID.String()),
		zap.String("refund_total", payload.RefundTotal.StringFixed(2)),
		zap.Bool("is_post_settlement", payload.IsPostSettlement),
	)
	return nil
}

func (c *Consumer) handleVatReturnFiledNotice(_ context.Context, task *asynq.Task) error {
	var payload VatReturnFiledNoticePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}
	c.logger.Info("dispatching vat return filed notice",
		zap.String("tenant_id", payload.TenantID.String()),
		zap.String("return_number", payload.ReturnNumber),
		zap.String("net_vat_payable", payload.NetVatPayable.StringFixed(2)),
	)
	return nil
}

// handleComplianceSweep marks overdue obligations. Returning the error lets
// asynq retry a failed tenant sweep with backoff.
func (c *Consumer) handleComplianceSweep(ctx context.Context, task *asynq.Task) error {
	var payload ComplianceSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	tenantIDs := []uuid.UUID{payload.TenantID}
	if payload.TenantID == uuid.Nil {
		var err error
		tenantIDs, err = c.tenants.TenantsWithOpenObligations(ctx)
		if err != nil {
			return err
		}
	}

	now := time.Now()
	for _, tenantID := range tenantIDs {
		marked, err := c.sweeper.SweepOverdueEvents(ctx, tenantID, now)
		if err != nil {
			c.logger.Error("compliance sweep failed",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			return err
		}
		if marked > 0 {
			c.logger.Info("compliance sweep marked overdue obligations",
				zap.String("tenant_id", tenantID.String()),
				zap.Int("marked", marked),
			)
		}
	}
	return nil
}

// Service runs the queue server and the cron scheduler that feeds it
type Service struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	logger    *zap.Logger
}

// NewService builds the worker from config. Returns nil when jobs are
// disabled; the caller simply skips starting it.
func NewService(cfg *config.Config, consumer *Consumer, logger *zap.Logger) (*Service, error) {
	if !cfg.Jobs.Enabled {
		return nil, nil
	}

	opt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: cfg.Jobs.Concurrency,
		Queues:      map[string]int{cfg.Jobs.Queue: 1},
	})

	mux := asynq.NewServeMux()
	consumer.Register(mux)

	scheduler := asynq.NewScheduler(opt, nil)
	sweepTask, err := NewComplianceSweepTask(ComplianceSweepPayload{TenantID: uuid.Nil})
	if err != nil {
		return nil, err
	}
	if _, err := scheduler.Register(cfg.Jobs.ScheduleSpec, sweepTask,
		asynq.Queue(cfg.Jobs.Queue), asynq.MaxRetry(cfg.Jobs.RetryCount)); err != nil {
		return nil, err
	}

	return &Service{
		server:    server,
		scheduler: scheduler,
		mux:       mux,
		logger:    logger,
	}, nil
}

// Start runs the scheduler and blocks serving the queue
func (s *Service) Start() error {
	if err := s.scheduler.Start(); err != nil {
		return err
	}
	s.logger.Info("ledger job worker started")
	return s.server.Run(s.mux)
}

// Stop drains in-flight tasks and stops the scheduler
func (s *Service) Stop() {
	s.scheduler.Shutdown()
	s.server.Shutdown()
	s.logger.Info("ledger job worker stopped")
}
