package jobs

import (
	"github.com/hibiken/asynq"

	"github.com/ecommerized/adperfumes-sub001/internal/infrastructure/config"
)

// Enqueuer pushes ledger follow-up tasks onto the queue. With jobs disabled
// in config every enqueue becomes a no-op, so callers never branch on it.
type Enqueuer struct {
	client  *asynq.Client
	enabled bool
	queue   string
	retries int
}

// NewEnqueuer creates an Enqueuer from the jobs and redis config sections
func NewEnqueuer(cfg *config.Config) *Enqueuer {
	if !cfg.Jobs.Enabled {
		return &Enqueuer{enabled: false, queue: cfg.Jobs.Queue}
	}
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return &Enqueuer{
		client:  client,
		enabled: true,
		queue:   cfg.Jobs.Queue,
		retries: cfg.Jobs.RetryCount,
	}
}

// Enabled reports whether tasks actually reach the queue
func (e *Enqueuer) Enabled() bool {
	return e != nil && e.enabled && e.client != nil
}

// Close closes the underlying queue client
func (e *Enqueuer) Close() error {
	if e == nil || e.client == nil {
		return nil
	}
	return e.client.Close()
}

func (e *Enqueuer) enqueue(task *asynq.Task, err error) error {
	if err != nil {
		return err
	}
	if !e.Enabled() {
		return nil
	}
	_, err = e.client.Enqueue(task, asynq.Queue(e.queue), asynq.MaxRetry(e.retries))
	return err
}

// EnqueueSettlementPaidNotice queues a merchant payout notification
func (e *Enqueuer) EnqueueSettlementPaidNotice(payload SettlementPaidNoticePayload) error {
	return e.enqueue(NewSettlementPaidNoticeTask(payload))
}

// EnqueueRefundProcessedNotice queues a refund reconciliation notification
func (e *Enqueuer) EnqueueRefundProcessedNotice(payload RefundProcessedNoticePayload) error {
	return e.enqueue(NewRefundProcessedNoticeTask(payload))
}

// EnqueueVatReturnFiledNotice queues a VAT filing notification
func (e *Enqueuer) EnqueueVatReturnFiledNotice(payload VatReturnFiledNoticePayload) error {
	return e.enqueue(NewVatReturnFiledNoticeTask(payload))
}

// EnqueueComplianceSweep queues a compliance sweep for one tenant
func (e *Enqueuer) EnqueueComplianceSweep(payload ComplianceSweepPayload) error {
	return e.enqueue(NewComplianceSweepTask(payload))
}
