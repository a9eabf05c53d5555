// internal/workers/tasks.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
	"github.com/ammerola/pharmabook-be/internal/core/ports"
)

const (
	TypeBillReceipt      = "bill:receipt"
	TypeStockImport      = "stock:import"
	TypeCleanupTempFiles = "cleanup:temp_files"
)

// BillReceiptPayload asks for the receipt of one committed bill.
type BillReceiptPayload struct {
	BillID  uuid.UUID `json:"bill_id"`
	OwnerID uuid.UUID `json:"owner_id"`
}

// StockImportPayload points at an uploaded xlsx sheet.
type StockImportPayload struct {
	JobID   string    `json:"job_id"`
	OwnerID uuid.UUID `json:"owner_id"`
	FileKey string    `json:"file_key"`
}

// ReceiptKey is where the receipt of a bill is stored.
func ReceiptKey(ownerID, billID uuid.UUID) string {
	return fmt.Sprintf("receipts/%s/%s.xlsx", ownerID, billID)
}

// enqueuer is the part of *asynq.Client the TaskClient uses.
type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskClient schedules background work on asynq.
type TaskClient struct {
	client   enqueuer
	retryMax int
	logger   *slog.Logger
}

var _ ports.TaskEnqueuer = (*TaskClient)(nil)

func NewTaskClient(client *asynq.Client, retryMax int, logger *slog.Logger) *TaskClient {
	return newTaskClient(client, retryMax, logger)
}

func newTaskClient(client enqueuer, retryMax int, logger *slog.Logger) *TaskClient {
	return &TaskClient{
		client:   client,
		retryMax: retryMax,
		logger:   logger.With(slog.String("component", "task_client")),
	}
}

func (c *TaskClient) EnqueueBillReceipt(ctx context.Context, bill *domain.Bill) error {
	b, err := json.Marshal(BillReceiptPayload{BillID: bill.ID, OwnerID: bill.OwnerID})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	// TaskID makes a duplicate enqueue for the same bill a no-op.
	info, err := c.client.EnqueueContext(ctx, asynq.NewTask(TypeBillReceipt, b),
		asynq.TaskID("receipt:"+bill.ID.String()),
		asynq.Queue("low"),
		asynq.MaxRetry(c.retryMax),
		asynq.Retention(24*time.Hour))
	if err != nil {
		return fmt.Errorf("failed to enqueue receipt: %w", err)
	}

	c.logger.DebugContext(ctx, "receipt enqueued",
		slog.String("task_id", info.ID),
		slog.String("bill_id", bill.ID.String()))
	return nil
}

func (c *TaskClient) EnqueueStockImport(ctx context.Context, ownerID uuid.UUID, fileKey string) (string, error) {
	payload := StockImportPayload{
		JobID:   uuid.NewString(),
		OwnerID: ownerID,
		FileKey: fileKey,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	info, err := c.client.EnqueueContext(ctx, asynq.NewTask(TypeStockImport, b),
		asynq.TaskID(payload.JobID),
		asynq.Queue("default"),
		asynq.MaxRetry(c.retryMax),
		asynq.Timeout(10*time.Minute),
		asynq.Retention(24*time.Hour))
	if err != nil {
		return "", fmt.Errorf("failed to enqueue stock import: %w", err)
	}

	c.logger.InfoContext(ctx, "stock import enqueued",
		slog.String("task_id", info.ID),
		slog.String("file_key", fileKey))
	return info.ID, nil
}
