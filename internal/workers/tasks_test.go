// internal/workers/tasks_test.go
package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
	"github.com/ammerola/pharmabook-be/internal/workers"
	"github.com/ammerola/pharmabook-be/test/helpers"
)

type recordingEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (r *recordingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Type: task.Type()}, nil
}

func TestTaskClient_EnqueueBillReceipt(t *testing.T) {
	rec := &recordingEnqueuer{}
	client := workers.NewTaskClientWith(rec, 3, helpers.TestLogger())

	bill := &domain.Bill{ID: uuid.New(), OwnerID: uuid.New()}
	require.NoError(t, client.EnqueueBillReceipt(context.Background(), bill))

	require.Len(t, rec.tasks, 1)
	assert.Equal(t, workers.TypeBillReceipt, rec.tasks[0].Type())

	var payload workers.BillReceiptPayload
	require.NoError(t, json.Unmarshal(rec.tasks[0].Payload(), &payload))
	assert.Equal(t, bill.ID, payload.BillID)
	assert.Equal(t, bill.OwnerID, payload.OwnerID)
}

func TestTaskClient_EnqueueStockImport(t *testing.T) {
	rec := &recordingEnqueuer{}
	client := workers.NewTaskClientWith(rec, 3, helpers.TestLogger())
	owner := uuid.New()

	id, err := client.EnqueueStockImport(context.Background(), owner, "imports/x.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "task-1", id)

	var payload workers.StockImportPayload
	require.NoError(t, json.Unmarshal(rec.tasks[0].Payload(), &payload))
	assert.Equal(t, owner, payload.OwnerID)
	assert.Equal(t, "imports/x.xlsx", payload.FileKey)
	assert.NotEmpty(t, payload.JobID)
}

func TestTaskClient_EnqueueError(t *testing.T) {
	rec := &recordingEnqueuer{err: errors.New("redis unavailable")}
	client := workers.NewTaskClientWith(rec, 3, helpers.TestLogger())

	err := client.EnqueueBillReceipt(context.Background(), &domain.Bill{ID: uuid.New()})
	assert.ErrorContains(t, err, "redis unavailable")
}

func TestReceiptKey(t *testing.T) {
	owner := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	bill := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	assert.Equal(t,
		"receipts/11111111-1111-1111-1111-111111111111/22222222-2222-2222-2222-222222222222.xlsx",
		workers.ReceiptKey(owner, bill))
}
