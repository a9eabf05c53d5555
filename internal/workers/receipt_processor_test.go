// internal/workers/receipt_processor_test.go
package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
	"github.com/ammerola/pharmabook-be/internal/workers"
	"github.com/ammerola/pharmabook-be/test/helpers"
	"github.com/ammerola/pharmabook-be/test/mocks"
)

func receiptTask(t *testing.T, owner, bill uuid.UUID) *asynq.Task {
	t.Helper()
	b, err := json.Marshal(workers.BillReceiptPayload{BillID: bill, OwnerID: owner})
	require.NoError(t, err)
	return asynq.NewTask(workers.TypeBillReceipt, b)
}

func TestReceiptProcessor_ProcessBillReceipt(t *testing.T) {
	owner, billID := uuid.New(), uuid.New()
	key := workers.ReceiptKey(owner, billID)
	bill := &domain.Bill{ID: billID, OwnerID: owner, CustomerName: "Jane", TotalAmount: decimal.NewFromInt(10)}

	tests := []struct {
		name       string
		setupMocks func(*mocks.MockBillRepository, *mocks.MockFileStorage)
		skipRetry  bool
		wantErr    bool
	}{
		{
			name: "renders_and_uploads",
			setupMocks: func(bills *mocks.MockBillRepository, store *mocks.MockFileStorage) {
				store.EXPECT().Exists(gomock.Any(), key).Return(false, nil)
				bills.EXPECT().FindBill(gomock.Any(), owner, billID).Return(bill, nil)
				store.EXPECT().
					Upload(gomock.Any(), key, gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, _ string, r io.Reader, ct string) (string, error) {
						data, err := io.ReadAll(r)
						require.NoError(t, err)
						assert.NotEmpty(t, data)
						assert.Contains(t, ct, "spreadsheetml")
						return "s3://bucket/" + key, nil
					})
			},
		},
		{
			name: "existing_receipt_is_left_alone",
			setupMocks: func(bills *mocks.MockBillRepository, store *mocks.MockFileStorage) {
				store.EXPECT().Exists(gomock.Any(), key).Return(true, nil)
			},
		},
		{
			name: "missing_bill_is_not_retried",
			setupMocks: func(bills *mocks.MockBillRepository, store *mocks.MockFileStorage) {
				store.EXPECT().Exists(gomock.Any(), key).Return(false, nil)
				bills.EXPECT().FindBill(gomock.Any(), owner, billID).Return(nil, domain.BillNotFound(billID))
			},
			wantErr:   true,
			skipRetry: true,
		},
		{
			name: "upload_failure_is_retried",
			setupMocks: func(bills *mocks.MockBillRepository, store *mocks.MockFileStorage) {
				store.EXPECT().Exists(gomock.Any(), key).Return(false, nil)
				bills.EXPECT().FindBill(gomock.Any(), owner, billID).Return(bill, nil)
				store.EXPECT().Upload(gomock.Any(), key, gomock.Any(), gomock.Any()).Return("", errors.New("s3 down"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			bills := mocks.NewMockBillRepository(ctrl)
			store := mocks.NewMockFileStorage(ctrl)
			tt.setupMocks(bills, store)

			p := workers.NewReceiptProcessor(bills, store, helpers.TestLogger())
			err := p.ProcessBillReceipt(context.Background(), receiptTask(t, owner, billID))

			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.skipRetry, errors.Is(err, asynq.SkipRetry))
		})
	}
}

func TestReceiptProcessor_BadPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := workers.NewReceiptProcessor(mocks.NewMockBillRepository(ctrl), mocks.NewMockFileStorage(ctrl), helpers.TestLogger())

	err := p.ProcessBillReceipt(context.Background(), asynq.NewTask(workers.TypeBillReceipt, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
