// internal/workers/stock_import_processor.go
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
	"github.com/ammerola/pharmabook-be/internal/core/ports"
)

// ImportResult is stored as the asynq task result.
type ImportResult struct {
	JobID          string     `json:"job_id"`
	RowsImported   int        `json:"rows_imported"`
	RowsFailed     int        `json:"rows_failed"`
	Errors         []RowError `json:"errors,omitempty"`
	ProcessingTime string     `json:"processing_time"`
}

// StockImportProcessor feeds every row of an uploaded sheet through AddStock.
type StockImportProcessor struct {
	catalog ports.CatalogService
	storage ports.FileStorage
	logger  *slog.Logger
}

func NewStockImportProcessor(catalog ports.CatalogService, storage ports.FileStorage, logger *slog.Logger) *StockImportProcessor {
	return &StockImportProcessor{
		catalog: catalog,
		storage: storage,
		logger:  logger.With(slog.String("processor", "stock_import")),
	}
}

// ProcessStockImport handles TypeStockImport. Bad rows are reported in the
// task result and do not fail the task; store errors do, so asynq retries.
func (p *StockImportProcessor) ProcessStockImport(ctx context.Context, t *asynq.Task) error {
	start := time.Now()

	var payload StockImportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	p.logger.InfoContext(ctx, "processing stock import",
		slog.String("job_id", payload.JobID),
		slog.String("file_key", payload.FileKey))

	data, err := p.storage.Download(ctx, payload.FileKey)
	if err != nil {
		return fmt.Errorf("failed to download sheet: %w", err)
	}

	rows, rowErrs, err := ParseStockSheet(data)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	result := ImportResult{JobID: payload.JobID, Errors: rowErrs}
	for _, row := range rows {
		if _, err := p.catalog.AddStock(ctx, payload.OwnerID, row.Intake); err != nil {
			if errors.Is(err, domain.ErrStoreUnavailable) {
				return fmt.Errorf("line %d: %w", row.Line, err)
			}
			result.Errors = append(result.Errors, RowError{Line: row.Line, Message: err.Error()})
			continue
		}
		result.RowsImported++
	}
	result.RowsFailed = len(result.Errors)
	result.ProcessingTime = time.Since(start).String()

	if rw := t.ResultWriter(); rw != nil {
		if b, err := json.Marshal(result); err == nil {
			if _, err := rw.Write(b); err != nil {
				p.logger.WarnContext(ctx, "failed to write task result", slog.String("error", err.Error()))
			}
		}
	}

	if err := p.storage.Delete(ctx, payload.FileKey); err != nil {
		p.logger.WarnContext(ctx, "failed to delete import sheet",
			slog.String("file_key", payload.FileKey),
			slog.String("error", err.Error()))
	}

	p.logger.InfoContext(ctx, "stock import completed",
		slog.String("job_id", payload.JobID),
		slog.Int("rows_imported", result.RowsImported),
		slog.Int("rows_failed", result.RowsFailed))
	return nil
}
