// internal/handlers/medicines.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
	"github.com/ammerola/pharmabook-be/internal/core/ports"
	"github.com/ammerola/pharmabook-be/internal/workers"
)

// TaskInspector is the part of *asynq.Inspector used to report import progress.
type TaskInspector interface {
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
}

// MedicineHandler serves stock intake, medicine reads and sheet imports.
type MedicineHandler struct {
	catalog     ports.CatalogService
	storage     ports.FileStorage
	tasks       ports.TaskEnqueuer
	inspector   TaskInspector
	tempDir     string
	maxFileSize int64
	logger      *slog.Logger
}

func NewMedicineHandler(
	catalog ports.CatalogService,
	storage ports.FileStorage,
	tasks ports.TaskEnqueuer,
	inspector TaskInspector,
	tempDir string,
	maxFileSize int64,
	logger *slog.Logger,
) *MedicineHandler {
	return &MedicineHandler{
		catalog:     catalog,
		storage:     storage,
		tasks:       tasks,
		inspector:   inspector,
		tempDir:     tempDir,
		maxFileSize: maxFileSize,
		logger:      logger.With(slog.String("handler", "medicines")),
	}
}

// StockIntakeRequest is the POST /api/v1/medicines body: one batch for a
// (name, company) pair. Dates are YYYY-MM-DD or RFC 3339.
type StockIntakeRequest struct {
	Name            string          `json:"name" validate:"required,max=200"`
	Company         string          `json:"company" validate:"required,max=200"`
	BatchNumber     string          `json:"batchNumber" validate:"required,max=100"`
	Variant         string          `json:"variant" validate:"max=100"`
	ManufactureDate string          `json:"manufactureDate"`
	ExpiryDate      string          `json:"expiryDate"`
	Quantity        int             `json:"quantity" validate:"gte=0"`
	Price           decimal.Decimal `json:"price"`
	IsStripBased    bool            `json:"isStripBased"`
	TabletsPerStrip int             `json:"tabletsPerStrip" validate:"gte=0"`
}

func (req StockIntakeRequest) ToDomain() (domain.StockIntake, error) {
	mfg, err := parseTimeParam(req.ManufactureDate, false)
	if err != nil {
		return domain.StockIntake{}, domain.InvalidRequest("manufactureDate %q is not a date", req.ManufactureDate)
	}
	exp, err := parseTimeParam(req.ExpiryDate, false)
	if err != nil {
		return domain.StockIntake{}, domain.InvalidRequest("expiryDate %q is not a date", req.ExpiryDate)
	}

	return domain.StockIntake{
		Name:    req.Name,
		Company: req.Company,
		Batch: domain.Batch{
			BatchNumber:     req.BatchNumber,
			Variant:         req.Variant,
			ManufactureDate: mfg,
			ExpiryDate:      exp,
			Quantity:        req.Quantity,
			Price:           req.Price,
			IsStripBased:    req.IsStripBased,
			TabletsPerStrip: req.TabletsPerStrip,
		},
	}, nil
}

// AddStock handles POST /api/v1/medicines
func (h *MedicineHandler) AddStock(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req StockIntakeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	intake, err := req.ToDomain()
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	med, err := h.catalog.AddStock(r.Context(), owner, intake)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", "/api/v1/medicines/"+med.ID.String())
	respondJSON(w, h.logger, http.StatusCreated, med)
}

// GetMedicine handles GET /api/v1/medicines/{id}
func (h *MedicineHandler) GetMedicine(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	med, err := h.catalog.GetMedicine(r.Context(), owner, id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, med)
}

// ImportResponse acknowledges a queued sheet import.
type ImportResponse struct {
	TaskID  string `json:"taskId"`
	FileKey string `json:"fileKey"`
	Status  string `json:"status"`
}

// ImportStock handles POST /api/v1/medicines/import (multipart, field "file").
// The sheet is spooled to a temp file, pushed to storage and processed by the
// stock:import task.
func (h *MedicineHandler) ImportStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, err := ownerFrom(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, h.logger, domain.InvalidRequest("file exceeds %d bytes", h.maxFileSize))
			return
		}
		respondError(w, r, h.logger, domain.InvalidRequest("file is required"))
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		respondError(w, r, h.logger, domain.InvalidRequest("only .xlsx files are accepted"))
		return
	}
	if header.Size > h.maxFileSize {
		respondError(w, r, h.logger, domain.InvalidRequest("file exceeds %d bytes", h.maxFileSize))
		return
	}

	spool, err := h.spool(file)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	defer func() {
		spool.Close()
		os.Remove(spool.Name())
	}()

	key := fmt.Sprintf("imports/%s/%s.xlsx", owner, uuid.New())
	if _, err := h.storage.Upload(ctx, key, spool, workers.XLSXContentType); err != nil {
		respondError(w, r, h.logger, domain.StoreUnavailable(fmt.Errorf("upload sheet: %w", err)))
		return
	}

	taskID, err := h.tasks.EnqueueStockImport(ctx, owner, key)
	if err != nil {
		if derr := h.storage.Delete(ctx, key); derr != nil {
			h.logger.WarnContext(ctx, "failed to remove orphaned sheet",
				slog.String("file_key", key),
				slog.String("error", derr.Error()))
		}
		respondError(w, r, h.logger, domain.StoreUnavailable(err))
		return
	}

	h.logger.InfoContext(ctx, "stock import queued",
		slog.String("task_id", taskID),
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size))

	respondJSON(w, h.logger, http.StatusAccepted, ImportResponse{
		TaskID:  taskID,
		FileKey: key,
		Status:  "queued",
	})
}

// spool copies src into a temp file the cleanup task can find, and
// rewinds it. The zip signature check rejects obviously wrong uploads early.
func (h *MedicineHandler) spool(src io.Reader) (*os.File, error) {
	f, err := os.CreateTemp(h.tempDir, workers.TempFilePrefix+"import-*.xlsx")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(src, h.maxFileSize+1))
	if err == nil && n > h.maxFileSize {
		err = domain.InvalidRequest("file exceeds %d bytes", h.maxFileSize)
	}
	if err == nil {
		_, err = f.Seek(0, io.SeekStart)
	}
	if err == nil {
		magic := make([]byte, 4)
		if _, rerr := io.ReadFull(f, magic); rerr != nil || string(magic) != "PK\x03\x04" {
			err = domain.InvalidRequest("file is not an xlsx workbook")
		}
	}
	if err == nil {
		_, err = f.Seek(0, io.SeekStart)
	}
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}
	return f, nil
}

// ImportStatusResponse reports a stock:import task.
type ImportStatusResponse struct {
	TaskID      string                `json:"taskId"`
	State       string                `json:"state"`
	Retried     int                   `json:"retried"`
	LastError   string                `json:"lastError,omitempty"`
	CompletedAt *time.Time            `json:"completedAt,omitempty"`
	Result      *workers.ImportResult `json:"result,omitempty"`
}

// ImportStatus handles GET /api/v1/medicines/import/{taskId}
func (h *MedicineHandler) ImportStatus(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	taskID := r.PathValue("taskId")
	notFound := &domain.BillingError{Kind: domain.ErrNotFound, Message: fmt.Sprintf("import %s not found", taskID)}

	if h.inspector == nil {
		respondError(w, r, h.logger, notFound)
		return
	}

	info, err := h.inspector.GetTaskInfo("default", taskID)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			respondError(w, r, h.logger, notFound)
			return
		}
		respondError(w, r, h.logger, domain.StoreUnavailable(err))
		return
	}

	var payload workers.StockImportPayload
	if info.Type != workers.TypeStockImport || json.Unmarshal(info.Payload, &payload) != nil || payload.OwnerID != owner {
		respondError(w, r, h.logger, notFound)
		return
	}

	resp := ImportStatusResponse{
		TaskID:    info.ID,
		State:     info.State.String(),
		Retried:   info.Retried,
		LastError: info.LastErr,
	}
	if !info.CompletedAt.IsZero() {
		completed := info.CompletedAt
		resp.CompletedAt = &completed
	}
	if len(info.Result) > 0 {
		var result workers.ImportResult
		if err := json.Unmarshal(info.Result, &result); err == nil {
			resp.Result = &result
		}
	}
	respondJSON(w, h.logger, http.StatusOK, resp)
}
