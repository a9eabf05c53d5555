// internal/handlers/bills.go
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
	"github.com/ammerola/pharmabook-be/internal/core/ports"
)

// BillHandler serves /api/v1/bills.
type BillHandler struct {
	service ports.BillingService
	logger  *slog.Logger
}

func NewBillHandler(service ports.BillingService, logger *slog.Logger) *BillHandler {
	return &BillHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "bills")),
	}
}

// CreateBillRequest is the POST /api/v1/bills body.
type CreateBillRequest struct {
	CustomerName string            `json:"customerName" validate:"required,max=200"`
	Items        []BillLineRequest `json:"items" validate:"required,min=1,dive"`
}

type BillLineRequest struct {
	MedicineID  uuid.UUID `json:"medicineId" validate:"required"`
	BatchNumber string    `json:"batchNumber" validate:"required"`
	Quantity    int       `json:"quantity" validate:"gt=0"`
}

func (req CreateBillRequest) ToDomain() domain.BillRequest {
	items := make([]domain.BillItemRequest, len(req.Items))
	for i, it := range req.Items {
		items[i] = domain.BillItemRequest{
			MedicineID:  it.MedicineID,
			BatchNumber: it.BatchNumber,
			Quantity:    it.Quantity,
		}
	}
	return domain.BillRequest{CustomerName: req.CustomerName, Items: items}
}

// CreateBill handles POST /api/v1/bills
func (h *BillHandler) CreateBill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, err := ownerFrom(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req CreateBillRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	bill, err := h.service.CreateBill(ctx, owner, req.ToDomain())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", "/api/v1/bills/"+bill.ID.String())
	respondJSON(w, h.logger, http.StatusCreated, bill)
}

// GetBill handles GET /api/v1/bills/{id}
func (h *BillHandler) GetBill(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	billID, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	bill, err := h.service.GetBill(r.Context(), owner, billID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, bill)
}

// ListBills handles GET /api/v1/bills?page=&pageSize=&from=&to=
func (h *BillHandler) ListBills(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	filter, err := parseBillFilter(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	page, err := h.service.ListBills(r.Context(), owner, filter)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, page)
}

// parseBillFilter accepts RFC 3339 timestamps or plain dates. `to` is
// exclusive, so a plain `to` date is moved to the start of the next day.
func parseBillFilter(r *http.Request) (domain.BillFilter, error) {
	q := r.URL.Query()
	var filter domain.BillFilter

	if v := q.Get("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 {
			return filter, domain.InvalidRequest("page must be a positive integer")
		}
		filter.Page = p
	}
	// limit is accepted as an older spelling of pageSize.
	for _, name := range []string{"pageSize", "limit"} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return filter, domain.InvalidRequest("%s must be a positive integer", name)
		}
		filter.PageSize = min(n, 100)
		break
	}

	var err error
	if filter.From, err = parseTimeParam(q.Get("from"), false); err != nil {
		return filter, domain.InvalidRequest("from: %v", err)
	}
	if filter.To, err = parseTimeParam(q.Get("to"), true); err != nil {
		return filter, domain.InvalidRequest("to: %v", err)
	}
	return filter, nil
}

func parseTimeParam(v string, endOfDay bool) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1)
	}
	return t, nil
}
