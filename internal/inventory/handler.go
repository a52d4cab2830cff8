package inventory

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clarion-hms/clarion/internal/platform/httpx"
	"github.com/clarion-hms/clarion/internal/shared"
)

// Handler wires HTTP endpoints for the inventory module.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs an inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
	r.Get("/{id}/movements", h.handleMovements)
	r.Post("/{id}/movement", h.handleMovement)
	r.Post("/{id}/consume", h.handleConsume)
	r.Post("/{id}/reject", h.handleReject)
}

// ItemView is the transport representation of an item; Status is derived
// server-side and authoritative.
type ItemView struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Code              string     `json:"code"`
	Category          string     `json:"category"`
	Unit              string     `json:"unit"`
	Stock             int        `json:"stock"`
	Consumed          int        `json:"consumed"`
	Rejected          int        `json:"rejected"`
	LowStockThreshold int        `json:"low_stock_threshold"`
	Status            string     `json:"status"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// MovementView is the transport representation of a ledger entry.
type MovementView struct {
	ID          int64      `json:"id"`
	ItemID      int64      `json:"item_id"`
	Code        string     `json:"code"`
	Type        string     `json:"movement_type"`
	Quantity    int        `json:"quantity"`
	Remarks     string     `json:"remarks"`
	HandledBy   string     `json:"handled_by,omitempty"`
	IsRejection bool       `json:"is_rejection"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type listResponse struct {
	shared.Envelope
	Stats Stats `json:"stats"`
}

type movementResponse struct {
	Item     ItemView     `json:"item"`
	Movement MovementView `json:"movement"`
	Stats    Stats        `json:"stats"`
}

type itemPayload struct {
	Name              string     `json:"name"`
	Code              string     `json:"code"`
	Category          string     `json:"category"`
	Unit              string     `json:"unit"`
	Stock             int        `json:"stock"`
	LowStockThreshold int        `json:"low_stock_threshold"`
	ExpiryDate        *time.Time `json:"expiry_date"`
}

type movementPayload struct {
	MovementType string     `json:"movement_type"`
	Quantity     int        `json:"quantity"`
	Remarks      string     `json:"remarks"`
	HandledBy    string     `json:"handled_by"`
	ExpiryDate   *time.Time `json:"expiry_date"`
}

type consumePayload struct {
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes"`
	HandledBy string `json:"handled_by"`
}

func toItemView(item Item) ItemView {
	return ItemView{
		ID:                item.ID,
		Name:              item.Name,
		Code:              item.Code,
		Category:          item.Category,
		Unit:              item.Unit,
		Stock:             item.Stock,
		Consumed:          item.Consumed,
		Rejected:          item.Rejected,
		LowStockThreshold: item.LowStockThreshold,
		Status:            string(item.Status()),
		ExpiryDate:        item.ExpiryDate,
		UpdatedAt:         item.UpdatedAt,
	}
}

func toMovementView(m Movement) MovementView {
	return MovementView{
		ID:          m.ID,
		ItemID:      m.ItemID,
		Code:        m.Code,
		Type:        string(m.Type),
		Quantity:    m.Quantity,
		Remarks:     m.Remarks,
		HandledBy:   m.HandledBy,
		IsRejection: m.IsRejection,
		ExpiryDate:  m.ExpiryDate,
		CreatedAt:   m.CreatedAt,
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := shared.ParsePageRequest(q)
	filter := ListFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Status:   StockStatus(q.Get("status")),
		Limit:    page.PerPage,
		Offset:   page.Offset(),
	}

	items, total, err := h.service.ListItems(r.Context(), filter)
	if err != nil {
		h.logger.Error("list items", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("inventory stats", slog.Any("error", err))
		h.respondError(w, err)
		return
	}

	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, toItemView(item))
	}
	meta := shared.NewListMeta(page, total, len(views))
	httpx.JSON(w, http.StatusOK, listResponse{
		Envelope: shared.Envelope{
			Data:  views,
			Links: shared.BuildLinks(r.URL.Path, q, meta),
			Meta:  meta,
		},
		Stats: stats,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toItemView(item))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeItem(w, r)
	if !ok {
		return
	}
	item, err := h.service.CreateItem(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toItemView(item))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	input, ok := h.decodeItem(w, r)
	if !ok {
		return
	}
	item, err := h.service.UpdateItem(r.Context(), id, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toItemView(item))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMovements(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	movements, err := h.service.ListMovements(r.Context(), id, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	views := make([]MovementView, 0, len(movements))
	for _, m := range movements {
		views = append(views, toMovementView(m))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": views})
}

func (h *Handler) handleMovement(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	var payload movementPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	input := MovementInput{
		Type:       MovementType(payload.MovementType),
		Quantity:   payload.Quantity,
		Remarks:    payload.Remarks,
		HandledBy:  payload.HandledBy,
		ExpiryDate: payload.ExpiryDate,
	}
	if err := h.validator.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.PostMovement(r.Context(), id, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondMovement(w, result)
}

func (h *Handler) handleConsume(w http.ResponseWriter, r *http.Request) {
	h.handleCounterMovement(w, r, h.service.Consume)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.handleCounterMovement(w, r, h.service.Reject)
}

func (h *Handler) handleCounterMovement(w http.ResponseWriter, r *http.Request, post func(ctx context.Context, itemID int64, input ConsumeInput) (MovementResult, error)) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	var payload consumePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	input := ConsumeInput{Quantity: payload.Quantity, Notes: payload.Notes, HandledBy: payload.HandledBy}
	if err := h.validator.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := post(r.Context(), id, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondMovement(w, result)
}

func (h *Handler) respondMovement(w http.ResponseWriter, result MovementResult) {
	httpx.JSON(w, http.StatusOK, movementResponse{
		Item:     toItemView(result.Item),
		Movement: toMovementView(result.Movement),
		Stats:    result.Stats,
	})
}

func (h *Handler) itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "item id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) decodeItem(w http.ResponseWriter, r *http.Request) (ItemInput, bool) {
	var payload itemPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return ItemInput{}, false
	}
	input := ItemInput{
		Name:              payload.Name,
		Code:              payload.Code,
		Category:          payload.Category,
		Unit:              payload.Unit,
		Stock:             payload.Stock,
		LowStockThreshold: payload.LowStockThreshold,
		ExpiryDate:        payload.ExpiryDate,
	}
	if err := h.validator.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return ItemInput{}, false
	}
	return input, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Insufficient Stock", err.Error())
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidMovementType):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrDuplicateCode):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "item not found")
	default:
		httpx.RespondError(w, err)
	}
}
