package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pedalworks/shop-backend/internal/shop/repository"
	"github.com/pedalworks/shop-backend/internal/shop/service"
)

// TransactionHandler serves the service ticket endpoints.
type TransactionHandler struct {
	svc *service.TransactionService
}

func NewTransactionHandler(svc *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{svc: svc}
}

// List handles GET /transactions.
func (h *TransactionHandler) List(c *gin.Context) {
	filters := repository.TransactionFilters{
		Complete:    queryBool(c, "complete"),
		IsPaid:      queryBool(c, "is_paid"),
		Refurb:      queryBool(c, "refurb"),
		BeerBike:    queryBool(c, "beerbike"),
		WaitingPart: c.Query("waiting_part") == "true",
		CustomerID:  c.Query("customer_id"),
	}
	tickets, err := h.svc.List(c.Request.Context(), filters)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"items": tickets})
}

// Get handles GET /transactions/:id.
func (h *TransactionHandler) Get(c *gin.Context) {
	id, ok := ParamInt64(c, "id")
	if !ok {
		return
	}
	trx, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, trx)
}

// Create handles POST /transactions.
func (h *TransactionHandler) Create(c *gin.Context) {
	var input service.CreateTransactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "invalid request body")
		return
	}
	trx, err := h.svc.Create(c.Request.Context(), GetActor(c), input)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, trx)
}

// Update handles PUT /transactions/:id.
func (h *TransactionHandler) Update(c *gin.Context) {
	id, ok := ParamInt64(c, "id")
	if !ok {
		return
	}
	var input service.UpdateTransactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "invalid request body")
		return
	}
	trx, err := h.svc.Update(c.Request.Context(), GetActor(c), id, input)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, trx)
}

// AddItem handles POST /transactions/:id/items.
func (h *TransactionHandler) AddItem(c *gin.Context) {
	id, ok := ParamInt64(c, "id")
	if !ok {
		return
	}
	var body struct {
		ItemID      string   `json:"item_id"`
		CustomPrice *float64 `json:"custom_price"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.ItemID == "" {
		BadRequest(c, "no item id provided")
		return
	}
	trx, err := h.svc.AddItem(c.Request.Context(), GetActor(c), id, body.ItemID, body.CustomPrice)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, trx)
}

// RemoveItem handles DELETE /transactions/:id/items/:index.
func (h *TransactionHandler) RemoveItem(c *gin.Context) {
	id, ok := ParamInt64(c, "id")
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		BadRequest(c, "invalid item index")
		return
	}
	trx, err := h.svc.RemoveItem(c.Request.Context(), GetActor(c), id, index)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, trx)
}

// AddRepair handles POST /transactions/:id/repairs.
func (h *TransactionHandler) AddRepair(c *gin.Context) {
	id, ok := ParamInt64(c, "id")
	if !ok {
		return
	}
	var body struct {
		RepairID string `json:"repair_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.RepairID == "" {
		BadRequest(c, "no repair id provided")
		return
	}
	trx, err := h.svc.AddRepair(c.Request.Context(), GetActor(c), id, body.RepairID)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, trx)
}

// RemoveRepair handles DELETE /transactions/:id/repairs/:entryID.
func (h *TransactionHandler) RemoveRepair(c *gin.Context) {
	id, ok := ParamInt64(c, "id")
	if !ok {
		return
	}
	entryID, ok := ParamInt64(c, "entryID")
	if !ok {
		return
	}
	trx, err := h.svc.RemoveRepair(c.Request.Context(), GetActor(c), id, entryID)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, trx)
}

// SetRepairCompleted handles PUT /transactions/:id/repairs/:entryID.
func (h *TransactionHandler) SetRepairCompleted(c *gin.Context) {
	id, ok := ParamInt64(c, "id")
	if !ok {
		return
	}
	entryID, ok := ParamInt64(c, "entryID")
	if !ok {
		return
	}
	var body struct {
		Completed *bool `json:"completed"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Completed == nil {
		BadRequest(c, "no completed flag provided")
		return
	}
	trx, err := h.svc.SetRepairCompleted(c.Request.Context(), GetActor(c), id, entryID, *body.Completed)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, trx)
}

// MarkComplete handles PUT /transactions/:id/complete.
func (h *TransactionHandler) MarkComplete(c *gin.Context) {
	id, ok := ParamInt64(c, "id")
	if !ok {
		return
	}
	var body struct {
		Complete *bool `json:"complete"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Complete == nil {
		BadRequest(c, "no complete flag provided")
		return
	}
	trx, err := h.svc.MarkComplete(c.Request.Context(), GetActor(c), id, *body.Complete)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, trx)
}

// MarkPaid handles PUT /transactions/:id/paid.
func (h *TransactionHandler) MarkPaid(c *gin.Context) {
	id, ok := ParamInt64(c, "id")
	if !ok {
		return
	}
	var body struct {
		IsPaid *bool `json:"is_paid"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.IsPaid == nil {
		BadRequest(c, "no paid flag provided")
		return
	}
	trx, err := h.svc.MarkPaid(c.Request.Context(), GetActor(c), id, *body.IsPaid)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, trx)
}

// SetCustomer handles PUT /transactions/:id/customer.
func (h *TransactionHandler) SetCustomer(c *gin.Context) {
	id, ok := ParamInt64(c, "id")
	if !ok {
		return
	}
	var body struct {
		CustomerID string `json:"customer_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.CustomerID == "" {
		BadRequest(c, "no customer id provided")
		return
	}
	trx, err := h.svc.SetCustomer(c.Request.Context(), GetActor(c), id, body.CustomerID)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, trx)
}

// AttachBike handles PUT /transactions/:id/bike.
func (h *TransactionHandler) AttachBike(c *gin.Context) {
	id, ok := ParamInt64(c, "id")
	if !ok {
		return
	}
	var body struct {
		BikeID string `json:"bike_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.BikeID == "" {
		BadRequest(c, "no bike id provided")
		return
	}
	trx, err := h.svc.AttachBike(c.Request.Context(), GetActor(c), id, body.BikeID)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, trx)
}

// DetachBike handles DELETE /transactions/:id/bike.
func (h *TransactionHandler) DetachBike(c *gin.Context) {
	id, ok := ParamInt64(c, "id")
	if !ok {
		return
	}
	trx, err := h.svc.DetachBike(c.Request.Context(), GetActor(c), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, trx)
}

// Delete handles DELETE /transactions/:id.
func (h *TransactionHandler) Delete(c *gin.Context) {
	id, ok := ParamInt64(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), GetActor(c), id); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"status": "OK"})
}

// Actions handles GET /transactions/:id/actions.
func (h *TransactionHandler) Actions(c *gin.Context) {
	id, ok := ParamInt64(c, "id")
	if !ok {
		return
	}
	actions, err := h.svc.Actions(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"items": actions})
}
