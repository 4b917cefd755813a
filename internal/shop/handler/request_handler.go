package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pedalworks/shop-backend/internal/shop/repository"
	"github.com/pedalworks/shop-backend/internal/shop/service"
)

// RequestHandler serves the order request endpoints.
type RequestHandler struct {
	svc *service.RequestService
}

func NewRequestHandler(svc *service.RequestService) *RequestHandler {
	return &RequestHandler{svc: svc}
}

// List handles GET /order-requests.
func (h *RequestHandler) List(c *gin.Context) {
	filters := repository.RequestFilters{
		Status:   c.Query("status"),
		Supplier: c.Query("supplier"),
		Active:   c.Query("active") == "true",
	}
	requests, err := h.svc.List(c.Request.Context(), filters)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"items": requests})
}

// Latest handles GET /order-requests/latest/:n.
func (h *RequestHandler) Latest(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil || n < 1 {
		BadRequest(c, "invalid count")
		return
	}
	requests, err := h.svc.Latest(c.Request.Context(), n)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"items": requests})
}

// Get handles GET /order-requests/:id.
func (h *RequestHandler) Get(c *gin.Context) {
	id, ok := ParamInt64(c, "id")
	if !ok {
		return
	}
	req, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, req)
}

// Create handles POST /order-requests.
func (h *RequestHandler) Create(c *gin.Context) {
	var input service.CreateRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "invalid request body")
		return
	}
	req, err := h.svc.Create(c.Request.Context(), GetActor(c), input)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, req)
}

// Update handles PUT /order-requests/:id.
func (h *RequestHandler) Update(c *gin.Context) {
	id, ok := ParamInt64(c, "id")
	if !ok {
		return
	}
	var input service.UpdateRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "invalid request body")
		return
	}
	req, err := h.svc.Update(c.Request.Context(), GetActor(c), id, input)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, req)
}

// SetStatus handles PUT /order-requests/:id/status.
func (h *RequestHandler) SetStatus(c *gin.Context) {
	id, ok := ParamInt64(c, "id")
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Status == "" {
		BadRequest(c, "no status specified")
		return
	}
	req, err := h.svc.SetStatus(c.Request.Context(), GetActor(c), id, body.Status)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, req)
}

// SetQuantity handles PUT /order-requests/:id/quantity.
func (h *RequestHandler) SetQuantity(c *gin.Context) {
	id, ok := ParamInt64(c, "id")
	if !ok {
		return
	}
	var body struct {
		Quantity *int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Quantity == nil {
		BadRequest(c, "no quantity specified")
		return
	}
	req, err := h.svc.SetQuantity(c.Request.Context(), GetActor(c), id, *body.Quantity)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, req)
}

// SetItem handles PUT /order-requests/:id/item.
func (h *RequestHandler) SetItem(c *gin.Context) {
	id, ok := ParamInt64(c, "id")
	if !ok {
		return
	}
	var body struct {
		ItemID string `json:"item_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.ItemID == "" {
		BadRequest(c, "no item id provided")
		return
	}
	req, err := h.svc.SetItem(c.Request.Context(), GetActor(c), id, body.ItemID)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, req)
}

// AttachTicket handles POST /order-requests/:id/transactions.
func (h *RequestHandler) AttachTicket(c *gin.Context) {
	id, ok := ParamInt64(c, "id")
	if !ok {
		return
	}
	var body struct {
		TransactionID *int64 `json:"transaction_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.TransactionID == nil {
		BadRequest(c, "no transaction id provided")
		return
	}
	req, err := h.svc.AttachTicket(c.Request.Context(), GetActor(c), id, *body.TransactionID)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, req)
}

// DetachTicket handles DELETE /order-requests/:id/transactions/:ticketID.
// Detaching the last unit deletes the request outright.
func (h *RequestHandler) DetachTicket(c *gin.Context) {
	id, ok := ParamInt64(c, "id")
	if !ok {
		return
	}
	ticketID, ok := ParamInt64(c, "ticketID")
	if !ok {
		return
	}
	req, err := h.svc.DetachTicket(c.Request.Context(), GetActor(c), id, ticketID)
	if err != nil {
		RespondError(c, err)
		return
	}
	if req == nil {
		c.JSON(204, nil)
		return
	}
	Success(c, req)
}

// Delete handles DELETE /order-requests/:id.
func (h *RequestHandler) Delete(c *gin.Context) {
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

// Actions handles GET /order-requests/:id/actions.
func (h *RequestHandler) Actions(c *gin.Context) {
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
