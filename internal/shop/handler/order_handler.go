package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pedalworks/shop-backend/internal/shop/service"
	"github.com/xuri/excelize/v2"
)

// OrderHandler serves the supplier order endpoints.
type OrderHandler struct {
	svc      *service.OrderService
	requests *service.RequestService
}

func NewOrderHandler(svc *service.OrderService, requests *service.RequestService) *OrderHandler {
	return &OrderHandler{svc: svc, requests: requests}
}

// List handles GET /orders?start=...&end=...&active=true. The window bounds
// are RFC3339 timestamps; they default to the last 3 months.
func (h *OrderHandler) List(c *gin.Context) {
	end := time.Now().Add(24 * time.Hour)
	start := time.Now().AddDate(0, -3, 0)
	if raw := c.Query("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			BadRequest(c, "invalid start time")
			return
		}
		start = t
	}
	if raw := c.Query("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			BadRequest(c, "invalid end time")
			return
		}
		end = t
	}
	orders, err := h.svc.List(c.Request.Context(), start, end, c.Query("active") == "true")
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"items": orders})
}

// Get handles GET /orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, order)
}

// Requests handles GET /orders/:id/requests.
func (h *OrderHandler) Requests(c *gin.Context) {
	requests, err := h.svc.Requests(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"items": requests})
}

// Create handles POST /orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var body struct {
		Supplier string `json:"supplier"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		BadRequest(c, "invalid request body")
		return
	}
	order, err := h.svc.Create(c.Request.Context(), GetActor(c), body.Supplier)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, order)
}

// AddRequest handles POST /orders/:id/requests.
func (h *OrderHandler) AddRequest(c *gin.Context) {
	var body struct {
		RequestID *int64 `json:"request_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.RequestID == nil {
		BadRequest(c, "no request id provided")
		return
	}
	order, err := h.svc.AddRequest(c.Request.Context(), GetActor(c), c.Param("id"), *body.RequestID)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, order)
}

// RemoveRequest handles DELETE /orders/:id/requests/:requestID.
func (h *OrderHandler) RemoveRequest(c *gin.Context) {
	requestID, ok := ParamInt64(c, "requestID")
	if !ok {
		return
	}
	order, err := h.svc.RemoveRequest(c.Request.Context(), GetActor(c), c.Param("id"), requestID)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, order)
}

// SetStatus handles PUT /orders/:id/status.
func (h *OrderHandler) SetStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Status == "" {
		BadRequest(c, "no status specified")
		return
	}
	order, err := h.svc.SetStatus(c.Request.Context(), GetActor(c), c.Param("id"), body.Status)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, order)
}

// SetFreightCharge handles PUT /orders/:id/freight-charge.
func (h *OrderHandler) SetFreightCharge(c *gin.Context) {
	var body struct {
		Charge *float64 `json:"charge"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Charge == nil {
		BadRequest(c, "a freight charge must be specified")
		return
	}
	order, err := h.svc.SetFreightCharge(c.Request.Context(), GetActor(c), c.Param("id"), *body.Charge)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, order)
}

// Update handles PUT /orders/:id.
func (h *OrderHandler) Update(c *gin.Context) {
	var input service.UpdateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "invalid request body")
		return
	}
	order, err := h.svc.Update(c.Request.Context(), GetActor(c), c.Param("id"), input)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, order)
}

// Delete handles DELETE /orders/:id.
func (h *OrderHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), GetActor(c), c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"status": "OK"})
}

// Actions handles GET /orders/:id/actions.
func (h *OrderHandler) Actions(c *gin.Context) {
	actions, err := h.svc.Actions(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"items": actions})
}

// Export handles GET /orders/:id/export, a spreadsheet of the order's
// requests ready to send to the supplier.
func (h *OrderHandler) Export(c *gin.Context) {
	ctx := c.Request.Context()
	order, err := h.svc.Get(ctx, c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	requests, err := h.svc.Requests(ctx, order.ID)
	if err != nil {
		RespondError(c, err)
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Order"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"Part Number", "Description", "Quantity", "Wholesale Cost", "Line Total", "Notes"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}
	row := 2
	for _, req := range requests {
		cost := 0.0
		if req.Item != nil {
			cost = req.Item.WholesaleCost
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), req.PartNumber)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), req.Request)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), req.Quantity)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), cost)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), cost*float64(req.Quantity))
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), req.Notes)
		row++
	}
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row+1), "Freight")
	f.SetCellValue(sheet, fmt.Sprintf("E%d", row+1), order.FreightCharge)
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row+2), "Total")
	f.SetCellValue(sheet, fmt.Sprintf("E%d", row+2), order.TotalPrice)

	filename := fmt.Sprintf("order-%s-%s.xlsx", order.Supplier, order.DateCreated.Format("2006-01-02"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "failed to write spreadsheet")
	}
}
