package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/pedalworks/shop-backend/internal/shop/repository"
	"github.com/pedalworks/shop-backend/internal/shop/service"
)

// ItemHandler serves the inventory item endpoints.
type ItemHandler struct {
	svc *service.ItemService
}

func NewItemHandler(svc *service.ItemService) *ItemHandler {
	return &ItemHandler{svc: svc}
}

// Search handles GET /items.
func (h *ItemHandler) Search(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := repository.ItemFilters{
		Name:           c.Query("name"),
		Brand:          c.Query("brand"),
		Category1:      c.Query("category_1"),
		Category2:      c.Query("category_2"),
		Category3:      c.Query("category_3"),
		UPC:            c.Query("upc"),
		FilterDisabled: c.Query("include_disabled") != "true",
	}
	items, total, err := h.svc.Search(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"items": items, "total": total, "page": page, "page_size": pageSize})
}

// Get handles GET /items/:id.
func (h *ItemHandler) Get(c *gin.Context) {
	item, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, item)
}

// LookupUPC handles GET /items/upc/:upc, checking the shop and then the
// wholesale catalog. Answers 404 when the UPC is unknown everywhere.
func (h *ItemHandler) LookupUPC(c *gin.Context) {
	item, err := h.svc.LookupUPC(c.Request.Context(), c.Param("upc"))
	if err != nil {
		RespondError(c, err)
		return
	}
	if item == nil {
		NotFound(c, "no product found for upc")
		return
	}
	Success(c, item)
}

// Brands handles GET /items/brands.
func (h *ItemHandler) Brands(c *gin.Context) {
	brands, err := h.svc.Brands(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"items": brands})
}

// Categories handles GET /items/categories.
func (h *ItemHandler) Categories(c *gin.Context) {
	categories, err := h.svc.Categories(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"items": categories})
}

// Create handles POST /items.
func (h *ItemHandler) Create(c *gin.Context) {
	var input service.CreateItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "invalid request body")
		return
	}
	item, err := h.svc.Create(c.Request.Context(), GetActor(c), input)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, item)
}

// Update handles PUT /items/:id.
func (h *ItemHandler) Update(c *gin.Context) {
	var input service.UpdateItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "invalid request body")
		return
	}
	item, err := h.svc.Update(c.Request.Context(), GetActor(c), c.Param("id"), input)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, item)
}

// AdjustStock handles PUT /items/:id/stock.
func (h *ItemHandler) AdjustStock(c *gin.Context) {
	var body struct {
		Delta *int `json:"delta"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Delta == nil {
		BadRequest(c, "no stock delta provided")
		return
	}
	item, err := h.svc.AdjustStock(c.Request.Context(), GetActor(c), c.Param("id"), *body.Delta)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, item)
}
