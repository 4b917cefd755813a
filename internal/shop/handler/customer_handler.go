package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pedalworks/shop-backend/internal/shop/entity"
	"github.com/pedalworks/shop-backend/internal/shop/repository"
)

// CustomerHandler serves the customer, bike, repair and user endpoints.
// These are plain CRUD with no cascades, so they sit on the repositories
// directly.
type CustomerHandler struct {
	repos *repository.Repositories
}

func NewCustomerHandler(repos *repository.Repositories) *CustomerHandler {
	return &CustomerHandler{repos: repos}
}

// Search handles GET /customers?q=...
func (h *CustomerHandler) Search(c *gin.Context) {
	customers, err := h.repos.Customer.Search(c.Request.Context(), c.Query("q"), 50)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"items": customers})
}

// Get handles GET /customers/:id.
func (h *CustomerHandler) Get(c *gin.Context) {
	customer, err := h.repos.Customer.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "customer not found")
			return
		}
		RespondError(c, err)
		return
	}
	Success(c, customer)
}

// Create handles POST /customers.
func (h *CustomerHandler) Create(c *gin.Context) {
	var body struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.FirstName == "" || body.LastName == "" {
		BadRequest(c, "first and last name are required")
		return
	}
	customer := &entity.Customer{
		ID:        uuid.New().String()[:32],
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Email:     body.Email,
	}
	if err := h.repos.Customer.Create(c.Request.Context(), customer); err != nil {
		RespondError(c, err)
		return
	}
	Created(c, customer)
}

// Update handles PUT /customers/:id.
func (h *CustomerHandler) Update(c *gin.Context) {
	customer, err := h.repos.Customer.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "customer not found")
			return
		}
		RespondError(c, err)
		return
	}
	var body struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Email     *string `json:"email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		BadRequest(c, "invalid request body")
		return
	}
	if body.FirstName != nil {
		customer.FirstName = *body.FirstName
	}
	if body.LastName != nil {
		customer.LastName = *body.LastName
	}
	if body.Email != nil {
		customer.Email = *body.Email
	}
	if err := h.repos.Customer.Update(c.Request.Context(), customer); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, customer)
}

// CreateBike handles POST /bikes.
func (h *CustomerHandler) CreateBike(c *gin.Context) {
	var body struct {
		Make        string `json:"make"`
		Model       string `json:"model"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		BadRequest(c, "invalid request body")
		return
	}
	bike := &entity.Bike{
		ID:          uuid.New().String()[:32],
		Make:        body.Make,
		Model:       body.Model,
		Description: body.Description,
	}
	if err := h.repos.Bike.Create(c.Request.Context(), bike); err != nil {
		RespondError(c, err)
		return
	}
	Created(c, bike)
}

// ListRepairs handles GET /repairs.
func (h *CustomerHandler) ListRepairs(c *gin.Context) {
	repairs, err := h.repos.Repair.FindAll(c.Request.Context(), c.Query("include_disabled") == "true")
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"items": repairs})
}

// CreateRepair handles POST /repairs.
func (h *CustomerHandler) CreateRepair(c *gin.Context) {
	var body struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Name == "" {
		BadRequest(c, "repair name is required")
		return
	}
	repair := &entity.Repair{
		ID:          uuid.New().String()[:32],
		Name:        body.Name,
		Description: body.Description,
		Price:       body.Price,
	}
	if err := h.repos.Repair.Create(c.Request.Context(), repair); err != nil {
		RespondError(c, err)
		return
	}
	Created(c, repair)
}

// UpdateRepair handles PUT /repairs/:id.
func (h *CustomerHandler) UpdateRepair(c *gin.Context) {
	repair, err := h.repos.Repair.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "repair not found")
			return
		}
		RespondError(c, err)
		return
	}
	var body struct {
		Name        *string  `json:"name"`
		Description *string  `json:"description"`
		Price       *float64 `json:"price"`
		Disabled    *bool    `json:"disabled"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		BadRequest(c, "invalid request body")
		return
	}
	if body.Name != nil {
		repair.Name = *body.Name
	}
	if body.Description != nil {
		repair.Description = *body.Description
	}
	if body.Price != nil {
		repair.Price = *body.Price
	}
	if body.Disabled != nil {
		repair.Disabled = *body.Disabled
	}
	if err := h.repos.Repair.Update(c.Request.Context(), repair); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, repair)
}

// ListUsers handles GET /users.
func (h *CustomerHandler) ListUsers(c *gin.Context) {
	users, err := h.repos.User.FindActive(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"items": users})
}
