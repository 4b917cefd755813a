package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pedalworks/shop-backend/internal/shop/repository"
	"github.com/pedalworks/shop-backend/internal/shop/service"
)

// Handlers is the shop handler collection.
type Handlers struct {
	Item        *ItemHandler
	Request     *RequestHandler
	Order       *OrderHandler
	Transaction *TransactionHandler
	Customer    *CustomerHandler
}

// NewHandlers creates the shop handler collection.
func NewHandlers(svc *service.Services, repos *repository.Repositories) *Handlers {
	return &Handlers{
		Item:        NewItemHandler(svc.Item),
		Request:     NewRequestHandler(svc.Request),
		Order:       NewOrderHandler(svc.Order, svc.Request),
		Transaction: NewTransactionHandler(svc.Transaction),
		Customer:    NewCustomerHandler(repos),
	}
}

// Response is the envelope every endpoint answers with.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success responds 200 with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created responds 201 with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error responds with a 5-digit code whose first three digits are the HTTP
// status.
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// RespondError maps a service error onto the wire. Domain errors keep their
// kind and message; anything else is reported generically so internals do
// not leak.
func RespondError(c *gin.Context, err error) {
	de := service.AsDomain(err)
	if de == nil {
		InternalError(c, "internal server error")
		return
	}
	switch de.Kind {
	case service.KindValidation:
		BadRequest(c, de.Message)
	case service.KindNotFound:
		NotFound(c, de.Message)
	case service.KindForbidden:
		Forbidden(c, de.Message)
	case service.KindConflict:
		c.JSON(409, Response{
			Code:    40900,
			Message: de.Message,
			Data:    conflictData(de),
		})
	default:
		InternalError(c, "internal server error")
	}
}

func conflictData(de *service.DomainError) interface{} {
	if len(de.TicketIDs) == 0 {
		return nil
	}
	return gin.H{"problem_transactions": de.TicketIDs}
}

// GetActor builds the acting user from the authenticated context.
func GetActor(c *gin.Context) service.Actor {
	return service.Actor{
		ID:   c.GetString("user_id"),
		Name: c.GetString("user_name"),
	}
}

// ParamInt64 parses a numeric path parameter.
func ParamInt64(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		BadRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

// GetPagination reads page and page_size query params.
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 50

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 200 {
			pageSize = v
		}
	}
	return page, pageSize
}

func queryBool(c *gin.Context, name string) *bool {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v := raw == "true" || raw == "1"
	return &v
}
