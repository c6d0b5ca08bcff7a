package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/use-agent/finscrape/expense"
)

// ExpenseResponse wraps a single expense.
type ExpenseResponse struct {
	Success bool             `json:"success"`
	Expense *expense.Expense `json:"expense"`
}

// ExpenseListResponse wraps every stored expense.
type ExpenseListResponse struct {
	Success  bool               `json:"success"`
	Expenses []*expense.Expense `json:"expenses"`
}

// Expenses groups the CRUD handlers under /api/v1/expenses.
type Expenses struct {
	Store expense.Store
}

// List handles GET /expenses.
func (h Expenses) List(c *gin.Context) {
	list, err := h.Store.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ExpenseListResponse{Success: true, Expenses: list})
}

// Get handles GET /expenses/:id.
func (h Expenses) Get(c *gin.Context) {
	id, ok := expenseID(c)
	if !ok {
		return
	}
	e, err := h.Store.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ExpenseResponse{Success: true, Expense: e})
}

// Create handles POST /expenses.
func (h Expenses) Create(c *gin.Context) {
	var in expense.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		invalidInput(c, err.Error())
		return
	}
	e, err := h.Store.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ExpenseResponse{Success: true, Expense: e})
}

// Update handles PUT /expenses/:id.
func (h Expenses) Update(c *gin.Context) {
	id, ok := expenseID(c)
	if !ok {
		return
	}
	var in expense.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		invalidInput(c, err.Error())
		return
	}
	e, err := h.Store.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ExpenseResponse{Success: true, Expense: e})
}

// Delete handles DELETE /expenses/:id.
func (h Expenses) Delete(c *gin.Context) {
	id, ok := expenseID(c)
	if !ok {
		return
	}
	if err := h.Store.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func expenseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		invalidInput(c, "invalid expense id")
		return uuid.Nil, false
	}
	return id, true
}
