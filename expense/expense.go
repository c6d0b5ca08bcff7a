// Package expense stores manually entered expense records.
package expense

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/use-agent/finscrape/models"
)

// Expense is one manually entered expense.
type Expense struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Notes       string          `json:"notes,omitempty"`
	Special     string          `json:"special,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Input is the client-supplied part of an Expense.
type Input struct {
	Description string           `json:"description" binding:"required"`
	Date        *time.Time       `json:"date" binding:"required"`
	Amount      *decimal.Decimal `json:"amount" binding:"required"`
	Notes       string           `json:"notes"`
	Special     string           `json:"special"`
}

// Validate checks the required fields.
func (in Input) Validate() error {
	switch {
	case strings.TrimSpace(in.Description) == "":
		return invalid("description is required")
	case in.Date == nil || in.Date.IsZero():
		return invalid("date is required")
	case in.Amount == nil:
		return invalid("amount is required")
	}
	return nil
}

func (in Input) apply(e *Expense) {
	e.Description = strings.TrimSpace(in.Description)
	e.Date = in.Date.UTC()
	e.Amount = *in.Amount
	e.Notes = in.Notes
	e.Special = in.Special
}

// Store persists expenses. Get, Update and Delete return a NOT_FOUND
// ScrapeError for an unknown id.
type Store interface {
	Create(ctx context.Context, in Input) (*Expense, error)
	Get(ctx context.Context, id uuid.UUID) (*Expense, error)
	List(ctx context.Context) ([]*Expense, error)
	Update(ctx context.Context, id uuid.UUID, in Input) (*Expense, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Close()
}

func invalid(msg string) error {
	return models.NewScrapeError(models.ErrCodeInvalidInput, msg, nil)
}

func notFound(id uuid.UUID) error {
	return models.NewNotFoundError("expense", id.String())
}
