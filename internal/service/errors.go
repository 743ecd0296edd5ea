package service

import (
	"errors"
	"fmt"
	"strings"

	"inventory/internal/domain"
	"inventory/internal/repository"
)

var (
	ErrInvalidInput      = errors.New("validation failed")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = repository.ErrNotFound
	ErrConflict          = repository.ErrConflict
	ErrInvalidPayment    = domain.ErrInvalidPayment
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrCannotDeleteSelf  = errors.New("you cannot delete your own account")
)

// FieldError одна ошибка валидации поля
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError набор ошибок полей; errors.Is(err, ErrInvalidInput) == true
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

func invalidField(field, message string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// InsufficientStockError names the product whose stock would go negative.
type InsufficientStockError struct {
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product: %s", e.ProductName)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// notFound turns a repository miss into "<entity> not found"; other errors pass through.
func notFound(entity string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s %w", entity, ErrNotFound)
	}
	return err
}

// conflict rewrites a uniqueness violation into a readable message.
func conflict(message string, err error) error {
	if errors.Is(err, repository.ErrConflict) {
		return fmt.Errorf("%w: %s", ErrConflict, message)
	}
	return err
}
