package service

import (
	"context"

	"github.com/google/uuid"

	"inventory/internal/domain"
	"inventory/internal/repository"
)

// ClientInput тело создания и обновления клиента
type ClientInput struct {
	FirstName string  `json:"firstName" validate:"required,max=100"`
	LastName  string  `json:"lastName" validate:"required,max=100"`
	Email     string  `json:"email" validate:"required,email"`
	Phone     *string `json:"phone" validate:"omitempty,max=50"`
	Address   *string `json:"address"`
	City      *string `json:"city" validate:"omitempty,max=100"`
	Country   *string `json:"country" validate:"omitempty,max=100"`
	Notes     *string `json:"notes"`
}

type ClientService struct {
	repo repository.ClientRepository
}

func NewClientService(repo repository.ClientRepository) *ClientService {
	return &ClientService{repo: repo}
}

func (s *ClientService) List(ctx context.Context) ([]domain.Client, error) {
	return s.repo.List(ctx)
}

func (s *ClientService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("client", err)
	}
	return c, nil
}

func (s *ClientService) Create(ctx context.Context, in ClientInput, createdBy uuid.UUID) (*domain.Client, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	c := &domain.Client{CreatedBy: createdBy}
	in.apply(c)
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, conflict("client with this email already exists", err)
	}
	return c, nil
}

func (s *ClientService) Update(ctx context.Context, id uuid.UUID, in ClientInput) (*domain.Client, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("client", err)
	}
	in.apply(c)
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, conflict("client with this email already exists", notFound("client", err))
	}
	return c, nil
}

// Delete fails with a conflict while orders still reference the client.
func (s *ClientService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return conflict("client has orders", notFound("client", err))
	}
	return nil
}

func (in ClientInput) apply(c *domain.Client) {
	c.FirstName = in.FirstName
	c.LastName = in.LastName
	c.Email = in.Email
	c.Phone = in.Phone
	c.Address = in.Address
	c.City = in.City
	c.Country = in.Country
	c.Notes = in.Notes
}
