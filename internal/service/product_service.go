package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"inventory/internal/domain"
	"inventory/internal/repository"
)

// ProductInput тело создания и обновления товара
type ProductInput struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Stock       *int             `json:"stock" validate:"required,gte=0"`
	SKU         string           `json:"sku" validate:"required,max=100"`
	IsActive    *bool            `json:"isActive"`
}

func (in ProductInput) validate() error {
	return validateStruct(in, moneyErrors("price", in.Price)...)
}

// ProductService инкапсулирует бизнес-логику вокруг товаров
type ProductService struct {
	repo repository.ProductRepository
}

func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

func (s *ProductService) Create(ctx context.Context, in ProductInput, createdBy uuid.UUID) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := &domain.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       *in.Price,
		Stock:       *in.Stock,
		SKU:         in.SKU,
		IsActive:    in.IsActive == nil || *in.IsActive,
		CreatedBy:   createdBy,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, conflict("product with this SKU already exists", err)
	}
	return p, nil
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("product", err)
	}
	return p, nil
}

// Update replaces the editable fields; isActive keeps its value when omitted.
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("product", err)
	}
	p.Name = in.Name
	p.Description = in.Description
	p.Price = *in.Price
	p.Stock = *in.Stock
	p.SKU = in.SKU
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, conflict("product with this SKU already exists", notFound("product", err))
	}
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return conflict("product is referenced by orders", notFound("product", err))
	}
	return nil
}

func (s *ProductService) List(ctx context.Context, f repository.ProductFilter) ([]domain.Product, error) {
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, invalidField("minPrice", "must not exceed maxPrice")
	}
	return s.repo.List(ctx, f)
}
