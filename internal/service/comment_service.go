package service

import (
	"context"

	"github.com/google/uuid"

	"inventory/internal/domain"
	"inventory/internal/repository"
)

// CommentInput тело создания комментария
type CommentInput struct {
	Content   string               `json:"content" validate:"required"`
	RelatedTo domain.CommentTarget `json:"relatedTo" validate:"required,oneof=product client order general"`
	RelatedID *uuid.UUID           `json:"relatedId"`
}

// CommentUpdate only the text of a comment is editable
type CommentUpdate struct {
	Content string `json:"content" validate:"required"`
}

type CommentService struct {
	repo repository.CommentRepository
}

func NewCommentService(repo repository.CommentRepository) *CommentService {
	return &CommentService{repo: repo}
}

func (s *CommentService) List(ctx context.Context, f repository.CommentFilter) ([]domain.Comment, error) {
	if f.RelatedTo != "" && !f.RelatedTo.Valid() {
		return nil, invalidField("relatedTo", "must be one of: product, client, order, general")
	}
	return s.repo.List(ctx, f)
}

func (s *CommentService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("comment", err)
	}
	return c, nil
}

func (s *CommentService) Create(ctx context.Context, in CommentInput, createdBy uuid.UUID) (*domain.Comment, error) {
	var extra []FieldError
	if in.RelatedTo != "" && in.RelatedTo != domain.CommentGeneral && in.RelatedID == nil {
		extra = append(extra, FieldError{Field: "relatedId", Message: "is required unless relatedTo is general"})
	}
	if err := validateStruct(in, extra...); err != nil {
		return nil, err
	}
	c := &domain.Comment{
		Content:   in.Content,
		RelatedTo: in.RelatedTo,
		RelatedID: in.RelatedID,
		CreatedBy: createdBy,
	}
	c.Normalize()
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CommentService) Update(ctx context.Context, id uuid.UUID, in CommentUpdate) (*domain.Comment, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("comment", err)
	}
	c.Content = in.Content
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, notFound("comment", err)
	}
	return c, nil
}

func (s *CommentService) Delete(ctx context.Context, id uuid.UUID) error {
	return notFound("comment", s.repo.Delete(ctx, id))
}
