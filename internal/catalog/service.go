package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/qrstock/qrstock/internal/activity"
	"github.com/qrstock/qrstock/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	GetByID(ctx context.Context, id int64) (Product, error)
	GetByCode(ctx context.Context, code string) (Product, error)
	List(ctx context.Context, filter ListFilter) ([]Product, int, error)
	Create(ctx context.Context, code string, input NewProduct, createdBy int64) (Product, error)
	UpdateFields(ctx context.Context, id int64, update FieldUpdate) (Product, error)
	Delete(ctx context.Context, id int64) error
}

// ActivityPort abstracts the audit trail.
type ActivityPort interface {
	Record(ctx context.Context, entry activity.Entry) error
}

// Service coordinates catalog reads and non-quantity mutations. Every
// mutation writes one activity entry summarising what changed.
type Service struct {
	repo     RepositoryPort
	activity ActivityPort
	codes    *CodeGenerator
}

// NewService builds Service.
func NewService(repo RepositoryPort, act ActivityPort, codes *CodeGenerator) *Service {
	if codes == nil {
		codes = NewCodeGenerator("")
	}
	return &Service{repo: repo, activity: act, codes: codes}
}

// LookupByID fetches one product by surrogate id.
func (s *Service) LookupByID(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, fmt.Errorf("catalog: product id required: %w", shared.ErrInvalidArgument)
	}
	return s.repo.GetByID(ctx, id)
}

// LookupByCode fetches one product by its scannable code.
func (s *Service) LookupByCode(ctx context.Context, code string) (Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Product{}, fmt.Errorf("catalog: code required: %w", shared.ErrInvalidArgument)
	}
	return s.repo.GetByCode(ctx, code)
}

// List returns products matching the filter with pagination metadata.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Product, shared.Pagination, error) {
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return products, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Create assigns a code, inserts the product and records a create activity.
func (s *Service) Create(ctx context.Context, input NewProduct, actorID int64) (Product, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return Product{}, fmt.Errorf("catalog: name required: %w", shared.ErrInvalidArgument)
	}
	if input.Quantity < 0 {
		return Product{}, fmt.Errorf("catalog: initial quantity must not be negative: %w", shared.ErrInvalidArgument)
	}

	code := s.codes.Next()
	product, err := s.repo.Create(ctx, code, input, actorID)
	if err != nil {
		return Product{}, err
	}

	if s.activity != nil {
		_ = s.activity.Record(ctx, activity.Entry{
			ProductID: activity.OptionalID(product.ID),
			ActorID:   activity.OptionalID(actorID),
			Action:    activity.ActionCreate,
			Detail: map[string]any{
				"code":     product.Code,
				"name":     product.Name,
				"quantity": product.Quantity,
			},
		})
	}
	return product, nil
}

// UpdateFields applies a partial edit of descriptive columns and records an
// update activity naming the touched fields. Quantity is not a valid field
// here; the route layer rejects it before building the FieldUpdate.
func (s *Service) UpdateFields(ctx context.Context, id int64, update FieldUpdate, actorID int64) (Product, error) {
	if id <= 0 {
		return Product{}, fmt.Errorf("catalog: product id required: %w", shared.ErrInvalidArgument)
	}
	if update.IsEmpty() {
		return s.repo.GetByID(ctx, id)
	}

	product, err := s.repo.UpdateFields(ctx, id, update)
	if err != nil {
		return Product{}, err
	}

	if s.activity != nil {
		_ = s.activity.Record(ctx, activity.Entry{
			ProductID: activity.OptionalID(product.ID),
			ActorID:   activity.OptionalID(actorID),
			Action:    activity.ActionUpdate,
			Detail: map[string]any{
				"fields": changedFields(update),
			},
		})
	}
	return product, nil
}

// Delete removes a product and records a delete activity. The entry keeps
// the code and name since the product row is gone afterwards.
func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.activity != nil {
		_ = s.activity.Record(ctx, activity.Entry{
			ActorID: activity.OptionalID(actorID),
			Action:  activity.ActionDelete,
			Detail: map[string]any{
				"code": product.Code,
				"name": product.Name,
			},
		})
	}
	return nil
}

func changedFields(update FieldUpdate) []string {
	var fields []string
	if update.Name != nil {
		fields = append(fields, "name")
	}
	if update.Category != nil {
		fields = append(fields, "category")
	}
	if update.AssetCode != nil {
		fields = append(fields, "asset_code")
	}
	if update.ImportDate != nil {
		fields = append(fields, "import_date")
	}
	if update.Unit != nil {
		fields = append(fields, "unit")
	}
	if update.ImageRef != nil {
		fields = append(fields, "image_ref")
	}
	return fields
}
