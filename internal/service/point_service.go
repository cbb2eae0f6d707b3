package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"

	"github.com/ecol-app/ecol/internal/domain"
	"github.com/ecol-app/ecol/internal/imagestore"
	"github.com/go-playground/validator/v10"
)

var (
	ErrPointNotFound = errors.New("point not found")
	ErrUnknownItem   = errors.New("unknown item")
)

// pointRepository is the subset of store.PointStore that PointService requires.
type pointRepository interface {
	CreateWithItems(ctx context.Context, p *domain.Point, itemIDs []int64) (*domain.Point, error)
	GetByID(ctx context.Context, id int64) (*domain.Point, error)
	List(ctx context.Context, filter domain.PointFilter) ([]*domain.Point, error)
	Delete(ctx context.Context, id int64) error
}

// itemRepository is the subset of store.ItemStore that PointService requires.
type itemRepository interface {
	List(ctx context.Context) ([]*domain.Item, error)
	ListByPointID(ctx context.Context, pointID int64) ([]*domain.Item, error)
	ExistingIDs(ctx context.Context, ids []int64) ([]int64, error)
}

// CreatePointInput is the data needed to register a collection point.
type CreatePointInput struct {
	Name      string  `validate:"required,max=200"`
	Email     string  `validate:"required,email,max=200"`
	Whatsapp  string  `validate:"required,max=20"`
	Latitude  float64 `validate:"latitude"`
	Longitude float64 `validate:"longitude"`
	City      string  `validate:"required,max=100"`
	State     string  `validate:"required,len=2,alpha"`
	Items     []int64 `validate:"required,min=1,dive,gt=0"`
}

// Image is an uploaded point picture whose type has already been sniffed.
type Image struct {
	Data     []byte
	MimeType string
}

// PointDetail bundles a point with the items it accepts.
type PointDetail struct {
	Point *domain.Point
	Items []*domain.Item
}

// ValidationError maps input field names to human-readable problems.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "invalid point: " + strings.Join(parts, "; ")
}

type PointService struct {
	pointStore   pointRepository
	itemStore    itemRepository
	imageStg     imagestore.ImageStore
	defaultImage string
	validate     *validator.Validate
	logger       *slog.Logger
}

func NewPointService(
	pointStore pointRepository,
	itemStore itemRepository,
	imageStg imagestore.ImageStore,
	defaultImage string,
	logger *slog.Logger,
) *PointService {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.ToLower(f.Name)
	})

	return &PointService{
		pointStore:   pointStore,
		itemStore:    itemStore,
		imageStg:     imageStg,
		defaultImage: defaultImage,
		validate:     v,
		logger:       logger,
	}
}

func (s *PointService) ListItems(ctx context.Context) ([]*domain.Item, error) {
	return s.itemStore.List(ctx)
}

func (s *PointService) ListPoints(ctx context.Context, filter domain.PointFilter) ([]*domain.Point, error) {
	filter.City = strings.TrimSpace(filter.City)
	filter.State = strings.ToUpper(strings.TrimSpace(filter.State))
	return s.pointStore.List(ctx, filter)
}

func (s *PointService) GetPoint(ctx context.Context, id int64) (*PointDetail, error) {
	point, err := s.pointStore.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get point: %w", err)
	}
	if point == nil {
		return nil, ErrPointNotFound
	}

	items, err := s.itemStore.ListByPointID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	return &PointDetail{Point: point, Items: items}, nil
}

// CreatePoint validates input, stores the optional image and inserts the point
// together with its item links. image may be nil, in which case the default
// image URL is used.
func (s *PointService) CreatePoint(ctx context.Context, input CreatePointInput, image *Image) (*domain.Point, error) {
	input = normalize(input)
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	existing, err := s.itemStore.ExistingIDs(ctx, input.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to check items: %w", err)
	}
	if missing := missingIDs(input.Items, existing); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnknownItem, missing)
	}

	point := &domain.Point{
		Image:     s.defaultImage,
		Name:      input.Name,
		Email:     input.Email,
		Whatsapp:  input.Whatsapp,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		City:      input.City,
		State:     input.State,
	}

	if image != nil {
		key, err := s.imageStg.Save(ctx, "point", image.MimeType, bytes.NewReader(image.Data))
		if err != nil {
			return nil, fmt.Errorf("failed to save image: %w", err)
		}
		s.logger.Debug("point image saved", "storage_key", key, "bytes", len(image.Data))
		point.Image = key
	}

	created, err := s.pointStore.CreateWithItems(ctx, point, input.Items)
	if err != nil {
		if point.HasUploadedImage() {
			if stgErr := s.imageStg.Delete(ctx, point.Image); stgErr != nil {
				s.logger.Error("failed to remove image after create error", "storage_key", point.Image, "error", stgErr)
			}
		}
		return nil, fmt.Errorf("failed to create point: %w", err)
	}

	s.logger.Info("point created", "point_id", created.ID, "city", created.City, "state", created.State, "items", len(input.Items))
	return created, nil
}

// DeletePoint removes a point, its item links and its uploaded image.
func (s *PointService) DeletePoint(ctx context.Context, id int64) error {
	point, err := s.pointStore.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get point: %w", err)
	}
	if point == nil {
		return ErrPointNotFound
	}

	if err := s.pointStore.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete point: %w", err)
	}

	if point.HasUploadedImage() {
		if err := s.imageStg.Delete(ctx, point.Image); err != nil {
			s.logger.Error("failed to delete point image", "storage_key", point.Image, "error", err)
		}
	}

	s.logger.Info("point deleted", "point_id", id)
	return nil
}

func (s *PointService) validateInput(input CreatePointInput) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate point: %w", err)
	}

	verr := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		verr.Fields[fe.Field()] = describe(fe)
	}
	return verr
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "latitude":
		return "must be between -90 and 90"
	case "longitude":
		return "must be between -180 and 180"
	case "len":
		return fmt.Sprintf("must have exactly %s characters", fe.Param())
	case "alpha":
		return "must contain only letters"
	case "max":
		return fmt.Sprintf("must have at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must contain at least %s item", fe.Param())
	case "gt":
		return "must be a positive id"
	default:
		return "is invalid"
	}
}

func normalize(input CreatePointInput) CreatePointInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Whatsapp = strings.TrimSpace(input.Whatsapp)
	input.City = strings.TrimSpace(input.City)
	input.State = strings.ToUpper(strings.TrimSpace(input.State))

	seen := make(map[int64]bool, len(input.Items))
	unique := make([]int64, 0, len(input.Items))
	for _, id := range input.Items {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	input.Items = unique
	return input
}

func missingIDs(want, found []int64) []int64 {
	var missing []int64
	for _, id := range want {
		if !slices.Contains(found, id) {
			missing = append(missing, id)
		}
	}
	return missing
}
