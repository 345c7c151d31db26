package services

import (
	"fmt"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"

	"lapak/internal/models"
	"lapak/internal/repositories"
	"lapak/pkg/events"
)

// ValidationError carries every violated constraint from one validation
// pass, keyed by field, so clients see all problems at once instead of one
// per round trip.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ProductService handles business logic related to products. All operations
// are scoped to the authenticated owner.
type ProductService struct {
	repo      repositories.ProductRepository
	publisher events.Publisher // nil disables event publication
	validate  *validator.Validate
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, publisher events.Publisher) *ProductService {
	return &ProductService{
		repo:      repo,
		publisher: publisher,
		validate:  validator.New(),
	}
}

// ListProducts retrieves the owner's products, newest first.
func (s *ProductService) ListProducts(ownerID string) ([]models.Product, error) {
	return s.repo.ListByOwner(ownerID)
}

// CreateProduct validates and stores a new product for the owner.
func (s *ProductService) CreateProduct(ownerID, name string, price float64, quantity int) (*models.Product, error) {
	product := &models.Product{
		Name:     name,
		Price:    price,
		Quantity: quantity,
		OwnerID:  ownerID,
	}
	if err := s.validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.repo.Create(product); err != nil {
		return nil, err
	}
	s.publishEvent(events.ProductCreated, product)
	return product, nil
}

// UpdateProduct applies a partial update to the owner's product. A product
// owned by someone else is indistinguishable from a missing one.
func (s *ProductService) UpdateProduct(id, ownerID string, upd models.ProductUpdate) (*models.Product, error) {
	if err := s.validateUpdate(upd); err != nil {
		return nil, err
	}
	product, err := s.repo.UpdateForOwner(id, ownerID, upd)
	if err != nil {
		return nil, err
	}
	s.publishEvent(events.ProductUpdated, product)
	return product, nil
}

// DeleteProduct removes the owner's product and returns the deleted record.
func (s *ProductService) DeleteProduct(id, ownerID string) (*models.Product, error) {
	product, err := s.repo.DeleteForOwner(id, ownerID)
	if err != nil {
		return nil, err
	}
	s.publishEvent(events.ProductDeleted, product)
	return product, nil
}

// validateProduct collects every violated constraint on a full product.
func (s *ProductService) validateProduct(product *models.Product) error {
	err := s.validate.Struct(product)
	if err == nil {
		return nil
	}
	violations, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("failed to validate product: %w", err)
	}
	fields := make(map[string]string, len(violations))
	for _, v := range violations {
		fields[strings.ToLower(v.Field())] = constraintMessage(v)
	}
	return &ValidationError{Fields: fields}
}

// validateUpdate checks only the fields the partial update sets, applying
// the same rules as creation.
func (s *ProductService) validateUpdate(upd models.ProductUpdate) error {
	fields := map[string]string{}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		fields["name"] = "must not be empty"
	}
	if upd.Price != nil && *upd.Price <= 0 {
		fields["price"] = "must be greater than 0"
	}
	if upd.Quantity != nil && *upd.Quantity <= 0 {
		fields["quantity"] = "must be greater than 0"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func constraintMessage(v validator.FieldError) string {
	switch v.Tag() {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", v.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", v.Param())
	default:
		return fmt.Sprintf("failed on the '%s' constraint", v.Tag())
	}
}

func (s *ProductService) publishEvent(routingKey string, product *models.Product) {
	if s.publisher == nil {
		return
	}
	payload := map[string]interface{}{
		"productId": product.ID,
		"ownerId":   product.OwnerID,
		"name":      product.Name,
		"price":     product.Price,
		"quantity":  product.Quantity,
	}
	if err := s.publisher.Publish(routingKey, payload); err != nil {
		log.Printf("Warning: failed to publish %s event for product %s: %v", routingKey, product.ID, err)
	}
}
