package repositories

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"lapak/internal/models"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
type MockProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]models.Product),
	}
}

// ListByOwner returns the owner's products, newest first.
func (r *MockProductRepository) ListByOwner(ownerID string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0)
	for _, p := range r.products {
		if p.OwnerID == ownerID {
			productList = append(productList, p)
		}
	}
	sort.Slice(productList, func(i, j int) bool {
		return productList[i].CreatedAt.After(productList[j].CreatedAt)
	})
	return productList, nil
}

// Create adds a new product.
func (r *MockProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.products[product.ID] = *product
	return nil
}

// UpdateForOwner applies the partial update if the product belongs to the owner.
func (r *MockProductRepository) UpdateForOwner(id, ownerID string, upd models.ProductUpdate) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok || product.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	if upd.Name != nil {
		product.Name = *upd.Name
	}
	if upd.Price != nil {
		product.Price = *upd.Price
	}
	if upd.Quantity != nil {
		product.Quantity = *upd.Quantity
	}
	product.UpdatedAt = time.Now()
	r.products[id] = product
	return &product, nil
}

// DeleteForOwner removes the product if it belongs to the owner.
func (r *MockProductRepository) DeleteForOwner(id, ownerID string) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok || product.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	delete(r.products, id)
	return &product, nil
}
