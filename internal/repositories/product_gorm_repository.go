package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lapak/internal/models"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// ListByOwner retrieves the owner's products, newest first.
func (r *GORMProductRepository) ListByOwner(ownerID string) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products for owner %s: %w", ownerID, err)
	}
	return products, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// UpdateForOwner applies the partial update as a single statement filtered by
// both id and owner, so a product can never be mutated through someone
// else's ID. RowsAffected distinguishes "no match" from success; unknown id
// and foreign owner are deliberately indistinguishable.
func (r *GORMProductRepository) UpdateForOwner(id, ownerID string, upd models.ProductUpdate) (*models.Product, error) {
	fields := map[string]interface{}{}
	if upd.Name != nil {
		fields["name"] = *upd.Name
	}
	if upd.Price != nil {
		fields["price"] = *upd.Price
	}
	if upd.Quantity != nil {
		fields["quantity"] = *upd.Quantity
	}

	if len(fields) > 0 {
		res := r.db.Model(&models.Product{}).
			Where("id = ? AND owner_id = ?", id, ownerID).
			Updates(fields)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to update product: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}

	var product models.Product
	if err := r.db.First(&product, "id = ? AND owner_id = ?", id, ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to reload product: %w", err)
	}
	return &product, nil
}

// DeleteForOwner removes the product matching both id and owner and returns
// the deleted record.
func (r *GORMProductRepository) DeleteForOwner(id, ownerID string) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, "id = ? AND owner_id = ?", id, ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product for deletion: %w", err)
	}

	res := r.db.Delete(&models.Product{}, "id = ? AND owner_id = ?", id, ownerID)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Deleted concurrently between the read and the delete.
		return nil, ErrNotFound
	}
	return &product, nil
}
