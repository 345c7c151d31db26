package repositories

import (
	"lapak/internal/models"
)

// ProductRepository defines the interface for product data access. Every
// read and mutation is filtered by owner: a product is never visible to, or
// mutable by, anyone other than the user referenced by its owner field.
type ProductRepository interface {
	// ListByOwner returns the owner's products, newest first.
	ListByOwner(ownerID string) ([]models.Product, error)
	Create(product *models.Product) error
	// UpdateForOwner applies the partial update to the product matching both
	// id and owner and returns the updated record. Returns ErrNotFound when
	// no product matches, whether the id is unknown or owned by someone else.
	UpdateForOwner(id, ownerID string, upd models.ProductUpdate) (*models.Product, error)
	// DeleteForOwner removes the product matching both id and owner and
	// returns the deleted record, with the same ErrNotFound semantics.
	DeleteForOwner(id, ownerID string) (*models.Product, error)
}
