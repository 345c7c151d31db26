package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"lapak/internal/middleware"
	"lapak/internal/models"
	"lapak/internal/repositories"
	"lapak/internal/services"
)

// ProductHandler handles HTTP requests for the authenticated user's
// products. Every route assumes the auth gate already ran.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// RegisterRoutes registers the product routes on the given (protected) router.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleListProducts)
	router.Post("/", h.HandleCreateProduct)
	router.Put("/:id", h.HandleUpdateProduct)
	router.Delete("/:id", h.HandleDeleteProduct)
}

// HandleListProducts returns the caller's products, newest first.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	ownerID, _ := c.Locals(middleware.LocalsUserID).(string)

	products, err := h.service.ListProducts(ownerID)
	if err != nil {
		log.Printf("Error listing products for owner %s: %v", ownerID, err)
		return serverError(c, "Could not retrieve products")
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"products": products,
	})
}

// CreateProductRequest represents the request body for product creation.
type CreateProductRequest struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// HandleCreateProduct validates and stores a new product for the caller.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	ownerID, _ := c.Locals(middleware.LocalsUserID).(string)

	var req CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing create product body: %v", err)
		return badRequest(c, "Invalid request body")
	}

	product, err := h.service.CreateProduct(ownerID, req.Name, req.Price, req.Quantity)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Validation failed",
				"errors":  verr.Fields,
			})
		}
		log.Printf("Error creating product for owner %s: %v", ownerID, err)
		return serverError(c, "Failed to add product")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Product added!",
		"product": product,
	})
}

// HandleUpdateProduct applies a partial update to the caller's product.
// A product that doesn't exist and a product owned by someone else get the
// same 404, so other users' inventories stay invisible.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	ownerID, _ := c.Locals(middleware.LocalsUserID).(string)
	productID := c.Params("id")

	var upd models.ProductUpdate
	if err := decodeStrict(c.Body(), &upd); err != nil {
		log.Printf("Error parsing update product body: %v", err)
		return badRequest(c, "Invalid request body")
	}

	product, err := h.service.UpdateProduct(productID, ownerID, upd)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Validation failed",
				"errors":  verr.Fields,
			})
		case errors.Is(err, repositories.ErrNotFound):
			return notFound(c, "Product not found or unauthorized")
		}
		log.Printf("Error updating product %s for owner %s: %v", productID, ownerID, err)
		return serverError(c, "Failed to update product")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Product updated!",
		"product": product,
	})
}

// HandleDeleteProduct removes the caller's product and echoes the deleted record.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	ownerID, _ := c.Locals(middleware.LocalsUserID).(string)
	productID := c.Params("id")

	product, err := h.service.DeleteProduct(productID, ownerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound(c, "Product not found or unauthorized")
		}
		log.Printf("Error deleting product %s for owner %s: %v", productID, ownerID, err)
		return serverError(c, "Failed to delete product")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Product deleted!",
		"product": product,
	})
}
