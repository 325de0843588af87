package dto

import "time"

// CreateProductRequest body para POST /api/products.
type CreateProductRequest struct {
	Name           string `json:"name"`
	AvailableStock int    `json:"availableStock"`
}

// UpdateProductRequest body para PUT /api/products/:id (campos opcionales).
type UpdateProductRequest struct {
	Name           *string `json:"name,omitempty"`
	AvailableStock *int    `json:"availableStock,omitempty"`
}

// ProductResponse representación de un producto.
type ProductResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	AvailableStock int       `json:"availableStock"`
	Version        int64     `json:"version"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
