package dto

import (
	"time"

	"oficina/internal/core/types"
	"oficina/internal/domain/catalog/product"
)

// CreateProductRequest for registering a product.
type CreateProductRequest struct {
	Name             string         `json:"name" binding:"required"`
	SKU              string         `json:"sku" binding:"required"`
	Category         string         `json:"category"`
	Supplier         string         `json:"supplier"`
	UnitCost         types.Money    `json:"unitCost"`
	MinimumThreshold types.Quantity `json:"minimumThreshold"`
}

// UpdateProductRequest for editing a product.
type UpdateProductRequest struct {
	Name             string         `json:"name" binding:"required"`
	SKU              string         `json:"sku" binding:"required"`
	Category         string         `json:"category"`
	Supplier         string         `json:"supplier"`
	UnitCost         types.Money    `json:"unitCost"`
	MinimumThreshold types.Quantity `json:"minimumThreshold"`
}

// ProductResponse contains product fields.
type ProductResponse struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	SKU              string         `json:"sku"`
	Category         string         `json:"category,omitempty"`
	Supplier         string         `json:"supplier,omitempty"`
	UnitCost         types.Money    `json:"unitCost"`
	MinimumThreshold types.Quantity `json:"minimumThreshold"`
	CurrentQuantity  types.Quantity `json:"currentQuantity"`
	Active           bool           `json:"active"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// FromProduct creates ProductResponse from the domain model.
func FromProduct(p *product.Product) ProductResponse {
	return ProductResponse{
		ID:               p.ID.String(),
		Name:             p.Name,
		SKU:              p.SKU,
		Category:         p.Category,
		Supplier:         p.Supplier,
		UnitCost:         p.UnitCost,
		MinimumThreshold: p.MinimumThreshold,
		CurrentQuantity:  p.CurrentQuantity,
		Active:           p.Active,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// FromProducts maps a slice of products.
func FromProducts(items []*product.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(items))
	for _, p := range items {
		out = append(out, FromProduct(p))
	}
	return out
}
