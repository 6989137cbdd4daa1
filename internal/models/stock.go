package models

import (
	"time"
)

// Stock representa la tabla stock_licoreria: unidades base disponibles
// por (producto, subtipo). Invariante: CantidadActual >= 0 siempre.
type Stock struct {
	ID             int       `json:"id" db:"id"`
	Producto       string    `json:"producto" db:"producto"`
	Subtipo        string    `json:"subtipo" db:"subtipo"`
	CantidadActual int       `json:"cantidad_actual" db:"cantidad_actual"`
	CantidadMinima int       `json:"cantidad_minima" db:"cantidad_minima"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// StockWithDetails incluye el nombre visible del producto para reportes.
type StockWithDetails struct {
	Stock
	NombreProducto string `json:"nombre_producto,omitempty"`
}
