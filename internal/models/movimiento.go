package models

import (
	"time"
)

// Tipos de movimiento de stock.
const (
	MovimientoEntrada = "entrada"
	MovimientoSalida  = "salida"
)

// Movimiento representa la tabla stock_movimientos: un registro
// inmutable por cada descuento o reposición del ledger.
type Movimiento struct {
	ID               int       `json:"id" db:"id"`
	Producto         string    `json:"producto" db:"producto"`
	Subtipo          string    `json:"subtipo" db:"subtipo"`
	TipoMovimiento   string    `json:"tipo_movimiento" db:"tipo_movimiento"`
	Cantidad         int       `json:"cantidad" db:"cantidad"`
	CantidadAnterior int       `json:"cantidad_anterior" db:"cantidad_anterior"`
	CantidadNueva    int       `json:"cantidad_nueva" db:"cantidad_nueva"`
	Motivo           string    `json:"motivo" db:"motivo"`
	Referencia       string    `json:"referencia" db:"referencia"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// MovimientoFilter filtros para consultas de movimientos
type MovimientoFilter struct {
	Producto       *string    `json:"producto,omitempty"`
	Subtipo        *string    `json:"subtipo,omitempty"`
	TipoMovimiento *string    `json:"tipo_movimiento,omitempty"`
	FechaDesde     *time.Time `json:"fecha_desde,omitempty"`
	FechaHasta     *time.Time `json:"fecha_hasta,omitempty"`
	Limit          int        `json:"limit,omitempty"`
	Offset         int        `json:"offset,omitempty"`
}
