package ledger

import (
	"context"
	"errors"

	"licoreria-service/internal/models"
)

// ErrStockInsuficiente indica que un descuento fue rechazado por falta
// de unidades. Siempre recuperable: el caller elige otro producto,
// reduce la cantidad o aborta la acción del usuario.
var ErrStockInsuficiente = errors.New("stock insuficiente")

// Ledger es la única fuente de verdad de unidades disponibles por
// (producto, subtipo). Todas las cantidades se expresan en packs de la
// emisión indicada; el ledger convierte a unidades base vía el catálogo.
//
// El descuento es una operación única condicional (verificar+descontar
// fusionados): no existe un descuento sin verificación en la API
// pública, de modo que la carrera check-then-act queda cerrada por
// construcción. Reponer no tiene precondición ni tope superior.
type Ledger interface {
	// VerificarStock consulta si hay unidades suficientes. Consulta
	// pura, sin efectos.
	VerificarStock(ctx context.Context, producto, emision, subtipo string, cantidadPacks int) (bool, error)

	// TryDescontar descuenta atómicamente cantidadPacks × unidades de la
	// emisión. Retorna ErrStockInsuficiente sin mutación si no alcanza.
	TryDescontar(ctx context.Context, producto, emision, subtipo string, cantidadPacks int, motivo string) error

	// Reponer agrega unidades de vuelta (restauración, cancelación o
	// entrada de inventario).
	Reponer(ctx context.Context, producto, emision, subtipo string, cantidadPacks int, motivo string) error

	// Disponible retorna las unidades base actuales de un producto.
	Disponible(ctx context.Context, producto, subtipo string) (int, error)

	// StockActual retorna el inventario completo.
	StockActual(ctx context.Context) ([]*models.Stock, error)

	// Movimientos retorna el historial de mutaciones del ledger.
	Movimientos(ctx context.Context, filter *models.MovimientoFilter) ([]*models.Movimiento, error)
}
