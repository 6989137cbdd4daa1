package catalog

import (
	"context"
	"errors"

	"licoreria-service/internal/models"

	"github.com/shopspring/decimal"
)

// ErrPrecioNoEncontrado indica que la combinación (producto, subtipo,
// emisión) no está configurada en el catálogo.
var ErrPrecioNoEncontrado = errors.New("precio no configurado en el catálogo")

// Provider define la interfaz del catálogo de productos que consume el
// core. El core nunca escribe precios; el catálogo es un colaborador
// externo de solo lectura.
type Provider interface {
	// Entrada retorna la fila completa del catálogo para una emisión.
	Entrada(ctx context.Context, producto, subtipo, emision string) (*models.PrecioEmision, error)

	// PrecioUnitario retorna el precio USD de la emisión según el tier.
	PrecioUnitario(ctx context.Context, producto, emision, subtipo string, tier models.Tier) (decimal.Decimal, error)

	// PrecioBs retorna el precio en bolívares según el tier. Configurado
	// de forma independiente al precio USD (nunca derivado por tasa).
	PrecioBs(ctx context.Context, producto, emision, subtipo string, tier models.Tier) (decimal.Decimal, error)

	// Costo retorna el precio de costo de la emisión.
	Costo(ctx context.Context, producto, emision, subtipo string) (decimal.Decimal, error)

	// UnidadesPorEmision retorna las unidades base que contiene una
	// emisión para un subtipo. Combinaciones desconocidas retornan 1.
	UnidadesPorEmision(ctx context.Context, emision, subtipo string) int

	// EmisionesConfiguradas lista las emisiones con precio configurado
	// para un (producto, subtipo), incluyendo las no estándar.
	EmisionesConfiguradas(ctx context.Context, producto, subtipo string) ([]models.PrecioEmision, error)
}

// precioPorTier resuelve el campo de precio que corresponde al tier.
func precioPorTier(e *models.PrecioEmision, tier models.Tier, enBs bool) decimal.Decimal {
	if enBs {
		if tier == models.TierLocal {
			return e.PrecioBsLocal
		}
		return e.PrecioBs
	}
	if tier == models.TierLocal {
		return e.PrecioUsdLocal
	}
	return e.PrecioUsd
}
