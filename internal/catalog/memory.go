package catalog

import (
	"context"
	"fmt"
	"sync"

	"licoreria-service/internal/models"

	"github.com/shopspring/decimal"
)

// MemoryCatalog es un Provider en memoria. Se usa en tests y como
// catálogo semilla en entornos sin base de datos.
type MemoryCatalog struct {
	mu      sync.RWMutex
	precios map[string]models.PrecioEmision
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		precios: make(map[string]models.PrecioEmision),
	}
}

func clavePrecio(producto, subtipo, emision string) string {
	return fmt.Sprintf("%s|%s|%s", producto, subtipo, emision)
}

// Configurar registra o reemplaza una fila del catálogo.
func (m *MemoryCatalog) Configurar(p models.PrecioEmision) {
	if p.Unidades < 1 {
		p.Unidades = 1
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.precios[clavePrecio(p.Producto, p.Subtipo, p.Emision)] = p
}

func (m *MemoryCatalog) Entrada(_ context.Context, producto, subtipo, emision string) (*models.PrecioEmision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.precios[clavePrecio(producto, subtipo, emision)]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s/%s", ErrPrecioNoEncontrado, producto, subtipo, emision)
	}
	return &p, nil
}

func (m *MemoryCatalog) PrecioUnitario(ctx context.Context, producto, emision, subtipo string, tier models.Tier) (decimal.Decimal, error) {
	e, err := m.Entrada(ctx, producto, subtipo, emision)
	if err != nil {
		return decimal.Zero, err
	}
	return precioPorTier(e, tier, false), nil
}

func (m *MemoryCatalog) PrecioBs(ctx context.Context, producto, emision, subtipo string, tier models.Tier) (decimal.Decimal, error) {
	e, err := m.Entrada(ctx, producto, subtipo, emision)
	if err != nil {
		return decimal.Zero, err
	}
	return precioPorTier(e, tier, true), nil
}

func (m *MemoryCatalog) Costo(ctx context.Context, producto, emision, subtipo string) (decimal.Decimal, error) {
	e, err := m.Entrada(ctx, producto, subtipo, emision)
	if err != nil {
		return decimal.Zero, err
	}
	return e.Costo, nil
}

// UnidadesPorEmision busca la primera fila configurada con esa emisión y
// subtipo. "Unidad" siempre vale 1; combinaciones desconocidas también.
func (m *MemoryCatalog) UnidadesPorEmision(_ context.Context, emision, subtipo string) int {
	if emision == models.EmisionUnidad {
		return 1
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.precios {
		if p.Emision == emision && p.Subtipo == subtipo {
			return p.Unidades
		}
	}
	return 1
}

func (m *MemoryCatalog) EmisionesConfiguradas(_ context.Context, producto, subtipo string) ([]models.PrecioEmision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.PrecioEmision
	for _, p := range m.precios {
		if p.Producto == producto && p.Subtipo == subtipo {
			result = append(result, p)
		}
	}
	return result, nil
}
