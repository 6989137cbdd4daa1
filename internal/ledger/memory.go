package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"licoreria-service/internal/catalog"
	"licoreria-service/internal/models"

	"go.uber.org/zap"
)

// MemoryLedger implementa Ledger en memoria con un mutex por clave
// (producto, subtipo). El descuento condicional se resuelve bajo el
// candado de la clave, de modo que dos descuentos concurrentes sobre el
// mismo producto nunca pueden sobrevender.
type MemoryLedger struct {
	catalogo catalog.Provider
	logger   *zap.Logger

	mu        sync.Mutex
	cerrojos  map[string]*sync.Mutex
	cantidad  map[string]int
	historial []*models.Movimiento
}

// NewMemoryLedger crea una nueva instancia del ledger en memoria.
func NewMemoryLedger(catalogo catalog.Provider, logger *zap.Logger) *MemoryLedger {
	return &MemoryLedger{
		catalogo: catalogo,
		logger:   logger,
		cerrojos: make(map[string]*sync.Mutex),
		cantidad: make(map[string]int),
	}
}

func claveStock(producto, subtipo string) string {
	return producto + "|" + subtipo
}

// cerrojo retorna el mutex de una clave, creándolo si no existe.
func (l *MemoryLedger) cerrojo(clave string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.cerrojos[clave]
	if !ok {
		m = &sync.Mutex{}
		l.cerrojos[clave] = m
	}
	return m
}

func (l *MemoryLedger) VerificarStock(ctx context.Context, producto, emision, subtipo string, cantidadPacks int) (bool, error) {
	requerido := cantidadPacks * l.catalogo.UnidadesPorEmision(ctx, emision, subtipo)

	clave := claveStock(producto, subtipo)
	m := l.cerrojo(clave)
	m.Lock()
	defer m.Unlock()

	return l.cantidad[clave] >= requerido, nil
}

func (l *MemoryLedger) TryDescontar(ctx context.Context, producto, emision, subtipo string, cantidadPacks int, motivo string) error {
	requerido := cantidadPacks * l.catalogo.UnidadesPorEmision(ctx, emision, subtipo)

	clave := claveStock(producto, subtipo)
	m := l.cerrojo(clave)
	m.Lock()
	defer m.Unlock()

	anterior := l.cantidad[clave]
	if anterior < requerido {
		return fmt.Errorf("%w: %s/%s disponible %d, solicitado %d",
			ErrStockInsuficiente, producto, subtipo, anterior, requerido)
	}

	nueva := anterior - requerido
	l.cantidad[clave] = nueva
	l.registrar(producto, subtipo, models.MovimientoSalida, requerido, anterior, nueva, motivo)

	l.logger.Debug("Stock descontado",
		zap.String("producto", producto),
		zap.String("subtipo", subtipo),
		zap.Int("unidades", requerido),
		zap.Int("cantidad_nueva", nueva))

	return nil
}

func (l *MemoryLedger) Reponer(ctx context.Context, producto, emision, subtipo string, cantidadPacks int, motivo string) error {
	unidades := cantidadPacks * l.catalogo.UnidadesPorEmision(ctx, emision, subtipo)

	clave := claveStock(producto, subtipo)
	m := l.cerrojo(clave)
	m.Lock()
	defer m.Unlock()

	anterior := l.cantidad[clave]
	nueva := anterior + unidades
	l.cantidad[clave] = nueva
	l.registrar(producto, subtipo, models.MovimientoEntrada, unidades, anterior, nueva, motivo)

	return nil
}

func (l *MemoryLedger) Disponible(_ context.Context, producto, subtipo string) (int, error) {
	clave := claveStock(producto, subtipo)
	m := l.cerrojo(clave)
	m.Lock()
	defer m.Unlock()

	return l.cantidad[clave], nil
}

func (l *MemoryLedger) StockActual(_ context.Context) ([]*models.Stock, error) {
	l.mu.Lock()
	claves := make([]string, 0, len(l.cantidad))
	for clave := range l.cantidad {
		claves = append(claves, clave)
	}
	l.mu.Unlock()

	var stocks []*models.Stock
	for _, clave := range claves {
		m := l.cerrojo(clave)
		m.Lock()
		cantidad := l.cantidad[clave]
		m.Unlock()

		var producto, subtipo string
		for i := 0; i < len(clave); i++ {
			if clave[i] == '|' {
				producto, subtipo = clave[:i], clave[i+1:]
				break
			}
		}
		stocks = append(stocks, &models.Stock{
			Producto:       producto,
			Subtipo:        subtipo,
			CantidadActual: cantidad,
		})
	}

	return stocks, nil
}

func (l *MemoryLedger) Movimientos(_ context.Context, filter *models.MovimientoFilter) ([]*models.Movimiento, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var result []*models.Movimiento
	for _, mov := range l.historial {
		if filter != nil {
			if filter.Producto != nil && mov.Producto != *filter.Producto {
				continue
			}
			if filter.Subtipo != nil && mov.Subtipo != *filter.Subtipo {
				continue
			}
			if filter.TipoMovimiento != nil && mov.TipoMovimiento != *filter.TipoMovimiento {
				continue
			}
		}
		result = append(result, mov)
	}

	if filter != nil && filter.Limit > 0 && len(result) > filter.Limit {
		result = result[len(result)-filter.Limit:]
	}

	return result, nil
}

// registrar agrega un movimiento al historial. Se llama con el cerrojo
// de la clave tomado; el historial tiene su propio candado.
func (l *MemoryLedger) registrar(producto, subtipo, tipo string, cantidad, anterior, nueva int, motivo string) {
	mov := &models.Movimiento{
		Producto:         producto,
		Subtipo:          subtipo,
		TipoMovimiento:   tipo,
		Cantidad:         cantidad,
		CantidadAnterior: anterior,
		CantidadNueva:    nueva,
		Motivo:           motivo,
		CreatedAt:        time.Now(),
	}

	l.mu.Lock()
	mov.ID = len(l.historial) + 1
	l.historial = append(l.historial, mov)
	l.mu.Unlock()
}
