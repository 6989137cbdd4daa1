package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"licoreria-service/internal/catalog"
	"licoreria-service/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func catalogoPrueba() *catalog.MemoryCatalog {
	c := catalog.NewMemoryCatalog()
	c.Configurar(models.PrecioEmision{
		Producto: "Polar", Subtipo: models.SubtipoLata, Emision: models.EmisionSixPack,
		Unidades: 6, PrecioUsdLocal: decimal.NewFromInt(5),
	})
	return c
}

func ledgerConStock(t *testing.T, producto string, unidades int) *MemoryLedger {
	t.Helper()
	l := NewMemoryLedger(catalogoPrueba(), zap.NewNop())
	if unidades > 0 {
		if err := l.Reponer(context.Background(), producto, models.EmisionUnidad, models.SubtipoLata, unidades, "carga inicial"); err != nil {
			t.Fatalf("Reponer: %v", err)
		}
	}
	return l
}

func TestTryDescontarInsuficiente(t *testing.T) {
	ctx := context.Background()
	l := ledgerConStock(t, "Polar", 3)

	err := l.TryDescontar(ctx, "Polar", models.EmisionUnidad, models.SubtipoLata, 4, "venta")
	if !errors.Is(err, ErrStockInsuficiente) {
		t.Fatalf("err = %v, esperaba ErrStockInsuficiente", err)
	}

	// El rechazo no muta el stock
	disponible, err := l.Disponible(ctx, "Polar", models.SubtipoLata)
	if err != nil {
		t.Fatalf("Disponible: %v", err)
	}
	if disponible != 3 {
		t.Errorf("disponible = %d, esperaba 3", disponible)
	}
}

func TestTryDescontarConvierteEmisionAUnidades(t *testing.T) {
	ctx := context.Background()
	l := ledgerConStock(t, "Polar", 12)

	if err := l.TryDescontar(ctx, "Polar", models.EmisionSixPack, models.SubtipoLata, 1, "venta"); err != nil {
		t.Fatalf("TryDescontar: %v", err)
	}

	disponible, _ := l.Disponible(ctx, "Polar", models.SubtipoLata)
	if disponible != 6 {
		t.Errorf("disponible = %d, esperaba 6", disponible)
	}
}

func TestVerificarStockPorEmision(t *testing.T) {
	ctx := context.Background()
	l := ledgerConStock(t, "Polar", 11)

	// 11 unidades no alcanzan para 2 six packs (12)
	ok, err := l.VerificarStock(ctx, "Polar", models.EmisionSixPack, models.SubtipoLata, 2)
	if err != nil {
		t.Fatalf("VerificarStock: %v", err)
	}
	if ok {
		t.Error("esperaba stock insuficiente para 2 six packs")
	}

	ok, _ = l.VerificarStock(ctx, "Polar", models.EmisionSixPack, models.SubtipoLata, 1)
	if !ok {
		t.Error("esperaba stock suficiente para 1 six pack")
	}
}

func TestTryDescontarConcurrenteNoSobrevende(t *testing.T) {
	ctx := context.Background()
	l := ledgerConStock(t, "Polar", 50)

	var wg sync.WaitGroup
	var mu sync.Mutex
	exitos := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.TryDescontar(ctx, "Polar", models.EmisionUnidad, models.SubtipoLata, 1, "venta concurrente"); err == nil {
				mu.Lock()
				exitos++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if exitos != 50 {
		t.Errorf("descuentos exitosos = %d, esperaba exactamente 50", exitos)
	}
	disponible, _ := l.Disponible(ctx, "Polar", models.SubtipoLata)
	if disponible != 0 {
		t.Errorf("disponible = %d, esperaba 0", disponible)
	}
}

func TestMovimientosRegistranCantidades(t *testing.T) {
	ctx := context.Background()
	l := ledgerConStock(t, "Polar", 12)

	if err := l.TryDescontar(ctx, "Polar", models.EmisionSixPack, models.SubtipoLata, 1, "venta"); err != nil {
		t.Fatalf("TryDescontar: %v", err)
	}

	salida := models.MovimientoSalida
	movs, err := l.Movimientos(ctx, &models.MovimientoFilter{TipoMovimiento: &salida})
	if err != nil {
		t.Fatalf("Movimientos: %v", err)
	}
	if len(movs) != 1 {
		t.Fatalf("movimientos de salida = %d, esperaba 1", len(movs))
	}

	mov := movs[0]
	if mov.Cantidad != 6 || mov.CantidadAnterior != 12 || mov.CantidadNueva != 6 {
		t.Errorf("movimiento = %+v, esperaba 6 unidades de 12 a 6", mov)
	}
}

func TestStockActualListaTodo(t *testing.T) {
	ctx := context.Background()
	l := ledgerConStock(t, "Polar", 5)
	if err := l.Reponer(ctx, "Zulia", models.EmisionUnidad, models.SubtipoLata, 8, "carga inicial"); err != nil {
		t.Fatalf("Reponer: %v", err)
	}

	stocks, err := l.StockActual(ctx)
	if err != nil {
		t.Fatalf("StockActual: %v", err)
	}
	if len(stocks) != 2 {
		t.Fatalf("stocks = %d, esperaba 2", len(stocks))
	}

	porProducto := map[string]int{}
	for _, s := range stocks {
		porProducto[s.Producto] = s.CantidadActual
	}
	if porProducto["Polar"] != 5 || porProducto["Zulia"] != 8 {
		t.Errorf("cantidades = %v, esperaba Polar 5 y Zulia 8", porProducto)
	}
}
