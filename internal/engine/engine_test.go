package engine

import (
	"context"
	"testing"

	"licoreria-service/internal/catalog"
	"licoreria-service/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// catálogo de prueba: Polar con las cuatro emisiones, Zulia sin precio
// local para la media caja.
func catalogoPrueba() *catalog.MemoryCatalog {
	c := catalog.NewMemoryCatalog()

	c.Configurar(models.PrecioEmision{
		Producto: "Polar", Subtipo: models.SubtipoLata, Emision: models.EmisionUnidad,
		Unidades: 1, PrecioUsd: dec("1.5"), PrecioUsdLocal: dec("1"),
		PrecioBs: dec("60"), PrecioBsLocal: dec("40"),
	})
	c.Configurar(models.PrecioEmision{
		Producto: "Polar", Subtipo: models.SubtipoLata, Emision: models.EmisionSixPack,
		Unidades: 6, PrecioUsd: dec("8"), PrecioUsdLocal: dec("5"),
		PrecioBs: dec("320"), PrecioBsLocal: dec("190"),
	})
	c.Configurar(models.PrecioEmision{
		Producto: "Polar", Subtipo: models.SubtipoLata, Emision: models.EmisionMediaCaja,
		Unidades: 18, PrecioUsd: dec("20"), PrecioUsdLocal: dec("13"),
		PrecioBs: dec("800"), PrecioBsLocal: dec("500"),
	})
	c.Configurar(models.PrecioEmision{
		Producto: "Polar", Subtipo: models.SubtipoLata, Emision: models.EmisionCaja,
		Unidades: 36, PrecioUsd: dec("38"), PrecioUsdLocal: dec("24"),
		PrecioBs: dec("1500"), PrecioBsLocal: dec("950"),
	})

	c.Configurar(models.PrecioEmision{
		Producto: "Zulia", Subtipo: models.SubtipoLata, Emision: models.EmisionUnidad,
		Unidades: 1, PrecioUsd: dec("1.8"), PrecioUsdLocal: dec("1.2"),
		PrecioBs: dec("70"), PrecioBsLocal: dec("45"),
	})
	c.Configurar(models.PrecioEmision{
		Producto: "Zulia", Subtipo: models.SubtipoLata, Emision: models.EmisionSixPack,
		Unidades: 6, PrecioUsd: dec("9"), PrecioUsdLocal: dec("6"),
		PrecioBs: dec("350"), PrecioBsLocal: dec("220"),
	})
	// Media caja sin precio local: no debe ofrecerse como denominación
	c.Configurar(models.PrecioEmision{
		Producto: "Zulia", Subtipo: models.SubtipoLata, Emision: models.EmisionMediaCaja,
		Unidades: 18, PrecioUsd: dec("24"), PrecioUsdLocal: dec("0"),
		PrecioBs: dec("900"), PrecioBsLocal: dec("0"),
	})

	return c
}

func ticketLocalConSlots(producto string, unidades int) *models.Ticket {
	slots := make([]string, unidades)
	for i := range slots {
		slots[i] = producto
	}
	return &models.Ticket{
		Tipo: models.TicketLocal,
		Lineas: []models.Linea{{
			Tipo: models.TipoConsumoLocal,
			ConsumoLocal: &models.LineaConsumoLocal{
				Subtipo: models.SubtipoLata,
				Slots:   slots,
			},
		}},
	}
}

func TestCalcularGreedyPackGrandePrimero(t *testing.T) {
	motor := New(catalogoPrueba(), zap.NewNop())

	resultado, err := motor.Calcular(context.Background(), ticketLocalConSlots("Polar", 40))
	if err != nil {
		t.Fatalf("Calcular: %v", err)
	}

	// 40 = 1 caja (36) + 4 unidades
	esperados := []string{"1 Caja", "4 Unidads"}
	if len(resultado.Detalles) != len(esperados) {
		t.Fatalf("detalles = %v, esperaba %v", resultado.Detalles, esperados)
	}
	for i, d := range esperados {
		if resultado.Detalles[i] != d {
			t.Errorf("detalle[%d] = %q, esperaba %q", i, resultado.Detalles[i], d)
		}
	}

	if !resultado.TotalUsd.Equal(dec("28")) {
		t.Errorf("TotalUsd = %s, esperaba 28", resultado.TotalUsd)
	}
	if !resultado.TotalBs.Equal(dec("1110")) {
		t.Errorf("TotalBs = %s, esperaba 1110", resultado.TotalBs)
	}
}

func TestCalcularIgnoraEmisionesSinPrecioLocal(t *testing.T) {
	motor := New(catalogoPrueba(), zap.NewNop())

	// 20 unidades de Zulia: la media caja (18) existe pero sin precio
	// local, así que se salta y entran 3 six packs + 2 unidades.
	resultado, err := motor.Calcular(context.Background(), ticketLocalConSlots("Zulia", 20))
	if err != nil {
		t.Fatalf("Calcular: %v", err)
	}

	esperados := []string{"3 Six Packs", "2 Unidads"}
	for i, d := range esperados {
		if resultado.Detalles[i] != d {
			t.Errorf("detalle[%d] = %q, esperaba %q", i, resultado.Detalles[i], d)
		}
	}

	// 3 × 6 + 2 × 1.2 = 20.4
	if !resultado.TotalUsd.Equal(dec("20.4")) {
		t.Errorf("TotalUsd = %s, esperaba 20.4", resultado.TotalUsd)
	}
}

func TestCalcularMonedasIndependientes(t *testing.T) {
	motor := New(catalogoPrueba(), zap.NewNop())

	// 7 unidades de Polar: 1 six pack + 1 unidad. Los montos en Bs
	// vienen de su propia columna, no de una conversión del USD.
	resultado, err := motor.Calcular(context.Background(), ticketLocalConSlots("Polar", 7))
	if err != nil {
		t.Fatalf("Calcular: %v", err)
	}

	if !resultado.TotalUsd.Equal(dec("6")) {
		t.Errorf("TotalUsd = %s, esperaba 6", resultado.TotalUsd)
	}
	if !resultado.TotalBs.Equal(dec("230")) {
		t.Errorf("TotalBs = %s, esperaba 230", resultado.TotalBs)
	}
}

func TestCalcularAgregaConsumoEntreLineas(t *testing.T) {
	motor := New(catalogoPrueba(), zap.NewNop())

	// Dos líneas de consumo con el mismo producto: 2 + 4 = 6 unidades
	// se optimizan juntas como un six pack.
	ticket := &models.Ticket{
		Tipo: models.TicketLocal,
		Lineas: []models.Linea{
			{
				Tipo: models.TipoConsumoLocal,
				ConsumoLocal: &models.LineaConsumoLocal{
					Subtipo: models.SubtipoLata,
					Slots:   []string{"Polar", "Polar"},
				},
			},
			{
				Tipo: models.TipoConsumoLocal,
				ConsumoLocal: &models.LineaConsumoLocal{
					Subtipo: models.SubtipoLata,
					Slots:   []string{"Polar", "Polar", "Polar", "Polar"},
				},
			},
		},
	}

	resultado, err := motor.Calcular(context.Background(), ticket)
	if err != nil {
		t.Fatalf("Calcular: %v", err)
	}

	if len(resultado.Lineas) != 1 {
		t.Fatalf("lineas = %d, esperaba 1", len(resultado.Lineas))
	}
	if resultado.Lineas[0].Emision != models.EmisionSixPack || resultado.Lineas[0].Cantidad != 1 {
		t.Errorf("línea = %d %s, esperaba 1 Six Pack",
			resultado.Lineas[0].Cantidad, resultado.Lineas[0].Emision)
	}
	if !resultado.TotalUsd.Equal(dec("5")) {
		t.Errorf("TotalUsd = %s, esperaba 5", resultado.TotalUsd)
	}
}

func TestCalcularEmpaquetadaUsaTierEstandar(t *testing.T) {
	motor := New(catalogoPrueba(), zap.NewNop())

	ticket := &models.Ticket{
		Tipo: models.TicketParaLlevar,
		Lineas: []models.Linea{{
			Tipo: models.TipoEmpaquetada,
			Empaquetada: &models.LineaEmpaquetada{
				Producto: "Polar",
				Subtipo:  models.SubtipoLata,
				Emision:  models.EmisionSixPack,
				Cantidad: 2,
			},
		}},
	}

	resultado, err := motor.Calcular(context.Background(), ticket)
	if err != nil {
		t.Fatalf("Calcular: %v", err)
	}

	// 2 × 8 al precio estándar, no 2 × 5 del local
	if !resultado.TotalUsd.Equal(dec("16")) {
		t.Errorf("TotalUsd = %s, esperaba 16", resultado.TotalUsd)
	}
	if !resultado.TotalBs.Equal(dec("640")) {
		t.Errorf("TotalBs = %s, esperaba 640", resultado.TotalBs)
	}
}

func TestCalcularEmpaquetadaEnTicketLocalUsaTierLocal(t *testing.T) {
	motor := New(catalogoPrueba(), zap.NewNop())

	ticket := ticketLocalConSlots("Polar", 0)
	ticket.Lineas = []models.Linea{{
		Tipo: models.TipoEmpaquetada,
		Empaquetada: &models.LineaEmpaquetada{
			Producto: "Polar",
			Subtipo:  models.SubtipoLata,
			Emision:  models.EmisionSixPack,
			Cantidad: 1,
		},
	}}

	resultado, err := motor.Calcular(context.Background(), ticket)
	if err != nil {
		t.Fatalf("Calcular: %v", err)
	}

	if !resultado.TotalUsd.Equal(dec("5")) {
		t.Errorf("TotalUsd = %s, esperaba 5", resultado.TotalUsd)
	}
}

func TestCalcularVariadoExpandeComposicion(t *testing.T) {
	catalogo := catalogoPrueba()
	catalogo.Configurar(models.PrecioEmision{
		Producto: "Surtido", Subtipo: models.SubtipoLata, Emision: models.EmisionSixPack,
		Unidades: 6, PrecioUsd: dec("10"), PrecioBs: dec("400"),
	})
	motor := New(catalogo, zap.NewNop())

	ticket := &models.Ticket{
		Tipo: models.TicketParaLlevar,
		Lineas: []models.Linea{{
			Tipo: models.TipoVariado,
			Variado: &models.LineaVariado{
				Nombre:      "Surtido",
				Subtipo:     models.SubtipoLata,
				Emision:     models.EmisionSixPack,
				Cantidad:    2,
				Composicion: map[string]int{"Polar": 4, "Zulia": 2},
			},
		}},
	}

	resultado, err := motor.Calcular(context.Background(), ticket)
	if err != nil {
		t.Fatalf("Calcular: %v", err)
	}

	// El precio se cobra a nivel del pack: 2 × 10
	if !resultado.TotalUsd.Equal(dec("20")) {
		t.Errorf("TotalUsd = %s, esperaba 20", resultado.TotalUsd)
	}

	// La composición se expande en líneas a precio cero por producto
	if len(resultado.Lineas) != 2 {
		t.Fatalf("lineas = %d, esperaba 2", len(resultado.Lineas))
	}
	porProducto := map[string]models.LineaVenta{}
	for _, l := range resultado.Lineas {
		porProducto[l.Producto] = l
	}
	if l := porProducto["Polar"]; l.Cantidad != 8 || !l.TotalUsd.IsZero() {
		t.Errorf("Polar = %d unidades total %s, esperaba 8 a precio cero", l.Cantidad, l.TotalUsd)
	}
	if l := porProducto["Zulia"]; l.Cantidad != 4 || !l.TotalUsd.IsZero() {
		t.Errorf("Zulia = %d unidades total %s, esperaba 4 a precio cero", l.Cantidad, l.TotalUsd)
	}
}

func TestCalcularTicketVacio(t *testing.T) {
	motor := New(catalogoPrueba(), zap.NewNop())

	resultado, err := motor.Calcular(context.Background(), &models.Ticket{Tipo: models.TicketLocal})
	if err != nil {
		t.Fatalf("Calcular: %v", err)
	}
	if !resultado.TotalUsd.IsZero() || !resultado.TotalBs.IsZero() {
		t.Errorf("totales = %s / %s, esperaba cero", resultado.TotalUsd, resultado.TotalBs)
	}
	if len(resultado.Lineas) != 0 || len(resultado.Detalles) != 0 {
		t.Errorf("lineas/detalles no vacíos: %v %v", resultado.Lineas, resultado.Detalles)
	}
}

func TestCalcularSlotsVaciosNoFacturan(t *testing.T) {
	motor := New(catalogoPrueba(), zap.NewNop())

	ticket := &models.Ticket{
		Tipo: models.TicketLocal,
		Lineas: []models.Linea{{
			Tipo: models.TipoConsumoLocal,
			ConsumoLocal: &models.LineaConsumoLocal{
				Subtipo:   models.SubtipoLata,
				Capacidad: 4,
				Slots:     []string{"Polar", "", "", "Polar"},
			},
		}},
	}

	resultado, err := motor.Calcular(context.Background(), ticket)
	if err != nil {
		t.Fatalf("Calcular: %v", err)
	}

	// Solo 2 slots ocupados: 2 unidades
	if !resultado.TotalUsd.Equal(dec("2")) {
		t.Errorf("TotalUsd = %s, esperaba 2", resultado.TotalUsd)
	}
}
