package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"licoreria-service/internal/catalog"
	"licoreria-service/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Resultado es la salida del motor de totales: totales en ambas monedas,
// líneas de facturación normalizadas y detalles legibles para mostrar.
type Resultado struct {
	TotalUsd decimal.Decimal     `json:"total_usd"`
	TotalBs  decimal.Decimal     `json:"total_bs"`
	Lineas   []models.LineaVenta `json:"lineas"`
	Detalles []string            `json:"detalles"`
}

// Engine calcula el total de un ticket. Para tickets locales aplica la
// optimización de denominaciones: convierte el consumo por unidades en
// la combinación de emisiones con precio local, empezando por el pack
// más grande (greedy descendente por unidades).
type Engine struct {
	catalogo catalog.Provider
	logger   *zap.Logger
}

// New crea una nueva instancia del motor.
func New(catalogo catalog.Provider, logger *zap.Logger) *Engine {
	return &Engine{catalogo: catalogo, logger: logger}
}

// Calcular computa el total del ticket según su tipo. Los precios se
// acumulan como decimales sin redondeo intermedio; el redondeo a dos
// decimales es responsabilidad del borde de presentación/persistencia.
func (e *Engine) Calcular(ctx context.Context, t *models.Ticket) (*Resultado, error) {
	resultado := &Resultado{
		TotalUsd: decimal.Zero,
		TotalBs:  decimal.Zero,
	}

	tier := models.TierEstandar
	if t.Tipo == models.TicketLocal {
		tier = models.TierLocal
	}

	// Consumo por (producto, subtipo) agregado entre todas las líneas
	// de consumo local del ticket.
	consumo := make(map[string]int)
	subtipos := make(map[string]string)

	for i := range t.Lineas {
		linea := &t.Lineas[i]
		switch linea.Tipo {
		case models.TipoEmpaquetada:
			if err := e.acumularEmpaquetada(ctx, linea.Empaquetada, tier, resultado); err != nil {
				return nil, err
			}
		case models.TipoVariado:
			if err := e.acumularVariado(ctx, linea.Variado, resultado); err != nil {
				return nil, err
			}
		case models.TipoConsumoLocal:
			cl := linea.ConsumoLocal
			for _, slot := range cl.Slots {
				if slot == "" {
					continue
				}
				clave := slot + "|" + cl.Subtipo
				consumo[clave]++
				subtipos[clave] = cl.Subtipo
			}
		default:
			return nil, fmt.Errorf("tipo de línea desconocido: %s", linea.Tipo)
		}
	}

	// Claves ordenadas para salida determinista.
	claves := make([]string, 0, len(consumo))
	for clave := range consumo {
		claves = append(claves, clave)
	}
	sort.Strings(claves)

	for _, clave := range claves {
		subtipo := subtipos[clave]
		producto := clave[:len(clave)-len(subtipo)-1]
		if err := e.optimizarDenominaciones(ctx, producto, subtipo, consumo[clave], resultado); err != nil {
			return nil, err
		}
	}

	return resultado, nil
}

// acumularEmpaquetada suma una venta directa de packs al resultado.
func (e *Engine) acumularEmpaquetada(ctx context.Context, l *models.LineaEmpaquetada, tier models.Tier, r *Resultado) error {
	precioUsd, err := e.catalogo.PrecioUnitario(ctx, l.Producto, l.Emision, l.Subtipo, tier)
	if err != nil {
		return fmt.Errorf("línea empaquetada sin precio: %w", err)
	}
	precioBs, err := e.catalogo.PrecioBs(ctx, l.Producto, l.Emision, l.Subtipo, tier)
	if err != nil {
		return fmt.Errorf("línea empaquetada sin precio: %w", err)
	}

	cantidad := decimal.NewFromInt(int64(l.Cantidad))
	totalUsd := precioUsd.Mul(cantidad)
	totalBs := precioBs.Mul(cantidad)

	r.Lineas = append(r.Lineas, models.LineaVenta{
		Producto:          l.Producto,
		Subtipo:           l.Subtipo,
		Emision:           l.Emision,
		Cantidad:          l.Cantidad,
		PrecioUnitarioUsd: precioUsd,
		PrecioUnitarioBs:  precioBs,
		TotalUsd:          totalUsd,
		TotalBs:           totalBs,
	})
	r.TotalUsd = r.TotalUsd.Add(totalUsd)
	r.TotalBs = r.TotalBs.Add(totalBs)
	r.Detalles = append(r.Detalles, detalle(l.Cantidad, l.Emision))

	return nil
}

// acumularVariado suma el precio del pack mixto al nivel de la orden y
// expande la composición en una línea normalizada por constituyente con
// precio unitario explícito cero, de modo que el costo de mercancía
// vendida registre cada movimiento de producto por separado.
func (e *Engine) acumularVariado(ctx context.Context, l *models.LineaVariado, r *Resultado) error {
	precioUsd, err := e.catalogo.PrecioUnitario(ctx, l.Nombre, l.Emision, l.Subtipo, models.TierEstandar)
	if err != nil {
		return fmt.Errorf("variado sin precio: %w", err)
	}
	precioBs, err := e.catalogo.PrecioBs(ctx, l.Nombre, l.Emision, l.Subtipo, models.TierEstandar)
	if err != nil {
		return fmt.Errorf("variado sin precio: %w", err)
	}

	cantidad := decimal.NewFromInt(int64(l.Cantidad))
	r.TotalUsd = r.TotalUsd.Add(precioUsd.Mul(cantidad))
	r.TotalBs = r.TotalBs.Add(precioBs.Mul(cantidad))
	r.Detalles = append(r.Detalles, detalle(l.Cantidad, l.Nombre))

	// Orden determinista de los constituyentes.
	productos := make([]string, 0, len(l.Composicion))
	for p := range l.Composicion {
		productos = append(productos, p)
	}
	sort.Strings(productos)

	for _, p := range productos {
		unidades := l.Composicion[p] * l.Cantidad
		if unidades == 0 {
			continue
		}
		r.Lineas = append(r.Lineas, models.LineaVenta{
			Producto:          p,
			Subtipo:           l.Subtipo,
			Emision:           models.EmisionUnidad,
			Cantidad:          unidades,
			PrecioUnitarioUsd: decimal.Zero,
			PrecioUnitarioBs:  decimal.Zero,
			TotalUsd:          decimal.Zero,
			TotalBs:           decimal.Zero,
		})
	}

	return nil
}

// optimizarDenominaciones convierte unidades consumidas en líneas de
// facturación por emisión: greedy del pack más grande al más chico y el
// resto en Unidad. El greedy por tamaño no es óptimo para denominaciones
// arbitrarias, pero los packs configurados (caja ⊃ media caja ⊃ six
// pack ⊃ unidad) forman un sistema canónico donde sí lo es.
func (e *Engine) optimizarDenominaciones(ctx context.Context, producto, subtipo string, unidades int, r *Resultado) error {
	candidatos, err := e.candidatos(ctx, producto, subtipo)
	if err != nil {
		return err
	}

	restante := unidades
	for _, c := range candidatos {
		if restante < c.Unidades {
			continue
		}
		packs := restante / c.Unidades
		restante = restante % c.Unidades

		cantidad := decimal.NewFromInt(int64(packs))
		totalUsd := c.PrecioUsdLocal.Mul(cantidad)
		totalBs := c.PrecioBsLocal.Mul(cantidad)

		r.Lineas = append(r.Lineas, models.LineaVenta{
			Producto:          producto,
			Subtipo:           subtipo,
			Emision:           c.Emision,
			Cantidad:          packs,
			PrecioUnitarioUsd: c.PrecioUsdLocal,
			PrecioUnitarioBs:  c.PrecioBsLocal,
			TotalUsd:          totalUsd,
			TotalBs:           totalBs,
		})
		r.TotalUsd = r.TotalUsd.Add(totalUsd)
		r.TotalBs = r.TotalBs.Add(totalBs)
		r.Detalles = append(r.Detalles, detalle(packs, c.Emision))
	}

	// El resto se factura por Unidad (1 unidad por emisión, siempre
	// válida), lo que garantiza terminar con restante = 0.
	if restante > 0 {
		precioUsd := decimal.Zero
		precioBs := decimal.Zero
		if entrada, err := e.catalogo.Entrada(ctx, producto, subtipo, models.EmisionUnidad); err == nil {
			precioUsd = entrada.PrecioUsdLocal
			precioBs = entrada.PrecioBsLocal
		} else if !errors.Is(err, catalog.ErrPrecioNoEncontrado) {
			return err
		}

		cantidad := decimal.NewFromInt(int64(restante))
		totalUsd := precioUsd.Mul(cantidad)
		totalBs := precioBs.Mul(cantidad)

		r.Lineas = append(r.Lineas, models.LineaVenta{
			Producto:          producto,
			Subtipo:           subtipo,
			Emision:           models.EmisionUnidad,
			Cantidad:          restante,
			PrecioUnitarioUsd: precioUsd,
			PrecioUnitarioBs:  precioBs,
			TotalUsd:          totalUsd,
			TotalBs:           totalBs,
		})
		r.TotalUsd = r.TotalUsd.Add(totalUsd)
		r.TotalBs = r.TotalBs.Add(totalBs)
		r.Detalles = append(r.Detalles, detalle(restante, models.EmisionUnidad))
	}

	return nil
}

// candidatos arma la lista de denominaciones facturables para un
// (producto, subtipo): packs por defecto del subtipo unidos con las
// emisiones extra configuradas, filtrados por unidades > 1 y precio
// local configurado (sin precio local la emisión no se ofrece como
// denominación aunque exista en el catálogo), ordenados descendente por
// unidades con desempate por nombre.
func (e *Engine) candidatos(ctx context.Context, producto, subtipo string) ([]models.PrecioEmision, error) {
	nombres := make(map[string]bool)
	for _, em := range models.EmisionesPorDefecto(subtipo) {
		nombres[em] = true
	}

	configuradas, err := e.catalogo.EmisionesConfiguradas(ctx, producto, subtipo)
	if err != nil {
		return nil, fmt.Errorf("failed to get emisiones configuradas: %w", err)
	}
	for _, c := range configuradas {
		nombres[c.Emision] = true
	}

	var candidatos []models.PrecioEmision
	for nombre := range nombres {
		entrada, err := e.catalogo.Entrada(ctx, producto, subtipo, nombre)
		if err != nil {
			if errors.Is(err, catalog.ErrPrecioNoEncontrado) {
				continue
			}
			return nil, err
		}
		if entrada.Unidades <= 1 {
			continue
		}
		if !entrada.PrecioUsdLocal.IsPositive() {
			continue
		}
		candidatos = append(candidatos, *entrada)
	}

	sort.Slice(candidatos, func(i, j int) bool {
		if candidatos[i].Unidades != candidatos[j].Unidades {
			return candidatos[i].Unidades > candidatos[j].Unidades
		}
		return candidatos[i].Emision < candidatos[j].Emision
	})

	return candidatos, nil
}

// detalle formatea "{n} {emisión}" con plural ingenuo, igual que el POS
// lo muestra en caja.
func detalle(cantidad int, nombre string) string {
	if cantidad > 1 {
		return fmt.Sprintf("%d %ss", cantidad, nombre)
	}
	return fmt.Sprintf("%d %s", cantidad, nombre)
}
