package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estados del ticket. Un ticket nace ABIERTO; PAGADO y CANCELADO son
// terminales.
const (
	EstadoAbierto   = "ABIERTO"
	EstadoPagado    = "PAGADO"
	EstadoCancelado = "CANCELADO"
)

// Tipos de ticket.
const (
	TicketLocal      = "Local"
	TicketParaLlevar = "ParaLlevar"
)

// TipoLinea discrimina las tres formas de línea de un ticket.
type TipoLinea string

const (
	TipoEmpaquetada  TipoLinea = "empaquetada"
	TipoConsumoLocal TipoLinea = "consumo_local"
	TipoVariado      TipoLinea = "variado"
)

// LineaEmpaquetada es una venta directa de packs completos. El stock
// (cantidad × unidades de la emisión) se descuenta al agregar la línea
// en tickets locales y al cierre en tickets para llevar.
type LineaEmpaquetada struct {
	Producto string `json:"producto"`
	Subtipo  string `json:"subtipo"`
	Emision  string `json:"emision"`
	Cantidad int    `json:"cantidad"`
}

// LineaConsumoLocal es una "carta abierta": cada slot representa una
// unidad física servida y sostiene el producto asignado o "" si está
// vacío. Capacidad 0 significa libre (la lista crece sin tope y se
// compacta quitando vacíos al final).
type LineaConsumoLocal struct {
	Variedad  string   `json:"variedad"`
	Subtipo   string   `json:"subtipo"`
	Capacidad int      `json:"capacidad"`
	Slots     []string `json:"slots"`
}

// UnidadesConsumidas cuenta los slots no vacíos.
func (l *LineaConsumoLocal) UnidadesConsumidas() int {
	n := 0
	for _, s := range l.Slots {
		if s != "" {
			n++
		}
	}
	return n
}

// LineaVariado es un pack mixto con composición explícita por producto.
// Al cerrar se expande en una línea normalizada por constituyente.
type LineaVariado struct {
	Nombre      string         `json:"nombre"`
	Subtipo     string         `json:"subtipo"`
	Emision     string         `json:"emision"`
	Cantidad    int            `json:"cantidad"`
	Composicion map[string]int `json:"composicion"`
}

// Linea es la unión etiquetada de los tres casos. El caso se resuelve
// una sola vez al crear la línea; exactamente un puntero es no-nil.
type Linea struct {
	Tipo         TipoLinea          `json:"tipo"`
	Empaquetada  *LineaEmpaquetada  `json:"empaquetada,omitempty"`
	ConsumoLocal *LineaConsumoLocal `json:"consumo_local,omitempty"`
	Variado      *LineaVariado      `json:"variado,omitempty"`
}

// Ticket representa una orden pendiente. Es la unidad de contabilidad
// atómica de stock: todo descuento/reposición ocurre por mutaciones
// sobre un ticket ABIERTO y se revierte simétricamente.
type Ticket struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Organizacion string     `json:"organizacion" db:"organizacion"`
	Cliente      string     `json:"cliente" db:"cliente"`
	Estado       string     `json:"estado" db:"estado"`
	Tipo         string     `json:"tipo" db:"tipo"`
	Lineas       []Linea    `json:"lineas" db:"lineas"`
	MetodoPago   string     `json:"metodo_pago" db:"metodo_pago"`
	Referencia   string     `json:"referencia" db:"referencia"`
	CreadoEn     time.Time  `json:"creado_en" db:"creado_en"`
	CerradoEn    *time.Time `json:"cerrado_en,omitempty" db:"cerrado_en"`
}

// LineaVenta es una línea de facturación normalizada (salida del motor
// de totales): emisión, cantidad y precios en ambas monedas.
type LineaVenta struct {
	Producto          string          `json:"producto"`
	Subtipo           string          `json:"subtipo"`
	Emision           string          `json:"emision"`
	Cantidad          int             `json:"cantidad"`
	PrecioUnitarioUsd decimal.Decimal `json:"precio_unitario_usd"`
	PrecioUnitarioBs  decimal.Decimal `json:"precio_unitario_bs"`
	TotalUsd          decimal.Decimal `json:"total_usd"`
	TotalBs           decimal.Decimal `json:"total_bs"`
}

// Venta es el resultado congelado de cerrar un ticket. Inmutable salvo
// por la operación compensatoria de eliminación, que repone el stock de
// sus líneas.
type Venta struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	TicketID     uuid.UUID       `json:"ticket_id" db:"ticket_id"`
	Organizacion string          `json:"organizacion" db:"organizacion"`
	Cliente      string          `json:"cliente" db:"cliente"`
	Tipo         string          `json:"tipo" db:"tipo"`
	MetodoPago   string          `json:"metodo_pago" db:"metodo_pago"`
	Referencia   string          `json:"referencia" db:"referencia"`
	TotalUsd     decimal.Decimal `json:"total_usd" db:"total_usd"`
	TotalBs      decimal.Decimal `json:"total_bs" db:"total_bs"`
	Lineas       []LineaVenta    `json:"lineas" db:"lineas"`
	Detalles     []string        `json:"detalles" db:"detalles"`
	CreadoEn     time.Time       `json:"creado_en" db:"creado_en"`
}
