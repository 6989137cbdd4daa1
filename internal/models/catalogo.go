package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Emisiones estándar de venta. El conjunto es abierto: el catálogo puede
// definir emisiones adicionales por producto (ej. "Display", "Bandeja").
const (
	EmisionUnidad    = "Unidad"
	EmisionCaja      = "Caja"
	EmisionMediaCaja = "Media Caja"
	EmisionSixPack   = "Six Pack"
)

// Subtipos de unidad conocidos.
const (
	SubtipoLata    = "Lata"
	SubtipoBotella = "Botella"
	SubtipoTercio  = "Tercio"
)

// Tier de precios: estándar (para llevar) vs local (consumo en el local).
type Tier string

const (
	TierEstandar Tier = "standard"
	TierLocal    Tier = "local"
)

// PrecioEmision representa la tabla precios_emisiones: una fila por
// combinación (producto, subtipo, emisión). Los precios en Bs y USD se
// configuran de forma independiente, nunca se derivan por tasa de cambio.
type PrecioEmision struct {
	ID             int             `json:"id" db:"id"`
	Producto       string          `json:"producto" db:"producto"`
	Subtipo        string          `json:"subtipo" db:"subtipo"`
	Emision        string          `json:"emision" db:"emision"`
	Unidades       int             `json:"unidades" db:"unidades"`
	PrecioUsd      decimal.Decimal `json:"precio_usd" db:"precio_usd"`
	PrecioUsdLocal decimal.Decimal `json:"precio_usd_local" db:"precio_usd_local"`
	PrecioBs       decimal.Decimal `json:"precio_bs" db:"precio_bs"`
	PrecioBsLocal  decimal.Decimal `json:"precio_bs_local" db:"precio_bs_local"`
	Costo          decimal.Decimal `json:"costo" db:"costo"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// EmisionesPorDefecto retorna las emisiones candidatas base para un
// subtipo: Caja y Media Caja siempre, Six Pack solo para formato lata.
func EmisionesPorDefecto(subtipo string) []string {
	if subtipo == SubtipoLata {
		return []string{EmisionCaja, EmisionMediaCaja, EmisionSixPack}
	}
	return []string{EmisionCaja, EmisionMediaCaja}
}
