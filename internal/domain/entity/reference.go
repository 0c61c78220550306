package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceBand banda de precio de referencia por commodity.
type PriceBand struct {
	Commodity string          `json:"commodity"`
	Unit      string          `json:"unit"`
	Min       decimal.Decimal `json:"min"`
	Mean      decimal.Decimal `json:"mean"`
	Max       decimal.Decimal `json:"max"`
	Position  int             `json:"position"` // orden en la tabla; la primera coincidencia gana
}

// DenylistEntry proveedor con irregularidades conocidas.
type DenylistEntry struct {
	TaxID  string `json:"tax_id"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// ReferenceVersion versión del dataset de referencia cargado.
type ReferenceVersion struct {
	Version  string
	Source   string
	LoadedAt time.Time
}

// ReferenceSnapshot dataset completo (bandas en orden de tabla + denylist).
type ReferenceSnapshot struct {
	Version  string
	Bands    []PriceBand
	Denylist []DenylistEntry
}
