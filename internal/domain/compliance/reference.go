package compliance

import (
	"strings"

	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/jhoicas/fiscaliza-api/pkg/cnpj"
)

// ReferenceData datos de referencia ya resueltos en memoria. El origen (archivo, base de datos)
// es irrelevante para los evaluadores.
type ReferenceData interface {
	// LookupPriceBand devuelve la primera banda (en orden de tabla) cuyo commodity aparece en el nombre.
	LookupPriceBand(productName string) (entity.PriceBand, bool)
	IsDenylisted(taxID string) bool
}

// versioned lo implementan los ReferenceData que conocen su versión.
type versioned interface {
	Version() string
}

type foldedBand struct {
	key  string
	band entity.PriceBand
}

// ReferenceTable implementación inmutable de ReferenceData a partir de un snapshot.
// Segura para uso concurrente.
type ReferenceTable struct {
	version  string
	bands    []foldedBand
	denylist map[string]entity.DenylistEntry
}

var _ ReferenceData = (*ReferenceTable)(nil)

// NewReferenceTable construye la tabla respetando el orden de snap.Bands.
func NewReferenceTable(snap entity.ReferenceSnapshot) *ReferenceTable {
	t := &ReferenceTable{
		version:  snap.Version,
		bands:    make([]foldedBand, 0, len(snap.Bands)),
		denylist: make(map[string]entity.DenylistEntry, len(snap.Denylist)),
	}
	for _, b := range snap.Bands {
		key := fold(b.Commodity)
		if key == "" {
			continue
		}
		t.bands = append(t.bands, foldedBand{key: key, band: b})
	}
	for _, e := range snap.Denylist {
		if k := denylistKey(e.TaxID); k != "" {
			t.denylist[k] = e
		}
	}
	return t
}

// LookupPriceBand busca por substring sin distinguir mayúsculas ni acentos; gana la primera coincidencia.
func (t *ReferenceTable) LookupPriceBand(productName string) (entity.PriceBand, bool) {
	name := fold(productName)
	for _, fb := range t.bands {
		if containsFolded(name, fb.key) {
			return fb.band, true
		}
	}
	return entity.PriceBand{}, false
}

// IsDenylisted compara la forma solo-dígitos del CNPJ.
func (t *ReferenceTable) IsDenylisted(taxID string) bool {
	_, ok := t.DenylistEntry(taxID)
	return ok
}

// DenylistEntry devuelve la entrada (con motivo) si el proveedor está en la lista.
func (t *ReferenceTable) DenylistEntry(taxID string) (entity.DenylistEntry, bool) {
	k := denylistKey(taxID)
	if k == "" {
		return entity.DenylistEntry{}, false
	}
	e, ok := t.denylist[k]
	return e, ok
}

// Version versión del dataset.
func (t *ReferenceTable) Version() string { return t.version }

// Bands copia de las bandas en orden de tabla.
func (t *ReferenceTable) Bands() []entity.PriceBand {
	out := make([]entity.PriceBand, len(t.bands))
	for i, fb := range t.bands {
		out[i] = fb.band
	}
	return out
}

// denylistKey: dígitos del CNPJ; si no hay dígitos, el texto normalizado.
func denylistKey(taxID string) string {
	if d := cnpj.Digits(taxID); d != "" {
		return d
	}
	return strings.TrimSpace(fold(taxID))
}
