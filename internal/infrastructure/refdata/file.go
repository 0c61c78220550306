// Package refdata lee el dataset de referencia (bandas de precio y lista restrictiva)
// desde YAML y lo convierte a script SQL.
package refdata

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/jhoicas/fiscaliza-api/pkg/cnpj"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// File formato del archivo configs/reference.yaml. Los precios van como texto decimal.
type File struct {
	Version  string          `yaml:"version"`
	Source   string          `yaml:"source"`
	Bands    []BandEntry     `yaml:"bands"`
	Denylist []DenylistEntry `yaml:"denylist"`
}

// BandEntry banda de precio tal como aparece en el archivo.
type BandEntry struct {
	Commodity string `yaml:"commodity"`
	Unit      string `yaml:"unit"`
	Min       string `yaml:"min"`
	Mean      string `yaml:"mean"`
	Max       string `yaml:"max"`
}

// DenylistEntry proveedor irregular tal como aparece en el archivo.
type DenylistEntry struct {
	TaxID  string `yaml:"tax_id"`
	Name   string `yaml:"name"`
	Reason string `yaml:"reason"`
}

// LoadFile abre y decodifica el archivo indicado.
func LoadFile(path string) (*entity.ReferenceSnapshot, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("abrir %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode lee el YAML, valida cada banda y devuelve el snapshot junto con su fuente.
func Decode(r io.Reader) (*entity.ReferenceSnapshot, string, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, "", fmt.Errorf("decodificar yaml: %w", err)
	}
	snap, err := file.Snapshot()
	if err != nil {
		return nil, "", err
	}
	return snap, file.Source, nil
}

// Snapshot convierte el archivo en un dataset de referencia, en el orden del archivo.
func (f File) Snapshot() (*entity.ReferenceSnapshot, error) {
	version := strings.TrimSpace(f.Version)
	if version == "" {
		return nil, fmt.Errorf("version: requerido")
	}
	snap := &entity.ReferenceSnapshot{
		Version:  version,
		Bands:    make([]entity.PriceBand, 0, len(f.Bands)),
		Denylist: make([]entity.DenylistEntry, 0, len(f.Denylist)),
	}
	seen := make(map[string]bool, len(f.Bands))
	for i, b := range f.Bands {
		band, err := b.toBand(i)
		if err != nil {
			return nil, fmt.Errorf("bands[%d]: %w", i, err)
		}
		key := strings.ToLower(band.Commodity)
		if seen[key] {
			return nil, fmt.Errorf("bands[%d]: commodity %q repetido", i, band.Commodity)
		}
		seen[key] = true
		snap.Bands = append(snap.Bands, band)
	}
	for i, e := range f.Denylist {
		if !cnpj.HasValidLength(e.TaxID) {
			return nil, fmt.Errorf("denylist[%d]: tax_id %q debe tener 14 dígitos", i, e.TaxID)
		}
		snap.Denylist = append(snap.Denylist, entity.DenylistEntry{
			TaxID:  strings.TrimSpace(e.TaxID),
			Name:   strings.TrimSpace(e.Name),
			Reason: strings.TrimSpace(e.Reason),
		})
	}
	return snap, nil
}

func (b BandEntry) toBand(position int) (entity.PriceBand, error) {
	commodity := strings.TrimSpace(b.Commodity)
	if commodity == "" {
		return entity.PriceBand{}, fmt.Errorf("commodity: requerido")
	}
	parse := func(field, v string) (decimal.Decimal, error) {
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%s: %q no es decimal", field, v)
		}
		if !d.IsPositive() {
			return decimal.Zero, fmt.Errorf("%s: debe ser positivo", field)
		}
		return d, nil
	}
	lo, err := parse("min", b.Min)
	if err != nil {
		return entity.PriceBand{}, err
	}
	mean, err := parse("mean", b.Mean)
	if err != nil {
		return entity.PriceBand{}, err
	}
	hi, err := parse("max", b.Max)
	if err != nil {
		return entity.PriceBand{}, err
	}
	if lo.GreaterThan(mean) || mean.GreaterThan(hi) {
		return entity.PriceBand{}, fmt.Errorf("se requiere min <= mean <= max")
	}
	return entity.PriceBand{
		Commodity: commodity,
		Unit:      strings.ToLower(strings.TrimSpace(b.Unit)),
		Min:       lo,
		Mean:      mean,
		Max:       hi,
		Position:  position,
	}, nil
}
