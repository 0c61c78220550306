package refdata

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/jhoicas/fiscaliza-api/pkg/cnpj"
)

// WriteSQL escribe un script que reemplaza el dataset de referencia dentro de una transacción.
func WriteSQL(w io.Writer, snap *entity.ReferenceSnapshot, source string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "-- Dataset de referencia %s\n", snap.Version)
	bw.WriteString("BEGIN;\n\n")
	bw.WriteString("DELETE FROM price_bands;\n")
	bw.WriteString("DELETE FROM supplier_denylist;\n\n")

	for i, b := range snap.Bands {
		fmt.Fprintf(bw,
			"INSERT INTO price_bands (position, commodity, unit, min_price, mean_price, max_price) VALUES (%d, %s, %s, %s, %s, %s);\n",
			i, quote(b.Commodity), quote(b.Unit), b.Min.String(), b.Mean.String(), b.Max.String())
	}
	if len(snap.Bands) > 0 {
		bw.WriteString("\n")
	}
	for _, e := range snap.Denylist {
		fmt.Fprintf(bw,
			"INSERT INTO supplier_denylist (tax_id_digits, tax_id, name, reason) VALUES (%s, %s, %s, %s) ON CONFLICT (tax_id_digits) DO UPDATE SET reason = EXCLUDED.reason;\n",
			quote(cnpj.Digits(e.TaxID)), quote(e.TaxID), quoteOrNull(e.Name), quoteOrNull(e.Reason))
	}
	if len(snap.Denylist) > 0 {
		bw.WriteString("\n")
	}
	fmt.Fprintf(bw,
		"INSERT INTO reference_versions (version, source, loaded_at) VALUES (%s, %s, now()) ON CONFLICT (version) DO UPDATE SET source = EXCLUDED.source, loaded_at = EXCLUDED.loaded_at;\n\n",
		quote(snap.Version), quote(source))
	bw.WriteString("COMMIT;\n")
	return bw.Flush()
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteOrNull(s string) string {
	if s == "" {
		return "NULL"
	}
	return quote(s)
}
