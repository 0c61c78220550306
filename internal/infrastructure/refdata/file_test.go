package refdata_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fiscaliza-api/internal/infrastructure/refdata"
)

const sample = `version: "2025-06"
source: "tabla regional"
bands:
  - commodity: arroz
    unit: KG
    min: "3.50"
    mean: "4.80"
    max: "6.50"
  - commodity: feijao
    unit: kg
    min: "5.00"
    mean: "7.20"
    max: "9.00"
denylist:
  - tax_id: "11.222.333/0001-81"
    name: "Fornecedor D'Oeste"
    reason: "superfaturamento"
`

func TestDecode_ArchivoValido(t *testing.T) {
	snap, source, err := refdata.Decode(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, "2025-06", snap.Version)
	assert.Equal(t, "tabla regional", source)
	require.Len(t, snap.Bands, 2)
	assert.Equal(t, "arroz", snap.Bands[0].Commodity)
	assert.Equal(t, "kg", snap.Bands[0].Unit)
	assert.Equal(t, "4.8", snap.Bands[0].Mean.String())
	assert.Equal(t, 1, snap.Bands[1].Position)
	require.Len(t, snap.Denylist, 1)
	assert.Equal(t, "superfaturamento", snap.Denylist[0].Reason)
}

func TestDecode_Errores(t *testing.T) {
	cases := map[string]struct {
		yaml string
		want string
	}{
		"sin versión": {
			yaml: "bands: []\n",
			want: "version",
		},
		"campo desconocido": {
			yaml: "version: v1\nextra: 1\n",
			want: "extra",
		},
		"precio no decimal": {
			yaml: "version: v1\nbands:\n  - {commodity: arroz, min: \"x\", mean: \"2\", max: \"3\"}\n",
			want: "bands[0]: min",
		},
		"media cero": {
			yaml: "version: v1\nbands:\n  - {commodity: arroz, min: \"1\", mean: \"0\", max: \"3\"}\n",
			want: "mean: debe ser positivo",
		},
		"orden inválido": {
			yaml: "version: v1\nbands:\n  - {commodity: arroz, min: \"5\", mean: \"4\", max: \"6\"}\n",
			want: "min <= mean <= max",
		},
		"commodity repetido": {
			yaml: "version: v1\nbands:\n  - {commodity: arroz, min: \"1\", mean: \"2\", max: \"3\"}\n  - {commodity: ARROZ, min: \"1\", mean: \"2\", max: \"3\"}\n",
			want: "repetido",
		},
		"cnpj corto": {
			yaml: "version: v1\ndenylist:\n  - {tax_id: \"123\"}\n",
			want: "denylist[0]",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := refdata.Decode(strings.NewReader(tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadFile_LeeDesdeDisco(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reference.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	snap, _, err := refdata.LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, snap.Bands, 2)

	_, _, err = refdata.LoadFile(filepath.Join(t.TempDir(), "no-existe.yaml"))
	assert.Error(t, err)
}

func TestWriteSQL_EscapaYEnvuelveEnTransaccion(t *testing.T) {
	snap, source, err := refdata.Decode(strings.NewReader(sample))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, refdata.WriteSQL(&buf, snap, source))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "-- Dataset de referencia 2025-06\nBEGIN;"))
	assert.Contains(t, out, "VALUES (0, 'arroz', 'kg', 3.5, 4.8, 6.5);")
	assert.Contains(t, out, "'11222333000181', '11.222.333/0001-81', 'Fornecedor D''Oeste', 'superfaturamento'")
	assert.Contains(t, out, "VALUES ('2025-06', 'tabla regional', now())")
	assert.True(t, strings.HasSuffix(out, "COMMIT;\n"))
}
