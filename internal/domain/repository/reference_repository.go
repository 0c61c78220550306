package repository

import (
	"context"

	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
)

// ReferenceRepository dataset versionado de bandas de precio y lista restrictiva de proveedores.
type ReferenceRepository interface {
	// Snapshot devuelve la versión vigente con las bandas en orden de tabla.
	Snapshot(ctx context.Context) (*entity.ReferenceSnapshot, error)
	// Replace sustituye atómicamente bandas y denylist y registra una nueva versión.
	Replace(ctx context.Context, snap entity.ReferenceSnapshot, source string) error
}
