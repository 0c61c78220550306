package compliance

import (
	"context"
	"fmt"
	"sync"
	"time"

	rules "github.com/jhoicas/fiscaliza-api/internal/domain/compliance"
	"github.com/jhoicas/fiscaliza-api/internal/domain/repository"
	"github.com/jhoicas/fiscaliza-api/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// ReferenceProvider entrega el snapshot de referencia vigente, ya resuelto en memoria.
type ReferenceProvider interface {
	Current(ctx context.Context) (*rules.ReferenceTable, error)
}

// ReferenceCache mantiene el ReferenceTable en memoria durante ttl. Recargas concurrentes
// se colapsan en una sola consulta; si la recarga falla y hay una tabla previa, se sigue usando.
type ReferenceCache struct {
	repo repository.ReferenceRepository
	ttl  time.Duration
	log  *logger.Logger
	now  func() time.Time

	group    singleflight.Group
	mu       sync.RWMutex
	table    *rules.ReferenceTable
	loadedAt time.Time
}

var _ ReferenceProvider = (*ReferenceCache)(nil)

// NewReferenceCache ttl <= 0 recarga en cada llamada.
func NewReferenceCache(repo repository.ReferenceRepository, ttl time.Duration, log *logger.Logger) *ReferenceCache {
	if log == nil {
		log = logger.Nop()
	}
	return &ReferenceCache{repo: repo, ttl: ttl, log: log, now: time.Now}
}

// Current devuelve la tabla vigente, recargándola si expiró.
func (c *ReferenceCache) Current(ctx context.Context) (*rules.ReferenceTable, error) {
	c.mu.RLock()
	table, loadedAt := c.table, c.loadedAt
	c.mu.RUnlock()
	if table != nil && c.ttl > 0 && c.now().Sub(loadedAt) < c.ttl {
		return table, nil
	}

	// la recarga es compartida: no depende de la cancelación del primer caller
	v, err, _ := c.group.Do("reference", func() (any, error) {
		return c.reload(context.WithoutCancel(ctx))
	})
	if err != nil {
		if table != nil {
			c.log.Warn().Err(err).Str("version", table.Version()).Msg("recarga de referencia fallida; se usa la versión en memoria")
			return table, nil
		}
		return nil, err
	}
	return v.(*rules.ReferenceTable), nil
}

// Invalidate fuerza la recarga en la próxima llamada.
func (c *ReferenceCache) Invalidate() {
	c.mu.Lock()
	c.loadedAt = time.Time{}
	c.mu.Unlock()
}

func (c *ReferenceCache) reload(ctx context.Context) (*rules.ReferenceTable, error) {
	snap, err := c.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("cargar referencia: %w", err)
	}
	table := rules.NewReferenceTable(*snap)

	c.mu.Lock()
	prev := c.table
	c.table = table
	c.loadedAt = c.now()
	c.mu.Unlock()

	if prev == nil || prev.Version() != table.Version() {
		c.log.Info().Str("version", table.Version()).Int("bands", len(snap.Bands)).
			Int("denylist", len(snap.Denylist)).Msg("referencia cargada")
	}
	return table, nil
}
