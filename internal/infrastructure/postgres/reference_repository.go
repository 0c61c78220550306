package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/jhoicas/fiscaliza-api/internal/domain/repository"
	"github.com/jhoicas/fiscaliza-api/pkg/cnpj"
)

var _ repository.ReferenceRepository = (*ReferenceRepo)(nil)

// ReferenceRepo bandas de precio + lista restrictiva versionadas.
type ReferenceRepo struct {
	pool *pgxpool.Pool
}

// NewReferenceRepository construye el repositorio.
func NewReferenceRepository(pool *pgxpool.Pool) *ReferenceRepo {
	return &ReferenceRepo{pool: pool}
}

// Snapshot lee la versión vigente (la última cargada), bandas en orden de posición y denylist.
func (r *ReferenceRepo) Snapshot(ctx context.Context) (*entity.ReferenceSnapshot, error) {
	snap := &entity.ReferenceSnapshot{}
	err := r.pool.QueryRow(ctx,
		`SELECT version FROM reference_versions ORDER BY loaded_at DESC LIMIT 1`,
	).Scan(&snap.Version)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get reference version: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT position, commodity, unit, min_price, mean_price, max_price
		FROM price_bands ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list price bands: %w", err)
	}
	for rows.Next() {
		var b entity.PriceBand
		if err := rows.Scan(&b.Position, &b.Commodity, &b.Unit, &b.Min, &b.Mean, &b.Max); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan price band: %w", err)
		}
		snap.Bands = append(snap.Bands, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list price bands: %w", err)
	}

	rows, err = r.pool.Query(ctx, `
		SELECT tax_id, COALESCE(name, ''), COALESCE(reason, '')
		FROM supplier_denylist ORDER BY tax_id_digits`)
	if err != nil {
		return nil, fmt.Errorf("list denylist: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e entity.DenylistEntry
		if err := rows.Scan(&e.TaxID, &e.Name, &e.Reason); err != nil {
			return nil, fmt.Errorf("scan denylist: %w", err)
		}
		snap.Denylist = append(snap.Denylist, e)
	}
	return snap, rows.Err()
}

// Replace reemplaza el dataset completo en una transacción.
func (r *ReferenceRepo) Replace(ctx context.Context, snap entity.ReferenceSnapshot, source string) error {
	if snap.Version == "" {
		return fmt.Errorf("reference version is required")
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM price_bands`); err != nil {
		return fmt.Errorf("clear price bands: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM supplier_denylist`); err != nil {
		return fmt.Errorf("clear denylist: %w", err)
	}

	batch := &pgx.Batch{}
	for i, b := range snap.Bands {
		batch.Queue(`
			INSERT INTO price_bands (position, commodity, unit, min_price, mean_price, max_price)
			VALUES ($1, $2, $3, $4, $5, $6)`, i, b.Commodity, b.Unit, b.Min, b.Mean, b.Max)
	}
	for _, e := range snap.Denylist {
		batch.Queue(`
			INSERT INTO supplier_denylist (tax_id_digits, tax_id, name, reason)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (tax_id_digits) DO UPDATE SET reason = EXCLUDED.reason`,
			cnpj.Digits(e.TaxID), e.TaxID, nullIfEmpty(e.Name), nullIfEmpty(e.Reason))
	}
	batch.Queue(`
		INSERT INTO reference_versions (version, source, loaded_at) VALUES ($1, $2, $3)
		ON CONFLICT (version) DO UPDATE SET source = EXCLUDED.source, loaded_at = EXCLUDED.loaded_at`,
		snap.Version, source, time.Now().UTC())

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert reference data: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
