// seed_reference carga el dataset de referencia (bandas de precio y lista restrictiva de
// proveedores) desde configs/reference.yaml.
//
// Uso:
//
//	go run ./cmd/seed_reference load --file configs/reference.yaml
//	go run ./cmd/seed_reference sql --file configs/reference.yaml --out seed_reference.sql
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/fiscaliza-api/internal/infrastructure/postgres"
	"github.com/jhoicas/fiscaliza-api/internal/infrastructure/refdata"
	"github.com/jhoicas/fiscaliza-api/pkg/config"
	"github.com/jhoicas/fiscaliza-api/pkg/logger"
	"github.com/spf13/cobra"
)

const defaultFile = "configs/reference.yaml"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "seed_reference",
		Short:         "Carga bandas de precio y lista restrictiva de proveedores",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.AddCommand(newLoadCmd(), newSQLCmd())
	return root
}

func newLoadCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Reemplaza el dataset de referencia en PostgreSQL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, source, err := refdata.LoadFile(file)
			if err != nil {
				return err
			}
			if source == "" {
				source = file
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("cargar configuración: %w", err)
			}
			log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()
			pool, err := postgres.NewPool(ctx, cfg.DB)
			if err != nil {
				return fmt.Errorf("conexión a PostgreSQL: %w", err)
			}
			defer pool.Close()

			if cfg.DB.AutoMigrate {
				if err := postgres.Migrate(ctx, pool); err != nil {
					return fmt.Errorf("migraciones: %w", err)
				}
			}
			if err := postgres.NewReferenceRepository(pool).Replace(ctx, *snap, source); err != nil {
				return err
			}
			log.Info().
				Str("version", snap.Version).
				Str("source", source).
				Int("bands", len(snap.Bands)).
				Int("denylist", len(snap.Denylist)).
				Msg("dataset de referencia cargado")
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", defaultFile, "archivo YAML con el dataset")
	return cmd
}

func newSQLCmd() *cobra.Command {
	var file, out string
	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Genera un script SQL con el dataset de referencia",
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, source, err := refdata.LoadFile(file)
			if err != nil {
				return err
			}
			if source == "" {
				source = file
			}
			if out == "" || out == "-" {
				return refdata.WriteSQL(cmd.OutOrStdout(), snap, source)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("crear %s: %w", out, err)
			}
			defer f.Close()
			if err := refdata.WriteSQL(f, snap, source); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generado %s (%d bandas, %d proveedores)\n", out, len(snap.Bands), len(snap.Denylist))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", defaultFile, "archivo YAML con el dataset")
	cmd.Flags().StringVarP(&out, "out", "o", "", "archivo de salida (vacío o - para stdout)")
	return cmd
}
