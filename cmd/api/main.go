package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/jhoicas/fiscaliza-api/docs"
	"github.com/jhoicas/fiscaliza-api/internal/application/auth"
	"github.com/jhoicas/fiscaliza-api/internal/application/compliance"
	"github.com/jhoicas/fiscaliza-api/internal/application/oversight"
	"github.com/jhoicas/fiscaliza-api/internal/application/ports"
	rules "github.com/jhoicas/fiscaliza-api/internal/domain/compliance"
	infraai "github.com/jhoicas/fiscaliza-api/internal/infrastructure/ai"
	"github.com/jhoicas/fiscaliza-api/internal/infrastructure/metrics"
	"github.com/jhoicas/fiscaliza-api/internal/infrastructure/nfe"
	infrapdf "github.com/jhoicas/fiscaliza-api/internal/infrastructure/pdf"
	"github.com/jhoicas/fiscaliza-api/internal/infrastructure/postgres"
	"github.com/jhoicas/fiscaliza-api/internal/infrastructure/xlsx"
	httpRouter "github.com/jhoicas/fiscaliza-api/internal/interfaces/http"
	"github.com/jhoicas/fiscaliza-api/pkg/config"
	"github.com/jhoicas/fiscaliza-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("ai_provider", cfg.AI.Provider).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}

	userRepo := postgres.NewUserRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	analysisRepo := postgres.NewAnalysisRepository(pool)
	referenceRepo := postgres.NewReferenceRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	var engineOpts []rules.Option
	if cfg.Compliance.Parallel {
		engineOpts = append(engineOpts, rules.WithParallelEvaluation())
	}
	collector := metrics.NewCollector(true)

	submissionUC := compliance.NewSubmissionUseCase(compliance.SubmissionDeps{
		Invoices:         invoiceRepo,
		Analyses:         analysisRepo,
		Tx:               txRunner,
		References:       compliance.NewReferenceCache(referenceRepo, cfg.Compliance.ReferenceTTL(), log),
		Engine:           rules.NewEngine(engineOpts...),
		Narrator:         newNarrator(cfg.AI),
		Metrics:          collector,
		NarrativeTimeout: cfg.AI.Timeout(),
		Logger:           log,
	})
	oversightUC := oversight.NewUseCase(oversight.Deps{
		Invoices:      invoiceRepo,
		Analyses:      analysisRepo,
		Reports:       infrapdf.NewMarotoReportGenerator(),
		Exporter:      xlsx.NewExporter(),
		DefaultDays:   cfg.Dashboard.DefaultDays,
		HighRiskLimit: cfg.Dashboard.HighRiskLimit,
		Logger:        log,
	})
	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    4 * nfe.MaxDocumentSize,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Fiscaliza API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Submission:     submissionUC,
		Oversight:      oversightUC,
		Auth:           authUC,
		NFeParser:      nfe.NewParser(),
		MetricsHandler: collector.Handler(),
		JWTSecret:      cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// newNarrator elige el narrador según AI_PROVIDER. nil = texto de respaldo.
func newNarrator(cfg config.AIConfig) ports.Narrator {
	switch cfg.Provider {
	case config.AIProviderAnthropic:
		return infraai.NewAnthropicNarrator(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	case config.AIProviderGemini:
		return infraai.NewGeminiNarrator(cfg.GeminiAPIKey, cfg.GeminiModel)
	case config.AIProviderOpenAI:
		return infraai.NewOpenAINarrator(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	}
	return nil
}
