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

	"github.com/dcastellanos/facturacion-api/internal/application/billing"
	infrapdf "github.com/dcastellanos/facturacion-api/internal/infrastructure/pdf"
	"github.com/dcastellanos/facturacion-api/internal/infrastructure/postgres"
	httpRouter "github.com/dcastellanos/facturacion-api/internal/interfaces/http"
	"github.com/dcastellanos/facturacion-api/pkg/config"
	"github.com/dcastellanos/facturacion-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Repos de solo lectura atados al pool; las mutaciones van por TxRunner.
	rangeRepo := postgres.NewAuthorizationRangeRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	auditRepo := postgres.NewAuditLogRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	createInvoiceUC := billing.NewCreateInvoiceUseCase(txRunner)
	lifecycleUC := billing.NewLifecycleUseCase(txRunner)
	queryUC := billing.NewInvoiceQueryUseCase(invoiceRepo, auditRepo)
	rangeUC := billing.NewRangeUseCase(rangeRepo)

	pdfGenerator := infrapdf.NewMarotoPDFGenerator(cfg.Fiscal)
	invoicePDFUC := billing.NewPDFUseCase(queryUC, lifecycleUC, pdfGenerator)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.LoggingMiddleware(log))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Facturación API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		CreateInvoice: createInvoiceUC,
		Lifecycle:     lifecycleUC,
		Queries:       queryUC,
		InvoicePDF:    invoicePDFUC,
		RangeUC:       rangeUC,
		JWTSecret:     cfg.JWT.Secret,
		Log:           log,
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
