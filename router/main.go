package router

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/team-educhange/gibo-api/config"
	"github.com/team-educhange/gibo-api/database"
	"github.com/team-educhange/gibo-api/handlers"
	preview_handlers "github.com/team-educhange/gibo-api/handlers/preview"
	submission_handlers "github.com/team-educhange/gibo-api/handlers/submission"
	"github.com/team-educhange/gibo-api/services"
	"github.com/team-educhange/gibo-api/services/digitalocean"
	"github.com/team-educhange/gibo-api/services/lockfile"
	"github.com/team-educhange/gibo-api/services/preview"
)

// Deps carries the shared collaborators the routes are wired from. The lock
// backend and slot counter are chosen in app setup so tests can substitute
// their own.
type Deps struct {
	Env     *config.EnviornmentVariable
	Store   database.Storage
	Locks   lockfile.Locker
	Counter preview.CounterStore
}

func SetupRoutes(app *fiber.App, deps Deps) error {
	db, ok := deps.Store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	spacesClient, err := digitalocean.NewSpacesClient(digitalocean.SpacesConfig{
		AccessKey: deps.Env.DO_SPACES_KEY,
		SecretKey: deps.Env.DO_SPACES_SECRET,
		Bucket:    deps.Env.DO_SPACES_BUCKET,
		Region:    deps.Env.DO_SPACES_REGION,
		Endpoint:  deps.Env.DO_SPACES_ENDPOINT,
	})
	if err != nil {
		return err
	}

	inferenceClient := digitalocean.NewInferenceClient(digitalocean.InferenceConfig{
		APIKey: deps.Env.DO_INFERENCE_KEY,
		Model:  deps.Env.DO_INFERENCE_MODEL,
	})

	limiter, err := preview.NewLimiter(deps.Locks, deps.Counter, deps.Env.MAX_PREVIEW_SLOTS, deps.Env.LOCK_WAIT_BUDGET)
	if err != nil {
		return err
	}

	projectService := services.NewProjectService(db)
	submissionService := services.NewSubmissionService(
		deps.Locks,
		services.NewPDFExtractor(),
		projectService,
		services.NewCreditService(db),
		inferenceClient,
		spacesClient,
		deps.Env.LOCK_WAIT_BUDGET,
	)

	previewHandler := preview_handlers.NewPreviewHandler(limiter)
	submissionHandler := submission_handlers.NewSubmissionHandler(
		submissionService,
		projectService,
		limiter,
	)

	// Health check endpoint (public)
	app.Get("/ping", func(c *fiber.Ctx) error {
		return handlers.HandleCheckHealth(c, deps.Store)
	})

	// API v1 group
	api := app.Group("/api/v1")
	api.Get("/health", func(c *fiber.Ctx) error {
		return handlers.HandleCheckHealth(c, deps.Store)
	})

	// Preview slot pool
	previewGroup := api.Group("/preview")
	previewGroup.Post("/slots", previewHandler.AcquireSlot)
	previewGroup.Delete("/slots", previewHandler.ReleaseSlot)

	// Submissions
	api.Post("/submissions", submissionHandler.Submit)
	api.Get("/services/:service_name/projects", submissionHandler.ListProjects)

	return nil
}
