package FiberConfig

import (
	"errors"
	"net/http"

	"Workshop/Config"
	"Workshop/Controllers"
	"Workshop/Maintenance"
	"Workshop/Models"
	"Workshop/Templates"
	"Workshop/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/template/html"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Dependencies are the long-lived objects the routes are built from.
type Dependencies struct {
	DB      *gorm.DB
	Config  *Config.Config
	Service *Maintenance.Service
	Logger  *logrus.Logger
}

// NewApp builds the Fiber app with views, middleware and routes installed.
func NewApp(deps Dependencies) *fiber.App {
	engine := html.NewFileSystem(http.FS(Templates.Files), ".html")
	app := fiber.New(fiber.Config{
		Views:        engine,
		BodyLimit:    32 * 1024 * 1024, // spreadsheet uploads
		ErrorHandler: errorHandler,
	})

	logConfig := middleware.DefaultLogConfig()
	if deps.Logger != nil {
		logConfig.Logger = deps.Logger
	}
	app.Use(middleware.LoggingMiddleware(logConfig))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestCompression, // 2
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID",
		AllowCredentials: true, // Important for cookies
		MaxAge:           300,
	}))

	SetupRoutes(app, deps)
	return app
}

func errorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}
	return ctx.Status(code).JSON(fiber.Map{
		"error":   http.StatusText(code),
		"message": err.Error(),
	})
}

func SetupRoutes(app *fiber.App, deps Dependencies) {
	auth := middleware.NewAuth(deps.DB, deps.Config.Auth.JWTSecret, deps.Config.Auth.TokenTTL, deps.Config.Auth.Enabled)

	// Initialize handlers
	userController := Controllers.NewUserController(deps.DB, auth)
	dashboardController := Controllers.NewDashboardController(deps.DB)
	machineController := Controllers.NewMachineController(deps.DB)
	materialController := Controllers.NewMaterialController(deps.DB, deps.Service)
	jobCardController := Controllers.NewJobCardController(deps.Service)
	importLogController := Controllers.NewImportLogController(deps.DB)

	read := auth.Verify(Models.PermissionViewer)
	write := auth.Verify(Models.PermissionEditor)
	admin := auth.Verify(Models.PermissionAdmin)

	app.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{"status": "ok"})
	})

	// API group
	api := app.Group("/api")

	api.Post("/login", userController.Login)
	api.Post("/logout", userController.Logout)
	api.Get("/users/me", read, userController.CurrentUser)
	api.Post("/users", admin, userController.RegisterUser)

	api.Get("/dashboard", read, dashboardController.GetDashboard)
	api.Get("/import-logs", read, importLogController.GetImportLogs)

	// Machine routes
	machines := api.Group("/machines")
	machines.Get("/export", read, machineController.ExportMachines)
	machines.Post("/import", write, machineController.ImportMachines)
	machines.Get("/", read, machineController.GetMachines)
	machines.Post("/", write, machineController.CreateMachine)
	machines.Get("/:id", read, machineController.GetMachine)
	machines.Put("/:id", write, machineController.UpdateMachine)
	machines.Delete("/:id", write, machineController.DeleteMachine)

	// Issued material routes
	materials := api.Group("/materials")
	materials.Get("/export", read, materialController.ExportMaterials)
	materials.Post("/import", write, materialController.ImportMaterials)
	materials.Get("/unused-groups", read, materialController.GetUnusedGroups)
	materials.Get("/", read, materialController.GetMaterials)
	materials.Post("/", write, materialController.CreateMaterial)
	materials.Get("/:id", read, materialController.GetMaterial)
	materials.Put("/:id", write, materialController.UpdateMaterial)
	materials.Delete("/:id", write, materialController.DeleteMaterial)

	// Job card routes
	jobCards := api.Group("/job-cards")
	jobCards.Post("/auto-generate/all", write, jobCardController.AutoGenerateAll)
	jobCards.Post("/auto-generate", write, jobCardController.AutoGenerate)
	jobCards.Get("/", read, jobCardController.GetJobCards)
	jobCards.Post("/", write, jobCardController.CreateJobCard)
	jobCards.Get("/:id", read, jobCardController.GetJobCard)
	jobCards.Put("/:id", write, jobCardController.UpdateJobCard)
	jobCards.Patch("/:id/status", write, jobCardController.UpdateJobCardStatus)
	jobCards.Delete("/:id", write, jobCardController.DeleteJobCard)
	jobCards.Get("/:id/print", read, jobCardController.PrintJobCard)
}
