package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go-family/internal/api"
	"go-family/internal/config"
	"go-family/internal/database"
	"go-family/internal/features/assignment"
	cron_feature "go-family/internal/features/cron"
	"go-family/internal/features/permission"
	"go-family/internal/features/report"
	"go-family/internal/features/role"
	"go-family/internal/logger"
	"go-family/internal/middleware"
	"go-family/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
	log.Printf("Registered %d routes\n", len(routes))
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeStore ensures indexes exist and the system roles are seeded
// before the API starts answering.
func InitializeStore(lc fx.Lifecycle, roleRepo role.RoleRepository, assignmentRepo assignment.AssignmentRepository, zapLogger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := roleRepo.EnsureIndexes(ctx); err != nil {
					zapLogger.Error("failed to ensure role indexes", zap.Error(err))
				}
				if err := assignmentRepo.EnsureIndexes(ctx); err != nil {
					zapLogger.Error("failed to ensure assignment indexes", zap.Error(err))
				}
				if err := role.SeedSystemRoles(ctx, roleRepo); err != nil {
					zapLogger.Error("failed to seed system roles", zap.Error(err))
				}
			}()
			return nil
		},
	})
}

// WireAuthorization connects the permission engine to the pieces that cannot
// import it directly without a cycle: the RBAC middleware and the cache
// invalidation hooks on the write paths.
func WireAuthorization(
	cfg *config.Config,
	permissionService permission.PermissionService,
	roleService role.RoleService,
	assignmentService assignment.AssignmentService,
) {
	utils.SetSecret(cfg.JWTSecret)
	middleware.SetPermissionChecker(permissionService)
	roleService.SetCacheInvalidator(permissionService)
	assignmentService.SetCacheInvalidator(permissionService)
}

// @title           Family Association Admin API
// @version         1.0
// @description     Multi-role authorization backend with Gregorian and Hijri date handling.

// @host            localhost:8000
// @BasePath        /
func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			NewFiberServer,
			database.NewDatabase,

			role.NewRoleRepository,
			assignment.NewAssignmentRepository,
			assignment.NewMemberDirectory,
			assignment.NewOverlapDetector,

			role.NewRoleService,
			assignment.NewAssignmentService,
			permission.NewPermissionService,
			report.NewReportService,
			cron_feature.NewSweepService,

			role.NewRoleController,
			assignment.NewAssignmentController,
			permission.NewPermissionController,
			report.NewReportController,

			AsRoute(api.NewHealthApi),
			AsRoute(role.NewRoleApi),
			AsRoute(assignment.NewAssignmentApi),
			AsRoute(permission.NewPermissionApi),
			AsRoute(report.NewReportApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			WireAuthorization,
			RegisterAllRoutesWithAnnotation,
			StartServer,
			func(lc fx.Lifecycle, sweep cron_feature.SweepService) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return sweep.Start()
					},
					OnStop: func(ctx context.Context) error {
						sweep.Stop()
						return nil
					},
				})
			},
			InitializeStore,
		),
	)

	app.Run()
}
