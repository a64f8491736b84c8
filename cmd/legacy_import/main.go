package main

import (
	"context"
	"log"

	"go-family/internal/config"
	"go-family/internal/database"
	"go-family/internal/features/assignment"
	"go-family/internal/features/legacy"
	"go-family/internal/features/role"
	"go-family/internal/logger"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Imports user roles and role assignments from the old Postgres backend.
// Reads LEGACY_PG_URI from the environment; refuses to run without it.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.LegacyPgURI == "" {
		log.Fatal("LEGACY_PG_URI is not set, nothing to import from")
	}

	app := fx.New(
		fx.Provide(
			func() *config.Config { return cfg },
			logger.NewLogger,
			database.NewDatabase,
			role.NewRoleRepository,
			assignment.NewAssignmentRepository,
			role.NewRoleService,
			func(roleService role.RoleService, repo assignment.AssignmentRepository, zapLogger *zap.Logger) legacy.ImportService {
				return legacy.NewImportService(cfg.LegacyPgURI, roleService, repo, zapLogger)
			},
		),
		fx.Invoke(runImport),
	)

	app.Run()
}

func runImport(lc fx.Lifecycle, shutdowner fx.Shutdowner, roleRepo role.RoleRepository, importer legacy.ImportService) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx := context.Background()
				if err := role.SeedSystemRoles(ctx, roleRepo); err != nil {
					log.Printf("Failed to seed system roles: %v", err)
				}
				report, err := importer.RunImport(ctx)
				if err != nil {
					log.Printf("Import failed: %v", err)
				} else {
					log.Printf("Import %s done: %d imported, %d skipped, %d failed",
						report.BatchID, report.Imported, report.Skipped, report.Failed)
				}
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
	})
}
