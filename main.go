package main

import (
	"time"

	"github.com/hkanojia/sheetsink/config"
	"github.com/hkanojia/sheetsink/controllers"
	"github.com/hkanojia/sheetsink/ingest"
	"github.com/hkanojia/sheetsink/models"
	"github.com/hkanojia/sheetsink/routes"
	"github.com/hkanojia/sheetsink/store"
	"github.com/hkanojia/sheetsink/utils"
	"github.com/hkanojia/sheetsink/worker"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.Person{}, &models.UploadJob{})

	jobs := store.NewJobStore(db)
	engine := ingest.NewEngine(jobs, jobs, cfg.RequiredColumns)
	sweeper := ingest.NewSweeper(jobs, time.Duration(cfg.RetentionHours)*time.Hour, cfg.CleanupEnabled)
	tasks := worker.NewGroup()

	// Reconcile jobs left behind by the previous process before any new
	// uploads are accepted.
	if err := ingest.RecoverJobs(jobs, engine, tasks); err != nil {
		utils.Sugar.Fatalf("startup recovery failed: %v", err)
	}

	uploads := controllers.NewUploadController(jobs, engine, sweeper, tasks, cfg)
	r := routes.SetupRouter(uploads)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r, tasks.Drain); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
