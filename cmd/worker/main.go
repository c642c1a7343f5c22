package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"hmisync/internal/config"
	"hmisync/internal/db"
	"hmisync/internal/engine"
	"hmisync/internal/ledger"
	"hmisync/internal/pkg/legacy"
	"hmisync/internal/scheduler"
	"hmisync/internal/tasks"
	"hmisync/internal/vendors"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	dbConn, err := db.InitDB(cfg.LedgerDBPath)
	if err != nil {
		log.Fatalf("Failed to open ledger database: %v", err)
	}
	log.Println("Worker connected to ledger database.")

	l, err := ledger.New(dbConn)
	if err != nil {
		log.Fatalf("Failed to migrate ledger: %v", err)
	}

	driver := legacy.NewDriver(cfg.DriverPath, cfg.DatabasePath)
	e := engine.New(l, driver, driver)

	// Interval-gated auto-upload, one loop per vendor. Each tick pushes at
	// most one record so a flaky HMIS never sees a burst.
	loops := make(map[string]*scheduler.Loop)
	for _, name := range vendors.Names() {
		adapter, settings, err := vendors.Adapter(cfg, name)
		if err != nil {
			log.Fatalf("Failed to build %s adapter: %v", name, err)
		}

		loop := scheduler.NewLoop(e)
		loop.Update(adapter, scheduler.Settings{
			Enabled:  settings.AutoUpload,
			Interval: settings.AutoUploadInterval,
		})
		loops[name] = loop

		if settings.AutoUpload {
			log.Printf("Auto-upload enabled for %s every %s", name, settings.AutoUploadInterval)
		}
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}

	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	// Hourly safety-net sweep per enabled vendor: re-attempts everything
	// still pending regardless of how the interval loops fared. One sweep
	// is enqueued immediately so records left over from before a restart
	// don't wait for the first schedule.
	sched := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{})
	for _, name := range vendors.Names() {
		_, settings, _ := vendors.Adapter(cfg, name)
		if !settings.AutoUpload {
			continue
		}

		task, err := tasks.NewUploadPendingTask(name)
		if err != nil {
			log.Fatalf("Failed to create upload pending task: %v", err)
		}

		if _, err := asynqClient.Enqueue(task, asynq.Queue("default")); err != nil {
			log.Printf("Failed to enqueue startup sweep for %s: %v", name, err)
		}

		entryID, err := sched.Register("@every 1h", task, asynq.Queue("default"))
		if err != nil {
			log.Fatalf("Failed to register periodic task: %v", err)
		}
		log.Printf("Registered periodic task: %s %s (EntryID: %s)", task.Type(), name, entryID)
	}

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Queues: map[string]int{
				"default": 3,
			},
			// One vendor call at a time; the HMIS endpoints are the
			// bottleneck, not us.
			Concurrency: 1,
		},
	)

	taskProcessor := tasks.NewTaskProcessor(e, cfg)

	mux := asynq.NewServeMux()
	mux.HandleFunc(
		tasks.TypeTaskUploadPending,
		taskProcessor.HandleUploadPendingTask,
	)

	go func() {
		log.Println("Starting Asynq scheduler...")
		if err := sched.Run(); err != nil {
			log.Fatalf("Could not run Asynq scheduler: %v", err)
		}
	}()

	go func() {
		log.Println("Starting Asynq worker server...")
		if err := srv.Run(mux); err != nil {
			log.Fatalf("Could not run Asynq worker server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	log.Println("Shutdown signal received, shutting down gracefully...")

	for name, loop := range loops {
		loop.Stop()
		log.Printf("Auto-upload loop for %s stopped.", name)
	}

	sched.Shutdown()
	log.Println("Asynq scheduler shut down.")

	srv.Shutdown()
	log.Println("Asynq worker server shut down.")

	asynqClient.Close()
	log.Println("Asynq client closed.")

	log.Println("Worker process shut down complete.")
}
