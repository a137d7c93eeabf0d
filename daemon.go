package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
)

const defaultSyncSchedule = "@every 15m"

// newSyncCron schedules run, skipping a tick while the previous run is
// still going. A slow gateway must never stack concurrent syncs against
// the same calendars.
func newSyncCron(schedule string, run func()) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, run); err != nil {
		return nil, err
	}
	return c, nil
}

// runDaemon runs one sync immediately and then on the configured cron
// schedule until interrupted. The engine itself never self-schedules;
// this is just the long-running host for it.
func runDaemon() {
	config, err := readConfig(configFileName)
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}

	db, err := openDB(dbFileName)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()
	dbInit(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	factory, err := NewCalendarFactory(ctx, config, db)
	if err != nil {
		log.Fatalf("Error initializing calendar providers: %v", err)
	}
	// Surface dead calendars at startup instead of on the first run.
	for _, entityID := range config.parentIDs() {
		if err := factory.ValidateCalendarAccess(entityID); err != nil {
			log.Printf("Warning: parent calendar %s is not accessible: %v", entityID, err)
		}
	}
	for _, rule := range config.childRules() {
		if err := factory.ValidateCalendarAccess(rule.EntityID); err != nil {
			log.Printf("Warning: child calendar %s is not accessible: %v", rule.EntityID, err)
		}
	}

	syncer := NewSyncer(factory, config.parentIDs(), config.childRules(), config.syncOptions())

	runOnce := func() {
		fmt.Println("🚀 Starting calendar synchronization...")
		report, err := syncer.Run(ctx)
		if err != nil {
			log.Printf("Sync run interrupted: %v", err)
			return
		}
		fmt.Print(report.Summary())
		if report.HasFailures() {
			fmt.Println("⚠️ Sync run completed with failures")
		} else {
			fmt.Println("✅ Sync run completed successfully")
		}
	}

	schedule := config.Options.SyncSchedule
	if schedule == "" {
		schedule = defaultSyncSchedule
	}

	// Sync once on startup, then on schedule.
	runOnce()

	c, err := newSyncCron(schedule, runOnce)
	if err != nil {
		log.Fatalf("Invalid sync_schedule %q: %v", schedule, err)
	}
	c.Start()
	fmt.Printf("⏰ Scheduled sync: %s\n", schedule)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	fmt.Printf("Received %s, shutting down\n", sig)

	cancel()
	<-c.Stop().Done()
}
