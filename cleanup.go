package main

import (
	"context"
	"fmt"
	"log"
	"time"
)

// cleanupWindowDays bounds how far back and forward cleanup looks for
// managed events. A year each way is far past any plausible sync window.
const cleanupWindowDays = 365

// cleanupCalendars deletes every managed event from every child
// calendar. Foreign events are untouched, so this safely unwinds
// everything the tool ever wrote.
func cleanupCalendars() {
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

	fmt.Print("⚠️  This removes every synced event from all child calendars. Continue? (y/N): ")
	var confirmation string
	fmt.Scanln(&confirmation)
	if confirmation != "y" && confirmation != "Y" {
		fmt.Println("❌ Cleanup cancelled")
		return
	}

	ctx := context.Background()
	factory, err := NewCalendarFactory(ctx, config, db)
	if err != nil {
		log.Fatalf("Error initializing calendar providers: %v", err)
	}

	now := time.Now()
	window := SyncWindow{
		Start: now.AddDate(0, 0, -cleanupWindowDays),
		End:   now.AddDate(0, 0, cleanupWindowDays),
	}

	for _, ch := range config.Children {
		fmt.Printf("  🗑 Cleaning child calendar: %s\n", ch.EntityID)
		events, err := factory.ListEvents(ch.EntityID, window)
		if err != nil {
			log.Printf("❌ Error reading child calendar %s: %v", ch.EntityID, err)
			continue
		}

		removed := 0
		for _, ev := range events {
			if !IsManaged(ev) {
				continue
			}
			if err := factory.DeleteEvent(ch.EntityID, ev.SourceUID); err != nil {
				log.Printf("❌ Error deleting event %s from %s: %v", ev.SourceUID, ch.EntityID, err)
				continue
			}
			printVerbosely(2, "      ✅ Deleted managed event: %s\n", ev.Title)
			removed++
		}
		fmt.Printf("    ✅ Removed %d managed events from %s\n", removed, ch.EntityID)
	}

	fmt.Println("✅ Cleanup completed")
}
