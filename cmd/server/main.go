package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"rts-arena/internal/api"
	"rts-arena/internal/config"
	"rts-arena/internal/game"
	"rts-arena/internal/room"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	}

	log.Println("⚔️ ================================")
	log.Println("⚔️  RTS ARENA - GAME SERVER")
	log.Println("⚔️ ================================")

	// Centralized configuration (single source of truth).
	cfg := config.Load()
	log.Printf("🎮 Config: %d TPS, %d snapshots/s, map %dx%d tiles",
		cfg.Game.TickRate, cfg.Game.SnapshotRate, cfg.Game.MapWidth, cfg.Game.MapHeight)
	log.Printf("🛡️ Limits: %d rooms, %d actions/s per player, %v grace window",
		cfg.Server.MaxRooms, cfg.Actions.PerSecond, cfg.Room.GraceWindow)

	// Debug server (pprof + metrics), localhost only.
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(api.DefaultObservabilityConfig()); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	// The hub routes scheduler output to sockets and needs the manager for
	// membership checks; the manager needs the hub as its sink. Construct
	// the manager first, then close the loop.
	manager := room.NewManager(cfg, nil)
	hub := api.NewHub(manager)
	manager.SetSink(hub)
	manager.TickObserver = api.RecordTick
	manager.CheatObserver = func(playerID, severity string) {
		log.Printf("🚨 Anti-cheat: player %s flagged (%s)", playerID, severity)
		api.RecordCheatEvent(severity)
	}

	// Match event log (JSONL, append-only).
	eventLog := game.NewEventLog()
	eventLogPath := getEnvWithDefault("EVENT_LOG_PATH", "events.jsonl")
	if err := eventLog.Start(eventLogPath); err != nil {
		log.Printf("⚠️ Event log disabled: %v", err)
	} else {
		log.Printf("📝 Event log: %s", eventLogPath)
		manager.EventLog = eventLog
	}

	server := api.NewServer(manager, hub)

	go func() {
		addr := ":" + strconv.Itoa(cfg.Server.Port)
		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	server.Stop()
	eventLog.Stop()
	log.Println("👋 Goodbye!")
}

func getEnvWithDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
