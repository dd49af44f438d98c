// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all simulation and server settings.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
	"time"
)

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// GameConfig holds the fixed-timestep simulation settings.
// These values are shared between the engine, the scheduler and the validator.
type GameConfig struct {
	TickRate     int     // Simulation ticks per second
	SnapshotRate int     // Snapshot broadcasts per second
	MapWidth     int     // Map width in tiles
	MapHeight    int     // Map height in tiles
	TileSize     float64 // Tile edge in pixels
	VisionRange  float64 // Fog-of-war vision radius in pixels
	GridCellSize float64 // Spatial index cell size in pixels
}

// DefaultGame returns the default simulation configuration.
func DefaultGame() GameConfig {
	return GameConfig{
		TickRate:     60,
		SnapshotRate: 10,
		MapWidth:     60,
		MapHeight:    60,
		TileSize:     40,
		VisionRange:  200,
		GridCellSize: 100,
	}
}

// GameFromEnv returns simulation configuration with environment overrides.
func GameFromEnv() GameConfig {
	cfg := DefaultGame()

	if v := getEnvInt("TICK_RATE", 0); v > 0 {
		cfg.TickRate = v
	}
	if v := getEnvInt("SNAPSHOT_RATE", 0); v > 0 {
		cfg.SnapshotRate = v
	}
	if v := getEnvInt("MAP_WIDTH", 0); v > 0 {
		cfg.MapWidth = v
	}
	if v := getEnvInt("MAP_HEIGHT", 0); v > 0 {
		cfg.MapHeight = v
	}
	if v := getEnvFloat("VISION_RANGE", 0); v > 0 {
		cfg.VisionRange = v
	}

	return cfg
}

// =============================================================================
// ROOM LIFECYCLE CONFIGURATION
// =============================================================================

// RoomConfig holds room lifecycle timings and limits.
type RoomConfig struct {
	MaxPlayers    int           // Human players per room
	GraceWindow   time.Duration // Reconnect window for a disconnected in-game player
	PingTimeout   time.Duration // No ping for this long marks a player disconnected
	WaitingTTL    time.Duration // Rooms that never started expire after this
	SweepInterval time.Duration // How often the sweeper runs
}

// DefaultRoom returns the default room configuration.
func DefaultRoom() RoomConfig {
	return RoomConfig{
		MaxPlayers:    2,
		GraceWindow:   60 * time.Second,
		PingTimeout:   30 * time.Second,
		WaitingTTL:    time.Hour,
		SweepInterval: time.Minute,
	}
}

// RoomFromEnv returns room configuration with environment overrides.
func RoomFromEnv() RoomConfig {
	cfg := DefaultRoom()

	if v := getEnvInt("GRACE_WINDOW_SECONDS", 0); v > 0 {
		cfg.GraceWindow = time.Duration(v) * time.Second
	}
	if v := getEnvInt("PING_TIMEOUT_SECONDS", 0); v > 0 {
		cfg.PingTimeout = time.Duration(v) * time.Second
	}

	return cfg
}

// =============================================================================
// ACTION RATE LIMITS
// =============================================================================

// ActionLimits bounds how fast a single player may submit actions.
type ActionLimits struct {
	PerSecond int           // Sliding one-second window
	PerMinute int           // Sliding one-minute window
	MaxSkew   time.Duration // Reject actions whose timestamp drifts further than this
}

// DefaultActionLimits returns production-safe defaults.
func DefaultActionLimits() ActionLimits {
	return ActionLimits{
		PerSecond: 10,
		PerMinute: 300,
		MaxSkew:   5 * time.Second,
	}
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int
	MaxRooms int
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:     3000,
		MaxRooms: 200,
	}
}

// ServerFromEnv returns server configuration with environment overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if mr := getEnvInt("MAX_ROOMS", 0); mr > 0 {
		cfg.MaxRooms = mr
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Game    GameConfig
	Room    RoomConfig
	Actions ActionLimits
	Server  ServerConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Game:    GameFromEnv(),
		Room:    RoomFromEnv(),
		Actions: DefaultActionLimits(),
		Server:  ServerFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
