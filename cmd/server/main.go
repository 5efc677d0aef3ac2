package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/hextactics/internal/battle"
	"github.com/gravitas-games/hextactics/internal/config"
	"github.com/gravitas-games/hextactics/internal/hex"
	"github.com/gravitas-games/hextactics/internal/server"
	"github.com/gravitas-games/hextactics/pkg/logger"
	"github.com/gravitas-games/hextactics/pkg/models"
)

func main() {
	boot := logger.FromEnv()

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/server.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		boot.WithError(err).Fatal("Failed to load configuration")
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.WithField("path", configPath).Info("Configuration loaded")

	bus := battle.NewSimpleEventBus()
	session := battle.NewGeneratedSession("main", cfg.Battle, bus, log)
	deploy(session, cfg.Battle.PlayerFaction, cfg.Battle.MapRadius, log)

	srv, err := server.New(cfg, session, bus, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create server")
	}

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := srv.Start(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		log.WithError(err).Fatal("Server error")
	case sig := <-sigChan:
		log.WithField("signal", sig.String()).Info("Shutting down...")
	}

	if err := srv.Shutdown(); err != nil {
		log.WithError(err).Error("Error during shutdown")
	}
	log.Info("Server stopped")
}

// deploy places a small squad for each side: the player's side around the
// centre, the opposing side near the western edge.
func deploy(s *battle.Session, side models.Faction, radius int, log logrus.FieldLogger) {
	foe := models.FactionEnemy
	if side == models.FactionEnemy {
		foe = models.FactionPlayer
	}

	place := func(name string, f models.Faction, near hex.Axial) {
		for r := 0; r <= 3; r++ {
			for _, a := range hex.Ring(near, r) {
				if t := s.Tiles().Get(a); t == nil || !t.Walkable() || s.HasOccupantAt(a) {
					continue
				}
				if err := s.AddUnit(models.NewUnit(name, f, a, 0, 0)); err == nil {
					return
				}
			}
		}
		log.WithFields(logrus.Fields{"unit": name, "near": near.String()}).Warn("No room to deploy unit")
	}

	west := hex.Axial{Q: -(radius - 1)}

	for _, name := range []string{"Vanguard", "Archer", "Scout"} {
		place(name, side, hex.Axial{})
		place(name, foe, west)
	}
}
