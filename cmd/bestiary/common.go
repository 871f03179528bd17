package main

import (
	"fmt"

	"github.com/jackzampolin/bestiary/internal/config"
	"github.com/jackzampolin/bestiary/internal/defra"
	"github.com/jackzampolin/bestiary/internal/home"
	"github.com/jackzampolin/bestiary/internal/monsters"
)

// getHome returns the home directory manager.
func getHome() (*home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, fmt.Errorf("failed to create home directory: %w", err)
	}
	return h, nil
}

// loadConfig returns the home directory and the config manager for it.
func loadConfig() (*home.Dir, *config.Manager, error) {
	h, err := getHome()
	if err != nil {
		return nil, nil, err
	}
	mgr, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return nil, nil, err
	}
	if f := mgr.ConfigFile(); f != "" {
		logger.Debug("using config file", "path", f)
	}
	return h, mgr, nil
}

// getStore returns the monster store backed by the configured DefraDB node.
func getStore(cfg *config.Config) *monsters.Store {
	return monsters.NewStore(defra.NewClient(cfg.Defra.URL), logger)
}
