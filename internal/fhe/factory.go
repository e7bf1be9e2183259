package fhe

import (
	"fmt"
	"strings"

	"github.com/imarises/TrustScore-FHE/internal/config"
)

func NewEngineFromConfig(cfg config.Config) (Arithmetic, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.EngineMode))
	if mode == "" || mode == "stub" {
		return NewMockEngine(), nil
	}
	if mode != "real" {
		return nil, fmt.Errorf("invalid FHE_ENGINE_MODE: %s", cfg.EngineMode)
	}
	return NewRPCEngine(cfg.EngineHTTPRPC)
}
