package attest

import (
	"fmt"
	"strings"

	"github.com/imarises/TrustScore-FHE/internal/config"
	"github.com/imarises/TrustScore-FHE/internal/fhe"
)

// NewOracleFromConfig wires the oracle matching the engine: the stub oracle
// only makes sense next to the mock engine since it decrypts through it.
func NewOracleFromConfig(cfg config.Config, engine fhe.Arithmetic) (Oracle, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.OracleMode))
	if mode == "" || mode == "stub" {
		mock, ok := engine.(*fhe.MockEngine)
		if !ok {
			return nil, fmt.Errorf("ORACLE_MODE=stub requires FHE_ENGINE_MODE=stub")
		}
		return NewStubOracle(mock)
	}
	if mode != "real" {
		return nil, fmt.Errorf("invalid ORACLE_MODE: %s", cfg.OracleMode)
	}
	return NewRPCOracle(cfg.OracleHTTPRPC, cfg.OracleTimeout)
}
