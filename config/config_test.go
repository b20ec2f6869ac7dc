package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCAddress != ":8080" || cfg.GatewayAddress != ":8081" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default file written: %v", err)
	}

	// A second load reads the persisted file.
	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.DataDir != cfg.DataDir {
		t.Fatalf("reload mismatch: %q vs %q", again.DataDir, cfg.DataDir)
	}
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("RPCAddress = \":9999\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCAddress != ":9999" {
		t.Fatalf("explicit value lost: %q", cfg.RPCAddress)
	}
	if cfg.NetworkName != "questhub-local" || cfg.RateLimitBurst != 20 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadGenesis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	payload := `verifier: qh1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqwc9rm7
journeyFee: "25"
questStartFee: "5"
credits:
  - creator: qh1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqpqrxpvfd
    amount: 3
balances:
  - address: qh1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqpqrxpvfd
    amount: "1000"
`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	genesis, err := LoadGenesis(path)
	if err != nil {
		t.Fatalf("load genesis: %v", err)
	}
	if genesis.JourneyFee != "25" || len(genesis.Credits) != 1 || genesis.Credits[0].Amount != 3 {
		t.Fatalf("unexpected genesis %+v", genesis)
	}
}

func TestLoadGenesisRejectsMissingVerifier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	if err := os.WriteFile(path, []byte("journeyFee: \"1\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadGenesis(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestParseGenesisAmount(t *testing.T) {
	if amount, err := ParseGenesisAmount(""); err != nil || amount.Sign() != 0 {
		t.Fatalf("empty amount must read as zero, got %v %v", amount, err)
	}
	if _, err := ParseGenesisAmount("abc"); err == nil {
		t.Fatalf("expected error for non-decimal amount")
	}
	if _, err := ParseGenesisAmount("-5"); err == nil {
		t.Fatalf("expected error for negative amount")
	}
}
