package config

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// GenesisCredit seeds the creation-credit allowlist at first boot.
type GenesisCredit struct {
	Creator string `yaml:"creator"`
	Amount  uint64 `yaml:"amount"`
}

// GenesisBalance pre-funds an account so fees can be paid immediately.
type GenesisBalance struct {
	Address string `yaml:"address"`
	Amount  string `yaml:"amount"`
}

// Genesis describes the one-time platform initialisation applied when the
// node starts against an empty state.
type Genesis struct {
	Verifier      string           `yaml:"verifier"`
	JourneyFee    string           `yaml:"journeyFee"`
	QuestStartFee string           `yaml:"questStartFee"`
	Credits       []GenesisCredit  `yaml:"credits,omitempty"`
	Balances      []GenesisBalance `yaml:"balances,omitempty"`
}

// LoadGenesis reads and validates a genesis file.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("genesis: read %s: %w", path, err)
	}
	genesis := &Genesis{}
	if err := yaml.Unmarshal(data, genesis); err != nil {
		return nil, fmt.Errorf("genesis: decode %s: %w", path, err)
	}
	if err := genesis.Validate(); err != nil {
		return nil, fmt.Errorf("genesis: %s: %w", path, err)
	}
	return genesis, nil
}

// Validate checks required fields and amount formats without touching state.
func (g *Genesis) Validate() error {
	if strings.TrimSpace(g.Verifier) == "" {
		return fmt.Errorf("verifier address is required")
	}
	if _, err := ParseGenesisAmount(g.JourneyFee); err != nil {
		return fmt.Errorf("journeyFee: %w", err)
	}
	if _, err := ParseGenesisAmount(g.QuestStartFee); err != nil {
		return fmt.Errorf("questStartFee: %w", err)
	}
	for i, balance := range g.Balances {
		if strings.TrimSpace(balance.Address) == "" {
			return fmt.Errorf("balances[%d]: address is required", i)
		}
		if _, err := ParseGenesisAmount(balance.Amount); err != nil {
			return fmt.Errorf("balances[%d]: %w", i, err)
		}
	}
	for i, credit := range g.Credits {
		if strings.TrimSpace(credit.Creator) == "" {
			return fmt.Errorf("credits[%d]: creator is required", i)
		}
	}
	return nil
}

// ParseGenesisAmount parses a decimal amount string; empty means zero.
func ParseGenesisAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal amount %q", value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}
