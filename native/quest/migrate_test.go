package quest

import (
	"errors"
	"math/big"
	"testing"

	"questhub/core/state"
	"questhub/native/bank"
	"questhub/storage"
)

// Version gating needs records stamped with a stale version, which the public
// API never produces, so these tests rewrite the stored records directly.

func newVersionEnv(t *testing.T) (*Engine, HubAdminCap, VerifierCap) {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	manager := state.NewManager(db)
	engine := NewEngine(manager, bank.NewLedger(manager))

	admin, verifier, err := engine.InitGenesis(GenesisParams{
		JourneyFee:    big.NewInt(0),
		QuestStartFee: big.NewInt(0),
	})
	if err != nil {
		t.Fatalf("init genesis: %v", err)
	}
	return engine, admin, verifier
}

func stampHubVersion(t *testing.T, engine *Engine, version uint64) {
	t.Helper()
	hub, err := engine.loadHub()
	if err != nil {
		t.Fatalf("load hub: %v", err)
	}
	hub.Version = version
	if err := engine.storeHub(hub); err != nil {
		t.Fatalf("store hub: %v", err)
	}
}

func TestStaleHubRejectsMutations(t *testing.T) {
	engine, admin, _ := newVersionEnv(t)
	stampHubVersion(t, engine, 0)

	if err := engine.GrantCreationCredit(admin, [20]byte{1}, 1); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
	if err := engine.SetFee(admin, FeeJourneyCreation, big.NewInt(5)); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
	if _, _, err := engine.CreateSpace([20]byte{1}, SpaceMeta{Name: "x"}); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}

func TestMigrateHub(t *testing.T) {
	engine, admin, _ := newVersionEnv(t)

	if err := engine.MigrateHub(admin); !errors.Is(err, ErrNotUpgrade) {
		t.Fatalf("migrating a current hub must fail, got %v", err)
	}

	stampHubVersion(t, engine, 0)
	if err := engine.MigrateHub(admin); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	hub, err := engine.loadHub()
	if err != nil {
		t.Fatalf("load hub: %v", err)
	}
	if hub.Version != TargetVersion {
		t.Fatalf("expected version %d, got %d", TargetVersion, hub.Version)
	}
	// Mutations work again after the upgrade.
	if err := engine.GrantCreationCredit(admin, [20]byte{1}, 1); err != nil {
		t.Fatalf("grant after migrate: %v", err)
	}
}

func TestStaleSpaceRejectsMutations(t *testing.T) {
	engine, admin, verifier := newVersionEnv(t)
	creator := [20]byte{1}
	if err := engine.GrantCreationCredit(admin, creator, 1); err != nil {
		t.Fatalf("grant: %v", err)
	}
	spaceID, cap, err := engine.CreateSpace(creator, SpaceMeta{Name: "Stale"})
	if err != nil {
		t.Fatalf("create space: %v", err)
	}
	journeyID, err := engine.CreateJourney(bank.Payment{Payer: creator, Amount: big.NewInt(0)}, cap, spaceID, JourneyConfig{
		RewardType: RewardNonTransferable,
		StartTime:  0,
		EndTime:    ^uint64(0),
	})
	if err != nil {
		t.Fatalf("create journey: %v", err)
	}
	questID, err := engine.CreateQuest(cap, spaceID, journeyID, QuestConfig{Points: 1})
	if err != nil {
		t.Fatalf("create quest: %v", err)
	}

	space, err := engine.loadSpace(spaceID)
	if err != nil {
		t.Fatalf("load space: %v", err)
	}
	space.Version = 0
	if err := engine.storeSpace(space); err != nil {
		t.Fatalf("store space: %v", err)
	}

	if err := engine.UpdateSpaceName(cap, spaceID, "x"); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
	if _, err := engine.CreateJourney(bank.Payment{Payer: creator, Amount: big.NewInt(0)}, cap, spaceID, JourneyConfig{RewardType: RewardTransferable}); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
	if err := engine.CompleteQuest(verifier, spaceID, journeyID, questID, [20]byte{9}); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}

	if err := engine.MigrateSpace(cap, spaceID); err != nil {
		t.Fatalf("migrate space: %v", err)
	}
	if err := engine.MigrateSpace(cap, spaceID); !errors.Is(err, ErrNotUpgrade) {
		t.Fatalf("second migrate must fail, got %v", err)
	}
	if err := engine.UpdateSpaceName(cap, spaceID, "Fresh"); err != nil {
		t.Fatalf("update after migrate: %v", err)
	}
}
