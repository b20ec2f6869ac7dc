package quest

import (
	"math/big"
	"strings"
)

// FeeKind selects which configured fee a SetFee call updates.
type FeeKind uint8

const (
	// FeeJourneyCreation is charged into the hub treasury when a space
	// admin creates a journey.
	FeeJourneyCreation FeeKind = iota + 1
	// FeeQuestStart is charged to the verifier payout address when a user
	// opens a quest.
	FeeQuestStart
)

// CreditEntry records the remaining space creation credit of one creator.
type CreditEntry struct {
	Creator   [20]byte
	Remaining uint64
}

// Hub is the process-wide singleton registry: protocol version, fee
// schedule, verifier payout address, the creation-credit allowlist and the
// append-only list of all spaces. The treasury balance lives in the bank
// ledger under TreasuryAddress and is owned exclusively by the hub.
type Hub struct {
	Version        uint64
	JourneyFee     *big.Int
	QuestStartFee  *big.Int
	VerifierPayout [20]byte
	Credits        []CreditEntry
	SpaceIDs       []SpaceID
}

func (h *Hub) creditOf(creator [20]byte) int {
	for i := range h.Credits {
		if h.Credits[i].Creator == creator {
			return i
		}
	}
	return -1
}

// GenesisParams configures the one-time protocol initialisation.
type GenesisParams struct {
	Verifier      [20]byte
	JourneyFee    *big.Int
	QuestStartFee *big.Int
	Credits       []CreditEntry
}

func (e *Engine) loadHub() (*Hub, error) {
	hub := new(Hub)
	ok, err := e.st.KVGet(hubKey(), hub)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotInitialised
	}
	return hub, nil
}

func (e *Engine) storeHub(hub *Hub) error {
	return e.st.KVPut(hubKey(), hub)
}

// InitGenesis initialises the hub registry and mints the single hub admin
// and verifier capabilities. It fails when the hub already exists.
func (e *Engine) InitGenesis(params GenesisParams) (HubAdminCap, VerifierCap, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	exists, err := e.st.KVGet(hubKey(), nil)
	if err != nil {
		return HubAdminCap{}, VerifierCap{}, err
	}
	if exists {
		return HubAdminCap{}, VerifierCap{}, ErrAlreadyInitialised
	}
	hub := &Hub{
		Version:        TargetVersion,
		JourneyFee:     cloneBigInt(params.JourneyFee),
		QuestStartFee:  cloneBigInt(params.QuestStartFee),
		VerifierPayout: params.Verifier,
		Credits:        append([]CreditEntry(nil), params.Credits...),
		SpaceIDs:       []SpaceID{},
	}
	adminID, err := e.mintCap(capRecord{Kind: CapHubAdmin})
	if err != nil {
		return HubAdminCap{}, VerifierCap{}, err
	}
	verifierID, err := e.mintCap(capRecord{Kind: CapVerifier, Holder: params.Verifier})
	if err != nil {
		return HubAdminCap{}, VerifierCap{}, err
	}
	if err := e.storeHub(hub); err != nil {
		return HubAdminCap{}, VerifierCap{}, err
	}
	return HubAdminCap{id: adminID}, VerifierCap{id: verifierID}, nil
}

// GrantCreationCredit sets (not adds) the creator's remaining space creation
// credit, creating the allowlist entry when absent.
func (e *Engine) GrantCreationCredit(cap HubAdminCap, creator [20]byte, amount uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireHubAdmin(cap); err != nil {
		return err
	}
	hub, err := e.loadHub()
	if err != nil {
		return err
	}
	if err := checkHubVersion(hub); err != nil {
		return err
	}
	if i := hub.creditOf(creator); i >= 0 {
		hub.Credits[i].Remaining = amount
	} else {
		hub.Credits = append(hub.Credits, CreditEntry{Creator: creator, Remaining: amount})
	}
	return e.storeHub(hub)
}

// SetFee updates one entry of the fee schedule.
func (e *Engine) SetFee(cap HubAdminCap, kind FeeKind, amount *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireHubAdmin(cap); err != nil {
		return err
	}
	hub, err := e.loadHub()
	if err != nil {
		return err
	}
	if err := checkHubVersion(hub); err != nil {
		return err
	}
	switch kind {
	case FeeJourneyCreation:
		hub.JourneyFee = cloneBigInt(amount)
	case FeeQuestStart:
		hub.QuestStartFee = cloneBigInt(amount)
	default:
		return ErrInvalidFeeKind
	}
	return e.storeHub(hub)
}

// SetVerifierAddress updates the address receiving quest start fees.
func (e *Engine) SetVerifierAddress(cap HubAdminCap, addr [20]byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireHubAdmin(cap); err != nil {
		return err
	}
	hub, err := e.loadHub()
	if err != nil {
		return err
	}
	if err := checkHubVersion(hub); err != nil {
		return err
	}
	hub.VerifierPayout = addr
	return e.storeHub(hub)
}

// Withdraw transfers the full treasury balance to the recipient and zeroes
// it. Withdrawing an empty treasury transfers zero value and succeeds.
func (e *Engine) Withdraw(cap HubAdminCap, to [20]byte) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireHubAdmin(cap); err != nil {
		return nil, err
	}
	hub, err := e.loadHub()
	if err != nil {
		return nil, err
	}
	if err := checkHubVersion(hub); err != nil {
		return nil, err
	}
	return e.ledger.WithdrawAll(TreasuryAddress, to)
}

// MigrateHub advances the hub version stamp to TargetVersion. Calling it
// against an already current hub fails deterministically.
func (e *Engine) MigrateHub(cap HubAdminCap) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireHubAdmin(cap); err != nil {
		return err
	}
	hub, err := e.loadHub()
	if err != nil {
		return err
	}
	if hub.Version >= TargetVersion {
		return ErrNotUpgrade
	}
	hub.Version = TargetVersion
	return e.storeHub(hub)
}

// --- views ---

// AvailableCredit reports the creator's remaining space creation credit,
// zero when the creator is not in the allowlist.
func (e *Engine) AvailableCredit(creator [20]byte) uint64 {
	hub, err := e.loadHub()
	if err != nil {
		return 0
	}
	if i := hub.creditOf(creator); i >= 0 {
		return hub.Credits[i].Remaining
	}
	return 0
}

// Fees returns the configured journey creation and quest start fees.
func (e *Engine) Fees() (journey, questStart *big.Int, err error) {
	hub, err := e.loadHub()
	if err != nil {
		return nil, nil, err
	}
	return cloneBigInt(hub.JourneyFee), cloneBigInt(hub.QuestStartFee), nil
}

// HubInfo returns a copy of the hub registry record.
func (e *Engine) HubInfo() (*Hub, error) {
	hub, err := e.loadHub()
	if err != nil {
		return nil, err
	}
	clone := *hub
	clone.JourneyFee = cloneBigInt(hub.JourneyFee)
	clone.QuestStartFee = cloneBigInt(hub.QuestStartFee)
	clone.Credits = append([]CreditEntry(nil), hub.Credits...)
	clone.SpaceIDs = append([]SpaceID(nil), hub.SpaceIDs...)
	return &clone, nil
}

// TreasuryBalance reports the current collected fee balance.
func (e *Engine) TreasuryBalance() (*big.Int, error) {
	return e.ledger.BalanceOf(TreasuryAddress)
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
