package quest

import (
	"crypto/rand"
	"math/big"
	"sync"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"questhub/core/events"
	"questhub/core/state"
	"questhub/native/bank"
)

// TargetVersion is the schema version expected by this build. Every mutating
// operation checks the stamped hub or space version against it; Migrate
// advances stale stamps strictly upward.
const TargetVersion uint64 = 1

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVPutAll(pairs ...state.KVPair) error
	KVDelete(key []byte) error
}

type valueLedger interface {
	CollectExact(p bank.Payment, fee *big.Int, to [20]byte) error
	WithdrawAll(from, to [20]byte) (*big.Int, error)
	BalanceOf(addr [20]byte) (*big.Int, error)
}

// TreasuryAddress is the account holding collected journey-creation fees.
// The hub owns it exclusively; only Withdraw moves value out of it.
var TreasuryAddress = func() [20]byte {
	var addr [20]byte
	copy(addr[:], ethcrypto.Keccak256([]byte("questhub/treasury"))[12:])
	return addr
}()

// Engine implements the quest campaign ledger: the capability-gated
// space/journey/quest hierarchy, per-user point accounting and reward
// issuance. A single writer mutex serialises mutating operations into the
// total order the uniqueness checks rely on; each operation validates every
// precondition before its first write.
type Engine struct {
	mu      sync.Mutex
	st      engineState
	ledger  valueLedger
	emitter events.Emitter
	nowFn   func() uint64
	randFn  func([]byte) error
}

// NewEngine creates an engine backed by the provided state manager and value
// ledger, with a no-op emitter.
func NewEngine(st engineState, ledger *bank.Ledger) *Engine {
	return &Engine{
		st:      st,
		ledger:  ledger,
		emitter: events.NoopEmitter{},
		nowFn:   func() uint64 { return uint64(time.Now().UnixMilli()) },
		randFn: func(b []byte) error {
			_, err := rand.Read(b)
			return err
		},
	}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op
// implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the clock, expressed in epoch milliseconds. Primarily
// intended for tests to pin the journey time window checks.
func (e *Engine) SetNowFunc(now func() uint64) {
	if now == nil {
		e.nowFn = func() uint64 { return uint64(time.Now().UnixMilli()) }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(event events.Event) {
	if e.emitter == nil {
		return
	}
	e.emitter.Emit(event)
}

func (e *Engine) now() uint64 {
	return e.nowFn()
}

// newID derives a fresh 32-byte identifier, binding the tag and parent scope
// into the hash so identifiers from different collections never collide.
func (e *Engine) newID(tag string, parent []byte) ([32]byte, error) {
	var out [32]byte
	var entropy [16]byte
	if err := e.randFn(entropy[:]); err != nil {
		return out, err
	}
	copy(out[:], ethcrypto.Keccak256([]byte(tag), parent, entropy[:]))
	return out, nil
}

// --- persisted key layout ---

func hubKey() []byte { return []byte("qh/hub") }

func spaceKey(id SpaceID) []byte {
	return append([]byte("qh/space/"), id[:]...)
}

func journeyKey(spaceID SpaceID, journeyID JourneyID) []byte {
	key := append([]byte("qh/journey/"), spaceID[:]...)
	return append(key, journeyID[:]...)
}

func questKey(journeyID JourneyID, questID QuestID) []byte {
	key := append([]byte("qh/quest/"), journeyID[:]...)
	return append(key, questID[:]...)
}

func spacePointsKey(spaceID SpaceID, user [20]byte) []byte {
	key := append([]byte("qh/points/"), spaceID[:]...)
	return append(key, user[:]...)
}

func rewardKey(id RewardID) []byte {
	return append([]byte("qh/reward/"), id[:]...)
}

func rewardIndexKey(owner [20]byte) []byte {
	return append([]byte("qh/rewardidx/"), owner[:]...)
}

func capKey(id CapID) []byte {
	return append([]byte("qh/cap/"), id[:]...)
}

// --- capability minting and checks ---

func (e *Engine) mintCap(record capRecord) (CapID, error) {
	var id CapID
	if err := e.randFn(id[:]); err != nil {
		return id, err
	}
	if err := e.st.KVPut(capKey(id), record); err != nil {
		return id, err
	}
	return id, nil
}

func (e *Engine) loadCap(id CapID) (*capRecord, bool, error) {
	record := new(capRecord)
	ok, err := e.st.KVGet(capKey(id), record)
	if err != nil || !ok {
		return nil, false, err
	}
	return record, true, nil
}

func (e *Engine) requireHubAdmin(cap HubAdminCap) error {
	record, ok, err := e.loadCap(cap.id)
	if err != nil {
		return err
	}
	if !ok || record.Kind != CapHubAdmin {
		return ErrUnauthorized
	}
	return nil
}

// requireSpaceAdmin enforces the scope invariant: a space admin capability
// authorizes mutation only on the space whose identifier equals its bound
// space id, never transitively on other spaces.
func (e *Engine) requireSpaceAdmin(cap SpaceAdminCap, spaceID SpaceID) error {
	record, ok, err := e.loadCap(cap.id)
	if err != nil {
		return err
	}
	if !ok || record.Kind != CapSpaceAdmin || record.SpaceID != spaceID {
		return ErrUnauthorized
	}
	return nil
}

func (e *Engine) requireVerifier(cap VerifierCap) error {
	record, ok, err := e.loadCap(cap.id)
	if err != nil {
		return err
	}
	if !ok || record.Kind != CapVerifier {
		return ErrUnauthorized
	}
	return nil
}

// HubAdminCapFromToken resolves a bearer token presented at the service
// boundary into a hub admin capability handle.
func (e *Engine) HubAdminCapFromToken(token string) (HubAdminCap, error) {
	id, err := ParseCapID(token)
	if err != nil {
		return HubAdminCap{}, err
	}
	record, ok, err := e.loadCap(id)
	if err != nil {
		return HubAdminCap{}, err
	}
	if !ok || record.Kind != CapHubAdmin {
		return HubAdminCap{}, ErrUnauthorized
	}
	return HubAdminCap{id: id}, nil
}

// SpaceAdminCapFromToken resolves a bearer token into a space admin
// capability handle carrying its stored scope.
func (e *Engine) SpaceAdminCapFromToken(token string) (SpaceAdminCap, error) {
	id, err := ParseCapID(token)
	if err != nil {
		return SpaceAdminCap{}, err
	}
	record, ok, err := e.loadCap(id)
	if err != nil {
		return SpaceAdminCap{}, err
	}
	if !ok || record.Kind != CapSpaceAdmin {
		return SpaceAdminCap{}, ErrUnauthorized
	}
	return SpaceAdminCap{id: id, spaceID: record.SpaceID, spaceName: record.SpaceName}, nil
}

// VerifierCapFromToken resolves a bearer token into a verifier capability
// handle.
func (e *Engine) VerifierCapFromToken(token string) (VerifierCap, error) {
	id, err := ParseCapID(token)
	if err != nil {
		return VerifierCap{}, err
	}
	record, ok, err := e.loadCap(id)
	if err != nil {
		return VerifierCap{}, err
	}
	if !ok || record.Kind != CapVerifier {
		return VerifierCap{}, ErrUnauthorized
	}
	return VerifierCap{id: id}, nil
}

// --- version gates ---

func checkHubVersion(hub *Hub) error {
	if hub.Version != TargetVersion {
		return ErrVersionMismatch
	}
	return nil
}

func checkSpaceVersion(space *Space) error {
	if space.Version != TargetVersion {
		return ErrVersionMismatch
	}
	return nil
}
