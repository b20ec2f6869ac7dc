package quest

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// CapID is the 32-byte bearer secret behind a capability token. Possession
// of a valid id is the only authorization mechanism in the system.
type CapID [32]byte

// CapKind discriminates the stored capability records.
type CapKind uint8

const (
	CapHubAdmin CapKind = iota + 1
	CapSpaceAdmin
	CapVerifier
)

// capRecord is the authoritative persisted form of an issued capability.
// Scope checks always run against this record, never against the handle a
// caller presents.
type capRecord struct {
	Kind      CapKind
	SpaceID   SpaceID
	SpaceName string
	Holder    [20]byte
}

// HubAdminCap authorizes hub configuration, credit grants, treasury
// withdrawal and migration. Exactly one is minted at genesis. The zero value
// authorizes nothing.
type HubAdminCap struct {
	id CapID
}

// Token renders the capability as a hex bearer token for transport across
// the service boundary.
func (c HubAdminCap) Token() string { return encodeCapID(c.id) }

// SpaceAdminCap authorizes mutation of exactly one space and the journeys
// and quests nested inside it. It carries a denormalized copy of the space
// name fixed at mint time.
type SpaceAdminCap struct {
	id        CapID
	spaceID   SpaceID
	spaceName string
}

// SpaceID returns the identifier of the space this capability is bound to.
func (c SpaceAdminCap) SpaceID() SpaceID { return c.spaceID }

// SpaceName returns the space name snapshot taken when the capability was
// minted.
func (c SpaceAdminCap) SpaceName() string { return c.spaceName }

// Token renders the capability as a hex bearer token.
func (c SpaceAdminCap) Token() string { return encodeCapID(c.id) }

// VerifierCap authorizes quest completion attestation. Exactly one is minted
// at genesis.
type VerifierCap struct {
	id CapID
}

// Token renders the capability as a hex bearer token.
func (c VerifierCap) Token() string { return encodeCapID(c.id) }

func encodeCapID(id CapID) string {
	return "0x" + hex.EncodeToString(id[:])
}

// ParseCapID decodes a hex bearer token back into a capability id.
func ParseCapID(token string) (CapID, error) {
	var out CapID
	cleaned := strings.TrimPrefix(strings.TrimSpace(token), "0x")
	decoded, err := hex.DecodeString(cleaned)
	if err != nil {
		return out, err
	}
	if len(decoded) != len(out) {
		return out, fmt.Errorf("capability token must be %d bytes", len(out))
	}
	copy(out[:], decoded)
	return out, nil
}
