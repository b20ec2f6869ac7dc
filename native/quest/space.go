package quest

import (
	"questhub/core/events"
)

func (e *Engine) loadSpace(id SpaceID) (*Space, error) {
	space := new(Space)
	ok, err := e.st.KVGet(spaceKey(id), space)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSpaceNotFound
	}
	return space, nil
}

func (e *Engine) storeSpace(space *Space) error {
	return e.st.KVPut(spaceKey(space.ID), space)
}

// CreateSpace spends one creation credit of the caller and registers a new
// tenant space. The minted SpaceAdminCap bound to the new space is returned
// to the caller; the space id is appended to the hub's list.
func (e *Engine) CreateSpace(creator [20]byte, meta SpaceMeta) (SpaceID, SpaceAdminCap, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var zero SpaceID
	hub, err := e.loadHub()
	if err != nil {
		return zero, SpaceAdminCap{}, err
	}
	if err := checkHubVersion(hub); err != nil {
		return zero, SpaceAdminCap{}, err
	}
	creditIdx := hub.creditOf(creator)
	if creditIdx < 0 || hub.Credits[creditIdx].Remaining == 0 {
		return zero, SpaceAdminCap{}, ErrNotSpaceCreator
	}
	hub.Credits[creditIdx].Remaining--

	rawID, err := e.newID("qh/space", creator[:])
	if err != nil {
		return zero, SpaceAdminCap{}, err
	}
	space := &Space{
		ID:          SpaceID(rawID),
		Version:     TargetVersion,
		Name:        trimmed(meta.Name),
		Description: trimmed(meta.Description),
		ImageURL:    trimmed(meta.ImageURL),
		WebsiteURL:  trimmed(meta.WebsiteURL),
		TwitterURL:  trimmed(meta.TwitterURL),
		JourneyIDs:  []JourneyID{},
		CreatedAt:   e.now(),
	}
	capID, err := e.mintCap(capRecord{
		Kind:      CapSpaceAdmin,
		SpaceID:   space.ID,
		SpaceName: space.Name,
		Holder:    creator,
	})
	if err != nil {
		return zero, SpaceAdminCap{}, err
	}
	if err := e.storeSpace(space); err != nil {
		return zero, SpaceAdminCap{}, err
	}
	hub.SpaceIDs = append(hub.SpaceIDs, space.ID)
	if err := e.storeHub(hub); err != nil {
		return zero, SpaceAdminCap{}, err
	}
	e.emit(events.SpaceCreated{SpaceID: space.ID, Creator: creator})
	adminCap := SpaceAdminCap{id: capID, spaceID: space.ID, spaceName: space.Name}
	return space.ID, adminCap, nil
}

// updateSpace runs a capability and version gated single-field mutation.
func (e *Engine) updateSpace(cap SpaceAdminCap, spaceID SpaceID, mutate func(*Space)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireSpaceAdmin(cap, spaceID); err != nil {
		return err
	}
	space, err := e.loadSpace(spaceID)
	if err != nil {
		return err
	}
	if err := checkSpaceVersion(space); err != nil {
		return err
	}
	mutate(space)
	return e.storeSpace(space)
}

// UpdateSpaceName replaces the space display name.
func (e *Engine) UpdateSpaceName(cap SpaceAdminCap, spaceID SpaceID, name string) error {
	return e.updateSpace(cap, spaceID, func(s *Space) { s.Name = trimmed(name) })
}

// UpdateSpaceDescription replaces the space description.
func (e *Engine) UpdateSpaceDescription(cap SpaceAdminCap, spaceID SpaceID, description string) error {
	return e.updateSpace(cap, spaceID, func(s *Space) { s.Description = trimmed(description) })
}

// UpdateSpaceImageURL replaces the space image reference.
func (e *Engine) UpdateSpaceImageURL(cap SpaceAdminCap, spaceID SpaceID, url string) error {
	return e.updateSpace(cap, spaceID, func(s *Space) { s.ImageURL = trimmed(url) })
}

// UpdateSpaceWebsiteURL replaces the space website link.
func (e *Engine) UpdateSpaceWebsiteURL(cap SpaceAdminCap, spaceID SpaceID, url string) error {
	return e.updateSpace(cap, spaceID, func(s *Space) { s.WebsiteURL = trimmed(url) })
}

// UpdateSpaceTwitterURL replaces the space twitter link.
func (e *Engine) UpdateSpaceTwitterURL(cap SpaceAdminCap, spaceID SpaceID, url string) error {
	return e.updateSpace(cap, spaceID, func(s *Space) { s.TwitterURL = trimmed(url) })
}

// SpaceUpdate carries the optional fields of a batched edit. Nil fields stay
// unchanged.
type SpaceUpdate struct {
	Name        *string
	Description *string
	ImageURL    *string
	WebsiteURL  *string
	TwitterURL  *string
}

// UpdateSpace applies every set field in one gated state write, so a failed
// capability or version check can never leave a partial edit.
func (e *Engine) UpdateSpace(cap SpaceAdminCap, spaceID SpaceID, upd SpaceUpdate) error {
	return e.updateSpace(cap, spaceID, func(s *Space) {
		if upd.Name != nil {
			s.Name = trimmed(*upd.Name)
		}
		if upd.Description != nil {
			s.Description = trimmed(*upd.Description)
		}
		if upd.ImageURL != nil {
			s.ImageURL = trimmed(*upd.ImageURL)
		}
		if upd.WebsiteURL != nil {
			s.WebsiteURL = trimmed(*upd.WebsiteURL)
		}
		if upd.TwitterURL != nil {
			s.TwitterURL = trimmed(*upd.TwitterURL)
		}
	})
}

// MigrateSpace advances the space version stamp to TargetVersion. Calling it
// against an already current space fails deterministically.
func (e *Engine) MigrateSpace(cap SpaceAdminCap, spaceID SpaceID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireSpaceAdmin(cap, spaceID); err != nil {
		return err
	}
	space, err := e.loadSpace(spaceID)
	if err != nil {
		return err
	}
	if space.Version >= TargetVersion {
		return ErrNotUpgrade
	}
	space.Version = TargetVersion
	return e.storeSpace(space)
}

// --- views ---

// GetSpace retrieves a space by its identifier.
func (e *Engine) GetSpace(id SpaceID) (*Space, bool) {
	space, err := e.loadSpace(id)
	if err != nil {
		return nil, false
	}
	return space, true
}

// ListSpaces returns the hub's append-only list of space identifiers.
func (e *Engine) ListSpaces() ([]SpaceID, error) {
	hub, err := e.loadHub()
	if err != nil {
		return nil, err
	}
	return append([]SpaceID(nil), hub.SpaceIDs...), nil
}

// SpacePoints reports the user's accumulated points on the space-scoped
// leaderboard, zero when the user never completed a quest in the space.
func (e *Engine) SpacePoints(spaceID SpaceID, user [20]byte) uint64 {
	var points uint64
	ok, err := e.st.KVGet(spacePointsKey(spaceID, user), &points)
	if err != nil || !ok {
		return 0
	}
	return points
}
