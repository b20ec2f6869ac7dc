package quest

import (
	"questhub/core/events"
	"questhub/native/bank"
)

func (e *Engine) loadJourney(spaceID SpaceID, journeyID JourneyID) (*Journey, error) {
	journey := new(Journey)
	ok, err := e.st.KVGet(journeyKey(spaceID, journeyID), journey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrJourneyNotFound
	}
	return journey, nil
}

func (e *Engine) storeJourney(journey *Journey) error {
	return e.st.KVPut(journeyKey(journey.SpaceID, journey.ID), journey)
}

// CreateJourney charges the journey creation fee into the hub treasury and
// adds a new campaign to the space. The payment must match the configured
// fee exactly.
func (e *Engine) CreateJourney(payment bank.Payment, cap SpaceAdminCap, spaceID SpaceID, cfg JourneyConfig) (JourneyID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var zero JourneyID
	if !cfg.RewardType.Valid() {
		return zero, ErrInvalidRewardType
	}
	if err := e.requireSpaceAdmin(cap, spaceID); err != nil {
		return zero, err
	}
	hub, err := e.loadHub()
	if err != nil {
		return zero, err
	}
	if err := checkHubVersion(hub); err != nil {
		return zero, err
	}
	space, err := e.loadSpace(spaceID)
	if err != nil {
		return zero, err
	}
	if err := checkSpaceVersion(space); err != nil {
		return zero, err
	}
	if err := e.ledger.CollectExact(payment, hub.JourneyFee, TreasuryAddress); err != nil {
		return zero, err
	}
	rawID, err := e.newID("qh/journey", spaceID[:])
	if err != nil {
		return zero, err
	}
	journey := &Journey{
		ID:             JourneyID(rawID),
		SpaceID:        spaceID,
		RewardType:     cfg.RewardType,
		RewardImageURL: trimmed(cfg.RewardImageURL),
		RequiredPoints: cfg.RequiredPoints,
		Name:           trimmed(cfg.Name),
		Description:    trimmed(cfg.Description),
		StartTime:      cfg.StartTime,
		EndTime:        cfg.EndTime,
		QuestIDs:       []QuestID{},
		Users:          []UserProgress{},
	}
	if err := e.storeJourney(journey); err != nil {
		return zero, err
	}
	space.JourneyIDs = append(space.JourneyIDs, journey.ID)
	if err := e.storeSpace(space); err != nil {
		return zero, err
	}
	e.emit(events.JourneyCreated{SpaceID: spaceID, JourneyID: journey.ID})
	return journey.ID, nil
}

// RemoveJourney deletes an empty campaign and all its per-user side tables.
// A journey still containing quests cannot be removed.
func (e *Engine) RemoveJourney(cap SpaceAdminCap, spaceID SpaceID, journeyID JourneyID) error {
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
	journey, err := e.loadJourney(spaceID, journeyID)
	if err != nil {
		return err
	}
	if len(journey.QuestIDs) > 0 {
		return ErrJourneyNotEmpty
	}
	if err := e.st.KVDelete(journeyKey(spaceID, journeyID)); err != nil {
		return err
	}
	for i, id := range space.JourneyIDs {
		if id == journeyID {
			space.JourneyIDs = append(space.JourneyIDs[:i], space.JourneyIDs[i+1:]...)
			break
		}
	}
	if err := e.storeSpace(space); err != nil {
		return err
	}
	e.emit(events.JourneyRemoved{SpaceID: spaceID, JourneyID: journeyID})
	return nil
}

// updateJourney runs a capability and version gated single-field mutation on
// an unremoved journey.
func (e *Engine) updateJourney(cap SpaceAdminCap, spaceID SpaceID, journeyID JourneyID, mutate func(*Journey)) error {
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
	journey, err := e.loadJourney(spaceID, journeyID)
	if err != nil {
		return err
	}
	mutate(journey)
	return e.storeJourney(journey)
}

// UpdateJourneyName replaces the campaign display name.
func (e *Engine) UpdateJourneyName(cap SpaceAdminCap, spaceID SpaceID, journeyID JourneyID, name string) error {
	return e.updateJourney(cap, spaceID, journeyID, func(j *Journey) { j.Name = trimmed(name) })
}

// UpdateJourneyDescription replaces the campaign description.
func (e *Engine) UpdateJourneyDescription(cap SpaceAdminCap, spaceID SpaceID, journeyID JourneyID, description string) error {
	return e.updateJourney(cap, spaceID, journeyID, func(j *Journey) { j.Description = trimmed(description) })
}

// UpdateJourneyRewardImageURL replaces the reward image reference used for
// future mints. Already minted rewards keep their snapshot.
func (e *Engine) UpdateJourneyRewardImageURL(cap SpaceAdminCap, spaceID SpaceID, journeyID JourneyID, url string) error {
	return e.updateJourney(cap, spaceID, journeyID, func(j *Journey) { j.RewardImageURL = trimmed(url) })
}

// UpdateJourneyRequiredPoints replaces the reward point threshold.
func (e *Engine) UpdateJourneyRequiredPoints(cap SpaceAdminCap, spaceID SpaceID, journeyID JourneyID, points uint64) error {
	return e.updateJourney(cap, spaceID, journeyID, func(j *Journey) { j.RequiredPoints = points })
}

// UpdateJourneyWindow replaces the campaign's inclusive time window.
func (e *Engine) UpdateJourneyWindow(cap SpaceAdminCap, spaceID SpaceID, journeyID JourneyID, start, end uint64) error {
	return e.updateJourney(cap, spaceID, journeyID, func(j *Journey) {
		j.StartTime = start
		j.EndTime = end
	})
}

// JourneyUpdate carries the optional fields of a batched edit. Nil fields
// stay unchanged; StartTime and EndTime replace the window together.
type JourneyUpdate struct {
	Name           *string
	Description    *string
	RewardImageURL *string
	RequiredPoints *uint64
	StartTime      *uint64
	EndTime        *uint64
}

// UpdateJourney applies every set field in one gated state write, so a
// failed capability or version check can never leave a partial edit.
func (e *Engine) UpdateJourney(cap SpaceAdminCap, spaceID SpaceID, journeyID JourneyID, upd JourneyUpdate) error {
	if (upd.StartTime == nil) != (upd.EndTime == nil) {
		return ErrInvalidTime
	}
	return e.updateJourney(cap, spaceID, journeyID, func(j *Journey) {
		if upd.Name != nil {
			j.Name = trimmed(*upd.Name)
		}
		if upd.Description != nil {
			j.Description = trimmed(*upd.Description)
		}
		if upd.RewardImageURL != nil {
			j.RewardImageURL = trimmed(*upd.RewardImageURL)
		}
		if upd.RequiredPoints != nil {
			j.RequiredPoints = *upd.RequiredPoints
		}
		if upd.StartTime != nil {
			j.StartTime = *upd.StartTime
			j.EndTime = *upd.EndTime
		}
	})
}

// --- views ---

// GetJourney retrieves a journey by its identifiers.
func (e *Engine) GetJourney(spaceID SpaceID, journeyID JourneyID) (*Journey, bool) {
	journey, err := e.loadJourney(spaceID, journeyID)
	if err != nil {
		return nil, false
	}
	return journey, true
}

// JourneyProgress reports the user's accumulated points, completed quest
// count and completion flag within a journey. Absent users report zeroes.
func (e *Engine) JourneyProgress(spaceID SpaceID, journeyID JourneyID, user [20]byte) UserProgress {
	journey, err := e.loadJourney(spaceID, journeyID)
	if err != nil {
		return UserProgress{User: user}
	}
	return journey.ProgressOf(user)
}
