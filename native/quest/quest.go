package quest

import (
	"questhub/core/events"
	"questhub/core/state"
	"questhub/native/bank"
)

func (e *Engine) loadQuest(journeyID JourneyID, questID QuestID) (*Quest, error) {
	q := new(Quest)
	ok, err := e.st.KVGet(questKey(journeyID, questID), q)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrQuestNotFound
	}
	return q, nil
}

func (e *Engine) storeQuest(q *Quest) error {
	return e.st.KVPut(questKey(q.JourneyID, q.ID), q)
}

// CreateQuest appends a new task to the journey's quest table.
func (e *Engine) CreateQuest(cap SpaceAdminCap, spaceID SpaceID, journeyID JourneyID, cfg QuestConfig) (QuestID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var zero QuestID
	if err := e.requireSpaceAdmin(cap, spaceID); err != nil {
		return zero, err
	}
	space, err := e.loadSpace(spaceID)
	if err != nil {
		return zero, err
	}
	if err := checkSpaceVersion(space); err != nil {
		return zero, err
	}
	journey, err := e.loadJourney(spaceID, journeyID)
	if err != nil {
		return zero, err
	}
	rawID, err := e.newID("qh/quest", journeyID[:])
	if err != nil {
		return zero, err
	}
	q := &Quest{
		ID:              QuestID(rawID),
		JourneyID:       journeyID,
		Points:          cfg.Points,
		Name:            trimmed(cfg.Name),
		Description:     trimmed(cfg.Description),
		CallToActionURL: trimmed(cfg.CallToActionURL),
		Action:          cfg.Action,
		Users:           []QuestProgress{},
	}
	if err := e.storeQuest(q); err != nil {
		return zero, err
	}
	journey.QuestIDs = append(journey.QuestIDs, q.ID)
	if err := e.storeJourney(journey); err != nil {
		return zero, err
	}
	e.emit(events.QuestCreated{SpaceID: spaceID, JourneyID: journeyID, QuestID: q.ID})
	return q.ID, nil
}

// RemoveQuest deletes a task and its per-user state table. Quests have no
// nested children, so removal is unconditional.
func (e *Engine) RemoveQuest(cap SpaceAdminCap, spaceID SpaceID, journeyID JourneyID, questID QuestID) error {
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
	if _, err := e.loadQuest(journeyID, questID); err != nil {
		return err
	}
	if err := e.st.KVDelete(questKey(journeyID, questID)); err != nil {
		return err
	}
	for i, id := range journey.QuestIDs {
		if id == questID {
			journey.QuestIDs = append(journey.QuestIDs[:i], journey.QuestIDs[i+1:]...)
			break
		}
	}
	if err := e.storeJourney(journey); err != nil {
		return err
	}
	e.emit(events.QuestRemoved{SpaceID: spaceID, JourneyID: journeyID, QuestID: questID})
	return nil
}

// requireWindow checks the current clock against the journey's inclusive
// time window.
func (e *Engine) requireWindow(journey *Journey) error {
	now := e.now()
	if now < journey.StartTime || now > journey.EndTime {
		return ErrInvalidTime
	}
	return nil
}

// StartQuest opens a task for the caller and charges the quest start fee to
// the verifier payout address. A user can start each quest at most once.
func (e *Engine) StartQuest(payment bank.Payment, user [20]byte, spaceID SpaceID, journeyID JourneyID, questID QuestID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	hub, err := e.loadHub()
	if err != nil {
		return err
	}
	if err := checkHubVersion(hub); err != nil {
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
	if err := e.requireWindow(journey); err != nil {
		return err
	}
	q, err := e.loadQuest(journeyID, questID)
	if err != nil {
		return err
	}
	if q.StatusOf(user) != QuestNotStarted {
		return ErrQuestAlreadyStarted
	}
	if err := e.ledger.CollectExact(payment, hub.QuestStartFee, hub.VerifierPayout); err != nil {
		return err
	}
	q.Users = append(q.Users, QuestProgress{User: user, Status: QuestStarted})
	if err := e.storeQuest(q); err != nil {
		return err
	}
	e.emit(events.QuestStarted{SpaceID: spaceID, JourneyID: journeyID, QuestID: questID, User: user})
	return nil
}

// CompleteQuest records the verifier's attestation that the user performed
// the quest's external action. This is the single point where points enter
// the system: the quest counter, the journey's per-user points and completed
// count and the space leaderboard all move here, exactly once per
// (journey, quest, user) triple.
func (e *Engine) CompleteQuest(cap VerifierCap, spaceID SpaceID, journeyID JourneyID, questID QuestID, user [20]byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireVerifier(cap); err != nil {
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
	if err := e.requireWindow(journey); err != nil {
		return err
	}
	q, err := e.loadQuest(journeyID, questID)
	if err != nil {
		return err
	}
	switch q.StatusOf(user) {
	case QuestNotStarted:
		return ErrQuestNotStarted
	case QuestCompleted:
		return ErrQuestAlreadyCompleted
	}

	q.Users[q.progressOf(user)].Status = QuestCompleted
	q.TotalCompleted++

	if i := journey.progressOf(user); i >= 0 {
		journey.Users[i].Points += q.Points
		journey.Users[i].CompletedQuests++
	} else {
		journey.Users = append(journey.Users, UserProgress{
			User:            user,
			Points:          q.Points,
			CompletedQuests: 1,
		})
	}

	var spacePoints uint64
	if _, err := e.st.KVGet(spacePointsKey(spaceID, user), &spacePoints); err != nil {
		return err
	}
	spacePoints += q.Points

	// The quest record, the journey ledger and the space leaderboard move
	// in one atomic batch; a storage failure cannot credit one without the
	// others.
	err = e.st.KVPutAll(
		state.KVPair{Key: questKey(q.JourneyID, q.ID), Value: q},
		state.KVPair{Key: journeyKey(journey.SpaceID, journey.ID), Value: journey},
		state.KVPair{Key: spacePointsKey(spaceID, user), Value: spacePoints},
	)
	if err != nil {
		return err
	}
	e.emit(events.QuestCompleted{SpaceID: spaceID, JourneyID: journeyID, QuestID: questID, User: user})
	return nil
}

// --- views ---

// GetQuest retrieves a quest by its identifiers.
func (e *Engine) GetQuest(journeyID JourneyID, questID QuestID) (*Quest, bool) {
	q, err := e.loadQuest(journeyID, questID)
	if err != nil {
		return nil, false
	}
	return q, true
}

// QuestState reports the user's task state, QuestNotStarted when the user
// or the quest is unknown.
func (e *Engine) QuestState(journeyID JourneyID, questID QuestID, user [20]byte) QuestStatus {
	q, err := e.loadQuest(journeyID, questID)
	if err != nil {
		return QuestNotStarted
	}
	return q.StatusOf(user)
}
