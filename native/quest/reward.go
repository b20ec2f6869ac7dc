package quest

import (
	"questhub/core/events"
	"questhub/core/state"
)

func (e *Engine) loadReward(id RewardID) (*Reward, error) {
	reward := new(Reward)
	ok, err := e.st.KVGet(rewardKey(id), reward)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRewardNotFound
	}
	return reward, nil
}

func (e *Engine) rewardIndexOf(owner [20]byte) ([]RewardID, error) {
	var ids []RewardID
	if _, err := e.st.KVGet(rewardIndexKey(owner), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func removeRewardID(ids []RewardID, id RewardID) []RewardID {
	for i := range ids {
		if ids[i] == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// CompleteJourney claims the campaign reward for the caller. The caller must
// hold at least the required points and must not have claimed before;
// exactly one reward object of the journey's configured variant is minted,
// stamped with a snapshot of the journey's current display fields.
func (e *Engine) CompleteJourney(user [20]byte, spaceID SpaceID, journeyID JourneyID) (*Reward, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	space, err := e.loadSpace(spaceID)
	if err != nil {
		return nil, err
	}
	if err := checkSpaceVersion(space); err != nil {
		return nil, err
	}
	journey, err := e.loadJourney(spaceID, journeyID)
	if err != nil {
		return nil, err
	}
	progressIdx := journey.progressOf(user)
	if progressIdx >= 0 && journey.Users[progressIdx].Completed {
		return nil, ErrJourneyAlreadyCompleted
	}
	if progressIdx < 0 || journey.Users[progressIdx].Points < journey.RequiredPoints {
		return nil, ErrJourneyNotCompleted
	}

	rawID, err := e.newID("qh/reward", journeyID[:])
	if err != nil {
		return nil, err
	}
	reward := &Reward{
		ID:          RewardID(rawID),
		Type:        journey.RewardType,
		Name:        journey.Name,
		Description: journey.Description,
		ImageURL:    journey.RewardImageURL,
		SpaceID:     spaceID,
		JourneyID:   journeyID,
		Claimer:     user,
		Owner:       user,
		MintedAt:    e.now(),
	}

	ownedIDs, err := e.rewardIndexOf(user)
	if err != nil {
		return nil, err
	}
	ownedIDs = append(ownedIDs, reward.ID)

	journey.Users[progressIdx].Completed = true
	journey.TotalCompleted++
	// The journey ledger, the reward object and the owner index move in
	// one atomic batch so a storage failure cannot mint a reward without
	// recording the claim.
	err = e.st.KVPutAll(
		state.KVPair{Key: journeyKey(spaceID, journeyID), Value: journey},
		state.KVPair{Key: rewardKey(reward.ID), Value: reward},
		state.KVPair{Key: rewardIndexKey(user), Value: ownedIDs},
	)
	if err != nil {
		return nil, err
	}
	e.emit(events.JourneyCompleted{SpaceID: spaceID, JourneyID: journeyID, User: user})
	return reward, nil
}

// TransferReward moves a transferable reward to a new owner. Non
// transferable rewards stay bound to their minted owner forever.
func (e *Engine) TransferReward(caller [20]byte, id RewardID, to [20]byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	reward, err := e.loadReward(id)
	if err != nil {
		return err
	}
	if reward.Owner != caller {
		return ErrUnauthorized
	}
	if reward.Type != RewardTransferable {
		return ErrRewardBound
	}
	if to == caller {
		return nil
	}
	fromIDs, err := e.rewardIndexOf(caller)
	if err != nil {
		return err
	}
	toIDs, err := e.rewardIndexOf(to)
	if err != nil {
		return err
	}
	reward.Owner = to
	return e.st.KVPutAll(
		state.KVPair{Key: rewardKey(id), Value: reward},
		state.KVPair{Key: rewardIndexKey(caller), Value: removeRewardID(fromIDs, id)},
		state.KVPair{Key: rewardIndexKey(to), Value: append(toIDs, id)},
	)
}

// --- views ---

// GetReward retrieves a reward by its identifier.
func (e *Engine) GetReward(id RewardID) (*Reward, bool) {
	reward, err := e.loadReward(id)
	if err != nil {
		return nil, false
	}
	return reward, true
}

// RewardsOf lists the identifiers of rewards currently owned by the address.
func (e *Engine) RewardsOf(owner [20]byte) []RewardID {
	var ids []RewardID
	if _, err := e.st.KVGet(rewardIndexKey(owner), &ids); err != nil {
		return nil
	}
	return ids
}
