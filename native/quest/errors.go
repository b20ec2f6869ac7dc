package quest

import "errors"

var (
	ErrNotInitialised         = errors.New("quest: hub not initialised")
	ErrAlreadyInitialised     = errors.New("quest: hub already initialised")
	ErrVersionMismatch        = errors.New("quest: version mismatch, migration required")
	ErrNotUpgrade             = errors.New("quest: version is already current")
	ErrUnauthorized           = errors.New("quest: unauthorized")
	ErrNotSpaceCreator        = errors.New("quest: caller has no space creation credit")
	ErrInvalidRewardType      = errors.New("quest: invalid reward type")
	ErrInvalidFeeKind         = errors.New("quest: invalid fee kind")
	ErrInvalidTime            = errors.New("quest: outside journey time window")
	ErrQuestAlreadyStarted    = errors.New("quest: quest already started")
	ErrQuestNotStarted        = errors.New("quest: quest not started")
	ErrQuestAlreadyCompleted  = errors.New("quest: quest already completed")
	ErrJourneyAlreadyCompleted = errors.New("quest: journey already completed")
	ErrJourneyNotCompleted    = errors.New("quest: journey points threshold not met")
	ErrJourneyNotEmpty        = errors.New("quest: journey still contains quests")
	ErrSpaceNotFound          = errors.New("quest: space not found")
	ErrJourneyNotFound        = errors.New("quest: journey not found")
	ErrQuestNotFound          = errors.New("quest: quest not found")
	ErrRewardNotFound         = errors.New("quest: reward not found")
	ErrRewardBound            = errors.New("quest: reward is bound to its owner")
)
