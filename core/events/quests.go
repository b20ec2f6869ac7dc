package events

const (
	// TypeSpaceCreated is emitted when an authorized creator spends a
	// creation credit and a new space is registered on the hub.
	TypeSpaceCreated = "quests.space.created"
	// TypeJourneyCreated is emitted when a campaign is added to a space.
	TypeJourneyCreated = "quests.journey.created"
	// TypeJourneyRemoved is emitted when an empty campaign is removed from
	// its space.
	TypeJourneyRemoved = "quests.journey.removed"
	// TypeQuestCreated is emitted when a task is added to a campaign.
	TypeQuestCreated = "quests.quest.created"
	// TypeQuestRemoved is emitted when a task is removed from its campaign.
	TypeQuestRemoved = "quests.quest.removed"
	// TypeQuestStarted is emitted when a user pays the start fee and opens a
	// task.
	TypeQuestStarted = "quests.quest.started"
	// TypeQuestCompleted is emitted when the verifier attests a user's task
	// completion.
	TypeQuestCompleted = "quests.quest.completed"
	// TypeJourneyCompleted is emitted when a user crosses the campaign's
	// point threshold and claims the reward.
	TypeJourneyCompleted = "quests.journey.completed"
)

// SpaceCreated carries the identifiers of a newly registered space.
type SpaceCreated struct {
	SpaceID [32]byte
	Creator [20]byte
}

// EventType implements the Event interface.
func (SpaceCreated) EventType() string { return TypeSpaceCreated }

// JourneyCreated carries the identifiers of a newly created campaign.
type JourneyCreated struct {
	SpaceID   [32]byte
	JourneyID [32]byte
}

// EventType implements the Event interface.
func (JourneyCreated) EventType() string { return TypeJourneyCreated }

// JourneyRemoved carries the identifiers of a removed campaign.
type JourneyRemoved struct {
	SpaceID   [32]byte
	JourneyID [32]byte
}

// EventType implements the Event interface.
func (JourneyRemoved) EventType() string { return TypeJourneyRemoved }

// QuestCreated carries the identifiers of a newly created task.
type QuestCreated struct {
	SpaceID   [32]byte
	JourneyID [32]byte
	QuestID   [32]byte
}

// EventType implements the Event interface.
func (QuestCreated) EventType() string { return TypeQuestCreated }

// QuestRemoved carries the identifiers of a removed task.
type QuestRemoved struct {
	SpaceID   [32]byte
	JourneyID [32]byte
	QuestID   [32]byte
}

// EventType implements the Event interface.
func (QuestRemoved) EventType() string { return TypeQuestRemoved }

// QuestStarted carries the identifiers of a task opened by a user.
type QuestStarted struct {
	SpaceID   [32]byte
	JourneyID [32]byte
	QuestID   [32]byte
	User      [20]byte
}

// EventType implements the Event interface.
func (QuestStarted) EventType() string { return TypeQuestStarted }

// QuestCompleted carries the identifiers of an attested task completion.
type QuestCompleted struct {
	SpaceID   [32]byte
	JourneyID [32]byte
	QuestID   [32]byte
	User      [20]byte
}

// EventType implements the Event interface.
func (QuestCompleted) EventType() string { return TypeQuestCompleted }

// JourneyCompleted carries the identifiers of a claimed campaign reward.
type JourneyCompleted struct {
	SpaceID   [32]byte
	JourneyID [32]byte
	User      [20]byte
}

// EventType implements the Event interface.
func (JourneyCompleted) EventType() string { return TypeJourneyCompleted }
