package quest

// SpaceID uniquely identifies a tenant space.
type SpaceID [32]byte

// JourneyID uniquely identifies a campaign within the platform. Identifiers
// are assigned at creation time and never reused.
type JourneyID [32]byte

// QuestID uniquely identifies a task within the platform.
type QuestID [32]byte

// RewardID uniquely identifies a minted reward object.
type RewardID [32]byte

// RewardType selects the variant minted when a user completes a journey.
type RewardType uint8

const (
	// RewardTransferable mints a reward that may be freely transferred to
	// third parties after mint.
	RewardTransferable RewardType = iota + 1
	// RewardNonTransferable mints a reward permanently bound to its first
	// owner.
	RewardNonTransferable
)

// Valid reports whether the reward type is within the supported range.
func (t RewardType) Valid() bool {
	switch t {
	case RewardTransferable, RewardNonTransferable:
		return true
	default:
		return false
	}
}

// QuestStatus is the explicit per-user task state machine. The zero value
// means the user never started the task.
type QuestStatus uint8

const (
	QuestNotStarted QuestStatus = iota
	QuestStarted
	QuestCompleted
)

// Valid reports whether the status value is within the supported range.
func (s QuestStatus) Valid() bool {
	switch s {
	case QuestNotStarted, QuestStarted, QuestCompleted:
		return true
	default:
		return false
	}
}

// Space is a tenant's top-level container for campaigns. Display metadata is
// mutable through capability-gated single-field updates; the version stamp
// gates every mutation against stale deployments.
type Space struct {
	ID          SpaceID
	Version     uint64
	Name        string
	Description string
	ImageURL    string
	WebsiteURL  string
	TwitterURL  string
	JourneyIDs  []JourneyID
	CreatedAt   uint64
}

// UserProgress tracks a single user's accumulated state inside a journey.
// Points only ever increase, by exactly the completed quest's point value.
type UserProgress struct {
	User            [20]byte
	Points          uint64
	CompletedQuests uint64
	Completed       bool
}

// Journey is a time-boxed campaign. The per-user ledgers are embedded in the
// record so removing a journey drops every side table with it. Start and end
// times are epoch milliseconds with inclusive bounds.
type Journey struct {
	ID             JourneyID
	SpaceID        SpaceID
	RewardType     RewardType
	RewardImageURL string
	RequiredPoints uint64
	Name           string
	Description    string
	StartTime      uint64
	EndTime        uint64
	TotalCompleted uint64
	QuestIDs       []QuestID
	Users          []UserProgress
}

// progressOf returns the index of the user's progress entry, or -1.
func (j *Journey) progressOf(user [20]byte) int {
	for i := range j.Users {
		if j.Users[i].User == user {
			return i
		}
	}
	return -1
}

// ProgressOf returns a copy of the user's journey progress. A user with no
// entry reports zeroes across the board.
func (j *Journey) ProgressOf(user [20]byte) UserProgress {
	if j == nil {
		return UserProgress{User: user}
	}
	if i := j.progressOf(user); i >= 0 {
		return j.Users[i]
	}
	return UserProgress{User: user}
}

// ActionDescriptor describes the external action a quest verifies. It is
// opaque to the ledger and consumed only by the attestation authority.
type ActionDescriptor struct {
	PackageID string
	Module    string
	Function  string
	Arguments []string
}

// QuestProgress records a single user's task state.
type QuestProgress struct {
	User   [20]byte
	Status QuestStatus
}

// Quest is an atomic task worth a fixed number of points when attested
// complete. Per-user state is embedded for the same removal semantics as
// journeys.
type Quest struct {
	ID              QuestID
	JourneyID       JourneyID
	Points          uint64
	Name            string
	Description     string
	CallToActionURL string
	Action          ActionDescriptor
	TotalCompleted  uint64
	Users           []QuestProgress
}

func (q *Quest) progressOf(user [20]byte) int {
	for i := range q.Users {
		if q.Users[i].User == user {
			return i
		}
	}
	return -1
}

// StatusOf returns the user's task state, QuestNotStarted when absent.
func (q *Quest) StatusOf(user [20]byte) QuestStatus {
	if q == nil {
		return QuestNotStarted
	}
	if i := q.progressOf(user); i >= 0 {
		return q.Users[i].Status
	}
	return QuestNotStarted
}

// Reward is the object minted once per (journey, user) pair. The journey
// snapshot fields are fixed at mint time and never updated even if the
// journey is later edited.
type Reward struct {
	ID          RewardID
	Type        RewardType
	Name        string
	Description string
	ImageURL    string
	SpaceID     SpaceID
	JourneyID   JourneyID
	Claimer     [20]byte
	Owner       [20]byte
	MintedAt    uint64
}

// SpaceMeta bundles the display fields supplied at space creation.
type SpaceMeta struct {
	Name        string
	Description string
	ImageURL    string
	WebsiteURL  string
	TwitterURL  string
}

// JourneyConfig bundles the fields supplied at journey creation.
type JourneyConfig struct {
	RewardType     RewardType
	RewardImageURL string
	RequiredPoints uint64
	Name           string
	Description    string
	StartTime      uint64
	EndTime        uint64
}

// QuestConfig bundles the fields supplied at quest creation.
type QuestConfig struct {
	Points          uint64
	Name            string
	Description     string
	CallToActionURL string
	Action          ActionDescriptor
}
