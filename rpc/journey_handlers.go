package rpc

import (
	"net/http"
	"strings"

	"questhub/native/bank"
	"questhub/native/quest"
)

type journeyCreateParams struct {
	Token          string `json:"token"`
	SpaceID        string `json:"spaceId"`
	Payer          string `json:"payer"`
	PaymentAmount  string `json:"paymentAmount"`
	RewardType     string `json:"rewardType"`
	RewardImageURL string `json:"rewardImageUrl,omitempty"`
	RequiredPoints uint64 `json:"requiredPoints"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	StartTime      uint64 `json:"startTime"`
	EndTime        uint64 `json:"endTime"`
}

type journeyUpdateParams struct {
	Token          string  `json:"token"`
	SpaceID        string  `json:"spaceId"`
	JourneyID      string  `json:"journeyId"`
	Name           *string `json:"name,omitempty"`
	Description    *string `json:"description,omitempty"`
	RewardImageURL *string `json:"rewardImageUrl,omitempty"`
	RequiredPoints *uint64 `json:"requiredPoints,omitempty"`
	StartTime      *uint64 `json:"startTime,omitempty"`
	EndTime        *uint64 `json:"endTime,omitempty"`
}

type journeyRefParams struct {
	Token     string `json:"token,omitempty"`
	SpaceID   string `json:"spaceId"`
	JourneyID string `json:"journeyId"`
}

type journeyClaimParams struct {
	User      string `json:"user"`
	SpaceID   string `json:"spaceId"`
	JourneyID string `json:"journeyId"`
}

type journeyProgressParams struct {
	SpaceID   string `json:"spaceId"`
	JourneyID string `json:"journeyId"`
	User      string `json:"user"`
}

type journeyResult struct {
	ID             string   `json:"id"`
	SpaceID        string   `json:"spaceId"`
	RewardType     string   `json:"rewardType"`
	RewardImageURL string   `json:"rewardImageUrl"`
	RequiredPoints uint64   `json:"requiredPoints"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	StartTime      uint64   `json:"startTime"`
	EndTime        uint64   `json:"endTime"`
	TotalCompleted uint64   `json:"totalCompleted"`
	Quests         []string `json:"quests"`
}

type progressResult struct {
	User            string `json:"user"`
	Points          uint64 `json:"points"`
	CompletedQuests uint64 `json:"completedQuests"`
	Completed       bool   `json:"completed"`
}

func parseRewardType(value string) (quest.RewardType, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "transferable":
		return quest.RewardTransferable, true
	case "nontransferable", "soulbound":
		return quest.RewardNonTransferable, true
	default:
		return 0, false
	}
}

func formatRewardType(t quest.RewardType) string {
	switch t {
	case quest.RewardTransferable:
		return "transferable"
	case quest.RewardNonTransferable:
		return "nontransferable"
	default:
		return "unknown"
	}
}

func journeyResultFrom(journey *quest.Journey) journeyResult {
	quests := make([]string, 0, len(journey.QuestIDs))
	for _, id := range journey.QuestIDs {
		quests = append(quests, formatID(id))
	}
	return journeyResult{
		ID:             formatID(journey.ID),
		SpaceID:        formatID(journey.SpaceID),
		RewardType:     formatRewardType(journey.RewardType),
		RewardImageURL: journey.RewardImageURL,
		RequiredPoints: journey.RequiredPoints,
		Name:           journey.Name,
		Description:    journey.Description,
		StartTime:      journey.StartTime,
		EndTime:        journey.EndTime,
		TotalCompleted: journey.TotalCompleted,
		Quests:         quests,
	}
}

func (s *Server) handleJourneyCreate(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params journeyCreateParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	cap, ok := s.spaceAdminCap(w, req, params.Token)
	if !ok {
		return
	}
	spaceID, err := parseID(params.SpaceID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid spaceId", err.Error())
		return
	}
	payer, err := decodeBech32(params.Payer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid payer address", err.Error())
		return
	}
	amount, err := parseAmount(params.PaymentAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid paymentAmount", err.Error())
		return
	}
	rewardType, ok := parseRewardType(params.RewardType)
	if !ok {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidConfig, "rewardType must be transferable or nontransferable", params.RewardType)
		return
	}
	journeyID, err := s.engine.CreateJourney(bank.Payment{Payer: payer, Amount: amount}, cap, quest.SpaceID(spaceID), quest.JourneyConfig{
		RewardType:     rewardType,
		RewardImageURL: params.RewardImageURL,
		RequiredPoints: params.RequiredPoints,
		Name:           params.Name,
		Description:    params.Description,
		StartTime:      params.StartTime,
		EndTime:        params.EndTime,
	})
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatID(journeyID))
}

func (s *Server) handleJourneyUpdate(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params journeyUpdateParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	cap, ok := s.spaceAdminCap(w, req, params.Token)
	if !ok {
		return
	}
	spaceID, err := parseID(params.SpaceID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid spaceId", err.Error())
		return
	}
	journeyID, err := parseID(params.JourneyID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid journeyId", err.Error())
		return
	}
	if (params.StartTime == nil) != (params.EndTime == nil) {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "startTime and endTime must be updated together", nil)
		return
	}
	upd := quest.JourneyUpdate{
		Name:           params.Name,
		Description:    params.Description,
		RewardImageURL: params.RewardImageURL,
		RequiredPoints: params.RequiredPoints,
		StartTime:      params.StartTime,
		EndTime:        params.EndTime,
	}
	if upd == (quest.JourneyUpdate{}) {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "no fields to update", nil)
		return
	}
	// A single engine call applies the whole edit, so a gate failure can
	// never leave some fields updated and others not.
	if err := s.engine.UpdateJourney(cap, quest.SpaceID(spaceID), quest.JourneyID(journeyID), upd); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, "ok")
}

func (s *Server) handleJourneyRemove(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params journeyRefParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	cap, ok := s.spaceAdminCap(w, req, params.Token)
	if !ok {
		return
	}
	spaceID, err := parseID(params.SpaceID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid spaceId", err.Error())
		return
	}
	journeyID, err := parseID(params.JourneyID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid journeyId", err.Error())
		return
	}
	if err := s.engine.RemoveJourney(cap, quest.SpaceID(spaceID), quest.JourneyID(journeyID)); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, "ok")
}

func (s *Server) handleJourneyClaim(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params journeyClaimParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	user, err := decodeBech32(params.User)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid user address", err.Error())
		return
	}
	spaceID, err := parseID(params.SpaceID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid spaceId", err.Error())
		return
	}
	journeyID, err := parseID(params.JourneyID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid journeyId", err.Error())
		return
	}
	reward, err := s.engine.CompleteJourney(user, quest.SpaceID(spaceID), quest.JourneyID(journeyID))
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, rewardResultFrom(reward))
}

func (s *Server) handleJourneyGet(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params journeyRefParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	spaceID, err := parseID(params.SpaceID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid spaceId", err.Error())
		return
	}
	journeyID, err := parseID(params.JourneyID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid journeyId", err.Error())
		return
	}
	journey, ok := s.engine.GetJourney(quest.SpaceID(spaceID), quest.JourneyID(journeyID))
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeNotFound, "journey not found", params.JourneyID)
		return
	}
	writeResult(w, req.ID, journeyResultFrom(journey))
}

func (s *Server) handleJourneyProgress(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params journeyProgressParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	spaceID, err := parseID(params.SpaceID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid spaceId", err.Error())
		return
	}
	journeyID, err := parseID(params.JourneyID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid journeyId", err.Error())
		return
	}
	user, err := decodeBech32(params.User)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid user address", err.Error())
		return
	}
	progress := s.engine.JourneyProgress(quest.SpaceID(spaceID), quest.JourneyID(journeyID), user)
	writeResult(w, req.ID, progressResult{
		User:            formatAddr(progress.User),
		Points:          progress.Points,
		CompletedQuests: progress.CompletedQuests,
		Completed:       progress.Completed,
	})
}
