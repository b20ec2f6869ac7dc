package rpc

import (
	"net/http"

	"questhub/native/bank"
	"questhub/native/quest"
)

type actionParams struct {
	PackageID string   `json:"packageId,omitempty"`
	Module    string   `json:"module,omitempty"`
	Function  string   `json:"function,omitempty"`
	Arguments []string `json:"arguments,omitempty"`
}

type questCreateParams struct {
	Token           string       `json:"token"`
	SpaceID         string       `json:"spaceId"`
	JourneyID       string       `json:"journeyId"`
	Points          uint64       `json:"points"`
	Name            string       `json:"name"`
	Description     string       `json:"description,omitempty"`
	CallToActionURL string       `json:"callToActionUrl,omitempty"`
	Action          actionParams `json:"action,omitempty"`
}

type questRefParams struct {
	Token     string `json:"token,omitempty"`
	SpaceID   string `json:"spaceId"`
	JourneyID string `json:"journeyId"`
	QuestID   string `json:"questId"`
}

type questStartParams struct {
	User          string `json:"user"`
	PaymentAmount string `json:"paymentAmount"`
	SpaceID       string `json:"spaceId"`
	JourneyID     string `json:"journeyId"`
	QuestID       string `json:"questId"`
}

type questCompleteParams struct {
	Token     string `json:"token"`
	SpaceID   string `json:"spaceId"`
	JourneyID string `json:"journeyId"`
	QuestID   string `json:"questId"`
	User      string `json:"user"`
}

type questStatusParams struct {
	JourneyID string `json:"journeyId"`
	QuestID   string `json:"questId"`
	User      string `json:"user"`
}

type questResult struct {
	ID              string       `json:"id"`
	JourneyID       string       `json:"journeyId"`
	Points          uint64       `json:"points"`
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	CallToActionURL string       `json:"callToActionUrl"`
	Action          actionParams `json:"action"`
	TotalCompleted  uint64       `json:"totalCompleted"`
}

func questResultFrom(q *quest.Quest) questResult {
	return questResult{
		ID:              formatID(q.ID),
		JourneyID:       formatID(q.JourneyID),
		Points:          q.Points,
		Name:            q.Name,
		Description:     q.Description,
		CallToActionURL: q.CallToActionURL,
		Action: actionParams{
			PackageID: q.Action.PackageID,
			Module:    q.Action.Module,
			Function:  q.Action.Function,
			Arguments: q.Action.Arguments,
		},
		TotalCompleted: q.TotalCompleted,
	}
}

func formatQuestStatus(status quest.QuestStatus) string {
	switch status {
	case quest.QuestStarted:
		return "started"
	case quest.QuestCompleted:
		return "completed"
	default:
		return "notStarted"
	}
}

func (s *Server) handleQuestCreate(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params questCreateParams
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
	questID, err := s.engine.CreateQuest(cap, quest.SpaceID(spaceID), quest.JourneyID(journeyID), quest.QuestConfig{
		Points:          params.Points,
		Name:            params.Name,
		Description:     params.Description,
		CallToActionURL: params.CallToActionURL,
		Action: quest.ActionDescriptor{
			PackageID: params.Action.PackageID,
			Module:    params.Action.Module,
			Function:  params.Action.Function,
			Arguments: params.Action.Arguments,
		},
	})
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatID(questID))
}

func (s *Server) handleQuestRemove(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params questRefParams
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
	questID, err := parseID(params.QuestID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid questId", err.Error())
		return
	}
	if err := s.engine.RemoveQuest(cap, quest.SpaceID(spaceID), quest.JourneyID(journeyID), quest.QuestID(questID)); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, "ok")
}

func (s *Server) handleQuestStart(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params questStartParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	user, err := decodeBech32(params.User)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid user address", err.Error())
		return
	}
	amount, err := parseAmount(params.PaymentAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid paymentAmount", err.Error())
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
	questID, err := parseID(params.QuestID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid questId", err.Error())
		return
	}
	err = s.engine.StartQuest(bank.Payment{Payer: user, Amount: amount}, user, quest.SpaceID(spaceID), quest.JourneyID(journeyID), quest.QuestID(questID))
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, "ok")
}

func (s *Server) handleQuestComplete(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params questCompleteParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	cap, err := s.engine.VerifierCapFromToken(params.Token)
	if err != nil {
		writeEngineError(w, req.ID, err)
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
	questID, err := parseID(params.QuestID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid questId", err.Error())
		return
	}
	user, err := decodeBech32(params.User)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid user address", err.Error())
		return
	}
	err = s.engine.CompleteQuest(cap, quest.SpaceID(spaceID), quest.JourneyID(journeyID), quest.QuestID(questID), user)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, "ok")
}

func (s *Server) handleQuestGet(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params questRefParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	journeyID, err := parseID(params.JourneyID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid journeyId", err.Error())
		return
	}
	questID, err := parseID(params.QuestID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid questId", err.Error())
		return
	}
	q, ok := s.engine.GetQuest(quest.JourneyID(journeyID), quest.QuestID(questID))
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeNotFound, "quest not found", params.QuestID)
		return
	}
	writeResult(w, req.ID, questResultFrom(q))
}

func (s *Server) handleQuestStatus(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params questStatusParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	journeyID, err := parseID(params.JourneyID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid journeyId", err.Error())
		return
	}
	questID, err := parseID(params.QuestID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid questId", err.Error())
		return
	}
	user, err := decodeBech32(params.User)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid user address", err.Error())
		return
	}
	status := s.engine.QuestState(quest.JourneyID(journeyID), quest.QuestID(questID), user)
	writeResult(w, req.ID, formatQuestStatus(status))
}
