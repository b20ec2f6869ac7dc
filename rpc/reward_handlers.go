package rpc

import (
	"net/http"

	"questhub/native/quest"
)

type rewardTransferParams struct {
	Caller   string `json:"caller"`
	RewardID string `json:"rewardId"`
	To       string `json:"to"`
}

type rewardQueryParams struct {
	RewardID string `json:"rewardId"`
}

type rewardListParams struct {
	Owner string `json:"owner"`
}

type rewardResult struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	SpaceID     string `json:"spaceId"`
	JourneyID   string `json:"journeyId"`
	Claimer     string `json:"claimer"`
	Owner       string `json:"owner"`
	MintedAt    uint64 `json:"mintedAt"`
}

func rewardResultFrom(reward *quest.Reward) rewardResult {
	return rewardResult{
		ID:          formatID(reward.ID),
		Type:        formatRewardType(reward.Type),
		Name:        reward.Name,
		Description: reward.Description,
		ImageURL:    reward.ImageURL,
		SpaceID:     formatID(reward.SpaceID),
		JourneyID:   formatID(reward.JourneyID),
		Claimer:     formatAddr(reward.Claimer),
		Owner:       formatAddr(reward.Owner),
		MintedAt:    reward.MintedAt,
	}
}

func (s *Server) handleRewardTransfer(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params rewardTransferParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	rewardID, err := parseID(params.RewardID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid rewardId", err.Error())
		return
	}
	to, err := decodeBech32(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid recipient address", err.Error())
		return
	}
	if err := s.engine.TransferReward(caller, quest.RewardID(rewardID), to); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, "ok")
}

func (s *Server) handleRewardGet(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params rewardQueryParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	rewardID, err := parseID(params.RewardID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid rewardId", err.Error())
		return
	}
	reward, ok := s.engine.GetReward(quest.RewardID(rewardID))
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeNotFound, "reward not found", params.RewardID)
		return
	}
	writeResult(w, req.ID, rewardResultFrom(reward))
}

func (s *Server) handleRewardList(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params rewardListParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	owner, err := decodeBech32(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid owner address", err.Error())
		return
	}
	ids := s.engine.RewardsOf(owner)
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, formatID(id))
	}
	writeResult(w, req.ID, out)
}
