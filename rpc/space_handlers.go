package rpc

import (
	"net/http"
	"strings"

	"questhub/native/quest"
)

type spaceCreateParams struct {
	Creator     string `json:"creator"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	WebsiteURL  string `json:"websiteUrl,omitempty"`
	TwitterURL  string `json:"twitterUrl,omitempty"`
}

type spaceCreateResult struct {
	SpaceID    string `json:"spaceId"`
	AdminToken string `json:"adminToken"`
}

type spaceUpdateParams struct {
	Token       string  `json:"token"`
	SpaceID     string  `json:"spaceId"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"imageUrl,omitempty"`
	WebsiteURL  *string `json:"websiteUrl,omitempty"`
	TwitterURL  *string `json:"twitterUrl,omitempty"`
}

type spaceTokenParams struct {
	Token   string `json:"token"`
	SpaceID string `json:"spaceId"`
}

type spaceQueryParams struct {
	SpaceID string `json:"spaceId"`
}

type spacePointsParams struct {
	SpaceID string `json:"spaceId"`
	User    string `json:"user"`
}

type spaceResult struct {
	ID          string   `json:"id"`
	Version     uint64   `json:"version"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ImageURL    string   `json:"imageUrl"`
	WebsiteURL  string   `json:"websiteUrl"`
	TwitterURL  string   `json:"twitterUrl"`
	Journeys    []string `json:"journeys"`
	CreatedAt   uint64   `json:"createdAt"`
}

func spaceResultFrom(space *quest.Space) spaceResult {
	journeys := make([]string, 0, len(space.JourneyIDs))
	for _, id := range space.JourneyIDs {
		journeys = append(journeys, formatID(id))
	}
	return spaceResult{
		ID:          formatID(space.ID),
		Version:     space.Version,
		Name:        space.Name,
		Description: space.Description,
		ImageURL:    space.ImageURL,
		WebsiteURL:  space.WebsiteURL,
		TwitterURL:  space.TwitterURL,
		Journeys:    journeys,
		CreatedAt:   space.CreatedAt,
	}
}

func (s *Server) spaceAdminCap(w http.ResponseWriter, req *RPCRequest, token string) (quest.SpaceAdminCap, bool) {
	cap, err := s.engine.SpaceAdminCapFromToken(strings.TrimSpace(token))
	if err != nil {
		writeEngineError(w, req.ID, err)
		return quest.SpaceAdminCap{}, false
	}
	return cap, true
}

func (s *Server) handleSpaceCreate(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params spaceCreateParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	creator, err := decodeBech32(params.Creator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid creator address", err.Error())
		return
	}
	if strings.TrimSpace(params.Name) == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "name is required", nil)
		return
	}
	spaceID, cap, err := s.engine.CreateSpace(creator, quest.SpaceMeta{
		Name:        params.Name,
		Description: params.Description,
		ImageURL:    params.ImageURL,
		WebsiteURL:  params.WebsiteURL,
		TwitterURL:  params.TwitterURL,
	})
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, spaceCreateResult{SpaceID: formatID(spaceID), AdminToken: cap.Token()})
}

func (s *Server) handleSpaceUpdate(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params spaceUpdateParams
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
	upd := quest.SpaceUpdate{
		Name:        params.Name,
		Description: params.Description,
		ImageURL:    params.ImageURL,
		WebsiteURL:  params.WebsiteURL,
		TwitterURL:  params.TwitterURL,
	}
	if upd == (quest.SpaceUpdate{}) {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "no fields to update", nil)
		return
	}
	// A single engine call applies the whole edit, so a gate failure can
	// never leave some fields updated and others not.
	if err := s.engine.UpdateSpace(cap, quest.SpaceID(spaceID), upd); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, "ok")
}

func (s *Server) handleSpaceMigrate(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params spaceTokenParams
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
	if err := s.engine.MigrateSpace(cap, quest.SpaceID(spaceID)); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, "ok")
}

func (s *Server) handleSpaceGet(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params spaceQueryParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	spaceID, err := parseID(params.SpaceID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid spaceId", err.Error())
		return
	}
	space, ok := s.engine.GetSpace(quest.SpaceID(spaceID))
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeNotFound, "space not found", params.SpaceID)
		return
	}
	writeResult(w, req.ID, spaceResultFrom(space))
}

func (s *Server) handleSpaceList(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	ids, err := s.engine.ListSpaces()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, formatID(id))
	}
	writeResult(w, req.ID, out)
}

func (s *Server) handleSpacePoints(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params spacePointsParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	spaceID, err := parseID(params.SpaceID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid spaceId", err.Error())
		return
	}
	user, err := decodeBech32(params.User)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid user address", err.Error())
		return
	}
	writeResult(w, req.ID, s.engine.SpacePoints(quest.SpaceID(spaceID), user))
}
