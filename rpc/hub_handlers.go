package rpc

import (
	"net/http"
	"strings"

	"questhub/native/quest"
)

type genesisCreditParams struct {
	Creator string `json:"creator"`
	Amount  uint64 `json:"amount"`
}

type initGenesisParams struct {
	Verifier      string                `json:"verifier"`
	JourneyFee    string                `json:"journeyFee"`
	QuestStartFee string                `json:"questStartFee"`
	Credits       []genesisCreditParams `json:"credits,omitempty"`
}

type initGenesisResult struct {
	AdminToken    string `json:"adminToken"`
	VerifierToken string `json:"verifierToken"`
	Treasury      string `json:"treasury"`
}

type grantCreditParams struct {
	Token   string `json:"token"`
	Creator string `json:"creator"`
	Amount  uint64 `json:"amount"`
}

type setFeeParams struct {
	Token  string `json:"token"`
	Kind   string `json:"kind"`
	Amount string `json:"amount"`
}

type setVerifierParams struct {
	Token    string `json:"token"`
	Verifier string `json:"verifier"`
}

type withdrawParams struct {
	Token string `json:"token"`
	To    string `json:"to"`
}

type hubTokenParams struct {
	Token string `json:"token"`
}

type creditQueryParams struct {
	Creator string `json:"creator"`
}

type hubInfoResult struct {
	Version        uint64              `json:"version"`
	JourneyFee     string              `json:"journeyFee"`
	QuestStartFee  string              `json:"questStartFee"`
	VerifierPayout string              `json:"verifierPayout"`
	Credits        []creditEntryResult `json:"credits"`
	Spaces         []string            `json:"spaces"`
}

type creditEntryResult struct {
	Creator   string `json:"creator"`
	Remaining uint64 `json:"remaining"`
}

func (s *Server) handleHubInitGenesis(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params initGenesisParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	verifier, err := decodeBech32(params.Verifier)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid verifier address", err.Error())
		return
	}
	journeyFee, err := parseAmount(params.JourneyFee)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid journeyFee", err.Error())
		return
	}
	questStartFee, err := parseAmount(params.QuestStartFee)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid questStartFee", err.Error())
		return
	}
	credits := make([]quest.CreditEntry, 0, len(params.Credits))
	for _, entry := range params.Credits {
		creator, err := decodeBech32(entry.Creator)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid credit creator", err.Error())
			return
		}
		credits = append(credits, quest.CreditEntry{Creator: creator, Remaining: entry.Amount})
	}
	admin, verifierCap, err := s.engine.InitGenesis(quest.GenesisParams{
		Verifier:      verifier,
		JourneyFee:    journeyFee,
		QuestStartFee: questStartFee,
		Credits:       credits,
	})
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, initGenesisResult{
		AdminToken:    admin.Token(),
		VerifierToken: verifierCap.Token(),
		Treasury:      formatAddr(quest.TreasuryAddress),
	})
}

func (s *Server) hubAdminCap(w http.ResponseWriter, req *RPCRequest, token string) (quest.HubAdminCap, bool) {
	cap, err := s.engine.HubAdminCapFromToken(strings.TrimSpace(token))
	if err != nil {
		writeEngineError(w, req.ID, err)
		return quest.HubAdminCap{}, false
	}
	return cap, true
}

func (s *Server) handleHubGrantCredit(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params grantCreditParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	cap, ok := s.hubAdminCap(w, req, params.Token)
	if !ok {
		return
	}
	creator, err := decodeBech32(params.Creator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid creator address", err.Error())
		return
	}
	if err := s.engine.GrantCreationCredit(cap, creator, params.Amount); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, "ok")
}

func (s *Server) handleHubSetFee(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params setFeeParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	cap, ok := s.hubAdminCap(w, req, params.Token)
	if !ok {
		return
	}
	var kind quest.FeeKind
	switch strings.ToLower(strings.TrimSpace(params.Kind)) {
	case "journey":
		kind = quest.FeeJourneyCreation
	case "queststart":
		kind = quest.FeeQuestStart
	default:
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "kind must be journey or queststart", params.Kind)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid amount", err.Error())
		return
	}
	if err := s.engine.SetFee(cap, kind, amount); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, "ok")
}

func (s *Server) handleHubSetVerifier(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params setVerifierParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	cap, ok := s.hubAdminCap(w, req, params.Token)
	if !ok {
		return
	}
	verifier, err := decodeBech32(params.Verifier)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid verifier address", err.Error())
		return
	}
	if err := s.engine.SetVerifierAddress(cap, verifier); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, "ok")
}

func (s *Server) handleHubWithdraw(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params withdrawParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	cap, ok := s.hubAdminCap(w, req, params.Token)
	if !ok {
		return
	}
	to, err := decodeBech32(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid recipient address", err.Error())
		return
	}
	amount, err := s.engine.Withdraw(cap, to)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatAmount(amount))
}

func (s *Server) handleHubMigrate(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params hubTokenParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	cap, ok := s.hubAdminCap(w, req, params.Token)
	if !ok {
		return
	}
	if err := s.engine.MigrateHub(cap); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, "ok")
}

func (s *Server) handleHubInfo(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	hub, err := s.engine.HubInfo()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	credits := make([]creditEntryResult, 0, len(hub.Credits))
	for _, entry := range hub.Credits {
		credits = append(credits, creditEntryResult{Creator: formatAddr(entry.Creator), Remaining: entry.Remaining})
	}
	spaces := make([]string, 0, len(hub.SpaceIDs))
	for _, id := range hub.SpaceIDs {
		spaces = append(spaces, formatID(id))
	}
	writeResult(w, req.ID, hubInfoResult{
		Version:        hub.Version,
		JourneyFee:     formatAmount(hub.JourneyFee),
		QuestStartFee:  formatAmount(hub.QuestStartFee),
		VerifierPayout: formatAddr(hub.VerifierPayout),
		Credits:        credits,
		Spaces:         spaces,
	})
}

func (s *Server) handleHubAvailableCredit(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params creditQueryParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	creator, err := decodeBech32(params.Creator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid creator address", err.Error())
		return
	}
	writeResult(w, req.ID, s.engine.AvailableCredit(creator))
}

func (s *Server) handleHubTreasuryBalance(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	balance, err := s.engine.TreasuryBalance()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatAmount(balance))
}

type balanceParams struct {
	Address string `json:"address"`
}

func (s *Server) handleBankBalance(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params balanceParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	addr, err := decodeBech32(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	balance, err := s.ledger.BalanceOf(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatAmount(balance))
}
