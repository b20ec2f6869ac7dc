package rpc

import (
	"bytes"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"strings"
	"time"

	"questhub/core/events"
	"questhub/crypto"
	"questhub/native/bank"
	"questhub/native/quest"
	"questhub/observability/metrics"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError      = -32700
	codeInvalidRequest  = -32600
	codeMethodNotFound  = -32601
	codeInvalidParams   = -32602
	codeServerError     = -32000
	codeUnauthorized    = -32001
	codeNotFound        = -32004
	codeVersionMismatch = -32010
	codeInvalidTime     = -32011
	codeStateConflict   = -32012
	codeInvalidConfig   = -32013
)

// Server exposes the quest engine over JSON-RPC 2.0 plus a websocket event
// stream backed by the journal.
type Server struct {
	engine  *quest.Engine
	ledger  *bank.Ledger
	journal *events.Journal
	metrics *metrics.QuestMetrics
	log     *slog.Logger

	authToken string
}

// NewServer wires the RPC surface. The mutation auth token is read from
// QUESTHUB_RPC_TOKEN; an empty token disables the check.
func NewServer(engine *quest.Engine, ledger *bank.Ledger, journal *events.Journal, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:    engine,
		ledger:    ledger,
		journal:   journal,
		metrics:   metrics.Quests(),
		log:       logger,
		authToken: strings.TrimSpace(os.Getenv("QUESTHUB_RPC_TOKEN")),
	}
}

// SetAuthToken overrides the mutation auth token.
func (s *Server) SetAuthToken(token string) {
	s.authToken = strings.TrimSpace(token)
}

// Handler returns the HTTP handler serving the RPC endpoint and the event
// stream.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.HandleFunc("/ws/events", s.handleEventsWS)
	return mux
}

// Start serves the RPC surface on the provided address and blocks.
func (s *Server) Start(addr string) error {
	s.log.Info("starting JSON-RPC server", "addr", addr)
	server := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	return server.ListenAndServe()
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeEngineError translates domain sentinels into the machine-readable RPC
// error taxonomy so clients can distinguish failure causes without string
// matching.
func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, quest.ErrUnauthorized), errors.Is(err, quest.ErrNotSpaceCreator):
		writeError(w, http.StatusForbidden, id, codeUnauthorized, "caller not authorized", err.Error())
	case errors.Is(err, quest.ErrVersionMismatch), errors.Is(err, quest.ErrNotUpgrade):
		writeError(w, http.StatusConflict, id, codeVersionMismatch, "version mismatch", err.Error())
	case errors.Is(err, quest.ErrInvalidTime):
		writeError(w, http.StatusBadRequest, id, codeInvalidTime, "outside journey time window", err.Error())
	case errors.Is(err, quest.ErrAlreadyInitialised),
		errors.Is(err, quest.ErrQuestAlreadyStarted),
		errors.Is(err, quest.ErrQuestNotStarted),
		errors.Is(err, quest.ErrQuestAlreadyCompleted),
		errors.Is(err, quest.ErrJourneyAlreadyCompleted),
		errors.Is(err, quest.ErrJourneyNotCompleted),
		errors.Is(err, quest.ErrJourneyNotEmpty),
		errors.Is(err, quest.ErrRewardBound):
		writeError(w, http.StatusConflict, id, codeStateConflict, "state conflict", err.Error())
	case errors.Is(err, quest.ErrInvalidRewardType), errors.Is(err, quest.ErrInvalidFeeKind):
		writeError(w, http.StatusBadRequest, id, codeInvalidConfig, "invalid configuration", err.Error())
	case errors.Is(err, quest.ErrSpaceNotFound),
		errors.Is(err, quest.ErrJourneyNotFound),
		errors.Is(err, quest.ErrQuestNotFound),
		errors.Is(err, quest.ErrRewardNotFound),
		errors.Is(err, quest.ErrNotInitialised):
		writeError(w, http.StatusNotFound, id, codeNotFound, "not found", err.Error())
	case errors.Is(err, bank.ErrBadPaymentAmount),
		errors.Is(err, bank.ErrInsufficientBalance),
		errors.Is(err, bank.ErrNegativeAmount):
		writeError(w, http.StatusBadRequest, id, codeInvalidParams, "payment rejected", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, id, codeServerError, "internal error", err.Error())
	}
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return nil
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return &RPCError{Code: codeUnauthorized, Message: "authorization bearer token required"}
	}
	presented := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if subtle.ConstantTimeCompare([]byte(presented), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid authorization token"}
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	started := time.Now()
	s.dispatch(recorder, r, req)
	outcome := "ok"
	if recorder.status >= http.StatusBadRequest {
		outcome = "error"
	}
	s.metrics.ObserveRPC(req.Method, outcome, time.Since(started).Seconds())
}

// mutatingMethods lists every method that writes state. Views stay open;
// mutations additionally require the bearer token when one is configured,
// which also covers the identity-asserting calls that carry no capability
// (quest_start, journey_claim, reward_transfer).
var mutatingMethods = map[string]bool{
	"hub_initGenesis": true,
	"hub_grantCredit": true,
	"hub_setFee":      true,
	"hub_setVerifier": true,
	"hub_withdraw":    true,
	"hub_migrate":     true,
	"space_create":    true,
	"space_update":    true,
	"space_migrate":   true,
	"journey_create":  true,
	"journey_update":  true,
	"journey_remove":  true,
	"journey_claim":   true,
	"quest_create":    true,
	"quest_remove":    true,
	"quest_start":     true,
	"quest_complete":  true,
	"reward_transfer": true,
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if mutatingMethods[req.Method] {
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
	}
	switch req.Method {
	case "hub_initGenesis":
		s.handleHubInitGenesis(w, r, req)
	case "hub_grantCredit":
		s.handleHubGrantCredit(w, r, req)
	case "hub_setFee":
		s.handleHubSetFee(w, r, req)
	case "hub_setVerifier":
		s.handleHubSetVerifier(w, r, req)
	case "hub_withdraw":
		s.handleHubWithdraw(w, r, req)
	case "hub_migrate":
		s.handleHubMigrate(w, r, req)
	case "hub_info":
		s.handleHubInfo(w, r, req)
	case "hub_availableCredit":
		s.handleHubAvailableCredit(w, r, req)
	case "hub_treasuryBalance":
		s.handleHubTreasuryBalance(w, r, req)
	case "space_create":
		s.handleSpaceCreate(w, r, req)
	case "space_update":
		s.handleSpaceUpdate(w, r, req)
	case "space_migrate":
		s.handleSpaceMigrate(w, r, req)
	case "space_get":
		s.handleSpaceGet(w, r, req)
	case "space_list":
		s.handleSpaceList(w, r, req)
	case "space_points":
		s.handleSpacePoints(w, r, req)
	case "journey_create":
		s.handleJourneyCreate(w, r, req)
	case "journey_update":
		s.handleJourneyUpdate(w, r, req)
	case "journey_remove":
		s.handleJourneyRemove(w, r, req)
	case "journey_claim":
		s.handleJourneyClaim(w, r, req)
	case "journey_get":
		s.handleJourneyGet(w, r, req)
	case "journey_progress":
		s.handleJourneyProgress(w, r, req)
	case "quest_create":
		s.handleQuestCreate(w, r, req)
	case "quest_remove":
		s.handleQuestRemove(w, r, req)
	case "quest_start":
		s.handleQuestStart(w, r, req)
	case "quest_complete":
		s.handleQuestComplete(w, r, req)
	case "quest_get":
		s.handleQuestGet(w, r, req)
	case "quest_status":
		s.handleQuestStatus(w, r, req)
	case "reward_transfer":
		s.handleRewardTransfer(w, r, req)
	case "reward_get":
		s.handleRewardGet(w, r, req)
	case "reward_list":
		s.handleRewardList(w, r, req)
	case "bank_balance":
		s.handleBankBalance(w, r, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
	}
}

// --- shared parameter helpers ---

func singleParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("exactly one parameter object expected")
	}
	return json.Unmarshal(req.Params[0], out)
}

func decodeBech32(value string) ([20]byte, error) {
	var out [20]byte
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return out, err
	}
	copy(out[:], addr.Bytes())
	return out, nil
}

func formatAddr(addr [20]byte) string {
	return crypto.MustNewAddress(crypto.HubPrefix, addr[:]).String()
}

func parseID(value string) ([32]byte, error) {
	var out [32]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return out, fmt.Errorf("invalid identifier: %w", err)
	}
	if len(decoded) != len(out) {
		return out, fmt.Errorf("identifier must be %d bytes, got %d", len(out), len(decoded))
	}
	copy(out[:], decoded)
	return out, nil
}

func formatID(id [32]byte) string {
	return "0x" + hex.EncodeToString(id[:])
}

func parseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal amount %q", value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}

func formatAmount(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}
