package rpc

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"questhub/core/state"
	"questhub/crypto"
	"questhub/native/bank"
	"questhub/native/quest"
	"questhub/storage"
)

type testEnv struct {
	server *Server
	engine *quest.Engine
	ledger *bank.Ledger
	token  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	manager := state.NewManager(db)
	ledger := bank.NewLedger(manager)
	engine := quest.NewEngine(manager, ledger)
	engine.SetNowFunc(func() uint64 { return 150 })

	server := NewServer(engine, ledger, nil, nil)
	server.SetAuthToken("test-token")
	return &testEnv{server: server, engine: engine, ledger: ledger, token: "test-token"}
}

func bech32Addr(b byte) string {
	payload := make([]byte, 20)
	payload[19] = b
	return crypto.MustNewAddress(crypto.HubPrefix, payload).String()
}

func (env *testEnv) call(t *testing.T, method string, params interface{}) (json.RawMessage, *RPCError) {
	t.Helper()
	return env.callWithToken(t, "Bearer "+env.token, method, params)
}

func (env *testEnv) callWithToken(t *testing.T, authorization, method string, params interface{}) (json.RawMessage, *RPCError) {
	t.Helper()
	raw, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	body, err := json.Marshal(RPCRequest{
		JSONRPC: jsonRPCVersion,
		Method:  method,
		Params:  []json.RawMessage{raw},
		ID:      1,
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	env.server.handle(rec, req)

	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  *RPCError       `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.Result, resp.Error
}

func (env *testEnv) mustCall(t *testing.T, method string, params, out interface{}) {
	t.Helper()
	result, rpcErr := env.call(t, method, params)
	if rpcErr != nil {
		t.Fatalf("%s failed: %+v", method, rpcErr)
	}
	if out != nil {
		if err := json.Unmarshal(result, out); err != nil {
			t.Fatalf("decode %s result: %v", method, err)
		}
	}
}

func (env *testEnv) initGenesis(t *testing.T) initGenesisResult {
	t.Helper()
	var result initGenesisResult
	env.mustCall(t, "hub_initGenesis", initGenesisParams{
		Verifier:      bech32Addr(0xEE),
		JourneyFee:    "25",
		QuestStartFee: "5",
	}, &result)
	return result
}

func (env *testEnv) fund(t *testing.T, addr string, amount int64) {
	t.Helper()
	decoded, err := decodeBech32(addr)
	if err != nil {
		t.Fatalf("decode addr: %v", err)
	}
	if err := env.ledger.Mint(decoded, big.NewInt(amount)); err != nil {
		t.Fatalf("fund: %v", err)
	}
}

func TestInitGenesisRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	env.token = "wrong-token"
	_, rpcErr := env.call(t, "hub_initGenesis", initGenesisParams{Verifier: bech32Addr(1)})
	if rpcErr == nil || rpcErr.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized error, got %+v", rpcErr)
	}
}

func TestMutationsRequireAuth(t *testing.T) {
	env := newTestEnv(t)
	env.initGenesis(t)

	for method := range mutatingMethods {
		_, rpcErr := env.callWithToken(t, "", method, struct{}{})
		if rpcErr == nil || rpcErr.Code != codeUnauthorized {
			t.Fatalf("%s without bearer token: expected unauthorized, got %+v", method, rpcErr)
		}
	}

	// The gate fires before the handler touches state: a bare transfer
	// naming another user's address must be rejected as unauthorized, not
	// reported as a missing reward.
	_, rpcErr := env.callWithToken(t, "", "reward_transfer", rewardTransferParams{
		Caller:   bech32Addr(0x02),
		RewardID: formatID([32]byte{0x01}),
		To:       bech32Addr(0x03),
	})
	if rpcErr == nil || rpcErr.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized transfer, got %+v", rpcErr)
	}

	// Views stay open without a token.
	if _, rpcErr := env.callWithToken(t, "", "hub_info", struct{}{}); rpcErr != nil {
		t.Fatalf("hub_info without token failed: %+v", rpcErr)
	}
}

func TestMethodNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, rpcErr := env.call(t, "hub_unknown", struct{}{})
	if rpcErr == nil || rpcErr.Code != codeMethodNotFound {
		t.Fatalf("expected method not found, got %+v", rpcErr)
	}
}

func TestQueryBeforeGenesisReturnsNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, rpcErr := env.call(t, "hub_info", struct{}{})
	if rpcErr == nil || rpcErr.Code != codeNotFound {
		t.Fatalf("expected not found before genesis, got %+v", rpcErr)
	}
}

func TestCapabilityTokensGateEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	genesis := env.initGenesis(t)
	creator := bech32Addr(0x01)
	user := bech32Addr(0x10)

	env.mustCall(t, "hub_grantCredit", grantCreditParams{
		Token:   genesis.AdminToken,
		Creator: creator,
		Amount:  1,
	}, nil)

	var created spaceCreateResult
	env.mustCall(t, "space_create", spaceCreateParams{Creator: creator, Name: "Acme"}, &created)

	env.fund(t, creator, 25)
	var journeyID string
	env.mustCall(t, "journey_create", journeyCreateParams{
		Token:          created.AdminToken,
		SpaceID:        created.SpaceID,
		Payer:          creator,
		PaymentAmount:  "25",
		RewardType:     "transferable",
		RequiredPoints: 100,
		Name:           "Launch",
		StartTime:      100,
		EndTime:        200,
	}, &journeyID)

	var questID string
	env.mustCall(t, "quest_create", questCreateParams{
		Token:     created.AdminToken,
		SpaceID:   created.SpaceID,
		JourneyID: journeyID,
		Points:    100,
		Name:      "Follow",
	}, &questID)

	env.fund(t, user, 5)
	env.mustCall(t, "quest_start", questStartParams{
		User:          user,
		PaymentAmount: "5",
		SpaceID:       created.SpaceID,
		JourneyID:     journeyID,
		QuestID:       questID,
	}, nil)

	// A forged verifier token must not attest completions.
	_, rpcErr := env.call(t, "quest_complete", questCompleteParams{
		Token:     genesis.AdminToken,
		SpaceID:   created.SpaceID,
		JourneyID: journeyID,
		QuestID:   questID,
		User:      user,
	})
	if rpcErr == nil || rpcErr.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized for non-verifier token, got %+v", rpcErr)
	}

	env.mustCall(t, "quest_complete", questCompleteParams{
		Token:     genesis.VerifierToken,
		SpaceID:   created.SpaceID,
		JourneyID: journeyID,
		QuestID:   questID,
		User:      user,
	}, nil)

	var reward rewardResult
	env.mustCall(t, "journey_claim", journeyClaimParams{
		User:      user,
		SpaceID:   created.SpaceID,
		JourneyID: journeyID,
	}, &reward)
	if reward.Type != "transferable" || reward.Owner != user {
		t.Fatalf("unexpected reward %+v", reward)
	}

	// Duplicate claim maps onto the state conflict code.
	_, rpcErr = env.call(t, "journey_claim", journeyClaimParams{
		User:      user,
		SpaceID:   created.SpaceID,
		JourneyID: journeyID,
	})
	if rpcErr == nil || rpcErr.Code != codeStateConflict {
		t.Fatalf("expected state conflict, got %+v", rpcErr)
	}

	var treasury string
	env.mustCall(t, "hub_treasuryBalance", struct{}{}, &treasury)
	if treasury != "25" {
		t.Fatalf("expected treasury 25, got %s", treasury)
	}
}

func TestPaymentMismatchMapsToInvalidParams(t *testing.T) {
	env := newTestEnv(t)
	genesis := env.initGenesis(t)
	creator := bech32Addr(0x01)
	env.mustCall(t, "hub_grantCredit", grantCreditParams{Token: genesis.AdminToken, Creator: creator, Amount: 1}, nil)
	var created spaceCreateResult
	env.mustCall(t, "space_create", spaceCreateParams{Creator: creator, Name: "Acme"}, &created)

	env.fund(t, creator, 100)
	_, rpcErr := env.call(t, "journey_create", journeyCreateParams{
		Token:         created.AdminToken,
		SpaceID:       created.SpaceID,
		Payer:         creator,
		PaymentAmount: "26",
		RewardType:    "transferable",
		Name:          "Launch",
		StartTime:     100,
		EndTime:       200,
	})
	if rpcErr == nil || rpcErr.Code != codeInvalidParams {
		t.Fatalf("expected invalid params for payment mismatch, got %+v", rpcErr)
	}
}

func TestMigrateCurrentHubMapsToVersionMismatch(t *testing.T) {
	env := newTestEnv(t)
	genesis := env.initGenesis(t)
	_, rpcErr := env.call(t, "hub_migrate", hubTokenParams{Token: genesis.AdminToken})
	if rpcErr == nil || rpcErr.Code != codeVersionMismatch {
		t.Fatalf("expected version mismatch code, got %+v", rpcErr)
	}
}

func TestLateCompletionMapsToInvalidTime(t *testing.T) {
	env := newTestEnv(t)
	genesis := env.initGenesis(t)
	creator := bech32Addr(0x01)
	user := bech32Addr(0x10)
	env.mustCall(t, "hub_grantCredit", grantCreditParams{Token: genesis.AdminToken, Creator: creator, Amount: 1}, nil)
	var created spaceCreateResult
	env.mustCall(t, "space_create", spaceCreateParams{Creator: creator, Name: "Acme"}, &created)

	env.fund(t, creator, 25)
	var journeyID string
	env.mustCall(t, "journey_create", journeyCreateParams{
		Token:         created.AdminToken,
		SpaceID:       created.SpaceID,
		Payer:         creator,
		PaymentAmount: "25",
		RewardType:    "transferable",
		Name:          "Launch",
		StartTime:     100,
		EndTime:       200,
	}, &journeyID)
	var questID string
	env.mustCall(t, "quest_create", questCreateParams{
		Token:     created.AdminToken,
		SpaceID:   created.SpaceID,
		JourneyID: journeyID,
		Points:    10,
		Name:      "Follow",
	}, &questID)
	env.fund(t, user, 5)
	env.mustCall(t, "quest_start", questStartParams{
		User:          user,
		PaymentAmount: "5",
		SpaceID:       created.SpaceID,
		JourneyID:     journeyID,
		QuestID:       questID,
	}, nil)

	env.engine.SetNowFunc(func() uint64 { return 250 })
	_, rpcErr := env.call(t, "quest_complete", questCompleteParams{
		Token:     genesis.VerifierToken,
		SpaceID:   created.SpaceID,
		JourneyID: journeyID,
		QuestID:   questID,
		User:      user,
	})
	if rpcErr == nil || rpcErr.Code != codeInvalidTime {
		t.Fatalf("expected invalid time code, got %+v", rpcErr)
	}
}
