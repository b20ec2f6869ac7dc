package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"questhub/config"
	"questhub/core/events"
	"questhub/core/state"
	"questhub/crypto"
	"questhub/gateway/middleware"
	"questhub/gateway/routes"
	"questhub/native/bank"
	"questhub/native/quest"
	"questhub/observability/logging"
	"questhub/observability/metrics"
	"questhub/rpc"
	"questhub/storage"
)

const genesisPathEnv = "QUESTHUB_GENESIS"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "keygen" {
		if err := runKeygen(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	genesisFlag := flag.String("genesis", "", "Path to a genesis YAML file (overrides QUESTHUB_GENESIS and config GenesisFile)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logger := logging.Setup("questd", cfg.Environment, logging.Options{
		Path:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	ledger := bank.NewLedger(manager)
	engine := quest.NewEngine(manager, ledger)

	journal, err := events.OpenJournal(filepath.Join(cfg.DataDir, "events.db"))
	if err != nil {
		logger.Error("failed to open event journal", "err", err)
		os.Exit(1)
	}
	defer journal.Close()
	engine.SetEmitter(events.MultiEmitter{journal, metrics.Quests().Emitter()})

	if err := applyGenesis(logger, cfg, *genesisFlag, engine, ledger); err != nil {
		logger.Error("failed to apply genesis", "err", err)
		os.Exit(1)
	}

	server := rpc.NewServer(engine, ledger, journal, logger)

	go func() {
		if err := server.Start(cfg.RPCAddress); err != nil {
			logger.Error("rpc server stopped", "err", err)
			os.Exit(1)
		}
	}()

	if err := startGateway(logger, cfg); err != nil {
		logger.Error("gateway stopped", "err", err)
		os.Exit(1)
	}
}

// applyGenesis initialises the hub from the genesis file when the state is
// still empty. A missing genesis path on an initialised node is fine; on an
// empty node it is fatal because nothing could ever be authorized.
func applyGenesis(logger *slog.Logger, cfg *config.Config, genesisFlag string, engine *quest.Engine, ledger *bank.Ledger) error {
	if _, err := engine.HubInfo(); err == nil {
		return nil
	}

	path := strings.TrimSpace(genesisFlag)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(genesisPathEnv))
	}
	if path == "" {
		path = strings.TrimSpace(cfg.GenesisFile)
	}
	if path == "" {
		logger.Error("state is empty and no genesis file configured")
		os.Exit(1)
	}

	genesis, err := config.LoadGenesis(path)
	if err != nil {
		return err
	}
	verifier, err := decodeGenesisAddr(genesis.Verifier)
	if err != nil {
		return err
	}
	journeyFee, err := config.ParseGenesisAmount(genesis.JourneyFee)
	if err != nil {
		return err
	}
	questStartFee, err := config.ParseGenesisAmount(genesis.QuestStartFee)
	if err != nil {
		return err
	}
	credits := make([]quest.CreditEntry, 0, len(genesis.Credits))
	for _, entry := range genesis.Credits {
		creator, err := decodeGenesisAddr(entry.Creator)
		if err != nil {
			return err
		}
		credits = append(credits, quest.CreditEntry{Creator: creator, Remaining: entry.Amount})
	}

	admin, verifierCap, err := engine.InitGenesis(quest.GenesisParams{
		Verifier:      verifier,
		JourneyFee:    journeyFee,
		QuestStartFee: questStartFee,
		Credits:       credits,
	})
	if err != nil {
		return err
	}

	for _, balance := range genesis.Balances {
		addr, err := decodeGenesisAddr(balance.Address)
		if err != nil {
			return err
		}
		amount, err := config.ParseGenesisAmount(balance.Amount)
		if err != nil {
			return err
		}
		if err := ledger.Mint(addr, amount); err != nil {
			return err
		}
	}

	// The capability tokens exist nowhere else; they must be captured from
	// this first boot and stored securely by the operator.
	logger.Info("hub initialised from genesis",
		"adminToken", admin.Token(),
		"verifierToken", verifierCap.Token(),
		"treasury", crypto.MustNewAddress(crypto.HubPrefix, quest.TreasuryAddress[:]).String(),
	)
	return nil
}

func decodeGenesisAddr(value string) ([20]byte, error) {
	var out [20]byte
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return out, err
	}
	copy(out[:], addr.Bytes())
	return out, nil
}

func startGateway(logger *slog.Logger, cfg *config.Config) error {
	addr := cfg.RPCAddress
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	target, err := url.Parse("http://" + addr)
	if err != nil {
		return err
	}

	authenticator := middleware.NewAuthenticator(middleware.AuthConfig{
		Enabled:    cfg.GatewayAuthEnabled,
		HMACSecret: cfg.GatewayAuthSecret,
		Issuer:     cfg.GatewayAuthIssuer,
	}, logger)
	limiter := middleware.NewRateLimiter(map[string]middleware.RateLimit{
		"rpc": {RequestsPerMinute: cfg.RateLimitPerMinute, Burst: cfg.RateLimitBurst},
	}, logger)
	sweepDone := make(chan struct{})
	defer close(sweepDone)
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				limiter.Sweep(30 * time.Minute)
			case <-sweepDone:
				return
			}
		}
	}()

	handler := routes.New(routes.Config{
		Routes: []routes.ServiceRoute{{
			Name:         "rpc",
			Prefix:       "/rpc",
			Target:       target,
			RequireAuth:  cfg.GatewayAuthEnabled,
			RateLimitKey: "rpc",
		}},
		Authenticator: authenticator,
		RateLimiter:   limiter,
	})

	logger.Info("starting gateway", "addr", cfg.GatewayAddress)
	return listenAndServe(cfg.GatewayAddress, handler)
}

// runKeygen generates a fresh keypair, or re-derives the address when a hex
// encoded private key is supplied.
func runKeygen(args []string) error {
	var key *crypto.PrivateKey
	var err error
	if len(args) > 0 {
		raw, decodeErr := hex.DecodeString(strings.TrimPrefix(args[0], "0x"))
		if decodeErr != nil {
			return fmt.Errorf("invalid private key hex: %w", decodeErr)
		}
		key, err = crypto.PrivateKeyFromBytes(raw)
	} else {
		key, err = crypto.GeneratePrivateKey()
	}
	if err != nil {
		return err
	}
	fmt.Printf("address:    %s\n", key.PubKey().Address().String())
	fmt.Printf("privateKey: %s\n", hex.EncodeToString(key.Bytes()))
	return nil
}

func listenAndServe(addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}
