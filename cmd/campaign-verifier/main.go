package main

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/kroma-network/zk-campaign-verifier/internal/api"
	"github.com/kroma-network/zk-campaign-verifier/internal/campaign"
	"github.com/kroma-network/zk-campaign-verifier/internal/chain"
	"github.com/kroma-network/zk-campaign-verifier/internal/journal"
	"github.com/kroma-network/zk-campaign-verifier/internal/proof"
	"github.com/kroma-network/zk-campaign-verifier/internal/webproof"
)

func main() {
	app := cli.NewApp()
	app.Name = "campaign-verifier"
	app.Usage = "zk proof backed TikTok campaign verifier"
	app.Version = "0.1.0"
	app.Flags = AllFlags()
	app.Action = serve
	app.Commands = []cli.Command{
		{
			Name:   "serve",
			Usage:  "Run the HTTP API (default)",
			Action: serve,
		},
		{
			Name:      "decode-journal",
			Usage:     "Decode a journalDataAbi hex string",
			ArgsUsage: "<0x journal>",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "kind", Value: "submission", Usage: "registration or submission"},
			},
			Action: decodeJournal,
		},
		{
			Name:  "status",
			Usage: "Print the on-chain campaign snapshot",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "handle", Usage: "Include the standing of this TikTok handle"},
			},
			Action: status,
		},
		{
			Name:   "advance",
			Usage:  "Move the campaign to its next phase",
			Action: advance,
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatalln(fmt.Errorf("campaign-verifier: %w", err))
	}
}

func serve(ctx *cli.Context) error {
	logger, err := newLogger(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	repo, closeRepo, err := newRepository(ctx, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	proofService := proof.NewService(newProverClient(ctx, logger), repo, logger)
	opts := api.Options{
		Prover:     proofService,
		AppURL:     appURL(ctx),
		CampaignID: ctx.GlobalString(CampaignID.Name),
		Logger:     logger,
	}

	dialCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	contract, err := newContract(dialCtx, ctx, logger)
	switch {
	case errors.Is(err, chain.ErrNotConfigured):
		logger.Warn("no contract address configured, campaign routes disabled")
	case err != nil:
		return err
	default:
		opts.Campaign = campaign.NewFlow(proofService, contract, opts.AppURL, logger)
	}

	srv := http.Server{
		Addr:         net.JoinHostPort(ctx.GlobalString(HttpAddr.Name), strconv.Itoa(ctx.GlobalInt(HttpPort.Name))),
		ReadTimeout:  time.Minute,
		WriteTimeout: 10 * time.Minute,
		Handler:      api.NewRouter(api.NewHandler(opts)),
	}
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	interruptChannel := make(chan os.Signal, 1)
	signal.Notify(interruptChannel, []os.Signal{
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	}...)
	<-interruptChannel

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("failed to close http server", zap.Error(err))
	}
	return nil
}

func decodeJournal(ctx *cli.Context) error {
	raw := ctx.Args().First()
	if raw == "" {
		return errors.New("journal hex argument required")
	}
	var (
		decoded any
		err     error
	)
	switch ctx.String("kind") {
	case "registration":
		decoded, err = journal.DecodeRegistrationHex(raw)
	case "submission":
		decoded, err = journal.DecodeSubmissionHex(raw)
	default:
		return fmt.Errorf("unknown journal kind %q", ctx.String("kind"))
	}
	if err != nil {
		return err
	}
	return printJSON(decoded)
}

func status(ctx *cli.Context) error {
	logger, err := newLogger(ctx)
	if err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	contract, err := newContract(runCtx, ctx, logger)
	if err != nil {
		return err
	}
	flow := campaign.NewFlow(nil, contract, appURL(ctx), logger)
	return printJSON(flow.Snapshot(runCtx, ctx.String("handle")))
}

func advance(ctx *cli.Context) error {
	logger, err := newLogger(ctx)
	if err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	contract, err := newContract(runCtx, ctx, logger)
	if err != nil {
		return err
	}
	out, err := campaign.NewFlow(nil, contract, appURL(ctx), logger).Advance(runCtx)
	if err != nil {
		return err
	}
	return printJSON(out)
}

func newLogger(ctx *cli.Context) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if ctx.GlobalBool(LogDebug.Name) {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

func newProverClient(ctx *cli.Context, logger *zap.Logger) *webproof.Client {
	return webproof.NewClient(webproof.Config{
		WebProverURL:    ctx.GlobalString(WebProverURL.Name),
		ZKProverURL:     ctx.GlobalString(ZKProverURL.Name),
		ClientID:        ctx.GlobalString(ProverClientID.Name),
		Secret:          ctx.GlobalString(ProverSecret.Name),
		ProveTimeout:    ctx.GlobalDuration(ProveTimeout.Name),
		CompressTimeout: ctx.GlobalDuration(CompressTimeout.Name),
	}, &http.Client{}, logger)
}

func newRepository(ctx *cli.Context, logger *zap.Logger) (proof.Repository, func(), error) {
	switch store := ctx.GlobalString(ProofStore.Name); store {
	case "disk":
		repo, err := proof.NewDiskRepository(ctx.GlobalString(ProofBaseDir.Name), logger)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	case "s3":
		repo, err := proof.NewS3Repository(ctx.GlobalString(AwsRegion.Name), ctx.GlobalString(ProofS3Bucket.Name), ctx.GlobalString(ProofS3Prefix.Name))
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {}, nil
	case "redis":
		client, err := proof.ConnectRedis(ctx.GlobalString(RedisURL.Name))
		if err != nil {
			return nil, nil, err
		}
		return proof.NewRedisRepository(client, ctx.GlobalDuration(ProofTTL.Name)), func() { _ = client.Close() }, nil
	case "none", "":
		return proof.NewNoopRepository(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown proof store %q", store)
	}
}

func newContract(runCtx context.Context, ctx *cli.Context, logger *zap.Logger) (*chain.Contract, error) {
	var registry chain.Registry
	if path := ctx.GlobalString(DeploymentsFile.Name); path != "" {
		var err error
		if registry, err = chain.LoadDeployments(path); err != nil {
			return nil, err
		}
	}
	chainID := ctx.GlobalUint64(ChainID.Name)
	target, err := chain.Resolve(chainID, ctx.GlobalString(RPCURL.Name), ctx.GlobalString(ContractAddress.Name), registry)
	if err != nil {
		return nil, err
	}

	client, err := ethclient.DialContext(runCtx, target.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target.RPCURL, err)
	}
	if remote, err := client.ChainID(runCtx); err != nil {
		logger.Warn("failed to read chain id from rpc", zap.String("rpc", target.RPCURL), zap.Error(err))
	} else if remote.Uint64() != chainID {
		return nil, fmt.Errorf("rpc %s serves chain %s, expected %d", target.RPCURL, remote, chainID)
	}

	key, err := privateKey(ctx)
	if err != nil {
		return nil, err
	}
	return chain.NewContract(target.Address, new(big.Int).SetUint64(chainID), client, key, logger)
}

func privateKey(ctx *cli.Context) (*ecdsa.PrivateKey, error) {
	raw := ctx.GlobalString(PrivateKey.Name)
	if raw == "" {
		return nil, nil
	}
	return chain.ParsePrivateKey(raw)
}

func appURL(ctx *cli.Context) string {
	if url := ctx.GlobalString(AppURL.Name); url != "" {
		return url
	}
	return "http://localhost:" + strconv.Itoa(ctx.GlobalInt(HttpPort.Name))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
