package main

import (
	"time"

	"github.com/urfave/cli"

	"github.com/kroma-network/zk-campaign-verifier/internal/webproof"
)

var (
	HttpAddr = cli.StringFlag{
		Name:   "http.addr",
		Usage:  "HTTP server listening address",
		Value:  "localhost",
		EnvVar: "HTTP_ADDR",
	}
	HttpPort = cli.IntFlag{
		Name:   "http.port",
		Usage:  "HTTP server listening port",
		Value:  3000,
		EnvVar: "HTTP_PORT",
	}
	AppURL = cli.StringFlag{
		Name:   "app.url",
		Usage:  "Public base URL of this service; the web prover calls its mock endpoints",
		EnvVar: "APP_URL",
	}
	CampaignID = cli.StringFlag{
		Name:   "campaign.id",
		Usage:  "Campaign id reported by the mock endpoints",
		Value:  "cmp_001",
		EnvVar: "CAMPAIGN_ID",
	}
	WebProverURL = cli.StringFlag{
		Name:   "prover.web-url",
		Value:  webproof.DefaultWebProverURL,
		EnvVar: "WEB_PROVER_API_URL",
	}
	ZKProverURL = cli.StringFlag{
		Name:   "prover.zk-url",
		Value:  webproof.DefaultZKProverURL,
		EnvVar: "ZK_PROVER_API_URL",
	}
	ProverClientID = cli.StringFlag{
		Name:   "prover.client-id",
		EnvVar: "WEB_PROVER_API_CLIENT_ID",
	}
	ProverSecret = cli.StringFlag{
		Name:   "prover.secret",
		EnvVar: "WEB_PROVER_API_SECRET",
	}
	ProveTimeout = cli.DurationFlag{
		Name:   "prover.prove-timeout",
		Value:  webproof.DefaultProveTimeout,
		EnvVar: "PROVE_TIMEOUT",
	}
	CompressTimeout = cli.DurationFlag{
		Name:   "prover.compress-timeout",
		Value:  webproof.DefaultCompressTimeout,
		EnvVar: "COMPRESS_TIMEOUT",
	}
	ProofStore = cli.StringFlag{
		Name:   "proof.store",
		Usage:  "Where compressed proofs are archived: disk, s3, redis or none",
		Value:  "disk",
		EnvVar: "PROOF_STORE",
	}
	ProofBaseDir = cli.StringFlag{
		Name:   "proof.base-dir",
		Usage:  "A directory to store compressed proofs",
		Value:  "./proof",
		EnvVar: "PROOF_BASE_DIR",
	}
	ProofTTL = cli.DurationFlag{
		Name:   "proof.ttl",
		Usage:  "Expiry of archived proofs in redis",
		Value:  7 * 24 * time.Hour,
		EnvVar: "PROOF_TTL",
	}
	AwsRegion = cli.StringFlag{
		Name:   "aws.region",
		Value:  "ap-northeast-2",
		EnvVar: "AWS_REGION",
	}
	ProofS3Bucket = cli.StringFlag{
		Name:   "aws.proof-bucket",
		EnvVar: "PROOF_S3_BUCKET",
	}
	ProofS3Prefix = cli.StringFlag{
		Name:   "aws.proof-prefix",
		Value:  "proofs",
		EnvVar: "PROOF_S3_PREFIX",
	}
	RedisURL = cli.StringFlag{
		Name:   "redis.url",
		Value:  "localhost:6379",
		EnvVar: "REDIS_URL",
	}
	ChainID = cli.Uint64Flag{
		Name:   "chain.id",
		Value:  31337,
		EnvVar: "CHAIN_ID",
	}
	RPCURL = cli.StringFlag{
		Name:   "chain.rpc-url",
		Usage:  "Overrides the deployments file and the chain default",
		EnvVar: "RPC_URL",
	}
	ContractAddress = cli.StringFlag{
		Name:   "chain.contract",
		Usage:  "Overrides the deployments file and the per-chain address variable",
		EnvVar: "CONTRACT_ADDRESS",
	}
	PrivateKey = cli.StringFlag{
		Name:   "chain.private-key",
		Usage:  "Hex key used to sign contract writes; reads only when empty",
		EnvVar: "PRIVATE_KEY",
	}
	DeploymentsFile = cli.StringFlag{
		Name:   "chain.deployments",
		Usage:  "YAML file listing rpc_url and contract_address per chain_id",
		EnvVar: "DEPLOYMENTS_FILE",
	}
	LogDebug = cli.BoolFlag{
		Name:   "log.debug",
		EnvVar: "LOG_DEBUG",
	}
)

func AllFlags() []cli.Flag {
	return []cli.Flag{
		HttpAddr,
		HttpPort,
		AppURL,
		CampaignID,
		WebProverURL,
		ZKProverURL,
		ProverClientID,
		ProverSecret,
		ProveTimeout,
		CompressTimeout,
		ProofStore,
		ProofBaseDir,
		ProofTTL,
		AwsRegion,
		ProofS3Bucket,
		ProofS3Prefix,
		RedisURL,
		ChainID,
		RPCURL,
		ContractAddress,
		PrivateKey,
		DeploymentsFile,
		LogDebug,
	}
}
