package chain

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

var ErrNotFound = errors.New("deployment not found")

// Chain is a network the verifier contract is known to be deployed on.
type Chain struct {
	ID            uint64
	Name          string
	DefaultRPCURL string
	AddressEnv    string
}

var Chains = []Chain{
	{ID: 31337, Name: "anvil", DefaultRPCURL: "http://127.0.0.1:8545", AddressEnv: "DEFAULT_CONTRACT_ADDRESS"},
	{ID: 11155111, Name: "sepolia", DefaultRPCURL: "https://sepolia.drpc.org", AddressEnv: "SEPOLIA_CONTRACT_ADDRESS"},
	{ID: 84532, Name: "base-sepolia", DefaultRPCURL: "https://sepolia.base.org", AddressEnv: "BASE_SEPOLIA_CONTRACT_ADDRESS"},
	{ID: 11155420, Name: "optimism-sepolia", DefaultRPCURL: "https://sepolia.optimism.io", AddressEnv: "OP_SEPOLIA_CONTRACT_ADDRESS"},
}

func ChainByID(id uint64) (Chain, bool) {
	for _, c := range Chains {
		if c.ID == id {
			return c, true
		}
	}
	return Chain{}, false
}

// ContractAddressFromEnv reads the contract address variable of chainID.
// Unknown chains fall back to DEFAULT_CONTRACT_ADDRESS.
func ContractAddressFromEnv(chainID uint64) (common.Address, error) {
	env := "DEFAULT_CONTRACT_ADDRESS"
	if c, ok := ChainByID(chainID); ok {
		env = c.AddressEnv
	}
	return parseAddress(os.Getenv(env))
}

func parseAddress(raw string) (common.Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return common.Address{}, ErrNotConfigured
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("invalid contract address %q", raw)
	}
	return common.HexToAddress(raw), nil
}

// Registry is the optional deployments file, one entry per chain.
type Registry struct {
	Deployments []Deployment `yaml:"deployments"`
}

type Deployment struct {
	ChainID         uint64 `yaml:"chain_id"`
	RPCURL          string `yaml:"rpc_url,omitempty"`
	ContractAddress string `yaml:"contract_address,omitempty"`
}

func LoadDeployments(path string) (Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Registry{}, errors.New("path required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Registry{}, err
	}
	var out Registry
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return Registry{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}

func (r Registry) Find(chainID uint64) (Deployment, error) {
	for _, d := range r.Deployments {
		if d.ChainID == chainID {
			return d, nil
		}
	}
	return Deployment{}, fmt.Errorf("%w: chain %d", ErrNotFound, chainID)
}

// Target is a resolved RPC endpoint and contract address for one chain.
type Target struct {
	ChainID uint64
	RPCURL  string
	Address common.Address
}

// Resolve picks the RPC URL and address for chainID. Explicit values win,
// then the deployments registry, then the chain's env var and default RPC.
func Resolve(chainID uint64, rpcURL, address string, registry Registry) (Target, error) {
	t := Target{ChainID: chainID, RPCURL: strings.TrimSpace(rpcURL)}
	if d, err := registry.Find(chainID); err == nil {
		if t.RPCURL == "" {
			t.RPCURL = d.RPCURL
		}
		if strings.TrimSpace(address) == "" {
			address = d.ContractAddress
		}
	}
	if t.RPCURL == "" {
		c, ok := ChainByID(chainID)
		if !ok {
			return Target{}, fmt.Errorf("no rpc url for unknown chain %d", chainID)
		}
		t.RPCURL = c.DefaultRPCURL
	}

	var err error
	if strings.TrimSpace(address) != "" {
		t.Address, err = parseAddress(address)
	} else {
		t.Address, err = ContractAddressFromEnv(chainID)
	}
	if err != nil {
		return Target{}, err
	}
	return t, nil
}
