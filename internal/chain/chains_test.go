package chain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deploymentsYAML = `deployments:
  - chain_id: 84532
    rpc_url: https://base.example
    contract_address: "0x1111111111111111111111111111111111111111"
  - chain_id: 11155111
    contract_address: "0x2222222222222222222222222222222222222222"
`

func writeDeployments(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deployments.yaml")
	require.NoError(t, os.WriteFile(path, []byte(deploymentsYAML), 0o644))
	return path
}

func TestChainByID(t *testing.T) {
	c, ok := ChainByID(11155420)
	require.True(t, ok)
	assert.Equal(t, "OP_SEPOLIA_CONTRACT_ADDRESS", c.AddressEnv)

	_, ok = ChainByID(1)
	assert.False(t, ok)
}

func TestContractAddressFromEnv(t *testing.T) {
	t.Setenv("BASE_SEPOLIA_CONTRACT_ADDRESS", "0x3333333333333333333333333333333333333333")
	t.Setenv("DEFAULT_CONTRACT_ADDRESS", "")

	addr, err := ContractAddressFromEnv(84532)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x3333333333333333333333333333333333333333"), addr)

	_, err = ContractAddressFromEnv(31337)
	assert.ErrorIs(t, err, ErrNotConfigured)

	t.Setenv("SEPOLIA_CONTRACT_ADDRESS", "not-an-address")
	_, err = ContractAddressFromEnv(11155111)
	assert.Error(t, err)
}

func TestLoadDeployments(t *testing.T) {
	registry, err := LoadDeployments(writeDeployments(t))
	require.NoError(t, err)
	require.Len(t, registry.Deployments, 2)

	d, err := registry.Find(84532)
	require.NoError(t, err)
	assert.Equal(t, "https://base.example", d.RPCURL)

	_, err = registry.Find(31337)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = LoadDeployments(" ")
	assert.Error(t, err)
}

func TestResolvePrecedence(t *testing.T) {
	registry, err := LoadDeployments(writeDeployments(t))
	require.NoError(t, err)
	t.Setenv("DEFAULT_CONTRACT_ADDRESS", "0x4444444444444444444444444444444444444444")

	target, err := Resolve(84532, "", "", registry)
	require.NoError(t, err)
	assert.Equal(t, "https://base.example", target.RPCURL)
	assert.Equal(t, common.HexToAddress("0x1111111111111111111111111111111111111111"), target.Address)

	target, err = Resolve(84532, "http://override", "0x5555555555555555555555555555555555555555", registry)
	require.NoError(t, err)
	assert.Equal(t, "http://override", target.RPCURL)
	assert.Equal(t, common.HexToAddress("0x5555555555555555555555555555555555555555"), target.Address)

	target, err = Resolve(11155111, "", "", registry)
	require.NoError(t, err)
	assert.Equal(t, "https://sepolia.drpc.org", target.RPCURL)

	target, err = Resolve(31337, "", "", Registry{})
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8545", target.RPCURL)
	assert.Equal(t, common.HexToAddress("0x4444444444444444444444444444444444444444"), target.Address)

	_, err = Resolve(1, "", "0x5555555555555555555555555555555555555555", Registry{})
	assert.Error(t, err)
}
