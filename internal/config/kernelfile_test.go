package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleKernelTOML = `
account = "0x1111111111111111111111111111111111111111"
entry_point_version = "v0.7"
rpc_url = "${TEST_KERNEL_RPC}"

[action]
executor = "0x0000000000000000000000000000000000000000"
selector = "0x51945447"

[validity]
valid_until = 1800000000

[relay]
url = "https://passkeys.example.org"
timeout = "10s"
authenticator = ["passkey-helper", "--rp", "example.org"]

[validators.owner]
type = "ecdsa"
role = "sudo"
address = "0x845ADb2C711129d4f3966735eD98a9F09fC4cE57"
private_key = "${TEST_OWNER_KEY}"

[validators.session]
type = "permission"
role = "regular"
address = "0x2222222222222222222222222222222222222222"
signer_contract = "0x3333333333333333333333333333333333333333"
keystore = "./keys/session.json"
password = "${TEST_SESSION_PASSWORD}"

[[validators.session.policies]]
type = "timestamp"
contract = "0x4444444444444444444444444444444444444444"
valid_after = 100
valid_until = 200

[[validators.session.policies]]
type = "call"
contract = "0x5555555555555555555555555555555555555555"

[[validators.session.policies.permissions]]
target = "0x6666666666666666666666666666666666666666"
selector = "0xa9059cbb"
value_limit = "1000"
`

func writeKernelFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, KernelFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadKernelConfig(t *testing.T) {
	t.Setenv("TEST_KERNEL_RPC", "http://localhost:8545")
	t.Setenv("TEST_OWNER_KEY", "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	t.Setenv("TEST_SESSION_PASSWORD", "hunter2")

	cfg, err := LoadKernelConfig(writeKernelFile(t, sampleKernelTOML))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8545", cfg.RPCURL)
	assert.Equal(t, "v0.7", cfg.EntryPointVersion)
	assert.Equal(t, "0x51945447", cfg.Action.Selector)
	assert.Equal(t, uint64(1800000000), cfg.Validity.ValidUntil)
	assert.Equal(t, []string{"passkey-helper", "--rp", "example.org"}, cfg.Relay.Authenticator)

	require.Len(t, cfg.Validators, 2)
	assert.Equal(t, "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80", cfg.Validators["owner"].PrivateKey)
	assert.Equal(t, "hunter2", cfg.Validators["session"].Password)
	require.Len(t, cfg.Validators["session"].Policies, 2)
	assert.Equal(t, "1000", cfg.Validators["session"].Policies[1].Permissions[0].ValueLimit)
}

func TestLoadKernelConfig_DotEnv(t *testing.T) {
	path := writeKernelFile(t, `
account = "0x1111111111111111111111111111111111111111"
rpc_url = "${KERNEL_DOTENV_TEST_RPC}"
`)
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), ".env"), []byte("KERNEL_DOTENV_TEST_RPC=http://from-dotenv:8545\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("KERNEL_DOTENV_TEST_RPC") })

	cfg, err := LoadKernelConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://from-dotenv:8545", cfg.RPCURL)
	assert.NotNil(t, cfg.Validators)
}

func TestLoadKernelConfig_Invalid(t *testing.T) {
	_, err := LoadKernelConfig(writeKernelFile(t, "account = [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse kernel.toml")
}
