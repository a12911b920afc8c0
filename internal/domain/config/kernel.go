package config

// KernelConfig is the decoded kernel.toml
type KernelConfig struct {
	Account           string `toml:"account"`
	EntryPointVersion string `toml:"entry_point_version"`
	EntryPoint        string `toml:"entry_point,omitempty"`
	RPCURL            string `toml:"rpc_url,omitempty"`
	ChainID           uint64 `toml:"chain_id,omitempty"`
	// EnableSignature is a pre-signed enable authorization (0x-hex)
	EnableSignature string `toml:"enable_signature,omitempty"`

	Action     ActionConfig               `toml:"action"`
	Validity   ValidityConfig             `toml:"validity"`
	Relay      RelayConfig                `toml:"relay"`
	Validators map[string]ValidatorConfig `toml:"validators"`
}

// ActionConfig is the executor and selector a regular validator is enabled for
type ActionConfig struct {
	Executor string `toml:"executor"`
	Selector string `toml:"selector"`
}

// ValidityConfig bounds the enable authorization, 0 means unbounded
type ValidityConfig struct {
	ValidAfter uint64 `toml:"valid_after"`
	ValidUntil uint64 `toml:"valid_until"`
}

// RelayConfig points at the passkey relay and the local authenticator helper
type RelayConfig struct {
	URL           string   `toml:"url"`
	Timeout       string   `toml:"timeout,omitempty"`
	Authenticator []string `toml:"authenticator,omitempty"`
}

// ValidatorConfig is one [validators.<name>] table
type ValidatorConfig struct {
	Type    string `toml:"type"` // ecdsa, webauthn, permission
	Role    string `toml:"role"` // sudo, regular
	Address string `toml:"address"`
	SubKey  uint16 `toml:"sub_key,omitempty"`

	// ecdsa and permission signer key material
	PrivateKey string `toml:"private_key,omitempty"`
	Keystore   string `toml:"keystore,omitempty"`
	Password   string `toml:"password,omitempty"`

	// webauthn
	Username        string `toml:"username,omitempty"`
	Origin          string `toml:"origin,omitempty"`
	AuthenticatorID string `toml:"authenticator_id,omitempty"`
	PubKeyX         string `toml:"pub_key_x,omitempty"`
	PubKeyY         string `toml:"pub_key_y,omitempty"`

	// permission
	SignerContract string         `toml:"signer_contract,omitempty"`
	Policies       []PolicyConfig `toml:"policies,omitempty"`
}

// PolicyConfig is one [[validators.<name>.policies]] entry
type PolicyConfig struct {
	Type     string `toml:"type"` // sudo, timestamp, rate-limit, call
	Contract string `toml:"contract"`

	ValidAfter uint64 `toml:"valid_after,omitempty"`
	ValidUntil uint64 `toml:"valid_until,omitempty"`

	Interval uint64 `toml:"interval,omitempty"`
	Count    uint64 `toml:"count,omitempty"`
	StartAt  uint64 `toml:"start_at,omitempty"`

	Permissions []CallPermissionConfig `toml:"permissions,omitempty"`
}

// CallPermissionConfig allows one target/selector pair
type CallPermissionConfig struct {
	Target     string `toml:"target"`
	Selector   string `toml:"selector"`
	ValueLimit string `toml:"value_limit,omitempty"`
}
