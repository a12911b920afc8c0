package domain

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ValidatorType is the one-byte discriminant stored in v0.7 nonce keys and validation ids
type ValidatorType uint8

const (
	ValidatorTypeRoot       ValidatorType = 0x00
	ValidatorTypeSecondary  ValidatorType = 0x01
	ValidatorTypePermission ValidatorType = 0x02
)

func (t ValidatorType) String() string {
	switch t {
	case ValidatorTypeRoot:
		return "ROOT"
	case ValidatorTypeSecondary:
		return "SECONDARY"
	case ValidatorTypePermission:
		return "PERMISSION"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
	}
}

// ValidatorMode is the first byte of a v0.7 nonce key
type ValidatorMode uint8

const (
	ValidatorModeDefault ValidatorMode = 0x00
	ValidatorModeEnable  ValidatorMode = 0x01
)

func (m ValidatorMode) String() string {
	if m == ValidatorModeEnable {
		return "ENABLE"
	}
	return "DEFAULT"
}

// SignatureMode is the 4-byte prefix of a v0.6 signature envelope
type SignatureMode uint32

const (
	SignatureModeSudo   SignatureMode = 0x00000000
	SignatureModePlugin SignatureMode = 0x00000001
	SignatureModeEnable SignatureMode = 0x00000002
)

// Prefix returns the big-endian 4-byte envelope prefix
func (m SignatureMode) Prefix() []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, uint32(m))
	return out
}

func (m SignatureMode) String() string {
	switch m {
	case SignatureModeSudo:
		return "SUDO"
	case SignatureModePlugin:
		return "PLUGIN"
	case SignatureModeEnable:
		return "ENABLE"
	default:
		return fmt.Sprintf("UNKNOWN(%#x)", uint32(m))
	}
}

// EntryPointVersion selects the wire format used for nonce keys and signature envelopes
type EntryPointVersion string

const (
	EntryPointV06 EntryPointVersion = "v0.6"
	EntryPointV07 EntryPointVersion = "v0.7"
)

// SupportedEntryPointVersions returns all versions the SDK can encode for
func SupportedEntryPointVersions() []EntryPointVersion {
	return []EntryPointVersion{EntryPointV06, EntryPointV07}
}

// ParseEntryPointVersion accepts "v0.6", "0.6", "v0.7" and "0.7"
func ParseEntryPointVersion(s string) (EntryPointVersion, error) {
	v := strings.TrimSpace(strings.ToLower(s))
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	for _, known := range SupportedEntryPointVersions() {
		if string(known) == v {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: unsupported entry point version %q", ErrConfiguration, s)
}

// Validate checks that the version is one of the supported values
func (v EntryPointVersion) Validate() error {
	_, err := ParseEntryPointVersion(string(v))
	return err
}

// Canonical EntryPoint deployments
var (
	EntryPointAddressV06 = common.HexToAddress("0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789")
	EntryPointAddressV07 = common.HexToAddress("0x0000000071727De22E5E9d8BAf0edAc6f37da032")
)

// DefaultAddress returns the canonical EntryPoint for the version
func (v EntryPointVersion) DefaultAddress() common.Address {
	if v == EntryPointV06 {
		return EntryPointAddressV06
	}
	return EntryPointAddressV07
}

// Selector is a 4-byte function discriminant
type Selector [4]byte

// HexToSelector parses a 0x-prefixed 4-byte hex string
func HexToSelector(s string) (Selector, error) {
	var sel Selector
	b := common.FromHex(s)
	if len(b) != 4 {
		return sel, fmt.Errorf("selector must be 4 bytes, got %d", len(b))
	}
	copy(sel[:], b)
	return sel, nil
}

func (s Selector) Hex() string {
	return fmt.Sprintf("0x%x", s[:])
}

// Action is the execution path a regular validator is scoped to
type Action struct {
	Executor common.Address
	Selector Selector
}

// IsZero reports whether no executor was configured
func (a Action) IsZero() bool {
	return a.Executor == (common.Address{})
}

// maxUint48 bounds validity timestamps, which are encoded on-chain as uint48
const maxUint48 = 1<<48 - 1

// ValidityData bounds when an enable authorization is valid. Zero means unbounded.
type ValidityData struct {
	ValidAfter uint64
	ValidUntil uint64
}

// Validate checks both bounds fit uint48 and are ordered
func (v ValidityData) Validate() error {
	if v.ValidAfter > maxUint48 || v.ValidUntil > maxUint48 {
		return fmt.Errorf("%w: validity bounds must fit uint48", ErrConfiguration)
	}
	if v.ValidUntil != 0 && v.ValidAfter > v.ValidUntil {
		return fmt.Errorf("%w: validAfter %d is later than validUntil %d", ErrConfiguration, v.ValidAfter, v.ValidUntil)
	}
	return nil
}

// Contains reports whether ts is inside the inclusive window
func (v ValidityData) Contains(ts uint64) bool {
	if v.ValidAfter != 0 && ts < v.ValidAfter {
		return false
	}
	if v.ValidUntil != 0 && ts > v.ValidUntil {
		return false
	}
	return true
}

// Uint48Bytes is the 6-byte big-endian encoding of v; bits above 48 are dropped
func Uint48Bytes(v uint64) []byte {
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, v)
	return out[2:]
}

// ValidatorRef identifies a validator to the chain reader
type ValidatorRef struct {
	Address    common.Address
	Type       ValidatorType
	Identifier []byte
}

// ValidationID returns the 21-byte v0.7 validation id: type || identifier (right padded)
func (r ValidatorRef) ValidationID() [21]byte {
	var id [21]byte
	id[0] = byte(r.Type)
	copy(id[1:], PadIdentifier(r.Identifier))
	return id
}

// PadIdentifier right-pads (or truncates) a validator identifier to 20 bytes
func PadIdentifier(identifier []byte) []byte {
	out := make([]byte, common.AddressLength)
	copy(out, identifier)
	return out
}
