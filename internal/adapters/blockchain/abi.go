package blockchain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// kernelABIJSON covers the read-only calls used across Kernel v2 and v3 accounts
// and the ECDSA validator storage getter
const kernelABIJSON = `[
	{"type":"function","name":"eip712Domain","stateMutability":"view","inputs":[],"outputs":[
		{"name":"fields","type":"bytes1"},
		{"name":"name","type":"string"},
		{"name":"version","type":"string"},
		{"name":"chainId","type":"uint256"},
		{"name":"verifyingContract","type":"address"},
		{"name":"salt","type":"bytes32"},
		{"name":"extensions","type":"uint256[]"}]},
	{"type":"function","name":"getExecution","stateMutability":"view","inputs":[
		{"name":"selector","type":"bytes4"}],"outputs":[
		{"name":"validAfter","type":"uint48"},
		{"name":"validUntil","type":"uint48"},
		{"name":"executor","type":"address"},
		{"name":"validator","type":"address"}]},
	{"type":"function","name":"isAllowedSelector","stateMutability":"view","inputs":[
		{"name":"vId","type":"bytes21"},
		{"name":"selector","type":"bytes4"}],"outputs":[
		{"name":"","type":"bool"}]},
	{"type":"function","name":"validationConfig","stateMutability":"view","inputs":[
		{"name":"vId","type":"bytes21"}],"outputs":[
		{"name":"nonce","type":"uint32"},
		{"name":"hook","type":"address"}]},
	{"type":"function","name":"currentNonce","stateMutability":"view","inputs":[],"outputs":[
		{"name":"","type":"uint32"}]},
	{"type":"function","name":"ecdsaValidatorStorage","stateMutability":"view","inputs":[
		{"name":"account","type":"address"}],"outputs":[
		{"name":"owner","type":"address"}]}
]`

var kernelABI = mustParseABI(kernelABIJSON)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
