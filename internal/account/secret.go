package account

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const redacted = "[REDACTED]"

// ErrInvalidKey never carries the offending input.
var ErrInvalidKey = errors.New("invalid private key")

// PrivateKey holds a secp256k1 key. Every textual rendering is redacted, so a
// PrivateKey can be logged or wrapped into an error without leaking.
type PrivateKey struct {
	key *ecdsa.PrivateKey
}

func ParsePrivateKey(hexKey string) (PrivateKey, error) {
	k, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return PrivateKey{}, ErrInvalidKey
	}
	return PrivateKey{key: k}, nil
}

func (k PrivateKey) ECDSA() *ecdsa.PrivateKey {
	return k.key
}

func (k PrivateKey) Address() common.Address {
	if k.key == nil {
		return common.Address{}
	}
	return crypto.PubkeyToAddress(k.key.PublicKey)
}

func (k PrivateKey) String() string   { return redacted }
func (k PrivateKey) GoString() string { return redacted }

func (k PrivateKey) Format(f fmt.State, _ rune) {
	_, _ = f.Write([]byte(redacted))
}

func (k PrivateKey) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}
