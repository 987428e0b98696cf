package account

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/vultisig/swapper/internal/config"
)

// Hardhat account #0.
const (
	testKeyHex  = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func TestParsePrivateKey(t *testing.T) {
	for _, in := range []string{testKeyHex, "0x" + testKeyHex, "  " + testKeyHex + "\n"} {
		k, err := ParsePrivateKey(in)
		require.NoError(t, err)
		require.Equal(t, common.HexToAddress(testAddress), k.Address())
	}

	_, err := ParsePrivateKey("zz" + testKeyHex[2:])
	require.ErrorIs(t, err, ErrInvalidKey)
	require.NotContains(t, err.Error(), testKeyHex[2:])
}

func TestPrivateKey_Redacted(t *testing.T) {
	k, err := ParsePrivateKey(testKeyHex)
	require.NoError(t, err)

	renderings := []string{
		k.String(),
		fmt.Sprint(k),
		fmt.Sprintf("%v %+v %#v %s %x %q", k, k, k, k, k, k),
		fmt.Sprintf("%+v", Account{ID: 1, Key: k}),
		fmt.Errorf("failed with %v: %w", k, errors.New("boom")).Error(),
	}
	for _, s := range renderings {
		require.NotContains(t, s, testKeyHex)
		require.Contains(t, s, redacted)
	}

	text, err := k.MarshalText()
	require.NoError(t, err)
	require.Equal(t, redacted, string(text))
}

func TestPrivateKey_RedactedInLogs(t *testing.T) {
	k, err := ParsePrivateKey(testKeyHex)
	require.NoError(t, err)

	logger, hook := test.NewNullLogger()
	logger.WithField("key", k).Info("signing")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	line, err := (&logrus.JSONFormatter{}).Format(entry)
	require.NoError(t, err)
	require.NotContains(t, string(line), testKeyHex)
}

func TestNew(t *testing.T) {
	k, err := ParsePrivateKey(testKeyHex)
	require.NoError(t, err)

	profile := config.ChainProfile{RPC: []string{"http://a", "http://b"}}
	acct := New(7, k, profile)

	require.Equal(t, 7, acct.ID)
	require.Equal(t, common.HexToAddress(testAddress), acct.Address)
	require.Contains(t, profile.RPC, acct.RPC)
}

func TestLoadKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.txt")
	content := "# main\n" + testKeyHex + "\n\n0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	entries, err := LoadKeys(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, 1, entries[0].ID)
	require.Equal(t, 2, entries[1].ID)
	require.Equal(t, common.HexToAddress(testAddress), entries[0].Key.Address())
	require.Equal(t, common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"), entries[1].Key.Address())
}

func TestLoadKeys_BadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.txt")
	require.NoError(t, os.WriteFile(path, []byte(testKeyHex+"\nnot-a-key\n"), 0o600))

	_, err := LoadKeys(path)
	require.ErrorIs(t, err, ErrInvalidKey)
	require.Contains(t, err.Error(), "line 2")
}
