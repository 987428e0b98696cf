package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/vultisig/swapper/internal/account"
	chaincfg "github.com/vultisig/swapper/internal/config"
)

func TestAccountLogger(t *testing.T) {
	key, err := account.ParsePrivateKey("ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	require.NoError(t, err)
	acct := account.New(7, key, chaincfg.ChainProfile{RPC: []string{"http://localhost:8545"}})

	logger, hook := test.NewNullLogger()
	accountLogger(logger, acct).Errorf("swap failed: %v", "boom")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, 7, entry.Data["account"])
	require.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", entry.Data["address"])
}

func TestStart_ReturnsError(t *testing.T) {
	t.Setenv("KEYS_PATH", "unset")
	require.NoError(t, os.Unsetenv("KEYS_PATH"))
	require.ErrorContains(t, start(), "failed to load config")

	t.Setenv("KEYS_PATH", filepath.Join(t.TempDir(), "keys.txt"))
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, start(), "failed to load chain profile")
}
