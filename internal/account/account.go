package account

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vultisig/swapper/internal/config"
)

// Account is the signing identity of one flow. It is built once and not
// mutated afterwards.
type Account struct {
	ID      int
	Key     PrivateKey
	Address common.Address
	Profile config.ChainProfile
	RPC     string
}

func New(id int, key PrivateKey, profile config.ChainProfile) Account {
	return Account{
		ID:      id,
		Key:     key,
		Address: key.Address(),
		Profile: profile,
		RPC:     profile.PickRPC(),
	}
}

type Entry struct {
	ID  int
	Key PrivateKey
}

// LoadKeys reads one hex private key per line. Ids follow file order starting
// at 1; blank lines and lines starting with # are skipped.
func LoadKeys(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open keys file: %w", err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		key, er := ParsePrivateKey(raw)
		if er != nil {
			return nil, fmt.Errorf("line %d: %w", line, er)
		}
		entries = append(entries, Entry{ID: len(entries) + 1, Key: key})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read keys file: %w", err)
	}
	return entries, nil
}
