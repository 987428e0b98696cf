// Package report delivers per-account progress messages. Messages are keyed
// by account id and address and never carry key material.
package report

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

type Reporter interface {
	Info(accountID int, address common.Address, msg string)
	Error(accountID int, address common.Address, msg string)
}

type Logrus struct {
	logger *logrus.Logger
}

func NewLogrus(logger *logrus.Logger) *Logrus {
	return &Logrus{logger: logger}
}

func (r *Logrus) entry(accountID int, address common.Address) *logrus.Entry {
	return r.logger.WithFields(logrus.Fields{
		"account": accountID,
		"address": address.Hex(),
	})
}

func (r *Logrus) Info(accountID int, address common.Address, msg string) {
	r.entry(accountID, address).Info(msg)
}

func (r *Logrus) Error(accountID int, address common.Address, msg string) {
	r.entry(accountID, address).Error(msg)
}

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

type Message struct {
	Level     Level
	AccountID int
	Address   common.Address
	Text      string
}

func (m Message) String() string {
	return fmt.Sprintf("%s [%d] %s: %s", m.Level, m.AccountID, m.Address.Hex(), m.Text)
}

// Recorder keeps messages in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Info(accountID int, address common.Address, msg string) {
	r.add(Message{Level: LevelInfo, AccountID: accountID, Address: address, Text: msg})
}

func (r *Recorder) Error(accountID int, address common.Address, msg string) {
	r.add(Message{Level: LevelError, AccountID: accountID, Address: address, Text: msg})
}

func (r *Recorder) add(m Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Errors returns only error-level messages.
func (r *Recorder) Errors() []Message {
	var out []Message
	for _, m := range r.Messages() {
		if m.Level == LevelError {
			out = append(out, m)
		}
	}
	return out
}
