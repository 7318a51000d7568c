// Package audit keeps a tamper-evident trail of security-relevant events:
// logins, registrations, account updates and deletions. Each entry's hash
// chains over the previous one, so truncation or edits are detectable with
// Verify.
package audit

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

type Entry struct {
	TS      int64  `json:"ts"`
	Actor   string `json:"actor"`
	Action  string `json:"action"`
	Subject string `json:"subject,omitempty"`
	Hash    string `json:"hash"`
}

type Log struct {
	mu       sync.Mutex
	lastHash []byte
	entries  []Entry
}

func New() *Log { return &Log{} }

// Record appends an event. Actor is the authenticated username (or the
// remote identifier for anonymous events), subject the account acted upon.
func (l *Log) Record(actor, action, subject string) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := time.Now().Unix()
	sum := chainHash(l.lastHash, ts, actor, action, subject)
	l.lastHash = sum

	e := Entry{
		TS:      ts,
		Actor:   actor,
		Action:  action,
		Subject: subject,
		Hash:    hex.EncodeToString(sum),
	}
	l.entries = append(l.entries, e)
	return e
}

// chainHash covers every recorded field, timestamp included, so no part of
// an entry can be edited after the fact.
func chainHash(prev []byte, ts int64, actor, action, subject string) []byte {
	h := sha256.New()
	h.Write(prev)
	var tsBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], uint64(ts))
	h.Write(tsBuf[:])
	h.Write([]byte(actor))
	h.Write([]byte(action))
	h.Write([]byte(subject))
	return h.Sum(nil)
}

// Verify walks the chain and fails on the first entry whose hash does not
// match its predecessors.
func (l *Log) Verify() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var prev []byte
	for i, e := range l.entries {
		sum := chainHash(prev, e.TS, e.Actor, e.Action, e.Subject)
		if hex.EncodeToString(sum) != e.Hash {
			return fmt.Errorf("audit chain broken at entry %d", i)
		}
		prev = sum
	}
	return nil
}

func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}
