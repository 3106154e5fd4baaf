package wallet

import (
	"sort"
	"sync"
)

// lockTable hands out one mutex per (group, member) wallet so that
// check-then-act sequences spanning a gateway call cannot interleave.
// Multi-key acquisition always locks in ascending key order, so two
// settlements touching overlapping wallets cannot deadlock.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*sync.Mutex)}
}

// key builds the canonical lock key for one wallet.
func key(groupID, memberID string) string {
	return groupID + "/" + memberID
}

func (t *lockTable) get(k string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.locks[k]
	if !ok {
		m = &sync.Mutex{}
		t.locks[k] = m
	}
	return m
}

// acquire locks every given wallet key and returns a release function.
// Keys are deduplicated and locked in ascending order; release unlocks
// in reverse.
func (t *lockTable) acquire(keys ...string) func() {
	uniq := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			uniq = append(uniq, k)
		}
	}
	sort.Strings(uniq)

	held := make([]*sync.Mutex, 0, len(uniq))
	for _, k := range uniq {
		m := t.get(k)
		m.Lock()
		held = append(held, m)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
