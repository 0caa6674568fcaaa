package database

import "sync"

// accountLocks hands out one mutex per wallet account id so that balance
// mutations on the same account are strictly serialized while operations on
// different accounts never block each other. A ledger entry only ever touches
// a single account, so there is no lock ordering to worry about.
type accountLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for the given account and returns its unlock func.
func (a *accountLocks) Lock(accountId string) func() {
	a.mu.Lock()
	m, ok := a.locks[accountId]
	if !ok {
		m = &sync.Mutex{}
		a.locks[accountId] = m
	}
	a.mu.Unlock()

	m.Lock()
	return m.Unlock
}
