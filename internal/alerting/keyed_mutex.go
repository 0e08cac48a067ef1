// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package alerting

import "sync"

// keyedMutex provides per-key mutual exclusion. Concurrent transition
// attempts on one alert identity serialize on its key; transitions on
// different alerts proceed independently.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

// lock acquires the mutex for key and returns the release function.
// Entries are reference counted and removed once unused, so the map does
// not grow with the total number of alerts ever seen.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
