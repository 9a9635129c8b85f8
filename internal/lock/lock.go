/*
Copyright 2025 Tradepost Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package redlock provides a single-instance Redis advisory lock. The
// resolution engine takes one per listing to avoid duplicate work; callers
// treat ErrHeld as contention, not failure, since the guarded SQL transition
// remains the source of truth.
package redlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrHeld reports that another holder currently owns the lock key.
var ErrHeld = errors.New("lock already held")

// ErrNotHolder reports that the lock expired or belongs to someone else, so
// the requested unlock did nothing.
var ErrNotHolder = errors.New("lock expired or held by another")

// unlockScript deletes the key only when the stored token matches, so a
// holder whose lock expired cannot release a successor's lock.
const unlockScript = "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"

type Locker struct {
	client redis.UniversalClient
	key    string
	token  string
}

// NewLocker builds a locker for key. The token identifies this holder; only
// the holder with a matching token can unlock.
func NewLocker(client redis.UniversalClient, key, token string) *Locker {
	return &Locker{
		client: client,
		key:    key,
		token:  token,
	}
}

// Lock acquires the key with SET NX and the given expiry. Returns ErrHeld
// when another holder owns it.
func (l *Locker) Lock(ctx context.Context, timeout time.Duration) error {
	success, err := l.client.SetNX(ctx, l.key, l.token, timeout).Result()
	if err != nil {
		return err
	}
	if !success {
		return fmt.Errorf("lock for key %s: %w", l.key, ErrHeld)
	}
	return nil
}

// Unlock releases the key when this locker still holds it. Returns
// ErrNotHolder when the lock expired or was taken over.
func (l *Locker) Unlock(ctx context.Context) error {
	result, err := l.client.Eval(ctx, unlockScript, []string{l.key}, l.token).Result()
	if err != nil {
		return err
	}
	if result == int64(0) {
		return fmt.Errorf("unlock for key %s: %w", l.key, ErrNotHolder)
	}
	return nil
}
