// pkg/keystore/store.go

package keystore

import (
	"bytes"
	"context"
	"sync"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/hashutil"
)

// Signer signs canonical report bytes.
type Signer interface {
	Sign(ctx context.Context, data []byte) ([]byte, error)
	PublicKeyPath() string
}

// Store is a Signer that loads or creates its key on first use. It keeps its
// own copy of the passphrase and zeroes it once the key is loaded.
type Store struct {
	opts Options

	mu  sync.Mutex
	key *Key
}

func NewStore(opts Options) *Store {
	opts.Passphrase = bytes.Clone(opts.Passphrase)
	return &Store{opts: opts}
}

// Key returns the cached key, loading or creating it if needed. Failures are
// not cached so a fixed key file is picked up on the next call.
func (s *Store) Key(ctx context.Context) (*Key, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key != nil {
		return s.key, nil
	}
	k, err := LoadOrCreate(ctx, s.opts)
	if err != nil {
		return nil, err
	}
	s.key = k
	hashutil.SecureZero(s.opts.Passphrase)
	s.opts.Passphrase = nil
	return k, nil
}

func (s *Store) Sign(ctx context.Context, data []byte) ([]byte, error) {
	k, err := s.Key(ctx)
	if err != nil {
		return nil, err
	}
	return Sign(k, data)
}

func (s *Store) PublicKeyPath() string {
	if s.opts.PubPath != "" {
		return s.opts.PubPath
	}
	o := s.opts
	if err := o.normalise(); err != nil {
		return ""
	}
	return o.PubPath
}
