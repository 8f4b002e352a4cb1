package file

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"job-agent/internal/session"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const nonceSize = 24

// keySalt is fixed; one passphrase always yields one key.
var keySalt = []byte("job-agent/session-file/v1")

type document struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user"`
}

// SessionFile stores the session pair as one JSON document. Writes go to a
// temporary file that is renamed over the target, so readers see either the old
// pair or the new pair. With a key the document is sealed with secretbox.
type SessionFile struct {
	path string
	key  *[32]byte

	mu sync.Mutex
}

// NewSessionFile stores the session at path. A non-empty passphrase is
// stretched with scrypt into the secretbox key.
func NewSessionFile(path string, passphrase string) *SessionFile {
	f := &SessionFile{path: path}
	if passphrase != "" {
		dk, err := scrypt.Key([]byte(passphrase), keySalt, 1<<15, 8, 1, 32)
		if err != nil {
			// only reachable with invalid cost parameters
			panic(fmt.Sprintf("derive session file key: %v", err))
		}
		var k [32]byte
		copy(k[:], dk)
		f.key = &k
	}
	return f
}

func (f *SessionFile) Load(context.Context) (session.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

func (f *SessionFile) load() (session.Record, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return session.Record{}, session.ErrNoSession
		}
		return session.Record{}, err
	}

	plain, err := f.open(b)
	if err != nil {
		return session.Record{}, err
	}

	var doc document
	if err := json.Unmarshal(plain, &doc); err != nil {
		return session.Record{}, fmt.Errorf("decode session file: %w", err)
	}
	if doc.Token == "" || len(doc.User) == 0 || string(doc.User) == "null" {
		return session.Record{}, session.ErrNoSession
	}
	return session.Record{Token: doc.Token, User: []byte(doc.User)}, nil
}

func (f *SessionFile) Save(_ context.Context, rec session.Record) error {
	if rec.Token == "" || len(rec.User) == 0 {
		return errors.New("incomplete session record")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(document{Token: rec.Token, User: json.RawMessage(rec.User)})
}

func (f *SessionFile) SaveUser(_ context.Context, user []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, err := f.load()
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return nil
		}
		return err
	}
	return f.write(document{Token: rec.Token, User: json.RawMessage(user)})
}

func (f *SessionFile) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (f *SessionFile) write(doc document) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	b, err = f.seal(b)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, f.path)
}

func (f *SessionFile) seal(plain []byte) ([]byte, error) {
	if f.key == nil {
		return plain, nil
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], plain, &nonce, f.key), nil
}

func (f *SessionFile) open(b []byte) ([]byte, error) {
	if f.key == nil {
		return b, nil
	}
	if len(b) < nonceSize+secretbox.Overhead {
		return nil, errors.New("sealed session file too short")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], b[:nonceSize])
	plain, ok := secretbox.Open(nil, b[nonceSize:], &nonce, f.key)
	if !ok {
		return nil, errors.New("sealed session file cannot be opened with the configured key")
	}
	return plain, nil
}

var _ session.Storage = (*SessionFile)(nil)
