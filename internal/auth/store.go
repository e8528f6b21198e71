package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/muhammadolammi/jobmatchclient/internal/database"
	"golang.org/x/crypto/chacha20poly1305"
)

// Store persists the single live credential. Load returns "" when none is stored.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (m *MemoryStore) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryStore) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	return m.Save(context.Background(), "")
}

type storedCredential struct {
	AccessToken string    `json:"access_token,omitempty"`
	Sealed      string    `json:"sealed,omitempty"`
	SavedAt     time.Time `json:"saved_at"`
}

// FileStore keeps the credential in a 0600 JSON file, sealed with
// XChaCha20-Poly1305 when a key is configured.
type FileStore struct {
	path string
	key  []byte
}

func NewFileStore(path string, hexKey string) (*FileStore, error) {
	fs := &FileStore{path: path}
	if hexKey == "" {
		return fs, nil
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode credential key: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("credential key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	fs.key = key
	return fs, nil
}

func (f *FileStore) Load(context.Context) (string, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read credential file: %w", err)
	}
	var sc storedCredential
	if err := json.Unmarshal(b, &sc); err != nil {
		return "", fmt.Errorf("decode credential file: %w", err)
	}
	if sc.Sealed == "" {
		return sc.AccessToken, nil
	}
	if f.key == nil {
		return "", fmt.Errorf("credential file is sealed but no key is configured")
	}
	return f.open(sc.Sealed)
}

func (f *FileStore) Save(_ context.Context, token string) error {
	sc := storedCredential{SavedAt: time.Now().UTC()}
	if f.key != nil {
		sealed, err := f.seal(token)
		if err != nil {
			return err
		}
		sc.Sealed = sealed
	} else {
		sc.AccessToken = token
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0600)
}

func (f *FileStore) Clear(context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credential file: %w", err)
	}
	return nil
}

func (f *FileStore) seal(token string) (string, error) {
	aead, err := chacha20poly1305.NewX(f.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(token)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	return hex.EncodeToString(aead.Seal(nonce, nonce, []byte(token), nil)), nil
}

func (f *FileStore) open(sealed string) (string, error) {
	raw, err := hex.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("decode sealed credential: %w", err)
	}
	aead, err := chacha20poly1305.NewX(f.key)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize() {
		return "", fmt.Errorf("sealed credential too short")
	}
	plain, err := aead.Open(nil, raw[:aead.NonceSize()], raw[aead.NonceSize():], nil)
	if err != nil {
		return "", fmt.Errorf("open sealed credential: %w", err)
	}
	return string(plain), nil
}

// SQLStore keeps the credential in the local database under a profile name.
type SQLStore struct {
	db      *database.Queries
	profile string
}

func NewSQLStore(db *database.Queries, profile string) *SQLStore {
	if profile == "" {
		profile = "default"
	}
	return &SQLStore{db: db, profile: profile}
}

func (s *SQLStore) Load(ctx context.Context) (string, error) {
	cred, err := s.db.GetCredential(ctx, s.profile)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load credential: %w", err)
	}
	return cred.AccessToken, nil
}

func (s *SQLStore) Save(ctx context.Context, token string) error {
	return s.db.SaveCredential(ctx, database.SaveCredentialParams{Profile: s.profile, AccessToken: token})
}

func (s *SQLStore) Clear(ctx context.Context) error {
	return s.db.DeleteCredential(ctx, s.profile)
}
