package store

import (
	"bytes"
	"context"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"guildpass/types"

	jsoniter "github.com/json-iterator/go"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FileStore keeps every user in one pretty printed JSON object (users.json).
// Keys stay in first-seen order. Writers in other processes (a tableflip
// upgrade runs two at once) are serialized through flock on <path>.lock.
type FileStore struct {
	path   string
	logger *zap.Logger

	// guards the read-modify-write cycle of Upsert inside this process
	mu sync.Mutex
}

func NewFileStore(path string, logger *zap.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger,
	}
}

func (f *FileStore) Path() string {
	return f.path
}

// load reads the file. A missing or blank file is an empty store.
func (f *FileStore) load() (*orderedmap.OrderedMap[string, string], error) {
	users := orderedmap.New[string, string]()

	data, err := os.ReadFile(f.path)

	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return users, nil
		}
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return users, nil
	}

	if err := json.Unmarshal(data, users); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}

	return users, nil
}

// save writes users atomically: temp file in the same directory, then rename
func (f *FileStore) save(users *orderedmap.OrderedMap[string, string]) error {
	compact, err := json.Marshal(users)

	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}

	var buf bytes.Buffer
	if err := stdjson.Indent(&buf, compact, "", "    "); err != nil {
		return fmt.Errorf("indent users: %w", err)
	}

	dir := filepath.Dir(f.path)

	tmp, err := os.CreateTemp(dir, ".tmp-users-*")

	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpPath := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

// lock takes the exclusive cross process write lock. The returned func releases it.
func (f *FileStore) lock() (func(), error) {
	lf, err := os.OpenFile(f.path+".lock", os.O_CREATE|os.O_RDWR, 0o600)

	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	for {
		err = unix.Flock(int(lf.Fd()), unix.LOCK_EX)
		if !errors.Is(err, unix.EINTR) {
			break
		}
	}

	if err != nil {
		lf.Close()
		return nil, fmt.Errorf("flock %s: %w", lf.Name(), err)
	}

	return func() {
		unix.Flock(int(lf.Fd()), unix.LOCK_UN)
		lf.Close()
	}, nil
}

func (f *FileStore) Get(ctx context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	users, err := f.load()

	if err != nil {
		return "", err
	}

	token, ok := users.Get(userID)

	if !ok {
		return "", ErrNotFound
	}

	return token, nil
}

func (f *FileStore) Upsert(ctx context.Context, userID, accessToken string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	unlock, err := f.lock()

	if err != nil {
		return err
	}

	defer unlock()

	users, err := f.load()

	if err != nil {
		return err
	}

	_, existed := users.Set(userID, accessToken)

	if err := f.save(users); err != nil {
		return err
	}

	f.logger.Debug("Stored access token", zap.String("userId", userID), zap.Bool("replaced", existed), zap.Int("users", users.Len()))

	return nil
}

func (f *FileStore) All(ctx context.Context) ([]types.AuthorizedUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	users, err := f.load()

	if err != nil {
		return nil, err
	}

	list := make([]types.AuthorizedUser, 0, users.Len())

	for pair := users.Oldest(); pair != nil; pair = pair.Next() {
		list = append(list, types.AuthorizedUser{
			UserID:      pair.Key,
			AccessToken: pair.Value,
		})
	}

	return list, nil
}

func (f *FileStore) Close() error {
	return nil
}
