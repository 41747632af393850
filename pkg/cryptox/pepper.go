package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const pepperSize = 32

// The pepper is a server-side secret appended to every password before
// hashing. It lives in a file next to the database, is created on first use
// and must be kept with backups: losing it invalidates every argon2id hash.
var pepperState struct {
	mu    sync.Mutex
	path  string
	value string
}

// SetPepperPath selects the pepper file and drops any cached value.
func SetPepperPath(file string) {
	pepperState.mu.Lock()
	defer pepperState.mu.Unlock()

	pepperState.path = file
	pepperState.value = ""
}

// pepper returns the cached pepper, loading or creating the file once.
func pepper() (string, error) {
	pepperState.mu.Lock()
	defer pepperState.mu.Unlock()

	if pepperState.value != "" {
		return pepperState.value, nil
	}
	if pepperState.path == "" {
		return "", errors.New("cryptox: pepper path not set")
	}

	value, err := loadOrCreatePepper(filepath.Clean(pepperState.path))
	if err != nil {
		return "", fmt.Errorf("cryptox: pepper %s: %w", pepperState.path, err)
	}
	pepperState.value = value
	return value, nil
}

func loadOrCreatePepper(path string) (string, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		value := strings.TrimSpace(string(data))
		if value == "" {
			return "", errors.New("file is empty")
		}
		return value, nil
	case !errors.Is(err, fs.ErrNotExist):
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", err
	}

	buf := make([]byte, pepperSize)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	value := base64.RawURLEncoding.EncodeToString(buf)

	// O_EXCL: another process may have created it in the meantime.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return loadOrCreatePepper(path)
	}
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(value); err != nil {
		_ = f.Close()
		return "", err
	}
	return value, f.Close()
}
