package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shandysiswandi/goknock/internal/pkg/instrument"
	"github.com/shandysiswandi/goknock/internal/pkg/seal"
	"github.com/shandysiswandi/goknock/internal/signin/entity"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "nested", "session.bin")
	st := New(Config{
		Path:       path,
		Sealer:     seal.NewAESGCM(seal.StaticKeyProvider{KeyBytes: bytes.Repeat([]byte{7}, 32)}),
		Realm:      "default",
		Instrument: instrument.NewNoop(),
	})

	return st, path
}

func sampleSession() entity.Session {
	return entity.Session{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		User:         entity.User{ID: 1001, FullName: "Jane Doe", Phone: "5551234567"},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	t.Run("round trips a session", func(t *testing.T) {
		// Arrange
		st, path := newTestStore(t)
		want := sampleSession()

		// Act
		if err := st.Save(context.Background(), want); err != nil {
			t.Fatalf("Save: %v", err)
		}
		got, err := st.Load(context.Background())

		// Assert
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if *got != want {
			t.Fatalf("loaded session mismatch:\n got %+v\nwant %+v", *got, want)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Stat: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Fatalf("expected file mode 0600, got %o", perm)
		}
	})

	t.Run("save replaces a previous session", func(t *testing.T) {
		// Arrange
		st, _ := newTestStore(t)
		first := sampleSession()
		second := sampleSession()
		second.User.ID = 2002

		// Act
		if err := st.Save(context.Background(), first); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if err := st.Save(context.Background(), second); err != nil {
			t.Fatalf("Save: %v", err)
		}
		got, err := st.Load(context.Background())

		// Assert
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if got.User.ID != 2002 {
			t.Fatalf("expected the replacement session, got user %d", got.User.ID)
		}
	})

	t.Run("file on disk is not plaintext", func(t *testing.T) {
		// Arrange
		st, path := newTestStore(t)
		if err := st.Save(context.Background(), sampleSession()); err != nil {
			t.Fatalf("Save: %v", err)
		}

		// Act
		raw, err := os.ReadFile(path)

		// Assert
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		if bytes.Contains(raw, []byte("access-token")) || bytes.Contains(raw, []byte("5551234567")) {
			t.Fatalf("session file leaks plaintext")
		}
	})

	t.Run("missing file maps to no session", func(t *testing.T) {
		// Arrange
		st, _ := newTestStore(t)

		// Act
		_, err := st.Load(context.Background())

		// Assert
		if !errors.Is(err, entity.ErrNoSession) {
			t.Fatalf("expected ErrNoSession, got %v", err)
		}
	})

	t.Run("tampered file fails to open", func(t *testing.T) {
		// Arrange
		st, path := newTestStore(t)
		if err := st.Save(context.Background(), sampleSession()); err != nil {
			t.Fatalf("Save: %v", err)
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		raw[len(raw)-1] ^= 0xFF
		if err := os.WriteFile(path, raw, 0o600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}

		// Act
		_, err = st.Load(context.Background())

		// Assert
		if err == nil {
			t.Fatalf("expected an open failure")
		}
	})

	t.Run("a different realm cannot open the file", func(t *testing.T) {
		// Arrange
		st, path := newTestStore(t)
		if err := st.Save(context.Background(), sampleSession()); err != nil {
			t.Fatalf("Save: %v", err)
		}

		other := New(Config{
			Path:       path,
			Sealer:     seal.NewAESGCM(seal.StaticKeyProvider{KeyBytes: bytes.Repeat([]byte{7}, 32)}),
			Realm:      "staging",
			Instrument: instrument.NewNoop(),
		})

		// Act
		_, err := other.Load(context.Background())

		// Assert
		if err == nil {
			t.Fatalf("expected a realm mismatch failure")
		}
	})
}

func TestStoreClear(t *testing.T) {
	t.Run("removes the session file", func(t *testing.T) {
		// Arrange
		st, path := newTestStore(t)
		if err := st.Save(context.Background(), sampleSession()); err != nil {
			t.Fatalf("Save: %v", err)
		}

		// Act
		err := st.Clear(context.Background())

		// Assert
		if err != nil {
			t.Fatalf("Clear: %v", err)
		}
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("expected the file to be gone, got %v", err)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		// Arrange
		st, _ := newTestStore(t)

		// Act
		err := st.Clear(context.Background())

		// Assert
		if err != nil {
			t.Fatalf("Clear on empty store: %v", err)
		}
	})
}
