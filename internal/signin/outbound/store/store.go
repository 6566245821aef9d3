package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shandysiswandi/goknock/internal/pkg/goerror"
	"github.com/shandysiswandi/goknock/internal/pkg/instrument"
	"github.com/shandysiswandi/goknock/internal/pkg/seal"
	"github.com/shandysiswandi/goknock/internal/signin/entity"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// sessionBlob is the on-disk layout inside the sealed file.
type sessionBlob struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	UserID       int64     `json:"user_id,string"`
	UserFullName string    `json:"user_full_name"`
	UserPhone    string    `json:"user_phone"`
}

// Store keeps the session in a single sealed file.
//
// The blob is AES-256-GCM sealed with a machine-bound key, so copying the
// file to another machine yields nothing. Writes go through a temp file and
// rename so a crash never leaves a half-written session.
type Store struct {
	path   string
	sealer seal.Sealer
	realm  string
	ins    instrument.Instrumentation
}

type Config struct {
	// Path is the session file location.
	Path string
	// Sealer seals and opens the session blob.
	Sealer seal.Sealer
	// Realm scopes the sealing key, usually the config profile name.
	Realm string
	// Instrument provides tracing.
	Instrument instrument.Instrumentation
}

func New(cfg Config) *Store {
	return &Store{
		path:   cfg.Path,
		sealer: cfg.Sealer,
		realm:  cfg.Realm,
		ins:    cfg.Instrument,
	}
}

// Save seals and writes the session, replacing any previous one.
func (s *Store) Save(ctx context.Context, sess entity.Session) (err error) {
	_, span := s.startSpan(ctx, "Save")
	defer func() { s.endSpan(span, err) }()

	plain, err := json.Marshal(sessionBlob{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		ExpiresAt:    sess.ExpiresAt,
		UserID:       sess.User.ID,
		UserFullName: sess.User.FullName,
		UserPhone:    sess.User.Phone,
	})
	if err != nil {
		return fmt.Errorf("store: encode session: %w", err)
	}

	sealed, err := s.sealer.Seal(plain, s.scope())
	if err != nil {
		return fmt.Errorf("store: seal session: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("store: create session dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err = os.WriteFile(tmp, sealed, 0o600); err != nil {
		return fmt.Errorf("store: write session: %w", err)
	}

	if err = os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("store: commit session: %w", err)
	}

	return nil
}

// Load reads and opens the stored session. A missing file maps to
// entity.ErrNoSession.
func (s *Store) Load(ctx context.Context) (sess *entity.Session, err error) {
	_, span := s.startSpan(ctx, "Load")
	defer func() { s.endSpan(span, err) }()

	sealed, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, entity.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("store: read session: %w", err)
	}

	plain, err := s.sealer.Open(sealed, s.scope())
	if err != nil {
		return nil, fmt.Errorf("store: open session: %w", err)
	}

	var blob sessionBlob
	if err = json.Unmarshal(plain, &blob); err != nil {
		return nil, fmt.Errorf("store: decode session: %w", err)
	}

	return &entity.Session{
		AccessToken:  blob.AccessToken,
		RefreshToken: blob.RefreshToken,
		ExpiresAt:    blob.ExpiresAt,
		User: entity.User{
			ID:       blob.UserID,
			FullName: blob.UserFullName,
			Phone:    blob.UserPhone,
		},
	}, nil
}

// Clear removes the stored session. Clearing when nothing is stored is fine.
func (s *Store) Clear(ctx context.Context) (err error) {
	_, span := s.startSpan(ctx, "Clear")
	defer func() { s.endSpan(span, err) }()

	err = os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("store: remove session: %w", err)
	}

	return nil
}

func (s *Store) scope() seal.Scope {
	return seal.Scope{Realm: s.realm, Purpose: seal.PurposeSession}
}

func (s *Store) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("signin.outbound.store").Start(ctx, name)
}

func (s *Store) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, entity.ErrNoSession) && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
