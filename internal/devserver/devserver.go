// Package devserver fakes the two identity OTP endpoints for offline
// development and tests. Codes live in memory, tokens are signed with a
// throwaway dev secret, and a peek route exposes issued codes. None of it is
// meant to face the internet.
package devserver

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/goknock/internal/pkg/clock"
	"github.com/shandysiswandi/goknock/internal/pkg/goerror"
	"github.com/shandysiswandi/goknock/internal/pkg/jwt"
	"github.com/shandysiswandi/goknock/internal/pkg/router"
	"github.com/shandysiswandi/goknock/internal/pkg/uid"
	"github.com/shandysiswandi/goknock/internal/pkg/validator"
)

const (
	defaultOTPTTL   = 5 * time.Minute
	defaultTokenTTL = time.Hour

	// firstUserID keeps dev user IDs visibly fake.
	firstUserID int64 = 1000
)

type Config struct {
	// Validator validates request bodies.
	Validator validator.Validator
	// Clock is the time source for code expiry and token claims.
	Clock clock.Clocker
	// UUID generates correlation IDs, token IDs and refresh tokens.
	UUID uid.StringID
	// JWTSecret signs dev tokens; a built-in throwaway secret is the default.
	JWTSecret []byte
	// OTPTTL is how long an issued code stays valid. Defaults to 5 minutes.
	OTPTTL time.Duration
	// TokenTTL is the access token lifetime. Defaults to an hour.
	TokenTTL time.Duration
}

// Server is the fake identity API.
type Server struct {
	router    *router.Router
	otps      *otpStore
	validator validator.Validator
	clock     clock.Clocker
	uuid      uid.StringID
	jwt       jwt.JWT
	otpTTL    time.Duration
	tokenTTL  time.Duration

	mu     sync.Mutex
	users  map[string]int64
	nextID int64
}

func New(cfg Config) (*Server, error) {
	if len(cfg.JWTSecret) == 0 {
		cfg.JWTSecret = []byte(strings.Repeat("goknock-dev-secret-", 4))
	}
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = defaultOTPTTL
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}

	signer, err := jwt.NewHS512(jwt.Config{
		Secret:     cfg.JWTSecret,
		Issuer:     "goknock-dev",
		Audiences:  []string{"goknock"},
		TTLMinutes: cfg.TokenTTL,
		Clock:      cfg.Clock,
		UUID:       cfg.UUID,
	})
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:    router.NewRouter(router.Config{UUID: cfg.UUID}),
		otps:      newOTPStore(cfg.Clock),
		validator: cfg.Validator,
		clock:     cfg.Clock,
		uuid:      cfg.UUID,
		jwt:       signer,
		otpTTL:    cfg.OTPTTL,
		tokenTTL:  cfg.TokenTTL,
		users:     make(map[string]int64),
		nextID:    firstUserID,
	}

	s.router.POST("/api/v1/identity/otp/request", s.requestOTP)
	s.router.POST("/api/v1/identity/otp/verify", s.verifyOTP)
	s.router.GET("/dev/otp", s.listOTP)
	s.router.GET("/dev/otp/:phone", s.peekOTP)
	s.router.GET("/health", s.health)

	return s, nil
}

// Handler returns the server as an http.Handler for serving or httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

type requestOTPBody struct {
	Phone    string `json:"phone"`
	FullName string `json:"full_name"`
}

type requestOTPRules struct {
	Phone    string `validate:"required,phone"`
	FullName string
}

type requestOTPResponse struct{}

func (requestOTPResponse) Message() string { return "otp sent to phone" }

func (s *Server) requestOTP(r *router.Request) (any, error) {
	var body requestOTPBody
	if err := r.DecodeBody(&body); err != nil {
		return nil, err
	}

	body.Phone = strings.TrimSpace(body.Phone)
	body.FullName = strings.TrimSpace(body.FullName)

	if err := s.validator.Validate(requestOTPRules{Phone: body.Phone, FullName: body.FullName}); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	code := fmt.Sprintf("%06d", rand.IntN(1000000)) //nolint:gosec // dev-only codes
	s.otps.Put(body.Phone, code, body.FullName, s.clock.Now().Add(s.otpTTL))

	slog.InfoContext(r.Context(), "dev otp issued", "phone", body.Phone, "otp", code)

	return requestOTPResponse{}, nil
}

type verifyOTPBody struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

type verifyOTPRules struct {
	Phone string `validate:"required,phone"`
	OTP   string `validate:"required"`
}

type userResponse struct {
	ID       int64  `json:"id,string"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

type verifyOTPResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         userResponse `json:"user"`
}

func (verifyOTPResponse) Message() string { return "signed in successfully" }

func (s *Server) verifyOTP(r *router.Request) (any, error) {
	var body verifyOTPBody
	if err := r.DecodeBody(&body); err != nil {
		return nil, err
	}

	body.Phone = strings.TrimSpace(body.Phone)
	body.OTP = strings.TrimSpace(body.OTP)

	if err := s.validator.Validate(verifyOTPRules{Phone: body.Phone, OTP: body.OTP}); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	entry, ok := s.otps.Get(body.Phone)
	if !ok || entry.code != body.OTP {
		return nil, goerror.NewBusiness("Wrong code", goerror.CodeInvalidInput)
	}
	s.otps.Delete(body.Phone)

	userID := s.userID(body.Phone)
	fullName := entry.fullName
	if fullName == "" {
		fullName = "Dev User " + body.Phone
	}

	token, err := s.jwt.Generate(userID, fullName, body.Phone)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to sign dev token", "phone", body.Phone, "error", err)
		return nil, goerror.NewServer(err)
	}

	return verifyOTPResponse{
		AccessToken:  token,
		RefreshToken: s.uuid.Generate(),
		ExpiresAt:    s.clock.Now().Add(s.tokenTTL),
		User: userResponse{
			ID:       userID,
			FullName: fullName,
			Phone:    body.Phone,
		},
	}, nil
}

type peekOTPResponse struct {
	Phone     string    `json:"phone"`
	OTP       string    `json:"otp"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (peekOTPResponse) Message() string { return "pending otp" }

func (s *Server) peekOTP(r *router.Request) (any, error) {
	phone := r.GetParam("phone")

	entry, ok := s.otps.Get(phone)
	if !ok {
		return nil, goerror.NewBusiness("No pending code for this phone", goerror.CodeNotFound)
	}

	return peekOTPResponse{Phone: phone, OTP: entry.code, ExpiresAt: entry.expiresAt}, nil
}

type listOTPResponse struct {
	Pending []peekOTPResponse `json:"pending"`
}

func (listOTPResponse) Message() string { return "pending otp list" }

func (s *Server) listOTP(*router.Request) (any, error) {
	snapshot := s.otps.Snapshot()

	pending := lo.MapToSlice(snapshot, func(phone string, e otpEntry) peekOTPResponse {
		return peekOTPResponse{Phone: phone, OTP: e.code, ExpiresAt: e.expiresAt}
	})
	sort.Slice(pending, func(i, j int) bool { return pending[i].Phone < pending[j].Phone })

	return listOTPResponse{Pending: pending}, nil
}

func (s *Server) health(*router.Request) (any, error) {
	return map[string]string{"status": "ok"}, nil
}

// userID hands out a stable fake ID per phone so repeated sign-ins keep the
// same identity.
func (s *Server) userID(phone string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.users[phone]; ok {
		return id
	}

	s.nextID++
	s.users[phone] = s.nextID

	return s.nextID
}
