// Package devserver is a stub backend for local development and integration
// tests: it implements the exchange, onboarding-status and display-info
// endpoints the real backend exposes, minting its own session tokens.
package devserver

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"go.pilab.hu/authbridge/dto"
)

// Server stubs the backend API over echo.
type Server struct {
	echo   *echo.Echo
	secret []byte
	log    zerolog.Logger

	mu     sync.Mutex
	users  map[string]dto.UserPayload // keyed by identity token
	status dto.StatusResponse
}

// New creates a stub server signing session tokens with secret.
func New(secret string, logger zerolog.Logger) *Server {
	s := &Server{
		echo:   echo.New(),
		secret: []byte(secret),
		log:    logger.With().Str("component", "devserver").Logger(),
		users:  make(map[string]dto.UserPayload),
		status: dto.StatusResponse{
			IsCompleted:      false,
			HasProfile:       false,
			NextScreen:       "breathe",
			CompletedScreens: []string{},
			PendingScreens:   []string{"welcome", "breathe", "personalize"},
		},
	}
	s.echo.HideBanner = true
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.POST("/auth/firebase/register", s.exchangeHandler)
	s.echo.GET("/onboarding/status", s.statusHandler)
	s.echo.GET("/users/me", s.meHandler)
}

// Handler exposes the stub as an http.Handler for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start runs the stub on addr until the process ends.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// SetStatus replaces the onboarding status the stub reports.
func (s *Server) SetStatus(status dto.StatusResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *Server) exchangeHandler(c echo.Context) error {
	var req dto.ExchangeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.APIError{Detail: "malformed request body"})
	}
	if req.IDToken == "" {
		return c.JSON(http.StatusUnauthorized, dto.APIError{Detail: "missing id token"})
	}
	if req.Provider != "email" && req.Provider != "apple" && req.Provider != "google" {
		return c.JSON(http.StatusBadRequest, dto.APIError{Detail: "unknown provider"})
	}

	s.mu.Lock()
	user, known := s.users[req.IDToken]
	if !known {
		user = dto.UserPayload{
			ID:           uuid.NewString(),
			Email:        "dev@example.com",
			DisplayName:  "Dev User",
			IsGuest:      false,
			AuthProvider: "firebase",
			IsActive:     true,
		}
		s.users[req.IDToken] = user
	}
	s.mu.Unlock()

	token, err := s.mintToken(user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.APIError{Detail: "token minting failed"})
	}

	s.log.Debug().Str("user_id", user.ID).Bool("is_new_user", !known).Msg("exchange served")
	return c.JSON(http.StatusOK, dto.ExchangeResponse{
		User:      user,
		Token:     token,
		IsNewUser: !known,
	})
}

func (s *Server) statusHandler(c echo.Context) error {
	if _, err := s.authenticate(c); err != nil {
		return c.JSON(http.StatusUnauthorized, dto.APIError{Detail: "invalid session token"})
	}
	s.mu.Lock()
	status := s.status
	s.mu.Unlock()
	return c.JSON(http.StatusOK, status)
}

func (s *Server) meHandler(c echo.Context) error {
	userID, err := s.authenticate(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, dto.APIError{Detail: "invalid session token"})
	}

	s.mu.Lock()
	var user dto.UserPayload
	for _, u := range s.users {
		if u.ID == userID {
			user = u
			break
		}
	}
	completed := s.status.IsCompleted
	s.mu.Unlock()

	return c.JSON(http.StatusOK, dto.DisplayInfoResponse{
		UserPayload:         user,
		Greeting:            "Welcome back",
		OnboardingCompleted: completed,
		SessionsCompleted:   0,
		MinutesMeditated:    0,
	})
}

func (s *Server) mintToken(userID string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		Issuer:    "authbridge-devserver",
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) authenticate(c echo.Context) (string, error) {
	header := c.Request().Header.Get("Authorization")
	raw := strings.TrimPrefix(header, "Bearer ")
	if raw == "" || raw == header {
		return "", echo.ErrUnauthorized
	}
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", echo.ErrUnauthorized
	}
	claims := token.Claims.(*jwt.RegisteredClaims)
	return claims.Subject, nil
}
