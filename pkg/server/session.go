package server

import (
	"net/http"
	"time"

	"github.com/aide-dev/aide/pkg/model"
	"github.com/aide-dev/aide/pkg/utils/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/m-mizutani/goerr/v2"
)

const (
	sessionCookieName = "aide_session"
	sessionExpiry     = 30 * 24 * time.Hour
	sessionIssuer     = "aide"
)

type sessionClaims struct {
	ConversationID model.ConversationID `json:"conversation_id"`
	jwt.RegisteredClaims
}

// sessions keeps the caller's current conversation in a signed cookie
type sessions struct {
	secret []byte
	secure bool
	now    func() time.Time
}

func (s *sessions) sign(id model.ConversationID) (string, error) {
	now := s.now()
	claims := &sessionClaims{
		ConversationID: id,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionExpiry)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", goerr.Wrap(err, "failed to sign session token")
	}
	return token, nil
}

func (s *sessions) parse(token string) (model.ConversationID, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", goerr.Wrap(err, "invalid session token")
	}
	return claims.ConversationID, nil
}

// current returns the session's conversation, or empty when the cookie is
// missing or invalid
func (s *sessions) current(c echo.Context) model.ConversationID {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}

	id, err := s.parse(cookie.Value)
	if err != nil {
		logging.From(c.Request().Context()).Debug("ignoring session cookie", "error", err)
		return ""
	}
	return id
}

func (s *sessions) set(c echo.Context, id model.ConversationID) error {
	token, err := s.sign(id)
	if err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  s.now().Add(sessionExpiry),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *sessions) clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
