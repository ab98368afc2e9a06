package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"inkcopilot/config"
	"inkcopilot/internal/apiclient"
)

const sessionIssuer = "inkcopilot"

var ErrNoIdentity = errors.New("session has no user identity")

// Session is the signed-in state: the API token plus the user it belongs to.
type Session struct {
	Token string
	User  apiclient.AuthUser

	owner string
}

// Owner identifies the signed-in user for per-user resources such as checkout
// sessions. It is only set on sessions read back from a verified cookie.
func (s *Session) Owner() string { return s.owner }

// identify picks the owner key from what the API returned at sign in.
func identify(sess Session) string {
	if sess.User.ID != "" {
		return sess.User.ID
	}
	if claims, err := ParseToken(sess.Token); err == nil {
		if id := claims.Identity(); id != "" {
			return id
		}
	}
	return strings.ToLower(sess.User.Email)
}

type sessionClaims struct {
	Token string             `json:"tok"`
	User  apiclient.AuthUser `json:"usr"`
	jwt.RegisteredClaims
}

// CookieStore keeps the session in a single HS256-signed cookie.
type CookieStore struct {
	cfg    config.AuthConfig
	secret []byte
	clock  clockwork.Clock
}

func NewCookieStore(cfg config.AuthConfig, clock clockwork.Clock) *CookieStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CookieStore{cfg: cfg, secret: []byte(cfg.SessionSecret), clock: clock}
}

// Encode signs sess into a cookie value. The owner is fixed here, from the
// user the API returned at sign in.
func (s *CookieStore) Encode(sess Session) (string, error) {
	owner := identify(sess)
	if owner == "" {
		return "", ErrNoIdentity
	}
	now := s.clock.Now()
	claims := sessionClaims{
		Token: sess.Token,
		User:  sess.User,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   owner,
			Issuer:    sessionIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.CookieMaxAge)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Decode verifies a cookie value. Anything unsigned, forged or expired is ErrInvalidToken.
func (s *CookieStore) Decode(raw string) (*Session, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil || !token.Valid || claims.Subject == "" || claims.Token == "" {
		return nil, ErrInvalidToken
	}
	api, err := ParseToken(claims.Token)
	if err != nil || api.Expired(s.clock.Now()) {
		return nil, ErrInvalidToken
	}
	return &Session{Token: claims.Token, User: claims.User, owner: claims.Subject}, nil
}

// Load returns the session if the cookie verifies and the API token has not expired.
func (s *CookieStore) Load(c *gin.Context) (*Session, bool) {
	raw, err := c.Cookie(s.cfg.CookieName)
	if err != nil || raw == "" {
		return nil, false
	}
	sess, err := s.Decode(raw)
	if err != nil {
		return nil, false
	}
	return sess, true
}

func (s *CookieStore) Save(c *gin.Context, sess Session) error {
	value, err := s.Encode(sess)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(s.cfg.CookieName, value, int(s.cfg.CookieMaxAge.Seconds()), "/", "", s.cfg.CookieSecure, true)
	return nil
}

func (s *CookieStore) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(s.cfg.CookieName, "", -1, "/", "", s.cfg.CookieSecure, true)
}

func (s *CookieStore) CookieName() string { return s.cfg.CookieName }
