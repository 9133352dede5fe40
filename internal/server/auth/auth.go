package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"davd/internal/server/config"
	"davd/internal/server/share"
	"davd/internal/util"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrAuthHeaderNotExists = errors.New("auth: http auth header not exists")
	ErrBadAuthHeader       = errors.New("auth: bad http auth header")
	ErrBadCredentials      = errors.New("auth: bad credentials")
	ErrSchemeNotAccepted   = errors.New("auth: scheme not accepted")
	ErrStaleNonce          = errors.New("auth: stale nonce")
)

// Gate authenticates requests against a share's principal table. Which
// schemes are accepted and which one leads the challenge come straight
// from configuration; the gate validates whatever accepted scheme the
// client actually presented.
type Gate struct {
	realm         string
	acceptBasic   bool
	acceptDigest  bool
	defaultScheme string
	opaque        string
	nonces        *nonceTable
}

func NewGate(c config.Auth) (*Gate, error) {
	if !c.AcceptBasic && !c.AcceptDigest {
		return nil, errors.New("auth: no scheme accepted")
	}

	lifetime := 5 * time.Minute
	if c.NonceLifetime != "" {
		d, err := time.ParseDuration(c.NonceLifetime)
		if err != nil {
			return nil, err
		}
		lifetime = d
	}
	nonces, err := newNonceTable(lifetime)
	if err != nil {
		return nil, err
	}

	return &Gate{
		realm:         c.Realm,
		acceptBasic:   c.AcceptBasic,
		acceptDigest:  c.AcceptDigest,
		defaultScheme: c.DefaultScheme,
		opaque:        util.RandomString(16, util.DefaultRandomStringRunes),
		nonces:        nonces,
	}, nil
}

func (g *Gate) Realm() string { return g.realm }

// Authenticate resolves the request's principal within users. Failures
// never distinguish an unknown user from a wrong credential.
func (g *Gate) Authenticate(req *http.Request, users map[string]*share.User) (*share.User, error) {
	header := req.Header.Get("Authorization")
	if header == "" {
		return nil, ErrAuthHeaderNotExists
	}

	scheme, _, _ := strings.Cut(header, " ")
	switch {
	case strings.EqualFold(scheme, "Basic"):
		if !g.acceptBasic {
			return nil, ErrSchemeNotAccepted
		}
		return g.basic(req, users)
	case strings.EqualFold(scheme, "Digest"):
		if !g.acceptDigest {
			return nil, ErrSchemeNotAccepted
		}
		return g.digest(req, users)
	}
	return nil, ErrBadAuthHeader
}

func (g *Gate) basic(req *http.Request, users map[string]*share.User) (*share.User, error) {
	username, password, ok := req.BasicAuth()
	if !ok {
		return nil, ErrBadAuthHeader
	}

	user, ok := users[username]
	if !ok {
		log.Info().Str("Name", username).Msg("User not exists")
		return nil, ErrBadCredentials
	}

	err := bcrypt.CompareHashAndPassword(user.SecretHash, []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, ErrBadCredentials
	}
	return user, nil
}

// Challenge writes the 401 response. The configured preferred scheme
// leads; a stale digest nonce is flagged so the client retries with a
// fresh nonce instead of reprompting.
func (g *Gate) Challenge(rsp http.ResponseWriter, stale bool) {
	var schemes []string
	if g.defaultScheme == "digest" {
		schemes = []string{"digest", "basic"}
	} else {
		schemes = []string{"basic", "digest"}
	}

	for _, s := range schemes {
		switch {
		case s == "basic" && g.acceptBasic:
			rsp.Header().Add("WWW-Authenticate", `Basic realm="`+g.realm+`", charset="UTF-8"`)
		case s == "digest" && g.acceptDigest:
			nonce, err := g.nonces.issue()
			if err != nil {
				log.Error().Err(err).Msg("Issue nonce failed")
				continue
			}
			h := `Digest realm="` + g.realm + `", qop="auth", algorithm=MD5, nonce="` + nonce +
				`", opaque="` + g.opaque + `"`
			if stale {
				h += `, stale=true`
			}
			rsp.Header().Add("WWW-Authenticate", h)
		}
	}
	rsp.WriteHeader(http.StatusUnauthorized)
}
