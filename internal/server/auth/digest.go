package auth

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"davd/internal/server/share"

	"github.com/rs/zerolog/log"
)

// digest validates an RFC 2617 Digest response with qop=auth:
// response = md5(ha1:nonce:nc:cnonce:qop:md5(method:uri)), where ha1 is
// the user's stored md5(name:realm:password).
func (g *Gate) digest(req *http.Request, users map[string]*share.User) (*share.User, error) {
	params, err := parseDigestParams(req.Header.Get("Authorization"))
	if err != nil {
		return nil, err
	}

	username := params["username"]
	nonce := params["nonce"]
	uri := params["uri"]
	cnonce := params["cnonce"]
	ncHex := params["nc"]
	response := params["response"]
	if username == "" || nonce == "" || uri == "" || response == "" {
		return nil, ErrBadAuthHeader
	}
	if params["realm"] != g.realm {
		return nil, ErrBadAuthHeader
	}
	if qop := params["qop"]; qop != "auth" {
		return nil, ErrBadAuthHeader
	}
	if uri != req.URL.Path && uri != req.URL.RequestURI() {
		return nil, ErrBadAuthHeader
	}

	nc, err := strconv.ParseUint(ncHex, 16, 64)
	if err != nil || nc == 0 {
		return nil, ErrBadAuthHeader
	}

	user, ok := users[username]
	if !ok || user.DigestHA1 == "" {
		log.Info().Str("Name", username).Msg("User not exists or has no digest secret")
		// Burn the nonce check anyway so lookups cost the same either way.
		_ = g.nonces.check(nonce, nc)
		return nil, ErrBadCredentials
	}

	switch g.nonces.check(nonce, nc) {
	case nil:
		// fresh
	case errNonceReplay:
		return nil, ErrBadCredentials
	default:
		return nil, ErrStaleNonce
	}

	ha2 := md5hex(req.Method + ":" + uri)
	expect := md5hex(strings.Join([]string{user.DigestHA1, nonce, ncHex, cnonce, "auth", ha2}, ":"))
	if subtle.ConstantTimeCompare([]byte(expect), []byte(strings.ToLower(response))) != 1 {
		return nil, ErrBadCredentials
	}
	return user, nil
}

// HA1 computes the at-rest digest secret for a credential, as emitted
// by the hash command and stored in the user table.
func HA1(username, realm, password string) string {
	return md5hex(username + ":" + realm + ":" + password)
}

func md5hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// parseDigestParams splits the comma-separated, possibly quoted k=v
// list of a Digest Authorization header.
func parseDigestParams(header string) (map[string]string, error) {
	rest, ok := strings.CutPrefix(header, "Digest ")
	if !ok {
		if rest, ok = strings.CutPrefix(header, "digest "); !ok {
			return nil, ErrBadAuthHeader
		}
	}

	params := map[string]string{}
	for len(rest) > 0 {
		rest = strings.TrimLeft(rest, " \t,")
		if rest == "" {
			break
		}
		eq := strings.IndexByte(rest, '=')
		if eq <= 0 {
			return nil, ErrBadAuthHeader
		}
		key := strings.ToLower(strings.TrimSpace(rest[:eq]))
		rest = rest[eq+1:]

		var value string
		if strings.HasPrefix(rest, `"`) {
			end := strings.IndexByte(rest[1:], '"')
			if end < 0 {
				return nil, ErrBadAuthHeader
			}
			value = rest[1 : 1+end]
			rest = rest[end+2:]
		} else {
			end := strings.IndexAny(rest, ", \t")
			if end < 0 {
				end = len(rest)
			}
			value = rest[:end]
			rest = rest[end:]
		}
		params[key] = value
	}

	if len(params) == 0 {
		return nil, errors.New("auth: empty digest header")
	}
	return params, nil
}
