package share

import (
	"fmt"
	"sort"
	"strings"

	"davd/internal/server/config"
	"davd/internal/server/provider"
)

// User is a principal scoped to exactly one share.
type User struct {
	Name       string
	SecretHash []byte // bcrypt, for Basic
	DigestHA1  string // hex md5(name:realm:password), for Digest
	ReadOnly   bool
}

// Share binds a mount prefix to a provider and its principal table.
type Share struct {
	Prefix   string
	Provider provider.Provider
	Users    map[string]*User
	ReadOnly bool
}

// Path rebuilds the server path of a share-relative one, the form lock
// and property state is keyed by.
func (s *Share) Path(rel string) string {
	if s.Prefix == "/" {
		return rel
	}
	if rel == "/" {
		return s.Prefix
	}
	return s.Prefix + rel
}

// Registry is the mount table. Shares are kept sorted by descending
// prefix length so Resolve picks the longest match first.
type Registry struct {
	shares []*Share
}

func NewRegistry(c *config.Server) (*Registry, error) {
	r := &Registry{}
	byPrefix := map[string]*Share{}

	for _, sc := range c.Shares {
		prefix := normalizePrefix(sc.Prefix)
		if _, ok := byPrefix[prefix]; ok {
			return nil, fmt.Errorf("share prefix '%s' repeated", prefix)
		}

		p, err := provider.New(sc.Provider, sc.Path)
		if err != nil {
			return nil, fmt.Errorf("share '%s': %w", prefix, err)
		}

		sh := &Share{
			Prefix:   prefix,
			Provider: p,
			Users:    map[string]*User{},
			ReadOnly: sc.ReadOnly,
		}
		byPrefix[prefix] = sh
		r.shares = append(r.shares, sh)
	}

	for _, uc := range c.Users {
		if uc.Name == "" {
			return nil, fmt.Errorf("username can not be empty")
		}
		sh, ok := byPrefix[normalizePrefix(uc.Share)]
		if !ok {
			return nil, fmt.Errorf("user '%s' referenced a share that does not exist", uc.Name)
		}
		if _, ok := sh.Users[uc.Name]; ok {
			return nil, fmt.Errorf("user '%s' repeated on share '%s'", uc.Name, sh.Prefix)
		}

		u := &User{
			Name:       uc.Name,
			SecretHash: []byte(uc.SecretHash),
			DigestHA1:  strings.ToLower(uc.DigestHA1),
			ReadOnly:   uc.ReadOnly || sh.ReadOnly,
		}
		sh.Users[uc.Name] = u
	}

	sort.Slice(r.shares, func(i, j int) bool {
		return len(r.shares[i].Prefix) > len(r.shares[j].Prefix)
	})
	return r, nil
}

// Resolve maps a request path to its mount by longest-prefix match and
// returns the share-relative path, rooted and without trailing slash.
func (r *Registry) Resolve(urlPath string) (*Share, string, bool) {
	for _, sh := range r.shares {
		rel, ok := trimPrefix(urlPath, sh.Prefix)
		if ok {
			return sh, rel, true
		}
	}
	return nil, "", false
}

func (r *Registry) Shares() []*Share {
	return r.shares
}

func normalizePrefix(p string) string {
	if p == "" {
		return "/"
	}
	if p != "/" {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

func trimPrefix(urlPath, prefix string) (string, bool) {
	if prefix == "/" {
		return normalizeRel(urlPath), true
	}
	if urlPath == prefix {
		return "/", true
	}
	if strings.HasPrefix(urlPath, prefix+"/") {
		return normalizeRel(urlPath[len(prefix):]), true
	}
	return "", false
}

func normalizeRel(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	return strings.TrimSuffix(p, "/")
}
