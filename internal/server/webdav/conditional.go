package webdav

import (
	"net/http"
	"net/url"
	"strings"

	"davd/internal/server/provider"
	"davd/internal/server/share"
)

// preconditions is the evaluated conditional state of a request: the
// verdict plus the state tokens the client submitted, which write
// handlers match against held locks.
type preconditions struct {
	status    int // 0 when satisfied
	submitted []string
}

// checkPreconditions evaluates If, If-Match and If-None-Match against
// the addressed resource's current etag and the lock table. If-Match
// and If-None-Match are pure etag checks; the If header mixes state
// tokens and etags as an OR of AND-lists.
func (h *Handler) checkPreconditions(req *http.Request, sh *share.Share, rel string) preconditions {
	etag, exists := h.etagFor(sh, rel)

	if im := req.Header.Get("If-Match"); im != "" {
		if !etagListMatches(im, etag, exists) {
			return preconditions{status: http.StatusPreconditionFailed}
		}
	}
	if inm := req.Header.Get("If-None-Match"); inm != "" {
		if etagListMatches(inm, etag, exists) {
			return preconditions{status: http.StatusPreconditionFailed}
		}
	}

	ifRaw := req.Header.Get("If")
	if ifRaw == "" {
		return preconditions{}
	}
	hdr, ok := parseIfHeader(ifRaw)
	if !ok {
		return preconditions{status: http.StatusBadRequest}
	}

	p := preconditions{submitted: hdr.tokens()}
	reqSrvPath := sh.Path(rel)
	for _, list := range hdr.lists {
		if h.evalList(list, sh, reqSrvPath, etag, exists) {
			return p
		}
	}
	p.status = http.StatusPreconditionFailed
	return p
}

func (h *Handler) evalList(list ifList, sh *share.Share, reqSrvPath, reqEtag string, reqExists bool) bool {
	target := reqSrvPath
	etag := reqEtag
	if list.resourceTag != "" {
		u, err := url.Parse(list.resourceTag)
		if err != nil {
			return false
		}
		target = strings.TrimSuffix(u.Path, "/")
		if target == "" {
			target = "/"
		}
		etag = ""
		if rel, ok := stripSharePrefix(target, sh.Prefix); ok {
			etag, _ = h.etagFor(sh, rel)
		}
	}

	for _, cond := range list.conditions {
		var truth bool
		if cond.token != "" {
			truth = h.Locks.Covers(cond.token, target)
		} else {
			truth = cond.etag != "" && cond.etag == etag
		}
		if cond.not {
			truth = !truth
		}
		if !truth {
			return false
		}
	}
	return true
}

// confirmLocks reports a lock conflict: the path (or, for tree
// operations, its subtree) is covered by a lock whose token the client
// did not submit. Such writes answer 423.
func (h *Handler) confirmLocks(srvPath string, submitted []string, tree bool) bool {
	var locks = h.Locks.Query(srvPath)
	if tree {
		locks = h.Locks.QueryTree(srvPath)
	}
	if len(locks) == 0 {
		return true
	}
	for _, l := range locks {
		for _, token := range submitted {
			if token == l.Token {
				return true
			}
		}
	}
	return false
}

func (h *Handler) etagFor(sh *share.Share, rel string) (etag string, exists bool) {
	fi, err := sh.Provider.Stat(rel)
	if err != nil {
		return "", false
	}
	if fi.IsDir {
		return "", true
	}
	return provider.Etag(fi), true
}

// etagListMatches implements the If-Match / If-None-Match list match.
// Weak tags are compared by their opaque part; "*" matches any extant
// resource.
func etagListMatches(header, etag string, exists bool) bool {
	header = strings.TrimSpace(header)
	if header == "*" {
		return exists
	}
	for _, part := range strings.Split(header, ",") {
		candidate := strings.TrimPrefix(strings.TrimSpace(part), "W/")
		if candidate != "" && candidate == etag {
			return true
		}
	}
	return false
}
