package webdav

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"davd/internal/server/lock"
	"davd/internal/server/props"
	"davd/internal/server/provider"
	"davd/internal/server/share"
)

func (h *Handler) handleLock(rsp http.ResponseWriter, req *http.Request, sh *share.Share, rel string) (status int, err error) {
	info, perr := parseLockInfo(req.Body)
	refresh := errors.Is(perr, io.EOF)
	if perr != nil && !refresh {
		return http.StatusBadRequest, perr
	}

	depth := infiniteDepth
	if s := req.Header.Get("Depth"); s != "" {
		depth = parseDepth(s)
		if depth != 0 && depth != infiniteDepth {
			// Section 9.10.3 allows "0" and "infinity" only
			return http.StatusBadRequest, errInvalidDepth
		}
	}
	timeout := lock.ParseTimeout(req.Header.Get("Timeout"))

	pre := h.checkPreconditions(req, sh, rel)
	if pre.status != 0 {
		return pre.status, nil
	}
	srvPath := sh.Path(rel)

	if refresh {
		if len(pre.submitted) == 0 {
			return http.StatusBadRequest, errInvalidLockToken
		}
		l, rerr := h.Locks.Refresh(pre.submitted[0], timeout)
		if rerr != nil {
			if errors.Is(rerr, lock.ErrNoSuchLock) {
				return http.StatusPreconditionFailed, nil
			}
			return http.StatusInternalServerError, rerr
		}
		writeLockResponse(rsp, l, http.StatusOK, "")
		return 0, nil
	}

	scope := lock.Exclusive
	if info.Shared != nil {
		scope = lock.Shared
	}

	l, aerr := h.Locks.Acquire(srvPath, depth, scope, info.Owner.InnerXML, timeout)
	if aerr != nil {
		if errors.Is(aerr, lock.ErrConflict) {
			return http.StatusLocked, nil
		}
		return http.StatusInternalServerError, aerr
	}

	created := false
	if _, serr := sh.Provider.Stat(rel); errors.Is(serr, provider.ErrNotExist) {
		// Section 9.10.4: locking an unmapped URL creates an empty
		// resource.
		if _, werr := sh.Provider.Write(rel, strings.NewReader("")); werr != nil {
			h.Locks.Release(l.Token)
			return providerErrorStatus(werr), werr
		}
		created = true
	} else if serr != nil {
		h.Locks.Release(l.Token)
		return providerErrorStatus(serr), serr
	}

	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	writeLockResponse(rsp, l, code, l.Token)
	return 0, nil
}

func (h *Handler) handleUnlock(_ http.ResponseWriter, req *http.Request, sh *share.Share, rel string) (status int, err error) {
	token := strings.TrimSpace(req.Header.Get("Lock-Token"))
	if !strings.HasPrefix(token, "<") || !strings.HasSuffix(token, ">") {
		return http.StatusBadRequest, errInvalidLockToken
	}
	token = token[1 : len(token)-1]

	// Section 9.11.1: the token has to identify a lock covering the
	// request URI.
	if !h.Locks.Covers(token, sh.Path(rel)) {
		return http.StatusConflict, nil
	}
	if rerr := h.Locks.Release(token); rerr != nil {
		if errors.Is(rerr, lock.ErrNoSuchLock) {
			return http.StatusConflict, nil
		}
		return http.StatusInternalServerError, rerr
	}
	return http.StatusNoContent, nil
}

// writeLockResponse renders the prop/lockdiscovery body every
// successful LOCK carries. lockToken is set on new locks only.
func writeLockResponse(rsp http.ResponseWriter, l lock.Lock, code int, lockToken string) {
	rsp.Header().Set("Content-Type", `application/xml; charset="utf-8"`)
	if lockToken != "" {
		rsp.Header().Set("Lock-Token", "<"+lockToken+">")
	}
	rsp.WriteHeader(code)
	fmt.Fprintf(rsp, `<?xml version="1.0" encoding="utf-8"?>`+"\n"+
		`<D:prop xmlns:D="DAV:"><D:lockdiscovery>%s</D:lockdiscovery></D:prop>`,
		props.Lockdiscovery([]lock.Lock{l}))
}
