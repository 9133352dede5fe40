package webdav

import (
	"errors"
	"fmt"
	"net/http"

	"davd/internal/server/config"
	"davd/internal/server/lock"
	"davd/internal/server/props"
	"davd/internal/server/provider"
	"davd/internal/server/share"

	"github.com/rs/zerolog/log"
)

const preconditionPropfindFiniteDepth = "propfind-finite-depth"

// Handler is the WebDAV protocol engine. It is handed the resolved
// share, the share-relative path and the authenticated principal by the
// dispatcher and composes provider, lock manager and property manager
// calls per method.
type Handler struct {
	Locks *lock.Manager
	Props *props.Manager

	allowPropfindInfDepth  bool
	enableContentTypeProbe bool
	exposeDavmount         bool
	msAuthorVia            bool
}

func NewHandler(c config.Webdav, locks *lock.Manager, pm *props.Manager) *Handler {
	return &Handler{
		Locks:                  locks,
		Props:                  pm,
		allowPropfindInfDepth:  c.AllowPropfindInfDepth,
		enableContentTypeProbe: c.EnableContentTypeProbe,
		exposeDavmount:         c.ExposeDavmount,
		msAuthorVia:            c.MsAuthorVia,
	}
}

func (h *Handler) ServeHTTP(rsp http.ResponseWriter, req *http.Request, sh *share.Share, rel string, user *share.User) {
	status := http.StatusNotImplemented
	var err error

	if user.ReadOnly {
		switch req.Method {
		case "OPTIONS":
			status, err = h.handleOptions(rsp, req, sh, rel, user)
		case "GET", "HEAD":
			status, err = h.handleGetHead(rsp, req, sh, rel)
		case "PROPFIND":
			status, err = h.handlePropfind(rsp, req, sh, rel)
		case "PROPPATCH", "COPY", "MOVE", "MKCOL", "PUT", "DELETE", "LOCK", "UNLOCK":
			status = http.StatusForbidden
		}
	} else {
		switch req.Method {
		case "OPTIONS":
			status, err = h.handleOptions(rsp, req, sh, rel, user)
		case "GET", "HEAD":
			status, err = h.handleGetHead(rsp, req, sh, rel)
		case "DELETE":
			status, err = h.handleDelete(rsp, req, sh, rel)
		case "PUT":
			status, err = h.handlePut(rsp, req, sh, rel)
		case "MKCOL":
			status, err = h.handleMkcol(rsp, req, sh, rel)
		case "COPY", "MOVE":
			status, err = h.handleCopyMove(rsp, req, sh, rel)
		case "PROPFIND":
			status, err = h.handlePropfind(rsp, req, sh, rel)
		case "PROPPATCH":
			status, err = h.handleProppatch(rsp, req, sh, rel)
		case "LOCK":
			status, err = h.handleLock(rsp, req, sh, rel)
		case "UNLOCK":
			status, err = h.handleUnlock(rsp, req, sh, rel)
		}
	}

	if err != nil {
		log.Warn().Err(err).Str("Path", sh.Path(rel)).Msg("webdav error")
	}

	if status != 0 {
		rsp.WriteHeader(status)
	}
}

func (h *Handler) handleOptions(rsp http.ResponseWriter, req *http.Request, sh *share.Share, rel string, user *share.User) (status int, err error) {
	var allow string
	fi, serr := sh.Provider.Stat(rel)
	switch {
	case serr == nil && fi.IsDir:
		allow = "OPTIONS, GET, HEAD, PROPFIND"
		if !user.ReadOnly {
			allow += ", DELETE, PROPPATCH, COPY, MOVE, MKCOL, LOCK, UNLOCK"
		}
	case serr == nil:
		allow = "OPTIONS, GET, HEAD, PROPFIND"
		if !user.ReadOnly {
			allow += ", DELETE, PROPPATCH, COPY, MOVE, PUT, LOCK, UNLOCK"
		}
	case errors.Is(serr, provider.ErrNotExist):
		allow = "OPTIONS"
		if !user.ReadOnly {
			allow += ", PUT, MKCOL, LOCK"
		}
	case errors.Is(serr, provider.ErrPermission):
		return http.StatusForbidden, nil
	default:
		return http.StatusInternalServerError, serr
	}

	rsp.Header().Set("Allow", allow)
	// http://www.webdav.org/specs/rfc4918.html#dav.compliance.classes
	rsp.Header().Set("DAV", "1, 2")
	if h.msAuthorVia {
		// http://msdn.microsoft.com/en-au/library/cc250217.aspx
		rsp.Header().Set("MS-Author-Via", "DAV")
	}
	return http.StatusOK, nil
}

func (h *Handler) handleGetHead(rsp http.ResponseWriter, req *http.Request, sh *share.Share, rel string) (status int, err error) {
	if pre := h.checkIfOnly(req, sh, rel); pre != 0 {
		return pre, nil
	}

	if h.exposeDavmount && req.URL.Query().Has("davmount") {
		return h.serveDavmount(rsp, req)
	}

	f, fi, oerr := sh.Provider.Open(rel)
	if oerr != nil {
		return providerErrorStatus(oerr), nil
	}
	defer f.Close()

	if fi.IsDir {
		// The listing UI owns collection GETs; reaching here means it
		// is disabled.
		return http.StatusMethodNotAllowed, nil
	}

	if !h.enableContentTypeProbe {
		rsp.Header().Set("Content-Type", "application/octet-stream")
	}
	// else: let http.ServeContent probe the Content-Type header

	rsp.Header().Set("ETag", provider.Etag(fi))
	// ServeContent deals with HEAD, ranges and etag conditionals
	http.ServeContent(rsp, req, fi.Name, fi.ModTime, f)
	return 0, nil
}

func (h *Handler) serveDavmount(rsp http.ResponseWriter, req *http.Request) (int, error) {
	scheme := "http"
	if req.TLS != nil {
		scheme = "https"
	}
	rsp.Header().Set("Content-Type", "application/davmount+xml")
	fmt.Fprintf(rsp,
		`<dm:mount xmlns:dm="http://purl.org/NET/webdav/mount"><dm:url>%s://%s%s</dm:url></dm:mount>`,
		scheme, escapeXML(req.Host), escapeXML(req.URL.Path))
	return 0, nil
}

func (h *Handler) handlePut(rsp http.ResponseWriter, req *http.Request, sh *share.Share, rel string) (status int, err error) {
	pre := h.checkPreconditions(req, sh, rel)
	if pre.status != 0 {
		return pre.status, nil
	}
	srvPath := sh.Path(rel)
	if !h.confirmLocks(srvPath, pre.submitted, false) {
		return http.StatusLocked, nil
	}

	created, werr := sh.Provider.Write(rel, req.Body)
	if werr != nil {
		return providerErrorStatus(werr), werr
	}

	if fi, serr := sh.Provider.Stat(rel); serr == nil {
		rsp.Header().Set("ETag", provider.Etag(fi))
	}
	if created {
		return http.StatusCreated, nil
	}
	return http.StatusNoContent, nil
}

func (h *Handler) handleMkcol(_ http.ResponseWriter, req *http.Request, sh *share.Share, rel string) (status int, err error) {
	pre := h.checkPreconditions(req, sh, rel)
	if pre.status != 0 {
		return pre.status, nil
	}
	if !h.confirmLocks(sh.Path(rel), pre.submitted, false) {
		return http.StatusLocked, nil
	}

	if req.ContentLength > 0 {
		return http.StatusUnsupportedMediaType, nil
	}
	if merr := sh.Provider.Mkcol(rel); merr != nil {
		return providerErrorStatus(merr), nil
	}
	return http.StatusCreated, nil
}

func (h *Handler) handleDelete(rsp http.ResponseWriter, req *http.Request, sh *share.Share, rel string) (status int, err error) {
	pre := h.checkPreconditions(req, sh, rel)
	if pre.status != 0 {
		return pre.status, nil
	}
	srvPath := sh.Path(rel)
	if !h.confirmLocks(srvPath, pre.submitted, true) {
		return http.StatusLocked, nil
	}

	fi, serr := sh.Provider.Stat(rel)
	if serr != nil {
		return providerErrorStatus(serr), nil
	}

	if !fi.IsDir {
		if derr := sh.Provider.Delete(rel); derr != nil {
			return providerErrorStatus(derr), derr
		}
		h.afterRemove(srvPath)
		return http.StatusNoContent, nil
	}

	// Section 9.6.1: delete as much of the collection as possible and
	// report what failed per resource.
	ms := newMultistatusWriter(rsp)
	h.deleteTree(sh, rel, fi, ms)
	if !ms.empty() {
		ms.close()
		return 0, nil
	}
	h.afterRemove(srvPath)
	return http.StatusNoContent, nil
}

// deleteTree removes a collection bottom-up, recording failures in ms
// and carrying on with siblings.
func (h *Handler) deleteTree(sh *share.Share, rel string, fi provider.FileInfo, ms *multistatusWriter) (deleted bool) {
	deleted = true
	if fi.IsDir {
		children, lerr := sh.Provider.List(rel)
		if lerr != nil {
			ms.response(sh.Path(rel), providerErrorStatus(lerr))
			return false
		}
		for _, c := range children {
			if !h.deleteTree(sh, joinRel(rel, c.Name), c, ms) {
				deleted = false
			}
		}
		if !deleted {
			// children remain, removing this collection cannot succeed
			return false
		}
	}
	if derr := sh.Provider.Delete(rel); derr != nil {
		ms.response(sh.Path(rel), providerErrorStatus(derr))
		return false
	}
	h.afterRemove(sh.Path(rel))
	return deleted
}

// afterRemove drops the state attached to a resource that no longer
// exists: its dead properties and any locks rooted at or under it.
func (h *Handler) afterRemove(srvPath string) {
	if err := h.Props.Store.RemoveTree(srvPath); err != nil {
		log.Warn().Err(err).Str("Path", srvPath).Msg("Prune dead properties failed")
	}
	h.Locks.ReleaseTree(srvPath)
}

// checkIfOnly evaluates just the DAV If header for read methods;
// If-Match and If-None-Match on GET belong to http.ServeContent.
func (h *Handler) checkIfOnly(req *http.Request, sh *share.Share, rel string) int {
	ifRaw := req.Header.Get("If")
	if ifRaw == "" {
		return 0
	}
	hdr, ok := parseIfHeader(ifRaw)
	if !ok {
		return http.StatusBadRequest
	}
	etag, exists := h.etagFor(sh, rel)
	for _, list := range hdr.lists {
		if h.evalList(list, sh, sh.Path(rel), etag, exists) {
			return 0
		}
	}
	return http.StatusPreconditionFailed
}
