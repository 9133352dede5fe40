package webdav

import (
	"errors"
	"net/http"

	"davd/internal/server/provider"
)

var (
	errNoDestinationHeader      = errors.New("webdav: no destination header")
	errDestinationHostDifferent = errors.New("webdav: destination host different")
	errDestinationOutsideShare  = errors.New("webdav: destination outside share")
	errInvalidDepth             = errors.New("webdav: invalid depth")
	errInvalidDestination       = errors.New("webdav: invalid destination")
	errInvalidIfHeader          = errors.New("webdav: invalid If header")
	errInvalidLockToken         = errors.New("webdav: invalid lock token header")
	errInvalidLockInfo          = errors.New("webdav: invalid lock info body")
	errInvalidPropfind          = errors.New("webdav: invalid propfind body")
	errInvalidProppatch         = errors.New("webdav: invalid proppatch body")
	errRecursionTooDeep         = errors.New("webdav: recursion too deep")
)

const recursionMax = 256

// providerErrorStatus maps backing-store failures onto the WebDAV
// status contract. Nothing escapes as an unhandled fault.
func providerErrorStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, provider.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, provider.ErrNoParent):
		return http.StatusConflict
	case errors.Is(err, provider.ErrExist):
		return http.StatusMethodNotAllowed
	case errors.Is(err, provider.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, provider.ErrNoSpace):
		return http.StatusInsufficientStorage
	case errors.Is(err, provider.ErrNotEmpty):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
