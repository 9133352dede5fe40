package webdav

import (
	"net/http"
	"net/url"
	"strings"

	"davd/internal/server/share"
	"davd/internal/util"
)

// parseDestination resolves the Destination header to a path relative
// to the same share as the request. Cross-host and cross-share
// destinations are refused; moving between mounts would silently change
// which provider and principal table govern the resource.
func parseDestination(sh *share.Share, req *http.Request) (dstRel string, err error) {
	desthdr := req.Header.Get("Destination")
	if desthdr == "" {
		return "", errNoDestinationHeader
	}

	desturl, err := url.Parse(desthdr)
	if err != nil {
		return "", errInvalidDestination
	}

	if desturl.Host != "" && req.Host != "" && desturl.Host != req.Host {
		return "", errDestinationHostDifferent
	}

	if !util.IsUrlValid(desturl.Path) {
		return "", errInvalidDestination
	}

	rel, ok := stripSharePrefix(desturl.Path, sh.Prefix)
	if !ok {
		return "", errDestinationOutsideShare
	}
	return rel, nil
}

func stripSharePrefix(urlPath, prefix string) (string, bool) {
	if prefix == "/" {
		if urlPath == "" {
			return "/", true
		}
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
