package webdav

import (
	"net/http"

	"davd/internal/server/props"
	"davd/internal/server/provider"
	"davd/internal/server/share"
)

func (h *Handler) handlePropfind(rsp http.ResponseWriter, req *http.Request, sh *share.Share, rel string) (status int, err error) {
	fi, serr := sh.Provider.Stat(rel)
	if serr != nil {
		return providerErrorStatus(serr), nil
	}

	depth := infiniteDepth
	if s := req.Header.Get("Depth"); s != "" {
		depth = parseDepth(s)
	}
	if depth == invalidDepth {
		return http.StatusBadRequest, errInvalidDepth
	}
	if depth == infiniteDepth && fi.IsDir && !h.allowPropfindInfDepth {
		// Section 9.1.1 precondition for servers that refuse unbounded
		// traversal.
		rsp.Header().Set("Content-Type", "application/xml; charset=utf-8")
		rsp.WriteHeader(http.StatusForbidden)
		rsp.Write([]byte(`<?xml version="1.0" encoding="utf-8"?>` + "\n" +
			`<D:error xmlns:D="DAV:"><D:` + preconditionPropfindFiniteDepth + `/></D:error>` + "\n"))
		return 0, nil
	}

	pf, perr := parsePropfind(req.Body)
	if perr != nil {
		return http.StatusBadRequest, perr
	}

	ms := newMultistatusWriter(rsp)
	werr := walkProvider(sh.Provider, depth, rel, fi, func(childRel string, childFi provider.FileInfo, walkErr error) error {
		srvPath := sh.Path(childRel)
		if walkErr != nil {
			ms.response(srvPath, providerErrorStatus(walkErr))
			return nil
		}
		groups, gerr := h.propfindGroups(pf, srvPath, childFi)
		if gerr != nil {
			ms.response(srvPath, http.StatusInternalServerError)
			return nil
		}
		ms.propstats(srvPath, groups)
		return nil
	})
	if werr != nil && ms.empty() {
		return http.StatusInternalServerError, werr
	}
	ms.close()
	return 0, nil
}

func (h *Handler) propfindGroups(pf propfindReq, srvPath string, fi provider.FileInfo) ([]propstatGroup, error) {
	switch {
	case pf.Propname != nil:
		names, err := h.Props.Names(srvPath, fi)
		if err != nil {
			return nil, err
		}
		ps := make([]props.Property, 0, len(names))
		for _, n := range names {
			ps = append(ps, props.Property{Name: n})
		}
		return []propstatGroup{{status: http.StatusOK, props: ps, namesOnly: true}}, nil

	case pf.Allprop != nil:
		all, err := h.Props.All(srvPath, fi)
		if err != nil {
			return nil, err
		}
		return []propstatGroup{{status: http.StatusOK, props: all}}, nil

	default:
		var found, missing []props.Property
		for _, name := range pf.Prop {
			p, ok, err := h.Props.Value(srvPath, fi, name)
			if err != nil {
				return nil, err
			}
			if ok {
				found = append(found, p)
			} else {
				missing = append(missing, props.Property{Name: name})
			}
		}
		var groups []propstatGroup
		if len(found) > 0 {
			groups = append(groups, propstatGroup{status: http.StatusOK, props: found})
		}
		if len(missing) > 0 {
			groups = append(groups, propstatGroup{status: http.StatusNotFound, props: missing, namesOnly: true})
		}
		if len(groups) == 0 {
			// request named no properties at all
			groups = append(groups, propstatGroup{status: http.StatusOK})
		}
		return groups, nil
	}
}
