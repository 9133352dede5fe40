package webdav

import (
	"net/http"

	"davd/internal/server/props"
	"davd/internal/server/share"
)

func (h *Handler) handleProppatch(rsp http.ResponseWriter, req *http.Request, sh *share.Share, rel string) (status int, err error) {
	pre := h.checkPreconditions(req, sh, rel)
	if pre.status != 0 {
		return pre.status, nil
	}
	srvPath := sh.Path(rel)
	if !h.confirmLocks(srvPath, pre.submitted, false) {
		return http.StatusLocked, nil
	}

	if _, serr := sh.Provider.Stat(rel); serr != nil {
		return providerErrorStatus(serr), nil
	}

	updates, perr := parseProppatch(req.Body)
	if perr != nil {
		return http.StatusBadRequest, perr
	}

	// Each set and remove applies on its own; one failing property does
	// not revert the others.
	var ok200, forbidden, failed []props.Property
	for _, u := range updates {
		p := props.Property{Name: u.name}
		if u.name.Space == "DAV:" {
			forbidden = append(forbidden, p)
			continue
		}
		var aerr error
		if u.remove {
			aerr = h.Props.Store.Remove(srvPath, u.name)
		} else {
			aerr = h.Props.Store.Set(srvPath, u.name, u.innerXML)
		}
		if aerr != nil {
			failed = append(failed, p)
			continue
		}
		ok200 = append(ok200, p)
	}

	var groups []propstatGroup
	if len(ok200) > 0 {
		groups = append(groups, propstatGroup{status: http.StatusOK, props: ok200, namesOnly: true})
	}
	if len(forbidden) > 0 {
		groups = append(groups, propstatGroup{
			status:    http.StatusForbidden,
			props:     forbidden,
			condition: "cannot-modify-protected-property",
			namesOnly: true,
		})
	}
	if len(failed) > 0 {
		groups = append(groups, propstatGroup{status: http.StatusInternalServerError, props: failed, namesOnly: true})
	}

	ms := newMultistatusWriter(rsp)
	ms.propstats(srvPath, groups)
	ms.close()
	return 0, nil
}
