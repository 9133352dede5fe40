package webdav

import (
	"errors"
	"net/http"

	"davd/internal/server/provider"
	"davd/internal/server/share"

	"github.com/rs/zerolog/log"
)

func (h *Handler) handleCopyMove(rsp http.ResponseWriter, req *http.Request, sh *share.Share, rel string) (status int, err error) {
	dstRel, derr := parseDestination(sh, req)
	if derr != nil {
		switch {
		case errors.Is(derr, errNoDestinationHeader):
			return http.StatusBadRequest, nil
		case errors.Is(derr, errDestinationHostDifferent),
			errors.Is(derr, errDestinationOutsideShare):
			return http.StatusBadGateway, nil
		default:
			return http.StatusBadRequest, nil
		}
	}
	if dstRel == rel {
		return http.StatusForbidden, nil
	}
	if isUnderneath(rel, dstRel) || isUnderneath(dstRel, rel) {
		// a resource may not be copied or moved into itself
		return http.StatusConflict, nil
	}

	depth := infiniteDepth
	if s := req.Header.Get("Depth"); s != "" {
		depth = parseDepth(s)
	}
	move := req.Method == "MOVE"
	if move && depth != infiniteDepth {
		return http.StatusBadRequest, errInvalidDepth
	}
	if depth != 0 && depth != infiniteDepth {
		return http.StatusBadRequest, errInvalidDepth
	}

	overwrite := true
	switch req.Header.Get("Overwrite") {
	case "", "T":
	case "F":
		overwrite = false
	default:
		return http.StatusBadRequest, nil
	}

	pre := h.checkPreconditions(req, sh, rel)
	if pre.status != 0 {
		return pre.status, nil
	}
	if !h.confirmLocks(sh.Path(dstRel), pre.submitted, true) {
		return http.StatusLocked, nil
	}
	if move && !h.confirmLocks(sh.Path(rel), pre.submitted, true) {
		return http.StatusLocked, nil
	}

	srcFi, serr := sh.Provider.Stat(rel)
	if serr != nil {
		return providerErrorStatus(serr), nil
	}

	replaced := false
	if dstFi, derr2 := sh.Provider.Stat(dstRel); derr2 == nil {
		if !overwrite {
			return http.StatusPreconditionFailed, nil
		}
		// Section 9.8.4/9.9.3: overwriting performs a DELETE with
		// Depth infinity on the destination first.
		if rerr := h.removeTree(sh, dstRel, dstFi); rerr != nil {
			return providerErrorStatus(rerr), rerr
		}
		h.afterRemove(sh.Path(dstRel))
		replaced = true
	} else if !errors.Is(derr2, provider.ErrNotExist) {
		return providerErrorStatus(derr2), nil
	}

	if move {
		status, err = h.moveTree(sh, rel, dstRel)
	} else {
		status, err = h.copyTree(rsp, sh, rel, dstRel, srcFi, depth)
	}
	if status != 0 || err != nil {
		return status, err
	}
	if replaced {
		return http.StatusNoContent, nil
	}
	return http.StatusCreated, nil
}

func (h *Handler) moveTree(sh *share.Share, rel, dstRel string) (status int, err error) {
	if merr := sh.Provider.Move(rel, dstRel); merr != nil {
		return providerErrorStatus(merr), merr
	}
	srcPath, dstPath := sh.Path(rel), sh.Path(dstRel)
	if perr := h.Props.Store.MoveTree(srcPath, dstPath); perr != nil {
		log.Warn().Err(perr).Str("Path", srcPath).Msg("Move dead properties failed")
	}
	// Section 9.9.1: locks do not follow a moved resource.
	h.Locks.ReleaseTree(srcPath)
	return 0, nil
}

// copyTree duplicates rel at dstRel, pre-order. Failures inside a
// collection copy are reported in a 207 and the affected subtree is
// skipped.
func (h *Handler) copyTree(rsp http.ResponseWriter, sh *share.Share, rel, dstRel string, srcFi provider.FileInfo, depth int) (status int, err error) {
	if !srcFi.IsDir {
		if cerr := sh.Provider.CopyFile(rel, dstRel); cerr != nil {
			return providerErrorStatus(cerr), cerr
		}
		h.copyOwnProps(sh, rel, dstRel)
		return 0, nil
	}

	if merr := sh.Provider.Mkcol(dstRel); merr != nil {
		return providerErrorStatus(merr), merr
	}
	if depth == 0 {
		h.copyOwnProps(sh, rel, dstRel)
		return 0, nil
	}

	// Dead properties move as a subtree in one pass; resources that
	// fail to copy below just end up with orphaned entries the next
	// RemoveTree clears.
	srcPath, dstPath := sh.Path(rel), sh.Path(dstRel)
	if perr := h.Props.Store.CopyTree(srcPath, dstPath); perr != nil {
		log.Warn().Err(perr).Str("Path", srcPath).Msg("Copy dead properties failed")
	}

	ms := newMultistatusWriter(rsp)
	h.copyChildren(sh, rel, dstRel, ms)
	if !ms.empty() {
		ms.close()
	}
	return 0, nil
}

func (h *Handler) copyChildren(sh *share.Share, rel, dstRel string, ms *multistatusWriter) {
	children, lerr := sh.Provider.List(rel)
	if lerr != nil {
		ms.response(sh.Path(rel), providerErrorStatus(lerr))
		return
	}
	for _, c := range children {
		srcChild := joinRel(rel, c.Name)
		dstChild := joinRel(dstRel, c.Name)
		if c.IsDir {
			if merr := sh.Provider.Mkcol(dstChild); merr != nil {
				ms.response(sh.Path(srcChild), providerErrorStatus(merr))
				continue
			}
			h.copyChildren(sh, srcChild, dstChild, ms)
		} else {
			if cerr := sh.Provider.CopyFile(srcChild, dstChild); cerr != nil {
				ms.response(sh.Path(srcChild), providerErrorStatus(cerr))
			}
		}
	}
}

// copyOwnProps clones a single resource's dead properties without
// touching descendants.
func (h *Handler) copyOwnProps(sh *share.Share, rel, dstRel string) {
	srcPath, dstPath := sh.Path(rel), sh.Path(dstRel)
	names, err := h.Props.Store.Names(srcPath)
	if err != nil {
		log.Warn().Err(err).Str("Path", srcPath).Msg("Copy dead properties failed")
		return
	}
	for _, n := range names {
		v, ok, gerr := h.Props.Store.Get(srcPath, n)
		if gerr != nil || !ok {
			continue
		}
		if serr := h.Props.Store.Set(dstPath, n, v); serr != nil {
			log.Warn().Err(serr).Str("Path", dstPath).Msg("Copy dead properties failed")
		}
	}
}

// removeTree deletes a subtree bottom-up, stopping at the first error.
func (h *Handler) removeTree(sh *share.Share, rel string, fi provider.FileInfo) error {
	if fi.IsDir {
		children, lerr := sh.Provider.List(rel)
		if lerr != nil {
			return lerr
		}
		for _, c := range children {
			if err := h.removeTree(sh, joinRel(rel, c.Name), c); err != nil {
				return err
			}
		}
	}
	return sh.Provider.Delete(rel)
}

// isUnderneath reports whether sub lies strictly below root.
func isUnderneath(root, sub string) bool {
	if root == "/" {
		return sub != "/"
	}
	return len(sub) > len(root) && sub[:len(root)] == root && sub[len(root)] == '/'
}
