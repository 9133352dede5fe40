package webui

import (
	"errors"
	"net/http"

	"davd/internal/server/provider"
	"davd/internal/server/share"

	"github.com/rs/zerolog/log"
)

// Handler renders the HTML directory listing served for collection GETs
// when listing is enabled.
type Handler struct {
	Enable bool
}

func NewHandler(enable bool) Handler {
	return Handler{Enable: enable}
}

func (w *Handler) ServeList(rsp http.ResponseWriter, req *http.Request, sh *share.Share, rel string) {
	if !w.Enable {
		rsp.WriteHeader(http.StatusNotImplemented)
		return
	}

	arg, err := list(sh, rel, req.URL.Path)
	if err != nil {
		if errors.Is(err, provider.ErrNotExist) {
			w.ServeError(rsp, req, http.StatusNotFound, "Not found")
		} else if errors.Is(err, provider.ErrPermission) {
			w.ServeError(rsp, req, http.StatusForbidden, "Access denied")
		} else {
			w.ServeError(rsp, req, http.StatusInternalServerError, "System busy")
		}
		return
	}

	rsp.Header().Set("Content-Type", "text/html; charset=utf-8")
	rsp.Header().Set("Accept-Ranges", "none")
	rsp.WriteHeader(http.StatusOK)
	if terr := listTemplate.Execute(rsp, arg); terr != nil {
		log.Warn().Err(terr).Msg("Render listing failed")
	}
}

func (w *Handler) ServeError(rsp http.ResponseWriter, _ *http.Request, status int, msg string) {
	rsp.Header().Set("Content-Type", "text/html; charset=utf-8")
	rsp.WriteHeader(status)
	if terr := errorTemplate.Execute(rsp, errorArg{Status: status, Message: msg}); terr != nil {
		log.Warn().Err(terr).Msg("Render error page failed")
	}
}
