package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"

	"davd/internal/server/auth"
	"davd/internal/server/config"
	"davd/internal/server/lock"
	"davd/internal/server/metrics"
	"davd/internal/server/props"
	"davd/internal/server/share"
	"davd/internal/server/webdav"
	"davd/internal/server/webui"
	"davd/internal/util"
	"davd/version"

	"github.com/rs/zerolog/log"
)

// State is the part of the server that survives a reload: held locks
// and the dead-property store stay valid while listeners and config
// derived pieces are rebuilt.
type State struct {
	Locks *lock.Manager
	Store props.Store
}

func NewState(c *config.Properties) (*State, error) {
	st := &State{Locks: lock.NewManager()}
	if c.Path == "" {
		st.Store = props.NewMemStore()
	} else {
		bs, err := props.NewBadgerStore(c.Path)
		if err != nil {
			return nil, fmt.Errorf("open property store: %w", err)
		}
		st.Store = bs
	}
	return st, nil
}

func (st *State) Close() error {
	return st.Store.Close()
}

type Server struct {
	httpServer http.Server

	registry      *share.Registry
	gate          *auth.Gate
	webdavHandler *webdav.Handler
	webuiHandler  webui.Handler

	metricsEnable bool
}

func NewServer(c config.Server, st *State) (s *Server, err error) {
	s = &Server{
		metricsEnable: c.Metrics.Enable,
	}

	s.registry, err = share.NewRegistry(&c)
	if err != nil {
		return
	}

	s.gate, err = auth.NewGate(c.Auth)
	if err != nil {
		return
	}

	pm := &props.Manager{Store: st.Store, Locks: st.Locks}
	s.webdavHandler = webdav.NewHandler(c.Webdav, st.Locks, pm)
	s.webuiHandler = webui.NewHandler(c.Webdav.EnableListing)

	return
}

func (s *Server) Run(listenerConfig config.Listener) error {
	listener, tlsConfig, err := listen(listenerConfig)
	if err != nil {
		return err
	}

	s.httpServer = http.Server{Handler: s}

	log.Warn().Str("Net", listenerConfig.Network).Str("Addr", listenerConfig.Address).Msg("Listening")
	if tlsConfig != nil {
		s.httpServer.TLSConfig = tlsConfig
		err = s.httpServer.ServeTLS(listener, "", "")
	} else {
		err = s.httpServer.Serve(listener)
	}
	return err
}

func (s *Server) Shutdown(callback func(error)) {
	go func() {
		err := s.httpServer.Shutdown(context.Background())
		if callback != nil {
			callback(err)
		}
	}()
}

// Modified from gin's RecoveryFunc.
// Original copyright: Copyright 2014 Manu Martinez-Almeida. All rights reserved.
// Original license: MIT (https://raw.githubusercontent.com/gin-gonic/gin/master/LICENSE)
func (s *Server) serveRecover(rsp *responseWriter, req *http.Request, err any) {
	// Check for a broken connection
	var brokenPipe bool
	if ne, ok := err.(*net.OpError); ok {
		var se *os.SyscallError
		if errors.As(ne, &se) {
			seStr := strings.ToLower(se.Error())
			if strings.Contains(seStr, "broken pipe") ||
				strings.Contains(seStr, "connection reset by peer") {
				brokenPipe = true
			}
		}
	}

	if brokenPipe {
		log.Warn().Str("From", req.RemoteAddr).Msg("Connection reset")
		// If the connection is dead, we can do nothing
		return
	}

	log.Error().Str("From", req.RemoteAddr).Str("Err", fmt.Sprint(err)).Msg("Panic")

	if rsp.status == statusUnwrited {
		func() {
			defer func() {
				if err := recover(); err != nil {
					log.Warn().Str("From", req.RemoteAddr).Any("Err", err).Msg("Write failed")
				}
			}()
			rsp.WriteHeader(http.StatusInternalServerError)
		}()
	}
}

func (s *Server) ServeHTTP(rsp_ http.ResponseWriter, req *http.Request) {
	rsp := newResponseWriter(rsp_)

	defer func() {
		if err := recover(); err != nil {
			s.serveRecover(rsp, req, err)
		} else {
			if rsp.status == statusUnwrited {
				rsp.WriteHeader(http.StatusOK)
			}
			log.Info().Str("Path", req.RequestURI).Str("From", req.RemoteAddr).Int("Code", rsp.status).Msg(req.Method)
		}
		if s.metricsEnable {
			metrics.ObserveRequest(req.Method, rsp.status)
		}
	}()
	rsp.Header().Set("Server", "davd/"+version.Version)

	if !util.IsUrlValid(req.URL.Path) {
		rsp.WriteHeader(http.StatusBadRequest)
		return
	}

	sh, rel, ok := s.registry.Resolve(req.URL.Path)
	if !ok {
		rsp.WriteHeader(http.StatusNotFound)
		return
	}

	user, err := s.gate.Authenticate(req, sh.Users)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAuthHeaderNotExists):
			s.gate.Challenge(rsp, false)
		case errors.Is(err, auth.ErrStaleNonce):
			s.gate.Challenge(rsp, true)
		case errors.Is(err, auth.ErrBadCredentials),
			errors.Is(err, auth.ErrSchemeNotAccepted),
			errors.Is(err, auth.ErrBadAuthHeader):
			if s.metricsEnable {
				metrics.AuthFailures.Inc()
			}
			s.gate.Challenge(rsp, false)
		default:
			log.Error().Err(err).Msg("Auth error")
			rsp.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	if strings.HasSuffix(req.URL.Path, "/") && rel != "/" {
		// collections are addressed without a trailing slash internally
		req.URL.Path = strings.TrimSuffix(req.URL.Path, "/")
	}

	if s.webuiHandler.Enable && (req.Method == "GET" || req.Method == "HEAD") {
		if fi, serr := sh.Provider.Stat(rel); serr == nil && fi.IsDir {
			s.webuiHandler.ServeList(rsp, req, sh, rel)
			return
		}
	}

	s.webdavHandler.ServeHTTP(rsp, req, sh, rel, user)
}
