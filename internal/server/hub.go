package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"davd/internal/server/config"
	"davd/internal/server/metrics"

	"github.com/rs/zerolog/log"
)

const lockSweepInterval = 30 * time.Second

type instance struct {
	server *Server
	olded  atomic.Bool
}

// Hub owns the reload cycle. Locks and dead properties live in its
// State and are handed to every server generation, so a SIGHUP swaps
// listeners and config without dropping client lock tokens.
type Hub struct {
	GetConfig func() (config.Server, error)

	state *State
	inst  *instance

	exitErrorChan chan error
	sweepCancel   context.CancelFunc

	lock            sync.Mutex
	reloadReentrant atomic.Bool
}

func NewHub(c *config.Properties) (h *Hub, err error) {
	h = &Hub{
		exitErrorChan: make(chan error),
	}
	h.state, err = NewState(c)
	if err != nil {
		return nil, err
	}
	return
}

func (h *Hub) runInst(listener config.Listener, inst *instance) {
	err := inst.server.Run(listener)
	if inst.olded.Load() {
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Old server exit with error")
		}
	} else {
		h.exitErrorChan <- err
	}
}

func (h *Hub) Run(c config.Server) error {
	server, err := NewServer(c, h.state)
	if err != nil {
		return err
	}
	inst := &instance{
		server: server,
	}
	h.inst = inst

	var sweepCtx context.Context
	sweepCtx, h.sweepCancel = context.WithCancel(context.Background())
	go h.state.Locks.Sweep(sweepCtx, lockSweepInterval)

	if c.Metrics.Enable {
		metrics.RegisterLockGauge(h.state.Locks.Count)
		go func() {
			if merr := metrics.Serve(c.Metrics.Address); merr != nil {
				log.Error().Err(merr).Msg("Metrics listener failed")
			}
		}()
	}

	go h.runInst(c.Listener, inst)

	err = <-h.exitErrorChan
	h.sweepCancel()
	cleanListen(c.Listener)
	if cerr := h.state.Close(); cerr != nil {
		log.Error().Err(cerr).Msg("Close property store failed")
	}
	return err
}

func (h *Hub) IssueReload() {
	if !h.lock.TryLock() {
		log.Warn().Msg("Reload has been postponed: Server is in reloading")
		h.reloadReentrant.Store(true)
		return
	}
	log.Warn().Msg("Reloading")

	go h.doReload()
}

func (h *Hub) doReload() {
	defer func() {
		err := recover()
		if err != nil {
			log.Error().Any("Error", err).Msg("Panic during reloading")
		}

		h.lock.Unlock()
		if h.reloadReentrant.CompareAndSwap(true, false) {
			h.IssueReload()
		}
	}()

	conf, err := h.GetConfig()
	if err != nil {
		log.Error().Err(err).Msg("Reload failed: Unable to decode new config")
		return
	}

	server, err := NewServer(conf, h.state)
	if err != nil {
		log.Error().Err(err).Msg("Reload failed: Unable to new server")
		return
	}

	oldinst := h.inst
	oldinst.olded.Store(true)
	oldinst.server.Shutdown(func(err error) {
		if err != nil {
			log.Error().Err(err).Msg("Old server shutdown failed")
		}
	})

	newinst := &instance{
		server: server,
	}
	go h.runInst(conf.Listener, newinst)
	h.inst = newinst

	log.Warn().Msg("Reloaded")
}

func (h *Hub) IssueShutdown() {
	log.Warn().Msg("Shutdowning")
	h.inst.server.Shutdown(nil)
}
