// Package sfserver serves projects over HTTP: a JSON API, rendered previews
// and websocket edit sessions.
package sfserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"oss.terrastruct.com/cmdlog"

	"oss.terrastruct.com/stockflow/lib/go2"
	"oss.terrastruct.com/stockflow/lib/log"
	"oss.terrastruct.com/stockflow/lib/version"
	"oss.terrastruct.com/stockflow/lib/xhttp"
	"oss.terrastruct.com/stockflow/sfrenderers/sfpng"
	"oss.terrastruct.com/stockflow/sfrenderers/sfsvg"
	"oss.terrastruct.com/stockflow/sfstore"
	"oss.terrastruct.com/stockflow/sfview"
)

const DefaultFrameInterval = time.Second / 60

type Opts struct {
	// FrameInterval is how often edit sessions run animation frames.
	FrameInterval time.Duration
}

type Server struct {
	ctx   context.Context
	log   *cmdlog.Logger
	store *sfstore.Store
	opts  Opts
	mux   *http.ServeMux

	sessionsMu sync.Mutex
	closing    bool
	sessionsWG sync.WaitGroup
	sessions   map[string]*session
}

func New(ctx context.Context, clog *cmdlog.Logger, store *sfstore.Store, opts *Opts) *Server {
	if opts == nil {
		opts = &Opts{}
	}
	s := &Server{
		ctx:      log.Named(ctx, "sfserver"),
		log:      clog,
		store:    store,
		opts:     *opts,
		mux:      http.NewServeMux(),
		sessions: make(map[string]*session),
	}
	if s.opts.FrameInterval <= 0 {
		s.opts.FrameInterval = DefaultFrameInterval
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.handle("GET /health", s.handleHealth)
	s.handle("GET /api/projects", s.handleList)
	s.handle("POST /api/projects", s.handleCreate)
	s.handle("GET /api/projects/{id}", s.handleGet)
	s.handle("PUT /api/projects/{id}", s.handleUpdate)
	s.handle("DELETE /api/projects/{id}", s.handleDelete)
	s.handle("GET /api/projects/{id}/preview.svg", s.handlePreviewSVG)
	s.handle("GET /api/projects/{id}/preview.png", s.handlePreviewPNG)
	s.handle("GET /api/projects/{id}/edit", s.handleEdit)
}

func (s *Server) handle(pattern string, fn xhttp.HandlerFunc) {
	s.mux.Handle(pattern, xhttp.HandlerFuncAdapter{Log: s.log, Func: fn})
}

// Handler is the server's routes behind request logging.
func (s *Server) Handler() http.Handler {
	return xhttp.Log(s.log, s.mux)
}

// Serve serves on l until ctx is done. Open edit sessions are closed and
// waited for before it returns.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	hs := xhttp.NewServer(s.log.Warn, s.Handler())
	err := xhttp.Serve(ctx, time.Second*30, hs, l)
	s.Close()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close refuses new sessions and waits for open ones to end.
func (s *Server) Close() {
	s.sessionsMu.Lock()
	if s.closing {
		s.sessionsMu.Unlock()
		s.sessionsWG.Wait()
		return
	}
	s.closing = true
	for _, ss := range s.sessions {
		ss.cancel()
	}
	s.sessionsMu.Unlock()

	s.sessionsWG.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) error {
	xhttp.JSON(s.log, w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": version.Version,
	})
	return nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) error {
	list, err := s.store.List(r.Context())
	if err != nil {
		return err
	}
	xhttp.JSON(s.log, w, http.StatusOK, list)
	return nil
}

type createRequest struct {
	Name string       `json:"name"`
	View *sfview.View `json:"view"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) error {
	var req createRequest
	err := xhttp.DecodeJSON(r, &req)
	if err != nil {
		return err
	}
	if req.Name == "" {
		return xhttp.Errorf(http.StatusBadRequest, "name is required", "missing project name")
	}
	if req.View != nil {
		if err := sfview.Validate(req.View); err != nil {
			return xhttp.ErrorWrap(http.StatusUnprocessableEntity, err.Error(), err)
		}
	}
	p, err := s.store.Create(r.Context(), req.Name, req.View)
	if err != nil {
		return err
	}
	xhttp.JSON(s.log, w, http.StatusCreated, p)
	return nil
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) error {
	p, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		return storeError(err)
	}
	xhttp.JSON(s.log, w, http.StatusOK, p)
	return nil
}

type updateRequest struct {
	Name    *string      `json:"name"`
	View    *sfview.View `json:"view"`
	Version int          `json:"version"`
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) error {
	var req updateRequest
	err := xhttp.DecodeJSON(r, &req)
	if err != nil {
		return err
	}
	if req.Name == nil && req.View == nil {
		return xhttp.Errorf(http.StatusBadRequest, "nothing to update", "update without name or view")
	}
	if req.Name != nil && *req.Name == "" {
		return xhttp.Errorf(http.StatusBadRequest, "name is required", "empty project name")
	}

	id := r.PathValue("id")
	version := req.Version
	if req.View != nil {
		if err := sfview.Validate(req.View); err != nil {
			return xhttp.ErrorWrap(http.StatusUnprocessableEntity, err.Error(), err)
		}
		version, err = s.store.Save(r.Context(), id, req.View, version)
		if err != nil {
			return storeError(err)
		}
	}
	if req.Name != nil {
		version, err = s.store.Rename(r.Context(), id, *req.Name, version)
		if err != nil {
			return storeError(err)
		}
	}
	xhttp.JSON(s.log, w, http.StatusOK, map[string]interface{}{
		"version": version,
	})
	return nil
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) error {
	err := s.store.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		return storeError(err)
	}
	xhttp.JSON(s.log, w, http.StatusOK, nil)
	return nil
}

func (s *Server) handlePreviewSVG(w http.ResponseWriter, r *http.Request) error {
	p, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		return storeError(err)
	}
	pad, scale, err := previewParams(r)
	if err != nil {
		return err
	}
	out, err := sfsvg.Render(r.Context(), p.View, &sfsvg.RenderOpts{
		Pad:   pad,
		Scale: scale,
	})
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
	return nil
}

func (s *Server) handlePreviewPNG(w http.ResponseWriter, r *http.Request) error {
	p, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		return storeError(err)
	}
	pad, scale, err := previewParams(r)
	if err != nil {
		return err
	}
	out, err := sfpng.Render(r.Context(), p.View, &sfpng.RenderOpts{
		Pad:   pad,
		Scale: scale,
	})
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
	return nil
}

func previewParams(r *http.Request) (pad *int64, scale *float64, _ error) {
	q := r.URL.Query()
	if s := q.Get("pad"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			return nil, nil, xhttp.Errorf(http.StatusBadRequest, "invalid pad", "invalid pad %q", s)
		}
		pad = go2.Pointer(n)
	}
	if s := q.Get("scale"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f <= 0 || f > 8 {
			return nil, nil, xhttp.Errorf(http.StatusBadRequest, "invalid scale", "invalid scale %q", s)
		}
		scale = go2.Pointer(f)
	}
	return pad, scale, nil
}

func storeError(err error) error {
	switch {
	case errors.Is(err, sfstore.ErrNotFound):
		return xhttp.ErrorWrap(http.StatusNotFound, "project not found", err)
	case errors.Is(err, sfstore.ErrConflict):
		return xhttp.ErrorWrap(http.StatusConflict, "project changed since it was read", err)
	}
	return err
}
