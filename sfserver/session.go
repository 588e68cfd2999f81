package sfserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cdr.dev/slog"
	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"oss.terrastruct.com/xcontext"

	"oss.terrastruct.com/stockflow/lib/go2"
	"oss.terrastruct.com/stockflow/lib/log"
	"oss.terrastruct.com/stockflow/lib/xhttp"
	"oss.terrastruct.com/stockflow/sfcanvas"
	"oss.terrastruct.com/stockflow/sfedit"
	"oss.terrastruct.com/stockflow/sfrenderers/sfsvg"
	"oss.terrastruct.com/stockflow/sfstore"
)

// Message is sent by the client. Type selects which of the other fields is
// read.
type Message struct {
	Type    string                 `json:"type"`
	Pointer *sfcanvas.PointerEvent `json:"pointer,omitempty"`
	Wheel   *sfcanvas.WheelEvent   `json:"wheel,omitempty"`
	Key     string                 `json:"key,omitempty"`
	Tool    string                 `json:"tool,omitempty"`
	Name    string                 `json:"name,omitempty"`
	Width   float64                `json:"width,omitempty"`
	Height  float64                `json:"height,omitempty"`
}

const (
	MsgPointerDown   = "pointerdown"
	MsgPointerMove   = "pointermove"
	MsgPointerUp     = "pointerup"
	MsgPointerCancel = "pointercancel"
	MsgDoubleClick   = "dblclick"
	MsgWheel         = "wheel"
	MsgKey           = "key"
	MsgTool          = "tool"
	MsgCommitName    = "name"
	MsgCancelName    = "cancelname"
	MsgResize        = "resize"
	MsgUndo          = "undo"
	MsgRedo          = "redo"
)

// Frame is sent to the client after every message and every animation frame.
type Frame struct {
	Session string `json:"session"`
	// Version is the edit version of the session's project. Saved is the
	// version of the stored project.
	Version   int                `json:"version"`
	Saved     int                `json:"saved"`
	SVG       string             `json:"svg"`
	Selection []int              `json:"selection"`
	Tool      string             `json:"tool"`
	State     string             `json:"state"`
	Viewport  sfcanvas.Viewport  `json:"viewport"`
	NameEdit  *sfcanvas.NameEdit `json:"nameEdit,omitempty"`
	Details   int                `json:"details,omitempty"`
	Err       string             `json:"err,omitempty"`
}

type session struct {
	ctx    context.Context
	cancel context.CancelFunc
	id     string

	s *Server
	c *websocket.Conn

	projectID string
	stored    int
	saved     int

	project *sfedit.Project
	canvas  *sfcanvas.Canvas
	sched   *sfcanvas.ManualScheduler

	err error
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) error {
	s.sessionsMu.Lock()
	if s.closing {
		s.sessionsMu.Unlock()
		return xhttp.Errorf(http.StatusServiceUnavailable, "server shutting down...", "server shutting down...")
	}
	// Registered before the upgrade so Close waits for us.
	s.sessionsWG.Add(1)
	s.sessionsMu.Unlock()

	p, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.sessionsWG.Done()
		return storeError(err)
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		s.sessionsWG.Done()
		return err
	}

	ss := newSession(s, c, p)
	s.sessionsMu.Lock()
	s.sessions[ss.id] = ss
	if s.closing {
		ss.cancel()
	}
	s.sessionsMu.Unlock()

	go func() {
		defer s.sessionsWG.Done()
		defer c.Close(websocket.StatusInternalError, "the sky is falling")
		defer func() {
			s.sessionsMu.Lock()
			delete(s.sessions, ss.id)
			s.sessionsMu.Unlock()
		}()

		err := ss.run()
		if err != nil && !errors.Is(err, context.Canceled) && websocket.CloseStatus(err) == -1 {
			log.Warn(ss.ctx, "session ended", slog.Error(err))
		}
	}()
	return nil
}

func newSession(s *Server, c *websocket.Conn, p *sfstore.Project) *session {
	id := uuid.NewString()
	ctx, cancel := context.WithTimeout(s.ctx, time.Hour*12)
	ctx = log.Fields(ctx, slog.F("session", id), slog.F("project", p.ID))

	ss := &session{
		ctx:       ctx,
		cancel:    cancel,
		id:        id,
		s:         s,
		c:         c,
		projectID: p.ID,
		sched:     &sfcanvas.ManualScheduler{},
	}
	ss.load(p)
	return ss
}

// load replaces the session's project with p, discarding local history.
func (ss *session) load(p *sfstore.Project) {
	var vp *sfcanvas.Viewport
	if ss.canvas != nil {
		vp = go2.Pointer(ss.canvas.Viewport())
		ss.canvas.Close()
	}
	ss.stored = p.Version
	ss.project = sfedit.New(ss.ctx, p.View)
	ss.saved = ss.project.Version()
	ss.canvas = sfcanvas.New(ss.ctx, ss.project, ss.sched)
	if vp != nil {
		ss.canvas.SetViewport(*vp)
	}
	ss.sync()
}

func (ss *session) sync() {
	ss.canvas.SetProps(ss.project.Props())
}

func (ss *session) run() error {
	defer ss.cancel()
	defer func() {
		ss.canvas.Close()
	}()

	msgs := make(chan Message)
	readErr := make(chan error, 1)
	go func() {
		defer close(msgs)
		for {
			var m Message
			err := wsjson.Read(ss.ctx, ss.c, &m)
			if err != nil {
				readErr <- err
				return
			}
			select {
			case msgs <- m:
			case <-ss.ctx.Done():
				readErr <- ss.ctx.Err()
				return
			}
		}
	}()
	go heartbeat(ss.ctx, ss.c)

	ticker := time.NewTicker(ss.s.opts.FrameInterval)
	defer ticker.Stop()

	err := ss.write()
	if err != nil {
		return err
	}
	for {
		select {
		case m, ok := <-msgs:
			if !ok {
				ss.persist()
				return <-readErr
			}
			err := ss.handle(m)
			if err != nil {
				ss.err = err
			}
		case now := <-ticker.C:
			if ss.sched.Pending() == 0 {
				continue
			}
			ss.sched.Flush(now)
		case <-ss.ctx.Done():
			ss.persist()
			ss.c.Close(websocket.StatusGoingAway, "server shutting down...")
			return ss.ctx.Err()
		}
		ss.sync()
		ss.persist()
		err := ss.write()
		if err != nil {
			return err
		}
	}
}

func (ss *session) handle(m Message) error {
	switch m.Type {
	case MsgPointerDown, MsgPointerMove, MsgPointerUp, MsgPointerCancel, MsgDoubleClick:
		if m.Pointer == nil {
			return fmt.Errorf("%s without pointer", m.Type)
		}
		ev := *m.Pointer
		if ev.Time.IsZero() {
			ev.Time = time.Now()
		}
		switch m.Type {
		case MsgPointerDown:
			ss.canvas.PointerDown(ev)
		case MsgPointerMove:
			ss.canvas.PointerMove(ev)
		case MsgPointerUp:
			ss.canvas.PointerUp(ev)
		case MsgPointerCancel:
			ss.canvas.PointerCancel(ev)
		case MsgDoubleClick:
			ss.canvas.DoubleClick(ev)
		}
	case MsgWheel:
		if m.Wheel == nil {
			return errors.New("wheel without event")
		}
		ss.canvas.Wheel(*m.Wheel)
	case MsgKey:
		ss.canvas.KeyDown(m.Key)
	case MsgTool:
		t, err := sfcanvas.ToolFromString(m.Tool)
		if err != nil {
			return err
		}
		ss.project.SetTool(t)
	case MsgCommitName:
		ss.canvas.CommitName(m.Name)
	case MsgCancelName:
		ss.canvas.CancelName()
	case MsgResize:
		ss.canvas.SetSize(m.Width, m.Height)
	case MsgUndo:
		ss.project.Undo()
	case MsgRedo:
		ss.project.Redo()
	default:
		return fmt.Errorf("unknown message type %q", m.Type)
	}
	return nil
}

// persist saves the project if it changed since the last save. A conflicting
// write elsewhere wins and the session reloads it.
func (ss *session) persist() {
	if ss.project.Version() == ss.saved {
		return
	}
	ctx, cancel := context.WithTimeout(xcontext.WithoutCancel(ss.ctx), time.Second*10)
	defer cancel()

	stored, err := ss.s.store.Save(ctx, ss.projectID, ss.project.View(), ss.stored)
	if err == nil {
		ss.stored = stored
		ss.saved = ss.project.Version()
		return
	}
	log.Warn(ss.ctx, "failed to persist edit", slog.Error(err))
	ss.err = err
	if !errors.Is(err, sfstore.ErrConflict) {
		return
	}
	p, err := ss.s.store.Get(ctx, ss.projectID)
	if err != nil {
		ss.err = err
		return
	}
	ss.load(p)
}

func (ss *session) frame() (*Frame, error) {
	f := &Frame{
		Session:   ss.id,
		Version:   ss.project.Version(),
		Saved:     ss.stored,
		Selection: ss.canvas.Selection(),
		Tool:      ss.project.Tool().String(),
		State:     ss.canvas.State().String(),
		Viewport:  ss.canvas.Viewport(),
	}
	if ne, ok := ss.canvas.NameEdit(); ok {
		f.NameEdit = &ne
	}
	if el, ok := ss.project.Details(); ok {
		f.Details = el.GetUID()
	}
	if ss.err != nil {
		f.Err = ss.err.Error()
		ss.err = nil
	} else if err := ss.project.Err(); err != nil {
		f.Err = err.Error()
	}

	opts := &sfsvg.RenderOpts{
		Selection: f.Selection,
		NoXMLTag:  go2.Pointer(true),
	}
	if uid, ok := ss.canvas.Target(); ok {
		opts.Target = go2.Pointer(uid)
	}
	if r, ok := ss.canvas.SelectRect(); ok {
		opts.SelectRect = &r
	}
	if f.Viewport.Width > 0 && f.Viewport.Height > 0 {
		opts.ViewBox = go2.Pointer(f.Viewport.ViewBox())
	}
	svg, err := sfsvg.Render(ss.ctx, ss.canvas.Snapshot(), opts)
	if err != nil {
		return nil, err
	}
	f.SVG = string(svg)
	return f, nil
}

func (ss *session) write() error {
	f, err := ss.frame()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ss.ctx, time.Second*30)
	defer cancel()
	return wsjson.Write(ctx, ss.c, f)
}

func heartbeat(ctx context.Context, c *websocket.Conn) {
	t := time.NewTimer(0)
	<-t.C
	for {
		t.Reset(time.Second * 30)
		select {
		case <-t.C:
		case <-ctx.Done():
			return
		}
		err := c.Ping(ctx)
		if err != nil {
			return
		}
	}
}
