package xhttp

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"golang.org/x/text/message"

	"oss.terrastruct.com/cmdlog"
)

// statusWriter records the status and size of a response for Log. It passes
// hijacking through so websocket upgrades work behind Log.
type statusWriter struct {
	http.ResponseWriter

	status   int
	length   int
	hijacked bool
}

var (
	_ http.Hijacker         = &statusWriter{}
	_ http.Flusher          = &statusWriter{}
	_ writtenResponseWriter = &statusWriter{}
)

func (sw *statusWriter) WriteHeader(code int) {
	if sw.status == 0 {
		sw.status = code
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(p []byte) (int, error) {
	if sw.status == 0 && len(p) > 0 {
		sw.status = http.StatusOK
	}
	n, err := sw.ResponseWriter.Write(p)
	sw.length += n
	return n, err
}

func (sw *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := sw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("%T cannot be hijacked", sw.ResponseWriter)
	}
	conn, brw, err := hj.Hijack()
	if err == nil {
		sw.hijacked = true
	}
	return conn, brw, err
}

func (sw *statusWriter) Flush() {
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sw *statusWriter) Written() bool {
	return sw.status != 0 || sw.hijacked
}

// Log logs one line per request with the matched route, status, size and
// duration. Panics in next become a 500 unless a response was already started.
func Log(clog *cmdlog.Logger, next http.Handler) http.Handler {
	en := message.NewPrinter(message.MatchLanguage("en"))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w}
		start := time.Now()
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			clog.Error.Printf("%s: caught panic: %#v\n%s", requestLine(r), rec, debug.Stack())
			if !sw.Written() {
				JSON(clog, sw, http.StatusInternalServerError, map[string]interface{}{
					"error": http.StatusText(http.StatusInternalServerError),
				})
			}
		}()

		next.ServeHTTP(sw, r)
		dur := time.Since(start).Round(time.Microsecond)

		switch {
		case sw.hijacked:
			clog.Success.Printf("%s: upgraded after %v", requestLine(r), dur)
		case sw.status == 0:
			clog.Warn.Printf("%s: no response written after %v", requestLine(r), dur)
		default:
			statusLogger(clog, sw.status).Printf("%s %d %sB %v", requestLine(r), sw.status, en.Sprint(sw.length), dur)
		}
	})
}

// requestLine is the method and URL, plus the mux pattern that matched when
// it differs from the path.
func requestLine(r *http.Request) string {
	line := r.Method + " " + r.URL.String()
	if r.Pattern != "" && r.Pattern != r.Method+" "+r.URL.Path {
		line += " [" + r.Pattern + "]"
	}
	return line
}

func statusLogger(clog *cmdlog.Logger, status int) *log.Logger {
	switch {
	case status < 300:
		return clog.Success
	case status < 400:
		return clog.Info
	case status < 500:
		return clog.Warn
	default:
		return clog.Error
	}
}
