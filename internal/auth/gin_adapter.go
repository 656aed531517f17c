package auth

import (
	"bufio"
	"net"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"
)

// SessionLoadSave adapts scs's LoadAndSave middleware to gin. It loads the
// session identified by the request cookie into the request context and
// commits the session before response headers go out. Every session-aware
// handler runs behind it.
func (sm *SessionManager) SessionLoadSave() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if cookie, err := c.Request.Cookie(sm.Cookie.Name); err == nil {
			token = cookie.Value
		}

		ctx, err := sm.Load(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Request = c.Request.WithContext(ctx)

		// The cookie must be committed before the first header write, so
		// the writer is swapped for one that commits lazily.
		writer := &committingWriter{
			ResponseWriter: c.Writer,
			sm:             sm,
			request:        c.Request,
		}
		c.Writer = writer

		c.Next()

		// Handlers that produced no body never triggered a header write.
		if !writer.wroteHeader {
			writer.commitSession()
		}
	}
}

// committingWriter commits the session and writes its cookie immediately
// before the first header write of the response.
type committingWriter struct {
	gin.ResponseWriter
	sm          *SessionManager
	request     *http.Request
	wroteHeader bool
	committed   bool
}

func (w *committingWriter) WriteHeader(code int) {
	w.beforeHeader()
	w.ResponseWriter.WriteHeader(code)
}

func (w *committingWriter) WriteHeaderNow() {
	w.beforeHeader()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *committingWriter) Write(b []byte) (int, error) {
	w.beforeHeader()
	return w.ResponseWriter.Write(b)
}

func (w *committingWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return w.ResponseWriter.Hijack()
}

func (w *committingWriter) beforeHeader() {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.commitSession()
}

func (w *committingWriter) commitSession() {
	if w.committed {
		return
	}
	w.committed = true

	ctx := w.request.Context()
	switch w.sm.Status(ctx) {
	case scs.Modified:
		token, expiry, err := w.sm.Commit(ctx)
		if err != nil {
			return
		}
		w.sm.WriteSessionCookie(ctx, w.ResponseWriter, token, expiry)
	case scs.Destroyed:
		w.sm.WriteSessionCookie(ctx, w.ResponseWriter, "", time.Time{})
	}
}
