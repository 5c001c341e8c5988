package rest

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/dmitrijs2005/recipehub/internal/common"
	"github.com/dmitrijs2005/recipehub/internal/logging"
	"github.com/dmitrijs2005/recipehub/internal/server/auth"
	"github.com/dmitrijs2005/recipehub/internal/server/models"
)

type contextKey string

const (
	identityKey    contextKey = "identity"
	requestInfoKey contextKey = "request_info"
)

// requestInfo is filled by inner handlers and read by the logging
// middleware after the request completes.
type requestInfo struct {
	identity models.IdentityID
}

// IdentityFromContext returns the caller set by the session middleware.
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(auth.Identity)
	return id, ok && !id.ID.IsZero()
}

// ContextWithIdentity stores id as the request caller.
func ContextWithIdentity(ctx context.Context, id auth.Identity) context.Context {
	markCaller(ctx, id.ID)
	return context.WithValue(ctx, identityKey, id)
}

// markCaller attaches id to the request log line.
func markCaller(ctx context.Context, id models.IdentityID) {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		info.identity = id
	}
}

// ProfileVerifier turns a session token into claims.
type ProfileVerifier interface {
	Profile(token string) (*auth.Claims, error)
}

// requireSession rejects requests without a valid session cookie: 401 when
// the cookie is missing, 400 when the token is expired or invalid.
func requireSession(v ProfileVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := v.Profile(sessionToken(r))
			if err != nil {
				status, msg, _ := errorStatus(err)
				writeMessage(w, status, msg)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), claims.Identity())))
		})
	}
}

func sessionToken(r *http.Request) string {
	c, err := r.Cookie(common.SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// requestLogger logs one line per request and reports it to rec.
func requestLogger(log logging.Logger, rec Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			info := &requestInfo{}
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r.WithContext(context.WithValue(r.Context(), requestInfoKey, info)))

			d := time.Since(start)
			rec.RecordHTTP(r.Method, sr.statusCode, d)

			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", sr.statusCode,
				"duration_ms", float64(d.Nanoseconds()) / float64(time.Millisecond),
			}
			if !info.identity.IsZero() {
				args = append(args, "user_id", info.identity.String())
			}

			switch {
			case sr.statusCode >= 500:
				log.Error(r.Context(), "http_request", args...)
			case sr.statusCode >= 400:
				log.Warn(r.Context(), "http_request", args...)
			default:
				log.Info(r.Context(), "http_request", args...)
			}
		})
	}
}

func recoverer(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}
					log.Error(r.Context(), "panic recovered",
						"panic", p,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					writeMessage(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// cors allows credentialed requests from a single origin.
func cors(allowedOrigin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowedOrigin != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
