package httpx

import (
	"context"
	"io"
	"net/http"
	"time"
)

const healthResponse = `{"status":"ok"}`

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

// Ping calls f.
func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// healthHandler returns 200 when every dependency answers, 503 otherwise.
func healthHandler(deps ...Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for _, d := range deps {
			if d == nil {
				continue
			}
			if err := d.Ping(ctx); err != nil {
				WriteError(w, ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: "unhealthy", Err: err})
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		if _, err := io.WriteString(w, healthResponse); err != nil {
			// Nothing more to do if the client connection is gone.
			return
		}
	}
}
