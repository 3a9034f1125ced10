package handler

import (
    "context"
    "encoding/json"
    "errors"
    "io"
    "net/http"
    "net/http/httptest"
    "strings"
    "sync"
    "sync/atomic"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

// fakeDB mimics the session provider: each probe takes a session and gives
// it back before returning.
type fakeDB struct {
    err   atomic.Value // *error returned by the probe
    open  atomic.Int64
    calls atomic.Int64
}

func (f *fakeDB) setErr(err error) { f.err.Store(&err) }

func (f *fakeDB) Probe(ctx context.Context) error {
    f.calls.Add(1)
    f.open.Add(1)
    defer f.open.Add(-1)
    if p, ok := f.err.Load().(*error); ok && *p != nil {
        return *p
    }
    return nil
}

func newEcho() *echo.Echo {
    e := echo.New()
    e.HTTPErrorHandler = NewErrorHandler(zerolog.Nop())
    return e
}

func serve(t *testing.T, e *echo.Echo, method, path string) (int, map[string]string) {
    t.Helper()
    req := httptest.NewRequest(method, path, nil)
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    var body map[string]string
    if rec.Body.Len() > 0 {
        require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    }
    return rec.Code, body
}

func TestRoot(t *testing.T) {
    e := newEcho()
    e.GET("/", Root)

    for i := 0; i < 3; i++ {
        code, body := serve(t, e, http.MethodGet, "/")
        assert.Equal(t, http.StatusOK, code)
        assert.Equal(t, map[string]string{"root": "welcome to Free-Flow SafeCollab API"}, body)
    }
}

func TestHealthOK(t *testing.T) {
    db := &fakeDB{}
    e := newEcho()
    e.GET("/health", NewHealthHandler(db).Health)

    code, body := serve(t, e, http.MethodGet, "/health")
    assert.Equal(t, http.StatusOK, code)
    assert.Equal(t, map[string]string{
        "api":       "running successfully",
        "db_status": "database connection successful",
    }, body)
    assert.Zero(t, db.open.Load())
}

func TestHealthDatabaseDown(t *testing.T) {
    db := &fakeDB{}
    db.setErr(errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"))
    e := newEcho()
    e.GET("/health", NewHealthHandler(db).Health)

    code, body := serve(t, e, http.MethodGet, "/health")
    assert.Equal(t, http.StatusInternalServerError, code)
    assert.Equal(t, "Database connection failed: dial tcp 127.0.0.1:5432: connect: connection refused", body["detail"])
    assert.Len(t, body, 1)
    assert.Zero(t, db.open.Load())
}

func TestHealthConcurrent(t *testing.T) {
    db := &fakeDB{}
    e := newEcho()
    e.GET("/health", NewHealthHandler(db).Health)
    srv := httptest.NewServer(e)
    defer srv.Close()

    const n = 50
    var wg sync.WaitGroup
    codes := make([]int, n)
    for i := 0; i < n; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            resp, err := http.Get(srv.URL + "/health")
            if err != nil {
                return
            }
            defer resp.Body.Close()
            _, _ = io.Copy(io.Discard, resp.Body)
            codes[i] = resp.StatusCode
        }(i)
    }
    wg.Wait()

    for i, code := range codes {
        assert.Equal(t, http.StatusOK, code, "request %d", i)
    }
    assert.Equal(t, int64(n), db.calls.Load())
    assert.Zero(t, db.open.Load())
}

func TestHealthFollowsReachabilityPerCall(t *testing.T) {
    db := &fakeDB{}
    e := newEcho()
    e.GET("/health", NewHealthHandler(db).Health)

    code, _ := serve(t, e, http.MethodGet, "/health")
    assert.Equal(t, http.StatusOK, code)

    db.setErr(errors.New("connection refused"))
    code, body := serve(t, e, http.MethodGet, "/health")
    assert.Equal(t, http.StatusInternalServerError, code)
    assert.True(t, strings.HasPrefix(body["detail"], "Database connection failed: "))

    db.setErr(nil)
    code, _ = serve(t, e, http.MethodGet, "/health")
    assert.Equal(t, http.StatusOK, code)
}

func TestNewHealthHandlerNil(t *testing.T) {
    assert.Panics(t, func() { NewHealthHandler(nil) })
}

func TestErrorHandlerNotFound(t *testing.T) {
    e := newEcho()
    e.GET("/", Root)

    code, body := serve(t, e, http.MethodGet, "/missing")
    assert.Equal(t, http.StatusNotFound, code)
    assert.Equal(t, map[string]string{"detail": "Not Found"}, body)
}

func TestErrorHandlerMethodNotAllowed(t *testing.T) {
    e := newEcho()
    e.GET("/", Root)

    code, body := serve(t, e, http.MethodPost, "/")
    assert.Equal(t, http.StatusMethodNotAllowed, code)
    assert.Equal(t, "Method Not Allowed", body["detail"])
}

func TestErrorHandlerPlainErrorIsOpaque(t *testing.T) {
    e := newEcho()
    e.GET("/boom", func(c echo.Context) error { return errors.New("secret internals") })

    code, body := serve(t, e, http.MethodGet, "/boom")
    assert.Equal(t, http.StatusInternalServerError, code)
    assert.Equal(t, "Internal Server Error", body["detail"])
}
