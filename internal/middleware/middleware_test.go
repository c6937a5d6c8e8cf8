package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/minefield/internal/config"
)

func whoami(w http.ResponseWriter, r *http.Request) {
	claims, ok := Claims(r.Context())
	if !ok {
		w.Write([]byte("anonymous"))
		return
	}
	w.Write([]byte(claims.Username))
}

func TestAuth(t *testing.T) {
	j := config.NewSecretJWT([]byte("secret"), time.Hour)
	token, err := j.Issue("Alex")
	require.NoError(t, err)
	h := Wrap(http.HandlerFunc(whoami), Auth(logrus.New(), j, nil))

	for name, tc := range map[string]struct {
		prepare func(r *http.Request)
		want    string
	}{
		"none":   {func(*http.Request) {}, "anonymous"},
		"header": {func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, "Alex"},
		"query": {func(r *http.Request) {
			q := r.URL.Query()
			q.Set("token", token)
			r.URL.RawQuery = q.Encode()
		}, "Alex"},
		"bad": {func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, "anonymous"},
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.prepare(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Body.String())
		})
	}
}

func TestRequireAuth(t *testing.T) {
	j := config.NewSecretJWT([]byte("secret"), time.Hour)
	h := Wrap(http.HandlerFunc(whoami), RequireAuth, Auth(logrus.New(), j, nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogging(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), Logging(logger))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/status", nil))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, http.StatusTeapot, entry.Data["status"])
	assert.Equal(t, "/v1/status", entry.Data["uri"])
}

func TestCors(t *testing.T) {
	h := Wrap(http.HandlerFunc(whoami), Cors([]string{"http://a.test"}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://a.test")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://a.test", rec.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
