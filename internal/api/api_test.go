package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"elevator-access-backend/config"
	"elevator-access-backend/internal/access"
	"elevator-access-backend/internal/auth"
	"elevator-access-backend/internal/building"
	"elevator-access-backend/internal/stats"
	"elevator-access-backend/internal/store"
	"elevator-access-backend/internal/store/storetest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	store  store.Store
	token  string
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			RateLimitPerSec: 1000,
			RateLimitBurst:  1000,
			CacheTTLSeconds: 30,
			CORSOrigins:     []string{"http://localhost:3000"},
		},
		Stats: config.StatsConfig{
			Location:            time.UTC,
			DefaultLookbackDays: 7,
			MaxLookbackDays:     365,
		},
	}
}

// newTestServer wires the full router on an in-memory database and signs
// up a resident of unit 201.
func newTestServer(t *testing.T, opts ...func(*Deps)) *testServer {
	t.Helper()
	_, s := storetest.New(t)
	cfg := testConfig()
	logger := zap.NewNop()

	aggregator := stats.NewAggregator(s, cfg.Stats.Location)
	accounts := auth.NewAccounts(s, auth.NewTokens("test-secret", time.Hour), aggregator, 4, logger)
	deps := Deps{
		Store:      s,
		Accounts:   accounts,
		Authorizer: access.NewAuthorizer(s, logger),
		Stats:      aggregator,
		Building:   building.NewManager(s, logger),
		WebPush:    &webpush.Options{VAPIDPublicKey: "test-public-key"},
		Config:     cfg,
		Logger:     logger,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	ts := &testServer{
		router: NewRouter(NewHandler(deps), accounts, cfg, logger),
		store:  s,
	}
	w := ts.do(t, http.MethodPost, "/api/auth/register", map[string]any{
		"email":       "resident@example.com",
		"password":    "secret1",
		"name":        "Resident",
		"apartmentId": "apt-201",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sess struct {
		Token string `json:"token"`
	}
	decode(t, w, &sess)
	ts.token = sess.Token
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// mustField returns the raw JSON of one top-level field of the response.
func mustField(t *testing.T, w *httptest.ResponseRecorder, name string) json.RawMessage {
	t.Helper()
	var fields map[string]json.RawMessage
	decode(t, w, &fields)
	raw, ok := fields[name]
	require.True(t, ok, "missing field %q in %s", name, w.Body.String())
	return raw
}
