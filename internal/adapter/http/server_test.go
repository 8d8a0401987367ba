package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/shore-hazard-service/internal/adapter/http"
	"github.com/couchcryptid/shore-hazard-service/internal/dashboard"
	"github.com/couchcryptid/shore-hazard-service/internal/domain"
	"github.com/couchcryptid/shore-hazard-service/internal/session"
	"github.com/couchcryptid/shore-hazard-service/internal/store"
	"github.com/couchcryptid/shore-hazard-service/internal/submit"
	"github.com/couchcryptid/shore-hazard-service/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type testEnv struct {
	srv    *httpadapter.Server
	ledger *dashboard.Ledger
}

func newTestEnv(t *testing.T, readyErr error) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ledger := dashboard.NewLedger(100, nil)
	svc := submit.New(submit.NewSimulatedSink(0, nil, logger), logger, nil, submit.WithRecorder(ledger))
	sessions := session.NewManager(store.NewMemory(), "test-secret", logger, session.WithLoginDelay(0))
	registry := wizard.NewRegistry(svc, logger, wizard.RegistryConfig{MaxPerOwner: 3}, wizard.WithProgressInterval(time.Millisecond))
	t.Cleanup(registry.CloseAll)

	srv := httpadapter.NewServer(":0", httpadapter.Deps{
		Sessions:    sessions,
		Wizards:     registry,
		Ledger:      ledger,
		Social:      dashboard.NewMockSocialFeed(nil),
		Ready:       &mockReadiness{err: readyErr},
		CORSOrigins: []string{"http://localhost:3000"},
	}, logger)
	return &testEnv{srv: srv, ledger: ledger}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T, email string) (string, domain.Identity) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/session/login", "", map[string]string{"email": email, "password": "x"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Token    string          `json:"token"`
		Identity domain.Identity `json:"identity"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	return body.Token, body.Identity
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) wizard.Snapshot {
	t.Helper()
	var snap wizard.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap), rec.Body.String())
	return snap
}

func decodeErrorSnapshot(t *testing.T, rec *httptest.ResponseRecorder) (string, wizard.Snapshot) {
	t.Helper()
	var body struct {
		Error  string          `json:"error"`
		Wizard wizard.Snapshot `json:"wizard"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error, body.Wizard
}

func (e *testEnv) openWizard(t *testing.T, token string) wizard.Snapshot {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/wizards", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	return decodeSnapshot(t, rec)
}

func (e *testEnv) setField(t *testing.T, token, id, path string, value any) {
	t.Helper()
	rec := e.do(t, http.MethodPatch, "/api/wizards/"+id+"/fields", token, map[string]any{"path": path, "value": value})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHealthzReturns200(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	env := newTestEnv(t, fmt.Errorf("not ready yet"))
	rec := env.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestLogin_DerivesRole(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		email string
		role  domain.Role
	}{
		{"a@gov.example", domain.RoleOfficial},
		{"a@research.com", domain.RoleAnalyst},
		{"a@example.com", domain.RoleCitizen},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			_, identity := env.login(t, tt.email)
			assert.Equal(t, tt.role, identity.Role)
		})
	}
}

func TestLogin_RequiresFields(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/session/login", "", map[string]string{"email": "a@example.com"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSession_RestoreAndLogout(t *testing.T) {
	env := newTestEnv(t, nil)
	token, identity := env.login(t, "jane.doe@example.com")

	rec := env.do(t, http.MethodGet, "/api/session", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Identity domain.Identity `json:"identity"`
		Language string          `json:"language"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, identity, body.Identity)
	assert.Equal(t, "Jane Doe", body.Identity.Name)
	assert.Equal(t, "en", body.Language)

	w := env.openWizard(t, token)

	rec = env.do(t, http.MethodPost, "/api/session/logout", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/session", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token2, _ := env.login(t, "jane.doe@example.com")
	rec = env.do(t, http.MethodGet, "/api/wizards/"+w.ID, token2, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "logout closes open wizards")
}

func TestSession_MissingOrBadToken(t *testing.T) {
	env := newTestEnv(t, nil)

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/session", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/session", "not-a-jwt", nil).Code)
}

func TestLanguage(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.login(t, "a@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/session/language", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept-Language", "ta-IN,ta;q=0.9,en;q=0.5")
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"language":"ta"}`, rec.Body.String())

	rec = env.do(t, http.MethodPut, "/api/session/language", token, map[string]string{"language": "hi"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/session/language", token, nil)
	assert.JSONEq(t, `{"language":"hi"}`, rec.Body.String())

	rec = env.do(t, http.MethodPut, "/api/session/language", token, map[string]string{"language": "fr"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestWizard_FullFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	token, identity := env.login(t, "jane.doe@example.com")

	snap := env.openWizard(t, token)
	assert.Equal(t, wizard.StepDetails, snap.Step)
	assert.Equal(t, "Jane Doe", snap.Draft.ContactInfo.Name)
	id := snap.ID

	env.setField(t, token, id, "type", "Tsunami Warning")
	env.setField(t, token, id, "severity", "critical")
	env.setField(t, token, id, "description", "x")
	rec := env.do(t, http.MethodPost, "/api/wizards/"+id+"/next", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/wizards/"+id+"/location/device", token,
		map[string]float64{"latitude": 13.05, "longitude": 80.2824})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Lat: 13.0500, Lng: 80.2824", decodeSnapshot(t, rec).Draft.Location.Address)

	rec = env.do(t, http.MethodPost, "/api/wizards/"+id+"/next", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/wizards/"+id+"/submit", token, nil)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var done wizard.Snapshot
	require.Eventually(t, func() bool {
		done = decodeSnapshot(t, env.do(t, http.MethodGet, "/api/wizards/"+id, token, nil))
		return done.Step == wizard.StepComplete
	}, 2*time.Second, 5*time.Millisecond)

	require.NotNil(t, done.Receipt)
	assert.Equal(t, "Under Review", done.Receipt.Status)
	assert.Equal(t, domain.SeverityCritical, done.Receipt.Severity)
	assert.Equal(t, 100, done.Progress)

	rec = env.do(t, http.MethodGet, "/api/views/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dash dashboard.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	assert.Equal(t, identity.ID, dash.Identity.ID)
	require.Len(t, dash.Recent, 1)
	assert.Equal(t, done.Receipt.ReportID, dash.Recent[0].ReportID)

	rec = env.do(t, http.MethodGet, "/api/views/map", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"radius_meters":50000`)

	rec = env.do(t, http.MethodPost, "/api/wizards/"+id+"/reset", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	reset := decodeSnapshot(t, rec)
	assert.Equal(t, wizard.StepDetails, reset.Step)
	assert.Equal(t, domain.NewDraft(identity), reset.Draft)
}

func TestWizard_GuardFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.login(t, "a@example.com")
	id := env.openWizard(t, token).ID

	env.setField(t, token, id, "type", "Rip Current")
	rec := env.do(t, http.MethodPost, "/api/wizards/"+id+"/next", token, nil)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	msg, snap := decodeErrorSnapshot(t, rec)
	assert.Contains(t, msg, "description")
	assert.Equal(t, wizard.StepDetails, snap.Step)
}

func TestWizard_SetFieldErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.login(t, "a@example.com")
	id := env.openWizard(t, token).ID

	rec := env.do(t, http.MethodPatch, "/api/wizards/"+id+"/fields", token, map[string]any{"path": "nope", "value": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/wizards/"+id+"/fields", token, map[string]any{"path": "location.latitude", "value": 12.5})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 12.5, decodeSnapshot(t, rec).Draft.Location.Latitude, 1e-9)
}

func TestWizard_RejectsUnplottableCoordinates(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.login(t, "a@example.com")
	id := env.openWizard(t, token).ID
	env.setField(t, token, id, "location.latitude", 13.08)

	for _, tc := range []struct {
		path  string
		value any
	}{
		{"location.latitude", "NaN"},
		{"location.longitude", "+Inf"},
		{"location.latitude", 500},
		{"location.longitude", -181},
	} {
		rec := env.do(t, http.MethodPatch, "/api/wizards/"+id+"/fields", token, map[string]any{"path": tc.path, "value": tc.value})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, "%s=%v", tc.path, tc.value)
		_, snap := decodeErrorSnapshot(t, rec)
		assert.InDelta(t, 13.08, snap.Draft.Location.Latitude, 1e-9)
	}

	rec := env.do(t, http.MethodGet, "/api/wizards/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 13.08, decodeSnapshot(t, rec).Draft.Location.Latitude, 1e-9)
}

func TestWizard_OpenLimitPerCaller(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.login(t, "a@example.com")
	var last string
	for i := 0; i < 3; i++ {
		last = env.openWizard(t, token).ID
	}

	rec := env.do(t, http.MethodPost, "/api/wizards", token, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	other, _ := env.login(t, "b@example.com")
	env.openWizard(t, other)

	rec = env.do(t, http.MethodDelete, "/api/wizards/"+last, token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	env.openWizard(t, token)
}

func TestWizard_SubmitFromWrongStep(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.login(t, "a@example.com")
	id := env.openWizard(t, token).ID

	rec := env.do(t, http.MethodPost, "/api/wizards/"+id+"/submit", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestWizard_OwnedByCaller(t *testing.T) {
	env := newTestEnv(t, nil)
	owner, _ := env.login(t, "a@example.com")
	other, _ := env.login(t, "b@example.com")
	id := env.openWizard(t, owner).ID

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/wizards/"+id, other, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/api/wizards/"+id, other, nil).Code)
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/wizards/"+id, owner, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/wizards/"+id, owner, nil).Code)
}

func TestWizard_DeviceLocationDenied(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.login(t, "a@example.com")
	id := env.openWizard(t, token).ID
	env.setField(t, token, id, "location.address", "Marina Beach")

	rec := env.do(t, http.MethodPost, "/api/wizards/"+id+"/location/device", token, map[string]string{"error": "User denied Geolocation"})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	_, snap := decodeErrorSnapshot(t, rec)
	assert.Equal(t, "Marina Beach", snap.Draft.Location.Address)
}

func uploadMedia(t *testing.T, env *testEnv, token, id string, files map[string][]byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/wizards/"+id+"/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	return rec
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

func TestWizard_Media(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.login(t, "a@example.com")
	id := env.openWizard(t, token).ID

	rec := uploadMedia(t, env, token, id, map[string][]byte{"wave.png": pngBytes})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap := decodeSnapshot(t, rec)
	require.Len(t, snap.Draft.Media, 1)
	assert.Equal(t, domain.MediaRef{Name: "wave.png", ContentType: "image/png", Size: int64(len(pngBytes))}, snap.Draft.Media[0])

	rec = uploadMedia(t, env, token, id, map[string][]byte{"notes.txt": []byte("just some text")})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	_, snap = decodeErrorSnapshot(t, rec)
	assert.Len(t, snap.Draft.Media, 1)

	rec = env.do(t, http.MethodDelete, "/api/wizards/"+id+"/media/3", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/wizards/"+id+"/media/0", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeSnapshot(t, rec).Draft.Media)
}

func TestViews_AnalyticsGuard(t *testing.T) {
	env := newTestEnv(t, nil)
	citizen, _ := env.login(t, "a@example.com")
	analyst, _ := env.login(t, "a@research.com")
	official, _ := env.login(t, "a@gov.example")

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/views/analytics", citizen, nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/views/analytics", analyst, nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/views/analytics", official, nil).Code)

	for _, token := range []string{citizen, analyst, official} {
		assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/views/dashboard", token, nil).Code)
		assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/views/map", token, nil).Code)
	}

	rec := env.do(t, http.MethodGet, "/api/views/dashboard", official, nil)
	var dash dashboard.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	assert.Equal(t, "official", string(dash.View))
	require.NotNil(t, dash.Stats)
}

func TestViews_AnalyticsSocialFilters(t *testing.T) {
	env := newTestEnv(t, nil)
	analyst, _ := env.login(t, "a@research.com")
	citizen, _ := env.login(t, "a@example.com")

	social := func(query string) dashboard.SocialInsights {
		t.Helper()
		rec := env.do(t, http.MethodGet, "/api/views/analytics"+query, analyst, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp struct {
			Social dashboard.SocialInsights `json:"social"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp.Social
	}

	all := social("")
	assert.Equal(t, "7d", all.Filter.Range)
	assert.Len(t, all.Posts, 5)
	assert.Len(t, all.Trends, 4)
	assert.Equal(t, 15200, all.Overview.TotalMentions)

	for _, p := range social("?platform=twitter").Posts {
		assert.Equal(t, dashboard.PlatformTwitter, p.Platform)
	}
	neg := social("?sentiment=negative&range=24h")
	assert.Len(t, neg.Posts, 2)
	assert.Equal(t, 2, neg.Sentiment[dashboard.SentimentNegative])
	assert.Equal(t, 0, neg.Sentiment[dashboard.SentimentPositive])
	assert.Len(t, social("?platform=all&range=90d").Posts, 6)

	for _, q := range []string{"?platform=myspace", "?sentiment=bogus", "?range=1y"} {
		rec := env.do(t, http.MethodGet, "/api/views/analytics"+q, analyst, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, q)
	}
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/views/analytics?platform=reddit", citizen, nil).Code)
}
