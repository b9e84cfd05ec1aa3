package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"github.com/kbukum/authmaster/auth"
	"github.com/kbukum/authmaster/auth/basic"
	"github.com/kbukum/authmaster/logger"
	"github.com/kbukum/authmaster/server"
)

type envelopeBody struct {
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
}

func testConfig() auth.Config {
	return auth.Config{
		Enabled: true,
		Keys: []auth.KeyConfig{
			{Name: "adminToken", Secret: "admin-secret"},
			{Name: "userToken", Secret: "user-secret"},
			{Name: "otherToken", Secret: "other-secret"},
		},
		DefaultExpiresIn: "1h",
		BearerKeys:       []string{"adminToken", "userToken"},
	}
}

func newTestAPI(t *testing.T, cfg auth.Config) (*httptest.Server, *auth.Master) {
	t.Helper()
	m, err := auth.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}

	scfg := server.Config{}
	scfg.ApplyDefaults()
	s := server.New(scfg, logger.NewNop())
	gin.SetMode(gin.TestMode)

	a := New(m, &cfg, WithLogger(logger.NewNop()))
	a.Register(s)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		a.Sockets().Shutdown()
		ts.Close()
	})
	return ts, m
}

func call(t *testing.T, method, url string, body any, header http.Header) (int, envelopeBody) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()

	var env envelopeBody
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return resp.StatusCode, env
}

func issueToken(t *testing.T, m *auth.Master, keyName string, data any) string {
	t.Helper()
	res := m.Create(auth.IssueRequest{Data: data, KeyName: keyName})
	if !res.Success {
		t.Fatalf("issue failed: %s", res.Message)
	}
	return res.Data
}

func bearer(tok string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + tok}}
}

func TestIssueAndVerify(t *testing.T) {
	ts, _ := newTestAPI(t, testConfig())

	status, env := call(t, http.MethodPost, ts.URL+"/v1/tokens", map[string]any{
		"data":    map[string]any{"_id": "u1", "user_role": "admin"},
		"keyName": "adminToken",
	}, nil)
	if status != http.StatusOK || !env.Success || env.Code != "200" {
		t.Fatalf("issue: status %d, envelope %+v", status, env)
	}
	var tok string
	if err := json.Unmarshal(env.Data, &tok); err != nil || tok == "" {
		t.Fatalf("expected token string, got %s", env.Data)
	}

	status, env = call(t, http.MethodPost, ts.URL+"/v1/tokens/verify", map[string]any{
		"token": tok, "keyName": "adminToken",
	}, nil)
	if status != http.StatusOK || !env.Success {
		t.Fatalf("verify: status %d, envelope %+v", status, env)
	}
	var payload map[string]any
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	data, _ := payload["data"].(map[string]any)
	if data["_id"] != "u1" {
		t.Errorf("expected wrapped data, got %v", payload)
	}
	if _, ok := payload["exp"]; !ok {
		t.Error("expected default expiry to set exp")
	}

	status, env = call(t, http.MethodPost, ts.URL+"/v1/tokens/verify", map[string]any{
		"token": tok, "keyName": "userToken",
	}, nil)
	if status != http.StatusUnauthorized || env.Success || env.Code != "401" || string(env.Data) != "null" {
		t.Errorf("verify with another key: status %d, envelope %+v", status, env)
	}
}

func TestIssueErrors(t *testing.T) {
	ts, _ := newTestAPI(t, testConfig())

	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{"undefined key", map[string]any{"data": 1, "keyName": "missing"}, http.StatusInternalServerError},
		{"missing key name", map[string]any{"data": 1}, http.StatusBadRequest},
		{"bad expiry", map[string]any{"data": 1, "keyName": "adminToken", "expiresIn": "soon"}, http.StatusBadRequest},
		{"expiry seconds out of range", map[string]any{"data": 1, "keyName": "adminToken", "expiresIn": 1e19}, http.StatusBadRequest},
		{"expiry string out of range", map[string]any{"data": 1, "keyName": "adminToken", "expiresIn": "999999999999y"}, http.StatusBadRequest},
		{"not json", "not an object", http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, env := call(t, http.MethodPost, ts.URL+"/v1/tokens", tc.body, nil)
			if status != tc.wantStatus || env.Success {
				t.Errorf("status %d, envelope %+v", status, env)
			}
			if env.Code != strconv.Itoa(tc.wantStatus) || string(env.Data) != "null" {
				t.Errorf("unexpected envelope %+v", env)
			}
		})
	}
}

func TestParseBasic(t *testing.T) {
	ts, _ := newTestAPI(t, testConfig())

	status, env := call(t, http.MethodGet, ts.URL+"/v1/basic", nil,
		http.Header{"Authorization": []string{basic.Header("alice", "pa:ss")}})
	if status != http.StatusOK || !env.Success {
		t.Fatalf("status %d, envelope %+v", status, env)
	}
	var creds basic.Credentials
	if err := json.Unmarshal(env.Data, &creds); err != nil {
		t.Fatalf("decode credentials: %v", err)
	}
	if creds.Username != "alice" || creds.Password != "pa:ss" {
		t.Errorf("unexpected credentials %+v", creds)
	}

	status, env = call(t, http.MethodGet, ts.URL+"/v1/basic", nil, nil)
	if status != http.StatusBadRequest || env.Code != "400" {
		t.Errorf("missing header: status %d, envelope %+v", status, env)
	}
}

func TestBearerRoutes(t *testing.T) {
	ts, m := newTestAPI(t, testConfig())
	userTok := issueToken(t, m, "userToken", map[string]any{"user_id": "u7"})
	otherTok := issueToken(t, m, "otherToken", map[string]any{"user_id": "u8"})

	tests := []struct {
		name       string
		path       string
		header     http.Header
		wantStatus int
		wantUser   string
	}{
		{"me without token", "/v1/me", nil, http.StatusUnauthorized, ""},
		{"me with user token", "/v1/me", bearer(userTok), http.StatusOK, "userToken"},
		{"me with token for unlisted key", "/v1/me", bearer(otherTok), http.StatusUnauthorized, ""},
		{"me with raw token", "/v1/me", http.Header{"Authorization": []string{userTok}}, http.StatusOK, "userToken"},
		{"whoami without token", "/v1/whoami", nil, http.StatusOK, ""},
		{"whoami with garbage", "/v1/whoami", bearer("garbage"), http.StatusOK, ""},
		{"whoami with user token", "/v1/whoami", bearer(userTok), http.StatusOK, "userToken"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, env := call(t, http.MethodGet, ts.URL+tc.path, nil, tc.header)
			if status != tc.wantStatus {
				t.Fatalf("expected %d, got %d (%+v)", tc.wantStatus, status, env)
			}
			if status == http.StatusUnauthorized {
				if env.Message != "Unauthorized" || env.Code != "401" {
					t.Errorf("unexpected rejection body %+v", env)
				}
				return
			}
			if tc.wantUser == "" {
				var anon map[string]any
				if err := json.Unmarshal(env.Data, &anon); err != nil {
					t.Fatalf("decode anonymous marker: %v", err)
				}
				if !env.Success || anon["authenticated"] != false || len(anon) != 1 {
					t.Errorf("expected anonymous marker, got %s", env.Data)
				}
				return
			}
			var id map[string]any
			if err := json.Unmarshal(env.Data, &id); err != nil {
				t.Fatalf("decode identity: %v", err)
			}
			if id["tokenUser"] != tc.wantUser || id["user_id"] != "u7" {
				t.Errorf("unexpected identity %v", id)
			}
			if _, leaked := id["token"]; leaked {
				t.Error("identity must not echo the raw token")
			}
		})
	}
}

func TestBearerCookieAndQueryFallback(t *testing.T) {
	ts, m := newTestAPI(t, testConfig())
	tok := issueToken(t, m, "adminToken", map[string]any{"_id": "a1"})

	status, _ := call(t, http.MethodGet, ts.URL+"/v1/me?authMasterTokenBearer="+tok, nil, nil)
	if status != http.StatusOK {
		t.Errorf("query fallback: expected 200, got %d", status)
	}
	status, _ = call(t, http.MethodGet, ts.URL+"/v1/me", nil, http.Header{"Cookie": []string{"token=" + tok}})
	if status != http.StatusOK {
		t.Errorf("cookie fallback: expected 200, got %d", status)
	}
}

func withBasicUser(t *testing.T, cfg auth.Config, username, password string) auth.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	cfg.BasicUsers = []auth.BasicUser{{Username: username, Hash: string(hash)}}
	return cfg
}

func TestBasicMe(t *testing.T) {
	t.Run("without users any well-formed pair passes", func(t *testing.T) {
		ts, _ := newTestAPI(t, testConfig())
		status, env := call(t, http.MethodGet, ts.URL+"/v1/basic/me", nil,
			http.Header{"Authorization": []string{basic.Header("bob", "x")}})
		if status != http.StatusOK {
			t.Fatalf("expected 200, got %d", status)
		}
		var id map[string]any
		_ = json.Unmarshal(env.Data, &id)
		if id["tokenUser"] != basic.TokenUser {
			t.Errorf("unexpected identity %v", id)
		}

		status, _ = call(t, http.MethodGet, ts.URL+"/v1/basic/me", nil, nil)
		if status != http.StatusUnauthorized {
			t.Errorf("missing header: expected 401, got %d", status)
		}
	})

	t.Run("with users the password is checked", func(t *testing.T) {
		ts, _ := newTestAPI(t, withBasicUser(t, testConfig(), "alice", "wonderland"))

		status, _ := call(t, http.MethodGet, ts.URL+"/v1/basic/me", nil,
			http.Header{"Authorization": []string{basic.Header("alice", "wonderland")}})
		if status != http.StatusOK {
			t.Errorf("right password: expected 200, got %d", status)
		}
		status, _ = call(t, http.MethodGet, ts.URL+"/v1/basic/me", nil,
			http.Header{"Authorization": []string{basic.Header("alice", "nope")}})
		if status != http.StatusUnauthorized {
			t.Errorf("wrong password: expected 401, got %d", status)
		}
	})
}

func TestIssueGuardedByBasicUsers(t *testing.T) {
	ts, _ := newTestAPI(t, withBasicUser(t, testConfig(), "issuer", "s3cret"))
	body := map[string]any{"data": "x", "keyName": "userToken"}

	status, _ := call(t, http.MethodPost, ts.URL+"/v1/tokens", body, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401 without Basic credentials, got %d", status)
	}
	status, env := call(t, http.MethodPost, ts.URL+"/v1/tokens", body,
		http.Header{"Authorization": []string{basic.Header("issuer", "s3cret")}})
	if status != http.StatusOK || !env.Success {
		t.Errorf("expected issuance with Basic credentials, got %d %+v", status, env)
	}
}

func wsURL(ts *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path
}

func TestSocketEcho(t *testing.T) {
	ts, m := newTestAPI(t, testConfig())
	tok := issueToken(t, m, "adminToken", map[string]any{"_id": "a1"})

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws"), bearer(tok))
	if err != nil {
		t.Fatalf("dial failed: %v (resp %v)", err, resp)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]any{"ping": 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var reply struct {
		ID       string         `json:"id"`
		Identity map[string]any `json:"identity"`
		Message  map[string]any `json:"message"`
	}
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	if reply.ID == "" || reply.Message["ping"] != float64(1) {
		t.Errorf("unexpected echo %+v", reply)
	}
	if reply.Identity["tokenUser"] != "adminToken" || reply.Identity["_id"] != "a1" {
		t.Errorf("expected handshake identity, got %v", reply.Identity)
	}
	if _, ok := reply.Identity["query"]; !ok {
		t.Error("expected query on the request object")
	}
}

func TestSocketAnonymousAndRequired(t *testing.T) {
	t.Run("optional handshake connects without identity", func(t *testing.T) {
		ts, _ := newTestAPI(t, testConfig())
		conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws?room=1"), nil)
		if err != nil {
			t.Fatalf("dial failed: %v", err)
		}
		defer conn.Close()

		_ = conn.WriteJSON("hi")
		var reply struct {
			Identity map[string]any `json:"identity"`
		}
		if err := conn.ReadJSON(&reply); err != nil {
			t.Fatalf("read: %v", err)
		}
		if _, ok := reply.Identity["tokenUser"]; ok {
			t.Errorf("expected no identity fields, got %v", reply.Identity)
		}
	})

	t.Run("required handshake is refused", func(t *testing.T) {
		cfg := testConfig()
		cfg.Required = true
		ts, _ := newTestAPI(t, cfg)

		_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws"), bearer("garbage"))
		if err == nil {
			t.Fatal("expected handshake to fail")
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401 response, got %v", resp)
		}
		var env envelopeBody
		_ = json.NewDecoder(resp.Body).Decode(&env)
		resp.Body.Close()
		if env.Message != "authentication error: invalid token" {
			t.Errorf("unexpected rejection message %q", env.Message)
		}
	})
}

func TestHealthReportsAuth(t *testing.T) {
	cfg := testConfig()
	m, err := auth.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	scfg := server.Config{}
	scfg.ApplyDefaults()
	s := server.New(scfg, logger.NewNop())
	gin.SetMode(gin.TestMode)
	a := New(m, &cfg)
	a.Register(s)
	s.RegisterHealth("authmaster", "test", m, a.Sockets())

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"auth"`) || !strings.Contains(rr.Body.String(), `"socket"`) {
		t.Errorf("expected auth and socket components, got %s", rr.Body.String())
	}
}
