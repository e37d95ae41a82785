package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kalambet/grimoire/internal/config"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"crystal not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

var ctx = context.Background()

const recordJSON = `{"core":{"id":"0f8c2c1e-aaaa-bbbb-cccc-000000000001","createdAt":"2026-01-02T03:04:05Z","confidenceScore":0.92,
"identity":{"name":"Amethyst","family":"Quartz","confidence":0.95},"visual":{"primaryColor":"Purple"},
"energy":{"primaryChakra":"Third Eye","chakraNumber":6},"astrology":{"primarySigns":["Pisces"]},
"numerology":{"nameNumber":3,"colorVibration":5,"chakraNumber":6,"masterNumber":5}},
"enrichment":{"mineralClass":"Silicate"},"userLink":{"ownerId":"user-1"}}`

func TestIdentifyImage(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/crystal/identify": recordJSON,
	})

	img := []byte("\x89PNG\r\n\x1a\nfake")
	path := filepath.Join(t.TempDir(), "stone.png")
	if err := os.WriteFile(path, img, 0o644); err != nil {
		t.Fatal(err)
	}

	rec, err := identifyImage(ctx, ts.client(), path, "user-1", `{"found_at":"beach"}`, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Core.Identity.Name != "Amethyst" {
		t.Errorf("name = %q, want Amethyst", rec.Core.Identity.Name)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	r := ts.requests[0]
	if r.Auth != "Bearer test-token" {
		t.Errorf("auth = %q", r.Auth)
	}

	var body map[string]any
	if err := json.Unmarshal([]byte(r.Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["image_data"] != base64.StdEncoding.EncodeToString(img) {
		t.Errorf("image_data = %v", body["image_data"])
	}
	if body["owner_id"] != "user-1" {
		t.Errorf("owner_id = %v, want user-1", body["owner_id"])
	}
	if body["save"] != true {
		t.Errorf("save = %v, want true", body["save"])
	}
	uc, _ := body["user_context"].(map[string]any)
	if uc["found_at"] != "beach" {
		t.Errorf("user_context = %v", body["user_context"])
	}
}

func TestIdentifyImage_BadContext(t *testing.T) {
	ts := newTestServer(t, nil)
	path := filepath.Join(t.TempDir(), "stone.png")
	os.WriteFile(path, []byte("x"), 0o644)

	_, err := identifyImage(ctx, ts.client(), path, "", "not json", false)
	if err == nil || !strings.Contains(err.Error(), "--context") {
		t.Errorf("err = %v, want --context error", err)
	}
	if len(ts.requests) != 0 {
		t.Errorf("expected no request, got %d", len(ts.requests))
	}
}

func TestIdentifyImage_MissingFile(t *testing.T) {
	ts := newTestServer(t, nil)
	if _, err := identifyImage(ctx, ts.client(), filepath.Join(t.TempDir(), "nope.png"), "", "", false); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestListCrystals(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/crystals": "[" + recordJSON + "]",
	})

	recs, err := listCrystals(ctx, ts.client(), "user 1", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 || recs[0].Core.Identity.Name != "Amethyst" {
		t.Errorf("recs = %+v", recs)
	}

	got := ts.requests[0].Path
	if !strings.Contains(got, "owner_id=user+1") || !strings.Contains(got, "limit=5") {
		t.Errorf("path = %q, want encoded owner_id and limit", got)
	}
}

func TestShowCrystal_NotFound(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := ts.client().get(ctx, "/api/crystals/missing")
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}
	var result any
	err = decodeJSON(resp, &result)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if err.Error() != "server returned 404: crystal not found" {
		t.Errorf("error = %q", err.Error())
	}
}

func TestShowStatus(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/status": `{"status":"degraded","version":"1.2.3","vision":{"configured":false,"model":"gemini-2.5-flash"},"storage":{"reachable":true,"crystals":4},"colors":["red","blue"]}`,
	})

	old := noColor
	defer func() { noColor = old }()
	noColor = true

	var out bytes.Buffer
	if err := showStatus(ctx, ts.client(), &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := out.String()
	for _, want := range []string{"degraded (version 1.2.3)", "Vision: not configured", "Storage: reachable, 4 crystals", "Colors: 2 known"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestShowStatus_NotRunning(t *testing.T) {
	ts := newTestServer(t, nil)
	client := ts.client()
	ts.server.Close()

	err := showStatus(ctx, client, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for stopped server")
	}
	if !strings.Contains(err.Error(), "not reachable") {
		t.Errorf("error = %q, want it to mention 'not reachable'", err.Error())
	}
}

func TestAPIClientAuth(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /health": `{"status":"ok"}`,
	})

	client := ts.client()
	client.token = "my-secret-token"
	if _, err := client.get(ctx, "/health"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	client.token = ""
	if _, err := client.get(ctx, "/health"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ts.requests[0].Auth != "Bearer my-secret-token" {
		t.Errorf("auth = %q, want 'Bearer my-secret-token'", ts.requests[0].Auth)
	}
	if ts.requests[1].Auth != "" {
		t.Errorf("auth without token = %q, want empty", ts.requests[1].Auth)
	}
}

func TestNumerologyCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"numerology", "Clear", "Quartz"})
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	}()

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// C3 L3 E5 A1 R9 Q8 U3 A1 R9 T2 Z8 = 52 -> 7
	if got := strings.TrimSpace(out.String()); got != "Clear Quartz: 7" {
		t.Errorf("output = %q, want %q", got, "Clear Quartz: 7")
	}
}

func TestNormalizeCommand(t *testing.T) {
	raw := "```json\n" + `{"identification_details":{"stone_name":"Jasper","crystal_family":"Quartz"},"visual_characteristics":{"primary_color":"Red"}}` + "\n```"
	path := filepath.Join(t.TempDir(), "answer.txt")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"normalize", path, "--owner", "user-9"})
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	}()

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var rec struct {
		Core struct {
			Identity   struct{ Name string }
			Numerology struct{ NameNumber int }
			Energy     struct{ PrimaryChakra string }
		}
		UserLink struct{ OwnerID string }
	}
	if err := json.Unmarshal(out.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if rec.Core.Identity.Name != "Jasper" {
		t.Errorf("name = %q", rec.Core.Identity.Name)
	}
	if rec.Core.Numerology.NameNumber != 6 {
		t.Errorf("name number = %d, want 6", rec.Core.Numerology.NameNumber)
	}
	if rec.Core.Energy.PrimaryChakra != "root" {
		t.Errorf("chakra = %q, want root", rec.Core.Energy.PrimaryChakra)
	}
	if rec.UserLink.OwnerID != "user-9" {
		t.Errorf("owner = %q, want user-9", rec.UserLink.OwnerID)
	}
}

func TestNormalizeText_Malformed(t *testing.T) {
	if _, err := normalizeText("sorry, I can't tell", ""); err == nil {
		t.Fatal("expected error for non-JSON answer")
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := colorize(colorGreen, "test message")
	if strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}
	if result != "test message" {
		t.Errorf("result = %q, want %q", result, "test message")
	}

	noColor = false
	result = colorize(colorGreen, "test message")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0f8c2c1e-aaaa"); got != "0f8c2c1e" {
		t.Errorf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID = %q", got)
	}
}

func TestConfigShowAll(t *testing.T) {
	cfg := config.Config{}
	cfg.Server.Port = 4000
	cfg.Vision.Model = "gemini-test"
	cfg.Vision.APIKey = "secret-key"

	keys := config.ShowAll(cfg)
	if len(keys) == 0 {
		t.Fatal("expected non-empty keys from ShowAll")
	}

	found := false
	for _, k := range keys {
		if k.Key == "server.port" && k.Value == "4000" {
			found = true
		}
		if strings.Contains(k.Value, "secret-key") {
			t.Errorf("secret leaked in %s", k.Key)
		}
	}
	if !found {
		t.Error("expected to find server.port=4000 in ShowAll output")
	}
}
