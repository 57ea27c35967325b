package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"promptvault/internal/ai"
	"promptvault/internal/service"
	"promptvault/internal/storage"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := storage.New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	promptRepo := storage.NewPromptRepo(db)
	versionRepo := storage.NewVersionRepo(db)
	tagRepo := storage.NewTagRepo(db)
	settingsRepo := storage.NewSettingsRepo(db)

	deps := &Deps{
		Prompts:  service.NewPrompts(promptRepo, versionRepo, tagRepo),
		Tags:     service.NewTags(tagRepo, promptRepo),
		Transfer: service.NewTransfer(promptRepo, versionRepo),
		Gateway:  ai.NewGateway(settingsRepo),
		Settings: settingsRepo,
	}

	server := httptest.NewServer(NewRouter(deps))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, url, err)
	}
	data, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func TestRouter_Health(t *testing.T) {
	server := testServer(t)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !bytes.Contains(body, []byte(`"ok"`)) {
		t.Errorf("body = %s", body)
	}
}

func TestRouter_PromptLifecycle(t *testing.T) {
	server := testServer(t)

	// Create.
	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/prompts",
		`{"title":"Code reviewer","description":"Reviews diffs","content":"Review this diff","tags":["coding/go"]}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", resp.StatusCode, body)
	}
	var created storage.Prompt
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode created prompt: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created prompt has no id")
	}

	// Edit the content; history must capture the superseded state.
	resp, body = doJSON(t, http.MethodPut, server.URL+"/api/prompts/"+created.ID,
		`{"title":"Code reviewer","description":"Reviews diffs","content":"Review this pull request","tags":["coding/go"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/prompts/"+created.ID+"/versions", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("versions status = %d", resp.StatusCode)
	}
	var versions []storage.Version
	if err := json.Unmarshal(body, &versions); err != nil {
		t.Fatalf("decode versions: %v", err)
	}
	if len(versions) != 1 || versions[0].Content != "Review this diff" {
		t.Errorf("versions = %+v, want one snapshot of the original content", versions)
	}

	// Use bumps the counter.
	resp, body = doJSON(t, http.MethodPost, server.URL+"/api/prompts/"+created.ID+"/use", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("use status = %d", resp.StatusCode)
	}
	var used storage.Prompt
	if err := json.Unmarshal(body, &used); err != nil {
		t.Fatalf("decode used prompt: %v", err)
	}
	if used.UsageCount != 1 {
		t.Errorf("usageCount = %d, want 1", used.UsageCount)
	}

	// Delete, then 404.
	resp, _ = doJSON(t, http.MethodDelete, server.URL+"/api/prompts/"+created.ID, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/prompts/"+created.ID, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", resp.StatusCode)
	}
}

func TestRouter_ListFilters(t *testing.T) {
	server := testServer(t)

	fixtures := []string{
		`{"title":"Go review","content":"review go code","tags":["coding/go"]}`,
		`{"title":"Essay helper","content":"improve the essay","tags":["writing"]}`,
	}
	for _, f := range fixtures {
		if resp, body := doJSON(t, http.MethodPost, server.URL+"/api/prompts", f); resp.StatusCode != http.StatusCreated {
			t.Fatalf("create status = %d, body = %s", resp.StatusCode, body)
		}
	}

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/prompts?tag=coding/go", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	var prompts []storage.Prompt
	if err := json.Unmarshal(body, &prompts); err != nil {
		t.Fatalf("decode prompts: %v", err)
	}
	if len(prompts) != 1 || prompts[0].Title != "Go review" {
		t.Errorf("filtered prompts = %+v", prompts)
	}

	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/prompts?q=nothing-matches", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	if !bytes.Equal(bytes.TrimSpace(body), []byte("[]")) {
		t.Errorf("empty result body = %s, want [], not null", body)
	}
}

func TestRouter_TagTreeAndAssignment(t *testing.T) {
	server := testServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/prompts",
		`{"title":"a","content":"body","tags":["coding/go"]}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	var prompt storage.Prompt
	if err := json.Unmarshal(body, &prompt); err != nil {
		t.Fatalf("decode prompt: %v", err)
	}

	// Assign one more tag, then assign it again.
	resp, body = doJSON(t, http.MethodPost, server.URL+"/api/prompts/"+prompt.ID+"/tags", `{"tag":"writing"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("assign status = %d, body = %s", resp.StatusCode, body)
	}
	var assign struct {
		Prompt storage.Prompt `json:"prompt"`
		Added  bool           `json:"added"`
	}
	if err := json.Unmarshal(body, &assign); err != nil {
		t.Fatalf("decode assign response: %v", err)
	}
	if !assign.Added || len(assign.Prompt.Tags) != 2 {
		t.Errorf("assign = %+v, want added with two tags", assign)
	}

	_, body = doJSON(t, http.MethodPost, server.URL+"/api/prompts/"+prompt.ID+"/tags", `{"tag":"writing"}`)
	if err := json.Unmarshal(body, &assign); err != nil {
		t.Fatalf("decode assign response: %v", err)
	}
	if assign.Added {
		t.Error("re-assign reported added = true, want false")
	}

	// The tree shows the hierarchy with counts.
	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/tags/tree", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("tree status = %d", resp.StatusCode)
	}
	var root struct {
		Count    int `json:"count"`
		Children []struct {
			Name     string `json:"name"`
			FullPath string `json:"fullPath"`
			Count    int    `json:"count"`
			Children []struct {
				Name  string `json:"name"`
				Count int    `json:"count"`
			} `json:"children"`
		} `json:"children"`
	}
	if err := json.Unmarshal(body, &root); err != nil {
		t.Fatalf("decode tree: %v", err)
	}
	if root.Count != 2 {
		t.Errorf("root count = %d, want 2 memberships", root.Count)
	}
	var foundGo bool
	for _, child := range root.Children {
		if child.Name == "coding" {
			for _, grand := range child.Children {
				if grand.Name == "go" && grand.Count == 1 {
					foundGo = true
				}
			}
		}
	}
	if !foundGo {
		t.Errorf("tree = %+v, want coding/go leaf with count 1", root)
	}
}

func TestRouter_ExportImport(t *testing.T) {
	server := testServer(t)

	if resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/prompts",
		`{"title":"Summarizer","content":"Summarize this"}`); resp.StatusCode != http.StatusCreated {
		t.Fatal("create failed")
	}

	resp, exported := doJSON(t, http.MethodGet, server.URL+"/api/export", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "prompts-export-") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	// Import into a second instance.
	dest := testServer(t)
	resp, body := doJSON(t, http.MethodPost, dest.URL+"/api/import", string(exported))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("import status = %d, body = %s", resp.StatusCode, body)
	}
	var result service.ImportResult
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("decode import result: %v", err)
	}
	if result.Prompts != 1 || result.Versions != 0 {
		t.Errorf("import result = %+v, want 1 prompt, 0 versions", result)
	}

	resp, _ = doJSON(t, http.MethodPost, dest.URL+"/api/import", `{"oops":true}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad import status = %d, want 400", resp.StatusCode)
	}
}

func TestRouter_Settings(t *testing.T) {
	server := testServer(t)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/settings/ai", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get settings status = %d", resp.StatusCode)
	}
	var cfg ai.Config
	if err := json.Unmarshal(body, &cfg); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if cfg.DefaultProvider != "" || cfg.Ollama.Endpoint != "http://localhost:11434" {
		t.Errorf("default settings = %+v", cfg)
	}

	cfg.DefaultProvider = ai.ProviderOllama
	payload, _ := json.Marshal(cfg)
	resp, _ = doJSON(t, http.MethodPut, server.URL+"/api/settings/ai", string(payload))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put settings status = %d", resp.StatusCode)
	}

	_, body = doJSON(t, http.MethodGet, server.URL+"/api/settings/ai", "")
	if err := json.Unmarshal(body, &cfg); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if cfg.DefaultProvider != ai.ProviderOllama {
		t.Errorf("DefaultProvider = %q after save, want ollama", cfg.DefaultProvider)
	}

	resp, _ = doJSON(t, http.MethodPut, server.URL+"/api/settings/ai", `{"defaultProvider":"skynet"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("put unknown provider status = %d, want 400", resp.StatusCode)
	}
}

func TestRouter_GenerateWithoutProviderFailsFast(t *testing.T) {
	server := testServer(t)

	// Nothing configured yet, so the gateway must reject before any network
	// call is attempted.
	start := time.Now()
	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/ai/generate", `{"description":"anything"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s, want 400", resp.StatusCode, body)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("rejection took %v, want immediate", elapsed)
	}
	if !bytes.Contains(body, []byte("no AI provider configured")) {
		t.Errorf("body = %s", body)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	server := testServer(t)

	req, err := http.NewRequest(http.MethodOptions, server.URL+"/api/prompts", nil)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight error = %v", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.Header.Get("Access-Control-Allow-Origin") == "" {
		t.Error("preflight response missing Access-Control-Allow-Origin")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		t.Errorf("preflight status = %d", resp.StatusCode)
	}
}

func TestRouter_PreviewRendersMarkdown(t *testing.T) {
	server := testServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/prompts",
		`{"title":"Doc helper","content":"# Heading\n\nSome **bold** instructions"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	var prompt storage.Prompt
	if err := json.Unmarshal(body, &prompt); err != nil {
		t.Fatalf("decode prompt: %v", err)
	}

	resp, page := doJSON(t, http.MethodGet, fmt.Sprintf("%s/prompts/%s/preview", server.URL, prompt.ID), "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("preview status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Content-Type = %q, want html", ct)
	}
	if !bytes.Contains(page, []byte("<h1")) || !bytes.Contains(page, []byte("<strong>bold</strong>")) {
		t.Errorf("preview page missing rendered markdown: %s", page)
	}
}
