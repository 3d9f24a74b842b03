package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hackcrew/service_layer/internal/logging"
)

type recordedRequest struct {
	method string
	path   string
	query  map[string][]string
	header http.Header
	body   []byte
}

func newRecordingServer(t *testing.T, status int, response string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.Query(),
			header: r.Header.Clone(),
			body:   body,
		})
		w.WriteHeader(status)
		w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := New(Config{URL: url, APIKey: "service-key"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNew_RequiresURLAndKey(t *testing.T) {
	if _, err := New(Config{APIKey: "k"}); err == nil {
		t.Error("New() without URL should fail")
	}
	if _, err := New(Config{URL: "http://x"}); err == nil {
		t.Error("New() without APIKey should fail")
	}
}

func TestSelectBuildsPostgRESTQuery(t *testing.T) {
	server, requests := newRecordingServer(t, http.StatusOK, `[{"user_id":"u1"}]`)
	c := newTestClient(t, server.URL)

	ctx := logging.WithTraceID(context.Background(), "trace-42")
	var rows []map[string]string
	err := c.From("user_profiles").
		Select("user_id, full_name").
		In("user_id", []string{"u1", "u2"}).
		Eq("availability", "student").
		Order("created_at", false).
		Limit(5).
		ExecuteInto(ctx, &rows)
	if err != nil {
		t.Fatalf("ExecuteInto() error = %v", err)
	}

	if len(*requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(*requests))
	}
	req := (*requests)[0]
	if req.method != http.MethodGet || req.path != "/rest/v1/user_profiles" {
		t.Errorf("request = %s %s", req.method, req.path)
	}
	if got := req.query["user_id"][0]; got != `in.("u1","u2")` {
		t.Errorf("user_id filter = %s", got)
	}
	if got := req.query["availability"][0]; got != "eq.student" {
		t.Errorf("availability filter = %s", got)
	}
	if got := req.query["order"][0]; got != "created_at.desc" {
		t.Errorf("order = %s", got)
	}
	if got := req.query["limit"][0]; got != "5" {
		t.Errorf("limit = %s", got)
	}
	if req.header.Get("apikey") != "service-key" || req.header.Get("Authorization") != "Bearer service-key" {
		t.Errorf("auth headers = %v", req.header)
	}
	if req.header.Get("X-Request-ID") != "trace-42" {
		t.Errorf("X-Request-ID = %s, want trace-42", req.header.Get("X-Request-ID"))
	}
	if len(rows) != 1 || rows[0]["user_id"] != "u1" {
		t.Errorf("rows = %v", rows)
	}
}

func TestUpsertSetsMergeHeadersAndConflictTarget(t *testing.T) {
	server, requests := newRecordingServer(t, http.StatusCreated, `[{"project_id":"p1"}]`)
	c := newTestClient(t, server.URL)

	_, err := c.From("research_stage").
		Upsert(map[string]any{"project_id": "p1", "user_id": "u1"}, "project_id,user_id").
		Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	req := (*requests)[0]
	if req.method != http.MethodPost {
		t.Errorf("method = %s, want POST", req.method)
	}
	if got := req.header.Get("Prefer"); got != "resolution=merge-duplicates,return=representation" {
		t.Errorf("Prefer = %s", got)
	}
	if got := req.query["on_conflict"][0]; got != "project_id,user_id" {
		t.Errorf("on_conflict = %s", got)
	}
	var body map[string]string
	if err := json.Unmarshal(req.body, &body); err != nil || body["user_id"] != "u1" {
		t.Errorf("body = %s (%v)", req.body, err)
	}
}

func TestUpdateAndDeleteUseFilters(t *testing.T) {
	server, requests := newRecordingServer(t, http.StatusOK, `[]`)
	c := newTestClient(t, server.URL)
	ctx := context.Background()

	if _, err := c.From("user_projects").Update(map[string]string{"current_status": "PRD"}).Eq("project_id", "p1").Execute(ctx); err != nil {
		t.Fatalf("Update Execute() error = %v", err)
	}
	if _, err := c.From("project_db").Delete().Eq("id", "p1").Execute(ctx); err != nil {
		t.Fatalf("Delete Execute() error = %v", err)
	}

	if (*requests)[0].method != http.MethodPatch || (*requests)[0].query["project_id"][0] != "eq.p1" {
		t.Errorf("update request = %+v", (*requests)[0])
	}
	if (*requests)[1].method != http.MethodDelete || (*requests)[1].query["id"][0] != "eq.p1" {
		t.Errorf("delete request = %+v", (*requests)[1])
	}
}

func TestExecuteReturnsTypedError(t *testing.T) {
	server, _ := newRecordingServer(t, http.StatusNotAcceptable, `{"code":"PGRST116","message":"JSON object requested, multiple (or no) rows returned"}`)
	c := newTestClient(t, server.URL)

	_, err := c.From("project_db").Select("*").Eq("id", "missing").Single().Execute(context.Background())
	if err == nil {
		t.Fatal("Execute() error = nil, want *Error")
	}
	if !IsNoRows(err) {
		t.Errorf("IsNoRows(%v) = false", err)
	}

	server, _ = newRecordingServer(t, http.StatusConflict, `{"code":"23505","message":"duplicate key value"}`)
	c = newTestClient(t, server.URL)
	_, err = c.From("users").Insert(map[string]string{"email": "a@b.c"}).Execute(context.Background())
	if !IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = false", err)
	}
}

func TestSingleSetsObjectAccept(t *testing.T) {
	server, requests := newRecordingServer(t, http.StatusOK, `{"id":"p1"}`)
	c := newTestClient(t, server.URL)

	if _, err := c.From("project_db").Select("id").Eq("id", "p1").Single().Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := (*requests)[0].header.Get("Accept"); got != "application/vnd.pgrst.object+json" {
		t.Errorf("Accept = %s", got)
	}
}

func TestStorageUploadAndPublicURL(t *testing.T) {
	server, requests := newRecordingServer(t, http.StatusOK, `{"Key":"research-docs/user_docs/a.pdf"}`)
	c := newTestClient(t, server.URL)
	bucket := c.Storage().From("research-docs")

	if _, err := bucket.Upload(context.Background(), "user_docs/a.pdf", []byte("%PDF-1.4"), "application/pdf"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	req := (*requests)[0]
	if req.path != "/storage/v1/object/research-docs/user_docs/a.pdf" {
		t.Errorf("path = %s", req.path)
	}
	if req.header.Get("Content-Type") != "application/pdf" || req.header.Get("x-upsert") != "true" {
		t.Errorf("headers = %v", req.header)
	}
	if string(req.body) != "%PDF-1.4" {
		t.Errorf("body = %q", req.body)
	}

	want := server.URL + "/storage/v1/object/public/research-docs/user_docs/a.pdf"
	if got := bucket.GetPublicURL("user_docs/a.pdf"); got != want {
		t.Errorf("GetPublicURL() = %s, want %s", got, want)
	}
}

func TestObserverReceivesExchanges(t *testing.T) {
	server, _ := newRecordingServer(t, http.StatusOK, `[]`)
	var gotResource, gotMethod string
	var gotStatus int
	c, err := New(Config{URL: server.URL, APIKey: "k", Observer: func(resource, method string, status int, _ time.Duration) {
		gotResource, gotMethod, gotStatus = resource, method, status
	}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := c.From("team_db").Select("*").Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if gotResource != "team_db" || gotMethod != http.MethodGet || gotStatus != http.StatusOK {
		t.Errorf("observer got %s %s %d", gotResource, gotMethod, gotStatus)
	}
}
