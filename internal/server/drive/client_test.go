package drive

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/option"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), srv.Client(),
		option.WithEndpoint(srv.URL+"/"))
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	return c, srv
}

func TestCreate_UploadsContent(t *testing.T) {
	var gotMethod, gotPath, gotBody string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"remote-1"}`))
	}))

	id, err := c.Create(context.Background(), "note_1.txt", "hello drive")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if id != "remote-1" {
		t.Fatalf("id = %q, want remote-1", id)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", gotMethod)
	}
	if !strings.HasSuffix(gotPath, "/files") {
		t.Errorf("path = %q, want .../files", gotPath)
	}
	if !strings.Contains(gotBody, "hello drive") {
		t.Errorf("upload body does not contain note content")
	}
	if !strings.Contains(gotBody, "note_1.txt") {
		t.Errorf("upload body does not contain filename metadata")
	}
}

func TestUpdate_KeepsID(t *testing.T) {
	var gotMethod, gotPath string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"remote-1"}`))
	}))

	id, err := c.Update(context.Background(), "remote-1", "new content")
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if id != "remote-1" {
		t.Fatalf("id = %q, want remote-1", id)
	}
	if gotMethod != http.MethodPatch {
		t.Errorf("method = %s, want PATCH", gotMethod)
	}
	if !strings.HasSuffix(gotPath, "/files/remote-1") {
		t.Errorf("path = %q, want .../files/remote-1", gotPath)
	}
}

func TestDelete(t *testing.T) {
	var gotMethod, gotPath string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := c.Delete(context.Background(), "remote-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("method = %s, want DELETE", gotMethod)
	}
	if !strings.HasSuffix(gotPath, "/files/remote-1") {
		t.Errorf("path = %q, want .../files/remote-1", gotPath)
	}
}

func TestDelete_RemoteError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
	}))

	if err := c.Delete(context.Background(), "gone"); err == nil {
		t.Fatalf("expected error for missing remote file")
	}
}
