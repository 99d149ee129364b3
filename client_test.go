package corenetworkkit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vimo-ai/corenetworkkit/internal/orchestrator"
	"github.com/vimo-ai/corenetworkkit/pkg/request"
)

func TestNew_EmptyOptions(t *testing.T) {
	client, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if client.exec == nil {
		t.Fatal("expected a constructed executor")
	}
}

func TestClient_Do_SendsRequestAndReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	spec := request.Spec{Method: http.MethodGet, BaseURL: srv.URL, Path: "/widgets"}
	body, err := client.Do(context.Background(), spec, request.NewTaskConfig())
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("body = %q, want %q", body, "ok")
	}
}

func TestOrchestrate_CombinesTwoNodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.URL.Path))
	}))
	defer srv.Close()

	client, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	plan := orchestrator.Plan[string]{
		Nodes: []orchestrator.NodeSpec{
			{ID: "a", Request: request.Spec{Method: http.MethodGet, BaseURL: srv.URL, Path: "/a"}, Config: request.NewTaskConfig()},
			{ID: "b", Request: request.Spec{Method: http.MethodGet, BaseURL: srv.URL, Path: "/b"}, Config: request.NewTaskConfig(), DependsOn: []string{"a"}},
		},
		Transform: func(results map[string]orchestrator.Result) (string, error) {
			a, err := orchestrator.RequireBytes(results, "a")
			if err != nil {
				return "", err
			}
			b, err := orchestrator.RequireBytes(results, "b")
			if err != nil {
				return "", err
			}
			return string(a) + string(b), nil
		},
	}

	got, err := Orchestrate(context.Background(), client, plan, orchestrator.FailFast, orchestrator.Cascading)
	if err != nil {
		t.Fatalf("Orchestrate() error = %v", err)
	}
	if got != "/a/b" {
		t.Errorf("got %q, want %q", got, "/a/b")
	}
}
