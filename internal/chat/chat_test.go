package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tillfalko/interpolation-engine/internal/value"
)

func TestNormalizeURLAppendsPath(t *testing.T) {
	if got := normalizeURL("https://api.example.com"); got != "https://api.example.com/v1/chat/completions" {
		t.Errorf("got %q", got)
	}
	if got := normalizeURL("https://api.example.com/v1"); got != "https://api.example.com/v1/chat/completions" {
		t.Errorf("got %q", got)
	}
	if got := normalizeURL("https://api.example.com/v1/"); got != "https://api.example.com/v1/chat/completions" {
		t.Errorf("got %q", got)
	}
}

func TestBuildRequestBodyRenamesMaxCompletionTokens(t *testing.T) {
	ca := value.NewMap()
	ca.Set("max_completion_tokens", value.Int(100))
	args := Args{CompletionArgs: ca}
	body := buildRequestBody(args)
	if _, ok := body["max_completion_tokens"]; ok {
		t.Error("max_completion_tokens should have been renamed away")
	}
	if body["max_tokens"] != float64(100) {
		t.Errorf("got %v", body["max_tokens"])
	}
}

func TestBuildRequestBodyMergesExtraBody(t *testing.T) {
	extra := value.NewMap()
	extra.Set("top_k", value.Int(5))
	ca := value.NewMap()
	ca.Set("extra_body", value.MapV(extra))
	body := buildRequestBody(Args{CompletionArgs: ca})
	if _, ok := body["extra_body"]; ok {
		t.Error("extra_body should have been merged away")
	}
	if body["top_k"] != float64(5) {
		t.Errorf("got %v", body["top_k"])
	}
}

func TestRunStreamingDecodesSSEAndAppliesMarkers(t *testing.T) {
	const sse = "data: {\"choices\":[{\"delta\":{\"content\":\"pre \"}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"<<<ans\"}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"wer>>> post\"}}]}\n\n" +
		"data: [DONE]\n\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(sse))
	}))
	defer srv.Close()

	args := Args{
		Messages:    []Message{{Role: "user", Content: "hi"}},
		StartMarker: "<<<",
		StopMarker:  ">>>",
		N:           1,
		Shown:       true,
		Endpoint:    Endpoint{APIURL: srv.URL},
		HTTPClient:  srv.Client(),
	}
	var seen strings.Builder
	result, err := Run(context.Background(), args, func(chunk string) { seen.WriteString(chunk) })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Outputs) != 1 || result.Outputs[0] != "answer" {
		t.Errorf("got outputs %v", result.Outputs)
	}
	if seen.String() != "answer" {
		t.Errorf("onText saw %q, want %q", seen.String(), "answer")
	}
}

func TestRunSurfacesHTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("rate limited"))
	}))
	defer srv.Close()

	args := Args{
		Messages:   []Message{{Role: "user", Content: "hi"}},
		N:          1,
		Shown:      true,
		Endpoint:   Endpoint{APIURL: srv.URL},
		HTTPClient: srv.Client(),
	}
	_, err := Run(context.Background(), args, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	ce, ok := err.(*Error)
	if !ok || ce.Kind != ErrHTTPStatus || ce.Status != http.StatusTooManyRequests {
		t.Errorf("got %v", err)
	}
}

func TestRunRejectsMismatchedMarkers(t *testing.T) {
	args := Args{StartMarker: "<<<"}
	_, err := Run(context.Background(), args, nil)
	if err == nil {
		t.Fatal("expected validation error for lone start_marker")
	}
	if ce, ok := err.(*Error); !ok || ce.Kind != ErrValidation {
		t.Errorf("got %v", err)
	}
}

func TestRunChoicesModeParsesSchema(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"choice\":\"yes\"}"}}]}`))
	}))
	defer srv.Close()

	args := Args{
		Messages:    []Message{{Role: "user", Content: "pick"}},
		N:           1,
		ChoicesList: []string{"yes", "no"},
		Endpoint:    Endpoint{APIURL: srv.URL},
		HTTPClient:  srv.Client(),
	}
	result, err := Run(context.Background(), args, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Outputs) != 1 || result.Outputs[0] != "yes" {
		t.Errorf("got %v", result.Outputs)
	}
}

func TestRunStreamingFlagsContextOverflow(t *testing.T) {
	const sse = "data: {\"choices\":[{\"delta\":{\"content\":\"trunc\"},\"finish_reason\":\"length\"}]}\n\n" +
		"data: [DONE]\n\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sse))
	}))
	defer srv.Close()

	args := Args{
		Messages:   []Message{{Role: "user", Content: "hi"}},
		N:          1,
		Shown:      true,
		Endpoint:   Endpoint{APIURL: srv.URL},
		HTTPClient: srv.Client(),
	}
	_, err := Run(context.Background(), args, func(string) {})
	if err == nil {
		t.Fatal("expected context overflow error")
	}
	if ce, ok := err.(*Error); !ok || ce.Kind != ErrContextOverflow {
		t.Errorf("got %v", err)
	}
}
