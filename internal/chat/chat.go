// Package chat implements the streaming chat completion pipeline: it
// normalizes endpoint configuration, POSTs a streaming completion request
// to an OpenAI-compatible endpoint, decodes Server-Sent Events, and feeds
// every delta through an OutputFilter then an InvertedFilter before
// surfacing visible text. Grounded in the teacher's internal/llm HTTP and
// JSON conventions, generalized to streaming and to the filter pipeline.
package chat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tillfalko/interpolation-engine/internal/filter"
	"github.com/tillfalko/interpolation-engine/internal/value"
)

// ErrorKind distinguishes ChatError variants.
type ErrorKind int

const (
	ErrNetwork ErrorKind = iota
	ErrHTTPStatus
	ErrInvalidChoice
	ErrContextOverflow
	ErrValidation
)

type Error struct {
	Kind   ErrorKind
	Status int
	Body   string
	Msg    string
}

func (e *Error) Error() string { return e.Msg }

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Message is a single {role, content} chat turn.
type Message struct {
	Role    string
	Content string
}

// Endpoint carries the target completion endpoint's credentials and base
// URL, normalized once per run.
type Endpoint struct {
	APIURL string
	APIKey string
}

// RetryLimiter gates retry attempts; callers share one limiter across a run so
// a flurry of short-output retries doesn't hammer the endpoint.
var RetryLimiter = rate.NewLimiter(rate.Every(2*time.Second), 1)

// Args bundles a single run_chat invocation's inputs.
type Args struct {
	Messages        []Message
	CompletionArgs  *value.Map // merged completion_args + per-task overrides
	StartMarker     string
	StopMarker      string
	HideStart       string
	HideStop        string
	N               int
	Shown           bool
	Enumerate       bool
	ChoicesList     []string
	Endpoint        Endpoint
	HTTPClient      *http.Client
}

// Result is run_chat's return value.
type Result struct {
	Outputs       []string
	VisualOutput  string
	Raw           string
}

// OnText is invoked synchronously as visible text becomes available.
type OnText func(chunk string)

// Run executes the full run_chat pipeline described in the interpreter's
// chat streaming design: validation, URL normalization, parameter
// renaming, optional choices_list JSON-schema mode, SSE decode, and dual
// filter feed.
func Run(ctx context.Context, args Args, onText OnText) (Result, error) {
	if (args.StartMarker == "") != (args.StopMarker == "") {
		return Result{}, newError(ErrValidation, "start_marker and stop_marker must be both set or both empty")
	}
	if len(args.ChoicesList) > 0 {
		if args.StartMarker != "" || args.N != 1 {
			return Result{}, newError(ErrValidation, "choices_list forbids markers and requires N == 1")
		}
	}

	url := normalizeURL(args.Endpoint.APIURL)
	body := buildRequestBody(args)

	client := args.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 0}
	}

	reqBody, err := json.Marshal(body)
	if err != nil {
		return Result{}, newError(ErrValidation, "marshal request: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return Result{}, newError(ErrNetwork, "build request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+args.Endpoint.APIKey)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := client.Do(httpReq)
	if err != nil {
		return Result{}, newError(ErrNetwork, "%v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		e := &Error{Kind: ErrHTTPStatus, Status: resp.StatusCode, Body: buf.String()}
		e.Msg = fmt.Sprintf("chat endpoint returned status %d: %s", resp.StatusCode, buf.String())
		return Result{}, e
	}

	if len(args.ChoicesList) > 0 {
		return runChoicesMode(resp, args)
	}
	return runStreaming(ctx, resp, args, onText)
}

func normalizeURL(apiURL string) string {
	u := strings.TrimRight(apiURL, "/")
	if strings.HasSuffix(u, "/v1") {
		return u + "/chat/completions"
	}
	return u + "/v1/chat/completions"
}

func buildRequestBody(args Args) map[string]any {
	body := map[string]any{}
	if args.CompletionArgs != nil {
		for _, k := range args.CompletionArgs.Keys() {
			v, _ := args.CompletionArgs.Get(k)
			body[k] = toJSONAny(v)
		}
	}
	if mct, ok := body["max_completion_tokens"]; ok {
		body["max_tokens"] = mct
		delete(body, "max_completion_tokens")
	}
	if extra, ok := body["extra_body"]; ok {
		if m, ok := extra.(map[string]any); ok {
			for k, v := range m {
				body[k] = v
			}
		}
		delete(body, "extra_body")
	}

	msgs := make([]map[string]any, 0, len(args.Messages)+1)
	for _, m := range args.Messages {
		msgs = append(msgs, map[string]any{"role": m.Role, "content": m.Content})
	}

	if len(args.ChoicesList) > 0 {
		msgs = append(msgs, map[string]any{
			"role":    "user",
			"content": "Respond with strict JSON only, matching the schema, selecting exactly one choice.",
		})
		body["response_format"] = map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name": "choice",
				"schema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"choice": map[string]any{
							"type": "string",
							"enum": args.ChoicesList,
						},
					},
					"required": []string{"choice"},
				},
			},
		}
		body["stream"] = false
	} else {
		body["stream"] = true
	}
	body["messages"] = msgs
	return body
}

func toJSONAny(v value.Value) any {
	switch v.Kind() {
	case value.KindNull:
		return nil
	case value.KindBool:
		b, _ := v.Bool()
		return b
	case value.KindNumber:
		n, _ := v.Number()
		return n
	case value.KindString:
		s, _ := v.String()
		return s
	case value.KindSeq:
		items, _ := v.Seq()
		out := make([]any, len(items))
		for i, it := range items {
			out[i] = toJSONAny(it)
		}
		return out
	case value.KindMap:
		m, _ := v.Map()
		out := map[string]any{}
		for _, k := range m.Keys() {
			val, _ := m.Get(k)
			out[k] = toJSONAny(val)
		}
		return out
	}
	return nil
}

type choiceResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func runChoicesMode(resp *http.Response, args Args) (Result, error) {
	var cr choiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return Result{}, newError(ErrInvalidChoice, "decode choice response: %v", err)
	}
	if len(cr.Choices) == 0 {
		return Result{}, newError(ErrInvalidChoice, "choice response had no choices")
	}
	raw := cr.Choices[0].Message.Content
	var parsed struct {
		Choice string `json:"choice"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil || parsed.Choice == "" {
		return Result{}, newError(ErrInvalidChoice, "choice response missing \"choice\": %s", raw)
	}
	return Result{Outputs: []string{parsed.Choice}, VisualOutput: parsed.Choice, Raw: raw}, nil
}

type sseDelta struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

func runStreaming(ctx context.Context, resp *http.Response, args Args, onText OnText) (Result, error) {
	of := filter.NewOutputFilter(args.StartMarker, args.StopMarker, args.Enumerate)
	invf := filter.NewInvertedFilter(args.HideStart, args.HideStop)

	var raw strings.Builder
	var lengthFinish bool

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return Result{}, newError(ErrNetwork, "cancelled")
		default:
		}
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}
		if data == "" {
			continue
		}
		var delta sseDelta
		if err := json.Unmarshal([]byte(data), &delta); err != nil {
			continue
		}
		for _, c := range delta.Choices {
			raw.WriteString(c.Delta.Content)
			visible := of.Feed(c.Delta.Content)
			visible = invf.Feed(visible)
			if args.Shown && visible != "" && onText != nil {
				onText(visible)
			}
			if c.FinishReason != nil && *c.FinishReason == "length" {
				lengthFinish = true
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return Result{}, newError(ErrNetwork, "reading stream: %v", err)
	}

	if lengthFinish {
		return Result{Outputs: of.Outputs(), VisualOutput: invf.Visible(), Raw: raw.String()},
			newError(ErrContextOverflow, "completion hit context overflow (finish_reason=length)")
	}
	return Result{Outputs: of.Outputs(), VisualOutput: invf.Visible(), Raw: raw.String()}, nil
}
