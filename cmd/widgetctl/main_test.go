package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const feedbackMessage = `{"user_defined":{"user_defined_type":"feedback_hub_widget","userInput":"q","aiResponse":"a","projectId":"p"}}`

func newTokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feedback-token" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-Session") == "bad" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"abc"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRenderCommand(t *testing.T) {
	srv := newTokenServer(t)

	tests := []struct {
		name    string
		stdin   string
		args    []string
		want    string
		wantErr bool
	}{
		{
			name:  "feedback url",
			stdin: feedbackMessage,
			args:  []string{"render", "--token-url", srv.URL, "-o", "url"},
			want:  "/feedback.html?auth_token=abc&project_id=p&question=q&answer=a\n",
		},
		{
			name:  "feedback json",
			stdin: feedbackMessage,
			args:  []string{"render", "--token-url", srv.URL},
			want:  `"state": "ready"`,
		},
		{
			name:  "plain message html is empty",
			stdin: `{"text":"hello"}`,
			args:  []string{"render", "--token-url", srv.URL, "-o", "html"},
			want:  "\n",
		},
		{
			name:    "token rejected leaves no url",
			stdin:   feedbackMessage,
			args:    []string{"render", "--token-url", srv.URL, "--header", "X-Session: bad", "-o", "url"},
			wantErr: true,
		},
		{
			name:    "bad header flag",
			stdin:   feedbackMessage,
			args:    []string{"render", "--token-url", srv.URL, "--header", "nocolon"},
			wantErr: true,
		},
		{
			name:    "unknown output",
			stdin:   feedbackMessage,
			args:    []string{"render", "-o", "yaml"},
			wantErr: true,
		},
		{
			name:    "malformed message",
			stdin:   `{`,
			args:    []string{"render", "--token-url", srv.URL},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := execute(t, tt.stdin, tt.args...)
			if tt.wantErr {
				if err == nil {
					t.Errorf("render expected error, got output %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("render unexpected error: %v", err)
			}
			if tt.want == "\n" {
				if got != tt.want {
					t.Errorf("render output = %q, want %q", got, tt.want)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("render output = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestTokenCommand(t *testing.T) {
	srv := newTokenServer(t)

	got, err := execute(t, "", "token", "--token-url", srv.URL)
	if err != nil {
		t.Fatalf("token unexpected error: %v", err)
	}
	if got != "abc\n" {
		t.Errorf("token output = %q, want %q", got, "abc\n")
	}

	if _, err := execute(t, "", "token", "--token-url", srv.URL, "--header", "X-Session: bad"); err == nil {
		t.Error("token with rejected session should fail")
	}
}

func TestTagsCommand(t *testing.T) {
	got, err := execute(t, "", "tags")
	if err != nil {
		t.Fatalf("tags unexpected error: %v", err)
	}
	if got != "feedback_hub_widget\nreference_docs_button\n" {
		t.Errorf("tags output = %q", got)
	}
}
