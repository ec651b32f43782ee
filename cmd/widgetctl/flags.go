package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"chatwidgets/internal/config"
	"chatwidgets/internal/feedback"
)

// TokenFlags selects the token endpoint used by client commands.
type TokenFlags struct {
	TokenURL string
	Headers  []string
	Timeout  time.Duration
}

// NewTokenFlags takes defaults from TOKEN_ENDPOINT_URL and RENDER_TIMEOUT.
func NewTokenFlags() *TokenFlags {
	f := &TokenFlags{
		TokenURL: "http://localhost:9000",
		Timeout:  5 * time.Second,
	}
	if cfg, err := config.LoadClient(); err == nil {
		f.TokenURL = cfg.TokenEndpointURL
		f.Timeout = cfg.RenderTimeout
	}
	return f
}

func (f *TokenFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.TokenURL, "token-url", f.TokenURL, "Base URL of the API serving "+feedback.TokenPath)
	fs.StringArrayVar(&f.Headers, "header", f.Headers, "Extra request header for the token endpoint, as Key: Value (repeatable)")
	fs.DurationVar(&f.Timeout, "timeout", f.Timeout, "How long to wait for a feedback token")
}

// Client builds the token client described by the flags.
func (f *TokenFlags) Client() (*feedback.TokenClient, error) {
	var opts []feedback.TokenClientOption
	for _, h := range f.Headers {
		key, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid header %q, want Key: Value", h)
		}
		opts = append(opts, feedback.WithHeader(strings.TrimSpace(key), strings.TrimSpace(value)))
	}
	return feedback.NewTokenClient(f.TokenURL, opts...), nil
}
