package feedback

import (
	"errors"
	"net/url"
	"strings"
)

// EmbedPath is the same-origin document hosting the feedback surface.
const EmbedPath = "/feedback.html"

// Query parameter names understood by the embedded document.
const (
	QueryAuthToken = "auth_token"
	QueryProjectID = "project_id"
	QueryQuestion  = "question"
	QueryAnswer    = "answer"
)

// Sandbox is the capability grant for the embed frame. Top-level navigation,
// popups and plugins stay disabled.
const Sandbox = "allow-scripts allow-forms allow-same-origin"

// ErrEmptyToken is returned when an embed URL is requested without a token.
var ErrEmptyToken = errors.New("empty feedback token")

// BuildEmbedURL returns base?auth_token=..&project_id=..&question=..&answer=..
// Values are form-encoded and always emitted in that order.
func BuildEmbedURL(base, token string, p Params) (string, error) {
	if token == "" {
		return "", ErrEmptyToken
	}
	pairs := [][2]string{
		{QueryAuthToken, token},
		{QueryProjectID, p.ProjectID},
		{QueryQuestion, p.UserInput},
		{QueryAnswer, p.AIResponse},
	}

	var b strings.Builder
	b.WriteString(base)
	for i, kv := range pairs {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv[0]))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv[1]))
	}
	return b.String(), nil
}
