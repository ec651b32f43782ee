package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"chatwidgets/internal/handlers"
	"chatwidgets/internal/service"
	"chatwidgets/internal/service/mocks"
	"chatwidgets/internal/tokens"
)

const testAdminKey = "admin-key"

func newTestRouter(t *testing.T, ctrl *gomock.Controller) (http.Handler, *mocks.MockFeedbackService, *mocks.MockRenderService) {
	t.Helper()
	issuer, err := tokens.NewIssuer("test-secret", time.Minute, "chatwidgets")
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}

	feedbackService := mocks.NewMockFeedbackService(ctrl)
	renderService := mocks.NewMockRenderService(ctrl)
	deps := &Deps{
		FeedbackService: feedbackService,
		RenderService:   renderService,
		TokenIssuer:     issuer,
		TokenValidator:  issuer,
		HealthChecks: map[string]handlers.HealthCheck{
			"database": func(context.Context) error { return nil },
		},
		AdminAPIKey: testAdminKey,
	}
	return NewRouter(deps), feedbackService, renderService
}

func TestNewRouter(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router, _, _ := newTestRouter(t, ctrl)
	if router == nil {
		t.Fatal("NewRouter() returned nil")
	}
}

func TestRouter_Routes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router, feedbackService, renderService := newTestRouter(t, ctrl)
	feedbackService.EXPECT().List(gomock.Any(), "p1", 0).Return([]service.Feedback{}, nil)
	renderService.EXPECT().Render(gomock.Any(), []byte(`{"text":"hi"}`)).
		Return(service.RenderResult{Widget: "none"}, nil)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		auth       string
		wantStatus int
	}{
		{
			name:       "GET token",
			method:     http.MethodGet,
			path:       "/feedback-token",
			wantStatus: http.StatusOK,
		},
		{
			name:       "POST token method not allowed",
			method:     http.MethodPost,
			path:       "/feedback-token",
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "GET feedback page without token",
			method:     http.MethodGet,
			path:       "/feedback.html",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "GET health",
			method:     http.MethodGet,
			path:       "/api/health",
			wantStatus: http.StatusOK,
		},
		{
			name:       "POST feedback exists",
			method:     http.MethodPost,
			path:       "/api/feedback",
			wantStatus: http.StatusUnsupportedMediaType, // no content type, but route exists
		},
		{
			name:       "GET project feedback",
			method:     http.MethodGet,
			path:       "/api/projects/p1/feedback",
			auth:       "Bearer " + testAdminKey,
			wantStatus: http.StatusOK,
		},
		{
			name:       "POST render",
			method:     http.MethodPost,
			path:       "/api/render",
			body:       `{"text":"hi"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "preflight",
			method:     http.MethodOptions,
			path:       "/api/render",
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "unknown route",
			method:     http.MethodGet,
			path:       "/api/chat",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Router %s %s status = %v, want %v", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_EmbedHeadersOnFeedbackPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router, _, _ := newTestRouter(t, ctrl)

	req := httptest.NewRequest(http.MethodGet, "/feedback.html", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Content-Security-Policy"); got != EmbedCSP {
		t.Errorf("Content-Security-Policy = %q, want %q", got, EmbedCSP)
	}

	req = httptest.NewRequest(http.MethodGet, "/feedback-token", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Header().Get("Content-Security-Policy"); got != "" {
		t.Errorf("token endpoint Content-Security-Policy = %q, want none", got)
	}
}

func TestRouter_FeedbackListingRequiresKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// The service mock has no expectations: a rejected request must not reach it.
	router, _, _ := newTestRouter(t, ctrl)

	tests := []struct {
		name string
		auth string
	}{
		{name: "no credentials", auth: ""},
		{name: "wrong key", auth: "Bearer nope"},
		{name: "wrong scheme", auth: "Basic " + testAdminKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/projects/p1/feedback", nil)
			req.Header.Set("Origin", "https://attacker.test")
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("listing status = %v, want %v", w.Code, http.StatusUnauthorized)
			}
			if strings.Contains(w.Body.String(), "proj") {
				t.Errorf("listing body = %q, want no feedback", w.Body.String())
			}
		})
	}
}
