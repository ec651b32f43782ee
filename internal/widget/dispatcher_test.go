package widget

import (
	"context"
	"errors"
	"html/template"
	"reflect"
	"strings"
	"testing"
	"time"

	"chatwidgets/internal/feedback"
	"chatwidgets/internal/message"
)

func decode(t *testing.T, raw string) message.ChatMessage {
	t.Helper()
	msg, err := message.Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return msg
}

func TestDispatcher_Dispatch(t *testing.T) {
	d := NewDispatcher()

	tests := []struct {
		name string
		raw  string
		want Widget
	}{
		{
			name: "no user_defined",
			raw:  `{"id":"1","text":"hello"}`,
			want: None{},
		},
		{
			name: "user_defined without type",
			raw:  `{"user_defined":{"userInput":"q"}}`,
			want: None{},
		},
		{
			name: "non-string type",
			raw:  `{"user_defined":{"user_defined_type":7}}`,
			want: None{},
		},
		{
			name: "unknown type",
			raw:  `{"user_defined":{"user_defined_type":"carousel","items":[1,2]}}`,
			want: None{},
		},
		{
			name: "tag match is exact",
			raw:  `{"user_defined":{"user_defined_type":"Feedback_Hub_Widget"}}`,
			want: None{},
		},
		{
			name: "feedback widget",
			raw:  `{"user_defined":{"user_defined_type":"feedback_hub_widget","userInput":"What is X?","aiResponse":"X is Y.","projectId":"proj-42","extra":"ignored"}}`,
			want: FeedbackHub{Params: feedback.Params{UserInput: "What is X?", AIResponse: "X is Y.", ProjectID: "proj-42"}},
		},
		{
			name: "feedback widget with missing and mistyped fields",
			raw:  `{"user_defined":{"user_defined_type":"feedback_hub_widget","userInput":"q","projectId":12}}`,
			want: FeedbackHub{Params: feedback.Params{UserInput: "q"}},
		},
		{
			name: "reference docs passes fields verbatim",
			raw:  `{"user_defined":{"user_defined_type":"reference_docs_button","docs":[{"title":"A","url":"/a"}],"count":1}}`,
			want: ReferenceDocs{Block: message.UserDefinedBlock{
				Type: message.TagReferenceDocsButton,
				Fields: map[string]any{
					"docs":  []any{map[string]any{"title": "A", "url": "/a"}},
					"count": float64(1),
				},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := decode(t, tt.raw)
			got := d.Dispatch(msg)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Dispatch() = %#v, want %#v", got, tt.want)
			}
			// Dispatch is a pure function of the payload.
			if again := d.Dispatch(msg); !reflect.DeepEqual(again, got) {
				t.Errorf("Dispatch() not deterministic: %#v vs %#v", again, got)
			}
		})
	}
}

type bannerWidget struct{ text string }

func (bannerWidget) Kind() Kind { return "banner" }

func (b bannerWidget) HTML() (template.HTML, error) {
	return template.HTML("<p>" + template.HTMLEscapeString(b.text) + "</p>"), nil
}

func TestDispatcher_Register(t *testing.T) {
	d := NewDispatcher()

	build := func(block *message.UserDefinedBlock) Widget {
		return bannerWidget{text: block.String("text")}
	}

	if err := d.Register("banner", build); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := d.Register("banner", build); !errors.Is(err, ErrDuplicateTag) {
		t.Errorf("Register() duplicate error = %v, want %v", err, ErrDuplicateTag)
	}
	if err := d.Register(message.TagFeedbackHubWidget, build); !errors.Is(err, ErrDuplicateTag) {
		t.Errorf("Register() over built-in error = %v, want %v", err, ErrDuplicateTag)
	}
	if err := d.Register("", build); !errors.Is(err, ErrEmptyTag) {
		t.Errorf("Register() empty tag error = %v, want %v", err, ErrEmptyTag)
	}
	if err := d.Register("nil", nil); err == nil {
		t.Error("Register() nil builder should fail")
	}

	got := d.Dispatch(decode(t, `{"user_defined":{"user_defined_type":"banner","text":"hi"}}`))
	if got != (bannerWidget{text: "hi"}) {
		t.Errorf("Dispatch() = %#v, want banner", got)
	}

	wantTags := []message.Tag{"banner", message.TagFeedbackHubWidget, message.TagReferenceDocsButton}
	if tags := d.Tags(); !reflect.DeepEqual(tags, wantTags) {
		t.Errorf("Tags() = %v, want %v", tags, wantTags)
	}

	// Existing tags still dispatch the same way.
	if got := d.Dispatch(decode(t, `{"user_defined":{"user_defined_type":"feedback_hub_widget"}}`)); got.Kind() != Kind(message.TagFeedbackHubWidget) {
		t.Errorf("Dispatch() kind = %v after Register", got.Kind())
	}
}

func TestDispatcher_NilBuilderResult(t *testing.T) {
	d := NewDispatcher()
	_ = d.Register("nothing", func(*message.UserDefinedBlock) Widget { return nil })

	if got := d.Dispatch(decode(t, `{"user_defined":{"user_defined_type":"nothing"}}`)); got != (None{}) {
		t.Errorf("Dispatch() = %#v, want None", got)
	}
}

func TestRenderer_Render(t *testing.T) {
	tokens := feedback.TokenSourceFunc(func(ctx context.Context) (string, error) {
		return "abc123", nil
	})
	r := NewRenderer(tokens, time.Second)
	ctx := context.Background()

	t.Run("none", func(t *testing.T) {
		got, err := r.Render(ctx, None{})
		if err != nil || got.HTML != "" || got.Kind != KindNone {
			t.Errorf("Render(None) = %+v, %v", got, err)
		}
	})

	t.Run("feedback ready", func(t *testing.T) {
		got, err := r.Render(ctx, FeedbackHub{Params: feedback.Params{UserInput: "What is X?", AIResponse: "X is Y.", ProjectID: "proj-42"}})
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		want := "/feedback.html?auth_token=abc123&project_id=proj-42&question=What+is+X%3F&answer=X+is+Y."
		if got.EmbedURL != want {
			t.Errorf("EmbedURL = %v, want %v", got.EmbedURL, want)
		}
		if got.State != "ready" {
			t.Errorf("State = %v, want ready", got.State)
		}
		if !strings.Contains(string(got.HTML), feedback.Sandbox) {
			t.Errorf("HTML missing sandbox grant: %s", got.HTML)
		}
	})

	t.Run("feedback incomplete", func(t *testing.T) {
		got, err := r.Render(ctx, FeedbackHub{Params: feedback.Params{UserInput: "q"}})
		if err != nil || got.HTML != "" || got.State != "empty" {
			t.Errorf("Render(incomplete) = %+v, %v", got, err)
		}
	})

	t.Run("reference docs", func(t *testing.T) {
		block := message.UserDefinedBlock{Type: message.TagReferenceDocsButton, Fields: map[string]any{"title": "<b>doc</b>"}}
		got, err := r.Render(ctx, ReferenceDocs{Block: block})
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		html := string(got.HTML)
		if !strings.Contains(html, `data-widget="reference_docs_button"`) {
			t.Errorf("HTML = %s, want reference docs container", html)
		}
		if strings.Contains(html, "<b>doc</b>") {
			t.Errorf("payload not escaped: %s", html)
		}
	})

	t.Run("self rendering", func(t *testing.T) {
		got, err := r.Render(ctx, bannerWidget{text: "<hi>"})
		if err != nil || got.HTML != "<p>&lt;hi&gt;</p>" {
			t.Errorf("Render(banner) = %+v, %v", got, err)
		}
	})
}

func TestRenderer_FeedbackTokenFailure(t *testing.T) {
	tokens := feedback.TokenSourceFunc(func(ctx context.Context) (string, error) {
		return "", feedback.ErrNoToken
	})
	r := NewRenderer(tokens, time.Second)

	got, err := r.Render(context.Background(), FeedbackHub{Params: feedback.Params{UserInput: "q", AIResponse: "a", ProjectID: "p"}})
	if err != nil {
		t.Fatalf("Render() error = %v, want nil", err)
	}
	if got.HTML != "" || got.EmbedURL != "" {
		t.Errorf("Render() = %+v, want no embed", got)
	}
}

func TestRenderer_FeedbackTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	tokens := feedback.TokenSourceFunc(func(ctx context.Context) (string, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return "late", nil
	})
	r := NewRenderer(tokens, 20*time.Millisecond)

	got, err := r.Render(context.Background(), FeedbackHub{Params: feedback.Params{UserInput: "q", AIResponse: "a", ProjectID: "p"}})
	if err != nil {
		t.Fatalf("Render() error = %v, want nil", err)
	}
	if got.HTML != "" || got.State != "acquiring" {
		t.Errorf("Render() = %+v, want nothing rendered while acquiring", got)
	}
}
