// Package widget selects how a chat message's user-defined payload is rendered.
package widget

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"chatwidgets/internal/feedback"
	"chatwidgets/internal/message"
)

// Kind names a widget variant.
type Kind string

// KindNone is the kind of None.
const KindNone Kind = "none"

// Widget is one arm of the rendering union. Every arm other than None is
// produced by a Builder registered for a tag.
type Widget interface {
	Kind() Kind
}

// None means the message has no custom rendering. It is not an error.
type None struct{}

// Kind implements Widget.
func (None) Kind() Kind { return KindNone }

// ReferenceDocs is the reference documents button. Block is the message's
// payload, passed through unmodified.
type ReferenceDocs struct {
	Block message.UserDefinedBlock
}

// Kind implements Widget.
func (ReferenceDocs) Kind() Kind { return Kind(message.TagReferenceDocsButton) }

// FeedbackHub is the embedded feedback collector. Params may be incomplete;
// the controller driving it then renders nothing.
type FeedbackHub struct {
	Params feedback.Params
}

// Kind implements Widget.
func (FeedbackHub) Kind() Kind { return Kind(message.TagFeedbackHubWidget) }

// Builder creates a widget from a block whose tag it was registered for.
type Builder func(block *message.UserDefinedBlock) Widget

var (
	// ErrEmptyTag is returned when registering a builder without a tag.
	ErrEmptyTag = errors.New("widget tag is empty")
	// ErrDuplicateTag is returned when a tag already has a builder.
	ErrDuplicateTag = errors.New("widget tag already registered")
)

// Dispatcher maps payload tags to widget builders.
type Dispatcher struct {
	mu       sync.RWMutex
	builders map[message.Tag]Builder
}

// NewDispatcher returns a dispatcher knowing the built-in widgets.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{builders: make(map[message.Tag]Builder)}
	d.builders[message.TagReferenceDocsButton] = buildReferenceDocs
	d.builders[message.TagFeedbackHubWidget] = buildFeedbackHub
	return d
}

// Register adds a builder for tag.
func (d *Dispatcher) Register(tag message.Tag, b Builder) error {
	if tag == "" {
		return ErrEmptyTag
	}
	if b == nil {
		return fmt.Errorf("register %q: nil builder", tag)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.builders[tag]; ok {
		return fmt.Errorf("register %q: %w", tag, ErrDuplicateTag)
	}
	d.builders[tag] = b
	return nil
}

// Tags lists the known tags in sorted order.
func (d *Dispatcher) Tags() []message.Tag {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Sorted(maps.Keys(d.builders))
}

// Dispatch picks the widget for msg. Messages without a block, without a
// tag, or with a tag nobody registered yield None.
func (d *Dispatcher) Dispatch(msg message.ChatMessage) Widget {
	block := msg.UserDefined
	if !block.HasType() {
		return None{}
	}

	d.mu.RLock()
	build, ok := d.builders[block.Type]
	d.mu.RUnlock()
	if !ok {
		return None{}
	}

	w := build(block)
	if w == nil {
		return None{}
	}
	return w
}

func buildReferenceDocs(block *message.UserDefinedBlock) Widget {
	return ReferenceDocs{Block: *block}
}

func buildFeedbackHub(block *message.UserDefinedBlock) Widget {
	return FeedbackHub{Params: feedback.ParamsFromBlock(block)}
}
