// Package feedback implements the client half of the secure feedback embed:
// token acquisition, embed URL construction and the controller that ties them
// together for one widget instance.
package feedback

import "chatwidgets/internal/message"

// Field names carried in a feedback_hub_widget block.
const (
	FieldUserInput  = "userInput"
	FieldAIResponse = "aiResponse"
	FieldProjectID  = "projectId"
)

// Params is the input triple of one feedback widget activation.
type Params struct {
	UserInput  string // the user turn being answered
	AIResponse string // the assistant turn being rated
	ProjectID  string
}

// ParamsFromBlock extracts the triple from a user-defined block.
// Missing or non-string values come back empty.
func ParamsFromBlock(b *message.UserDefinedBlock) Params {
	return Params{
		UserInput:  b.String(FieldUserInput),
		AIResponse: b.String(FieldAIResponse),
		ProjectID:  b.String(FieldProjectID),
	}
}

// Complete reports whether all three values are present.
func (p Params) Complete() bool {
	return p.UserInput != "" && p.AIResponse != "" && p.ProjectID != ""
}
