package inference

// Role defines conversation turn roles, using Gemini's naming.
type Role string

const (
	// RoleUser is for user utterances.
	RoleUser Role = "user"

	// RoleModel is for model responses, including function-call turns.
	RoleModel Role = "model"

	// RoleFunction is for function result turns.
	RoleFunction Role = "function"
)

// Message represents one conversation turn.
type Message struct {
	// Role identifies the turn author.
	Role Role

	// Content is the text content, if any.
	Content string

	// FunctionCalls carries the model's requested invocations on a model
	// turn that asked for tools.
	FunctionCalls []FunctionCall

	// FunctionResult carries the outcome of one invocation on a function
	// turn.
	FunctionResult *FunctionResult
}

// FunctionCall is an invocation the model requested.
type FunctionCall struct {
	// ID uniquely identifies this call. Gemini does not assign IDs, so the
	// client synthesizes one per call.
	ID string

	// Name of the declared function.
	Name string

	// Args is the decoded argument bag.
	Args map[string]any
}

// FunctionResult wraps a function's return value for the model.
type FunctionResult struct {
	// Name of the function that ran.
	Name string

	// Response is the function's return value, forwarded verbatim. It must
	// be JSON-serializable.
	Response any
}

// Tool declares a callable function for the model.
type Tool struct {
	// Name of the function.
	Name string

	// Description explains what the function does, helping the model decide
	// when to use it.
	Description string

	// Parameters is the argument schema as JSON Schema.
	Parameters map[string]any
}

// NewUserMessage creates a user turn.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewModelMessage creates a plain-text model turn.
func NewModelMessage(content string) Message {
	return Message{Role: RoleModel, Content: content}
}

// NewFunctionCallMessage creates a model turn carrying requested invocations.
func NewFunctionCallMessage(calls []FunctionCall) Message {
	return Message{Role: RoleModel, FunctionCalls: calls}
}

// NewFunctionResultMessage creates a function turn wrapping one result.
func NewFunctionResultMessage(name string, response any) Message {
	return Message{
		Role:           RoleFunction,
		FunctionResult: &FunctionResult{Name: name, Response: response},
	}
}
