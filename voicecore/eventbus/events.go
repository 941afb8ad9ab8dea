// Event definitions for the pipeline.
//
// All events are fire-and-forget and fan out to every subscriber.
package eventbus

// =============================================================================
// QUERY LIFECYCLE EVENTS
// =============================================================================

// QueryReceived is emitted when the pipeline accepts a new query.
// Subscribers: telemetry, trace logging.
type QueryReceived struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`
	Mode      string `json:"interaction_mode"`
	Query     string `json:"query"`
}

func (e *QueryReceived) EventType() string { return "QueryReceived" }

// ResponseReady is emitted when the final response has been assembled.
type ResponseReady struct {
	SessionID  string `json:"session_id"`
	Intent     string `json:"intent"`
	Status     string `json:"status"` // "success", "error"
	DurationMS int    `json:"duration_ms"`
	Pending    int    `json:"pending_actions"`
	Executed   int    `json:"executed_actions"`
}

func (e *ResponseReady) EventType() string { return "ResponseReady" }

// =============================================================================
// STAGE LIFECYCLE EVENTS
// =============================================================================

// StageStarted is emitted when a pipeline stage begins processing.
type StageStarted struct {
	Stage     string `json:"stage"`
	SessionID string `json:"session_id"`
}

func (e *StageStarted) EventType() string { return "StageStarted" }

// StageCompleted is emitted when a pipeline stage finishes.
type StageCompleted struct {
	Stage      string `json:"stage"`
	SessionID  string `json:"session_id"`
	Status     string `json:"status"` // "success", "error"
	DurationMS int    `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

func (e *StageCompleted) EventType() string { return "StageCompleted" }

// =============================================================================
// AUTHORIZATION EVENTS
// =============================================================================

// CodeIssued is emitted when an authorization code is generated for an
// action. The code itself never crosses the bus.
type CodeIssued struct {
	SessionID  string `json:"session_id"`
	ActionID   string `json:"action_id"`
	ActionType string `json:"action_type"`
}

func (e *CodeIssued) EventType() string { return "CodeIssued" }

// CodeVerified is emitted after a verification attempt.
type CodeVerified struct {
	SessionID string `json:"session_id"`
	ActionID  string `json:"action_id,omitempty"`
	Granted   bool   `json:"granted"`
}

func (e *CodeVerified) EventType() string { return "CodeVerified" }

// =============================================================================
// EXECUTION EVENTS
// =============================================================================

// ActionExecuted is emitted after an authorized action ran against a
// provider, whether it succeeded or not.
type ActionExecuted struct {
	SessionID  string `json:"session_id"`
	ActionID   string `json:"action_id"`
	ActionType string `json:"action_type"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

func (e *ActionExecuted) EventType() string { return "ActionExecuted" }
