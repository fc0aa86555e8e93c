package models

// SourceWeb marks jobs originating from the web interface.
const SourceWeb = "web"

// Job is a unit of work enqueued for the external worker pool. Owned by the
// task queue until a worker claims it; never mutated after creation.
type Job struct {
	TargetAgent string     `json:"target_agent"`
	Payload     JobPayload `json:"payload"`
}

// JobPayload carries the message text plus the bounded conversation context
// the worker uses to answer. Context is ordered oldest-first and always ends
// with the user message that triggered the job.
type JobPayload struct {
	Text    string    `json:"text"`
	Source  string    `json:"source"`
	UserID  string    `json:"user_id"`
	Context []Message `json:"conversation_context"`
}
