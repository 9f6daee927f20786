package api

// EventTypeEndOfCallReport is the only webhook event type acted upon,
// everything else is acknowledged and ignored
const EventTypeEndOfCallReport = "end-of-call-report"

// InitiateRequest is the call-initiate input
type InitiateRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// InitiateResponse is returned after the provider confirmed the call
type InitiateResponse struct {
	Success bool   `json:"success"`
	CallID  string `json:"callId"`
}

// WebhookEvent is the provider event envelope
type WebhookEvent struct {
	Message *WebhookMessage `json:"message"`
}

// WebhookMessage keeps the event payload
type WebhookMessage struct {
	Type     string           `json:"type"`
	Call     *WebhookCall     `json:"call"`
	Analysis *WebhookAnalysis `json:"analysis"`
}

// WebhookCall identifies the provider call
type WebhookCall struct {
	ID string `json:"id"`
}

// WebhookAnalysis keeps the structured call outcome
type WebhookAnalysis struct {
	StructuredData map[string]string `json:"structuredData"`
}

// WebhookResponse is always returned to the provider
type WebhookResponse struct {
	Received bool `json:"received"`
}

// SummaryRequest is the summary-notify input
type SummaryRequest struct {
	CallID         string            `json:"callId"`
	StructuredData map[string]string `json:"structuredData"`
}

// SummaryResponse is the summary-notify result
type SummaryResponse struct {
	Success bool `json:"success"`
}

// Callback is the presentation view of one callback record
type Callback struct {
	ID                  string            `json:"id"`
	Email               string            `json:"email"`
	Phone               string            `json:"phone"`
	Status              string            `json:"status"`
	StructuredData      map[string]string `json:"structuredData,omitempty"`
	AISummary           string            `json:"aiSummary,omitempty"`
	AISummaryTranslated string            `json:"aiSummaryTranslated,omitempty"`
	AISummaryAt         string            `json:"aiSummaryAt,omitempty"`
	CreatedAt           string            `json:"createdAt"`
	UpdatedAt           string            `json:"updatedAt,omitempty"`
}
