package dtos

// APIResponse is the envelope every JSON endpoint writes.
type APIResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	Kind         string `json:"kind,omitempty"`
	ResponseTime string `json:"response_time"`
	Data         any    `json:"data,omitempty"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}
