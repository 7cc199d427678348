package dtos

type CreateFleetRequest struct {
	SystemID string `json:"system_id"`
}

// TargetUserRequest names the user an operation acts on. An empty UserID
// means the acting user.
type TargetUserRequest struct {
	UserID string `json:"user_id"`
}

type CreditSiteRequest struct {
	SiteType string `json:"site_type"`
}
