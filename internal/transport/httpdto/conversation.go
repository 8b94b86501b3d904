package httpdto

// ResolveConversationRequest is used for POST /conversations
type ResolveConversationRequest struct {
	ReportID     string   `json:"report_id" binding:"required"`
	Participants []string `json:"participants" binding:"required,min=1"`
}
