package httpdto

// SendMessageRequest is used for POST /messages. ReportID is the external report code.
type SendMessageRequest struct {
	ReportID string `json:"report_id" binding:"required"`
	Content  string `json:"content" binding:"required,max=4000"`
}
