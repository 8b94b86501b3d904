package httpdto

// PresignUploadRequest is used for POST /uploads/presign
type PresignUploadRequest struct {
	FileName    string `json:"file_name" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	FileSize    int64  `json:"file_size" binding:"gte=0"`
}
