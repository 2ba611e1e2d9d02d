package handlers

type ScanRequest struct {
	URL      string `json:"url" binding:"required"`
	ScanType string `json:"scan_type" binding:"required"`
	Owner    string `json:"owner"`
	Save     bool   `json:"save"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
