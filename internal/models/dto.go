package models

type UploadResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	File    FilePayload `json:"file"`
}

type FilePayload struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mimetype"`
	Endpoint     string `json:"endpoint"`
}

type FileListEntry struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Created  string `json:"created"`
	Modified string `json:"modified"`
}

type FileListResponse struct {
	Success bool            `json:"success"`
	Files   []FileListEntry `json:"files"`
}

type CopyFilesRequest struct {
	SourceEndpoint string `json:"sourceEndpoint"`
	TargetEndpoint string `json:"targetEndpoint"`
}

type CopiedFile struct {
	FileClass string `json:"fileType"`
	Source    string `json:"source"`
	Target    string `json:"target"`
}

type CopyFilesResponse struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	CopiedFiles []CopiedFile `json:"copiedFiles"`
}

// ModelConfig carries optional per-request overrides for the LLM call.
type ModelConfig struct {
	Model       string   `json:"model,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   *int32   `json:"maxTokens,omitempty"`
}

type ParseResumeRequest struct {
	ResumeText string       `json:"resumeText"`
	Endpoint   string       `json:"endpoint"`
	Config     *ModelConfig `json:"config,omitempty"`
}

type ParsePDFRequest struct {
	PDFBuffer string       `json:"pdfBuffer"`
	Endpoint  string       `json:"endpoint"`
	Config    *ModelConfig `json:"config,omitempty"`
}

type ParseResponse struct {
	Success             bool                   `json:"success"`
	Data                map[string]interface{} `json:"data"`
	Model               string                 `json:"model"`
	TokensUsed          int32                  `json:"tokensUsed"`
	ExtractedTextLength *int                   `json:"extractedTextLength,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
