package models

type PresignRequest struct {
	FileType string `json:"fileType"`
}

// UploadTarget is a pre-authorized upload destination: a form POST to
// PostURL carrying Fields, readable afterwards at GetURL. Key is the object
// key the policy is bound to.
type UploadTarget struct {
	PostURL string            `json:"postUrl"`
	GetURL  string            `json:"getUrl"`
	Fields  map[string]string `json:"fields"`
	Key     string            `json:"-"`
}

type FileURLResponse struct {
	FileURL string `json:"fileUrl"`
}
