package dto

type CompleteProfileRequest struct {
	Name           string   `json:"name"`
	Age            int      `json:"age"`
	Gender         string   `json:"gender"`
	Languages      []string `json:"languages"`
	NativeLanguage string   `json:"native_language,omitempty"`
	Accent         string   `json:"accent,omitempty"`
	Location       string   `json:"location,omitempty"`
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

type AccountListResponse struct {
	Accounts []AccountResponse `json:"accounts"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}
