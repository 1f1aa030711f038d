package common

type Headers map[string]string

// Body models errors as JSON in the API
type Body struct {
	Message string `json:"message" binding:"required" example:"Something went wrong :("`

	// Machine-readable discriminator, only set for errors clients are
	// expected to branch on
	Type string `json:"type,omitempty" example:"conflict"`

	// On version conflicts, the version the server currently holds
	ServerVersion string `json:"server_version,omitempty" example:"1-7"`

	// On version conflicts, the record as the server currently holds it
	Current interface{} `json:"current,omitempty"`
}

type ApiError struct {
	StatusCode int
	Body       Body
}

func (a *ApiError) Error() string {
	return a.Body.Message
}
