package models

// RecommendResponse is the body of a successful recommendation query.
type RecommendResponse struct {
	Dataset         string   `json:"dataset"`
	IID             string   `json:"iid"`
	Recommendations []string `json:"recommendations"`
}

// ReferrersResponse lists the items whose recommendation sets contain IID.
type ReferrersResponse struct {
	Dataset   string   `json:"dataset"`
	IID       string   `json:"iid"`
	Referrers []string `json:"referrers"`
}

// HealthResponse reports store reachability and the number of datasets available.
type HealthResponse struct {
	Status            string `json:"status"`
	Database          string `json:"database"`
	AvailableDatasets int    `json:"available_datasets"`
}

// RootResponse is returned by the service root.
type RootResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// APIError is one entry of the error envelope. Detail is a string or a list of
// field-level validation details.
type APIError struct {
	Code   int `json:"code"`
	Detail any `json:"detail"`
}

// ErrorResponse is the envelope used for every non-2xx response.
type ErrorResponse struct {
	Errors []APIError `json:"errors"`
}

// FieldError describes one invalid request parameter.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}
