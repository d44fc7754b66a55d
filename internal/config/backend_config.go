package config

const apiBaseURLVar = "API_BASE_URL"

type Backend struct{}

var _ BackendConfig = Backend{}

// GetAPIBaseURL returns the base URL of the quiz platform REST backend
// (e.g., "https://api.example.com"). All API paths are resolved against it.
func (Backend) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLVar, "http://localhost:8000")
}
