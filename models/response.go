package models

const (
	StatusSuccess = "success"
	StatusHealthy = "healthy"
)

type WelcomeResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Version string `json:"version"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type HelloResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// AddResponse echoes the operands exactly as they arrived, so A and B may be
// json.Number, string or bool.
type AddResponse struct {
	Result float64 `json:"result"`
	A      any     `json:"a"`
	B      any     `json:"b"`
	Status string  `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
