package types

// HumanizeRequest is the body of POST /humanize.
// Optional sampling fields are pointers so an omitted field can be told apart from an explicit zero.
type HumanizeRequest struct {
	// Text to rewrite (1-5000 characters).
	// example: The utilization of advanced methodologies facilitates optimal outcomes.
	Text string `json:"text" example:"The utilization of advanced methodologies facilitates optimal outcomes."`
	// Sampling temperature (higher = more random). Defaults to 0.7.
	// example: 0.7
	Temperature *float64 `json:"temperature,omitempty" example:"0.7"`
	// Maximum number of new tokens to generate. Defaults to 300.
	// example: 300
	MaxNewTokens *int `json:"max_new_tokens,omitempty" example:"300"`
	// Nucleus sampling probability. Defaults to 0.9.
	// example: 0.9
	TopP *float64 `json:"top_p,omitempty" example:"0.9"`
}

// Request defaults applied when the corresponding field is omitted.
const (
	DefaultTemperature  = 0.7
	DefaultMaxNewTokens = 300
	DefaultTopP         = 0.9
)

// TemperatureOrDefault returns the requested temperature or DefaultTemperature.
func (r HumanizeRequest) TemperatureOrDefault() float64 {
	if r.Temperature == nil {
		return DefaultTemperature
	}
	return *r.Temperature
}

// MaxNewTokensOrDefault returns the requested token budget or DefaultMaxNewTokens.
func (r HumanizeRequest) MaxNewTokensOrDefault() int {
	if r.MaxNewTokens == nil {
		return DefaultMaxNewTokens
	}
	return *r.MaxNewTokens
}

// TopPOrDefault returns the requested top_p or DefaultTopP.
func (r HumanizeRequest) TopPOrDefault() float64 {
	if r.TopP == nil {
		return DefaultTopP
	}
	return *r.TopP
}

// HumanizeResponse is returned by POST /humanize.
type HumanizeResponse struct {
	// Input text as received.
	OriginalText string `json:"original_text"`
	// Rewritten text, or the original text when generation produced nothing usable.
	HumanizedText string `json:"humanized_text"`
	// example: true
	Success bool `json:"success" example:"true"`
	// example: Text humanized successfully
	Message string `json:"message" example:"Text humanized successfully"`
}

// RootResponse is returned by GET /.
type RootResponse struct {
	// example: AI Text Humanizer API
	Message string `json:"message" example:"AI Text Humanizer API"`
	// example: healthy
	Status string `json:"status" example:"healthy"`
	// Compute device the model runs on (cuda or cpu).
	// example: cpu
	Device string `json:"device" example:"cpu"`
	// example: true
	ModelLoaded bool `json:"model_loaded" example:"true"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	// example: healthy
	Status string `json:"status" example:"healthy"`
	// example: true
	ModelLoaded bool `json:"model_loaded" example:"true"`
	// example: cpu
	Device string `json:"device" example:"cpu"`
	// Version string of the model runtime backend.
	// example: llama-server b4000
	TorchVersion string `json:"torch_version" example:"llama-server b4000"`
	// Whether an NVIDIA accelerator was detected.
	// example: false
	CUDAAvailable bool `json:"cuda_available" example:"false"`
}

// ModelInfo describes the loaded model inside InfoResponse.
type ModelInfo struct {
	Device       string `json:"device"`
	ModelLoaded  bool   `json:"model_loaded"`
	TorchVersion string `json:"torch_version"`
	// Identifier of the base model that loaded successfully.
	// example: microsoft/DialoGPT-medium
	BaseModel string `json:"base_model,omitempty" example:"microsoft/DialoGPT-medium"`
	// Resolved adapter directory.
	// example: ./instruction_lora_humanizer_adapter
	AdapterPath string `json:"adapter_path,omitempty" example:"./instruction_lora_humanizer_adapter"`
}

// InfoResponse is returned by GET /info.
type InfoResponse struct {
	// example: AI Text Humanizer
	APIName string `json:"api_name" example:"AI Text Humanizer"`
	// example: 1.0.0
	Version   string            `json:"version" example:"1.0.0"`
	ModelInfo ModelInfo         `json:"model_info"`
	Endpoints map[string]string `json:"endpoints"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: Invalid authorization code
	Detail string `json:"detail" example:"Invalid authorization code"`
}
