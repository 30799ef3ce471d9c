package ai

// Default generation parameters for recommendation prompts.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 300
)

// CallSettings groups common generation parameters such as temperature,
// top-p, max tokens, and stop sequences. It is built once at startup and
// applied to every CompletionRequest.
type CallSettings struct {
	// Temperature controls randomness of the output.
	Temperature *float64
	// TopP controls nucleus sampling for the output.
	TopP *float64
	// MaxTokens limits the number of tokens produced.
	MaxTokens *int
	// Stop contains stop sequences that will truncate the output.
	Stop []string
}

// DefaultCallSettings returns settings with DefaultTemperature and
// DefaultMaxTokens.
func DefaultCallSettings() *CallSettings {
	temperature := DefaultTemperature
	maxTokens := DefaultMaxTokens
	return &CallSettings{
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	}
}

// ApplyTo copies the non-nil/non-zero fields from the CallSettings
// into the given CompletionRequest.
func (s *CallSettings) ApplyTo(req *CompletionRequest) {
	if s == nil {
		return
	}
	if s.Temperature != nil {
		req.Temperature = s.Temperature
	}
	if s.TopP != nil {
		req.TopP = s.TopP
	}
	if s.MaxTokens != nil {
		req.MaxTokens = s.MaxTokens
	}
	if len(s.Stop) > 0 {
		req.Stop = s.Stop
	}
}

// NewCompletionRequest constructs a CompletionRequest from the provided
// model, prompt, and optional CallSettings.
func NewCompletionRequest(model CompletionModel, prompt string, settings *CallSettings) CompletionRequest {
	req := CompletionRequest{
		Model:  model,
		Prompt: prompt,
	}
	settings.ApplyTo(&req)
	return req
}

// Validate reports the first out-of-range field as an
// *InvalidArgumentError. Stop sequences are not checked; providers
// impose their own limits.
func (s *CallSettings) Validate() error {
	if s == nil {
		return nil
	}
	if t := s.Temperature; t != nil && (*t < 0 || *t > 2) {
		return &InvalidArgumentError{Parameter: "temperature", Value: *t, Message: "must be between 0 and 2"}
	}
	if p := s.TopP; p != nil && (*p <= 0 || *p > 1) {
		return &InvalidArgumentError{Parameter: "topP", Value: *p, Message: "must be in the range (0, 1]"}
	}
	if n := s.MaxTokens; n != nil && *n <= 0 {
		return &InvalidArgumentError{Parameter: "maxTokens", Value: *n, Message: "must be greater than 0"}
	}
	return nil
}
