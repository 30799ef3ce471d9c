package ai

import (
	"context"

	"github.com/ncecere/recommendation-fn/provider"
	"github.com/ncecere/recommendation-fn/registry"
)

// CompletionModel is a provider-agnostic completion-style model.
type CompletionModel = provider.CompletionModel

// CompletionRequest describes a completion-style text generation request.
type CompletionRequest struct {
	// Model is the completion model used to generate the response.
	Model CompletionModel
	// Prompt is the input text for the completion.
	Prompt string
	// Temperature controls randomness of the output.
	Temperature *float64
	// TopP controls nucleus sampling for the output.
	TopP *float64
	// MaxTokens limits the number of tokens produced.
	MaxTokens *int
	// Stop contains stop sequences that will truncate the output.
	Stop []string
}

// CompletionResponse is the result of a completion-style text generation call.
type CompletionResponse struct {
	// Text is the generated completion text, exactly as returned by the provider.
	Text string
	// StopReason describes why generation stopped (if available).
	StopReason string
	// Raw is the provider's undecoded response payload, if the provider keeps it.
	Raw []byte
}

// GenerateCompletion calls the underlying CompletionModel.Generate and returns
// a simplified response structure.
//
// Errors:
//   - ErrMissingModel if req.Model is nil.
//   - ErrEmptyCompletion if the provider returns a nil response without error.
//   - Any error returned by the underlying provider implementation.
func GenerateCompletion(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	if req.Model == nil {
		return CompletionResponse{}, ErrMissingModel
	}

	cReq := &provider.CompletionRequest{
		Prompt:      req.Prompt,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxTokens:   req.MaxTokens,
		Stop:        req.Stop,
	}

	cRes, err := req.Model.Generate(ctx, cReq)
	if err != nil {
		return CompletionResponse{}, err
	}
	if cRes == nil {
		return CompletionResponse{}, ErrEmptyCompletion
	}

	return CompletionResponse{
		Text:       cRes.Text,
		StopReason: cRes.StopReason,
		Raw:        cRes.Raw,
	}, nil
}

// GenerateCompletionWithRegistry is a convenience helper that looks up the
// completion model by name in the provided registry and then delegates to
// GenerateCompletion. Any Model value in req is ignored and replaced with the
// resolved model.
//
// Errors:
//   - InvalidArgumentError if reg is nil.
//   - Any error returned by reg.CompletionModel.
//   - Any error returned by GenerateCompletion.
func GenerateCompletionWithRegistry(ctx context.Context, reg registry.Registry, modelName string, req CompletionRequest) (CompletionResponse, error) {
	if reg == nil {
		return CompletionResponse{}, &InvalidArgumentError{Parameter: "reg", Value: nil, Message: "registry must not be nil"}
	}

	model, err := reg.CompletionModel(modelName)
	if err != nil {
		return CompletionResponse{}, err
	}

	req.Model = model
	return GenerateCompletion(ctx, req)
}
