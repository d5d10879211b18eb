package gateway

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
)

const (
	verifyMaxTokens = 10
	verifySystem    = "Respond with 'Token verified' if this message is received."
	verifyPrompt    = "Verify token"
)

// VerifyKey checks apiKey with one tiny request and no retries. Any
// successful response counts; its text is not inspected.
func VerifyKey(ctx context.Context, apiKey string, opts Options) error {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	client := anthropic.NewClient(clientOptions(apiKey, opts)...)
	_, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(opts.Model),
		MaxTokens:   verifyMaxTokens,
		Temperature: anthropic.Float(0),
		System:      []anthropic.TextBlockParam{{Text: verifySystem}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(verifyPrompt))},
	})
	return err
}
