package generator

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ImageGenerator produces a header image and returns its remote URL. The URL
// is time-limited on the provider side; the publisher rehosts it.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// DallEArtist implements ImageGenerator with the OpenAI images API.
type DallEArtist struct {
	Model string
	Opts  []option.RequestOption
}

func NewDallEArtist(apiKey, model string) (*DallEArtist, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key missing")
	}
	if model == "" {
		model = "dall-e-3"
	}
	return &DallEArtist{Model: model, Opts: []option.RequestOption{option.WithAPIKey(apiKey)}}, nil
}

func (d *DallEArtist) Generate(ctx context.Context, prompt string) (string, error) {
	client := openai.NewClient(d.Opts...)

	resp, err := client.Images.Generate(ctx, openai.ImageGenerateParams{
		Model:   openai.ImageModel(d.Model),
		Prompt:  prompt,
		Size:    openai.ImageGenerateParamsSize1024x1024,
		Quality: openai.ImageGenerateParamsQualityStandard,
		N:       openai.Int(1),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", errors.New("openai: empty image response")
	}
	return resp.Data[0].URL, nil
}
