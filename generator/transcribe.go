package generator

import (
	"context"
	"errors"
	"io"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Transcriber converts an audio recording into text with the OpenAI
// transcription API so it can serve as source material for the writer.
type Transcriber struct {
	Model string
	Opts  []option.RequestOption
}

func NewTranscriber(apiKey string) (*Transcriber, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key missing")
	}
	return &Transcriber{Model: "whisper-1", Opts: []option.RequestOption{option.WithAPIKey(apiKey)}}, nil
}

func (t *Transcriber) Transcribe(ctx context.Context, audio io.Reader) (string, error) {
	client := openai.NewClient(t.Opts...)

	resp, err := client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(t.Model),
		File:  audio,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
