// Package ai calls Gemini for the catalog's three enrichment features:
// auto-describing a mod from its title, analyzing an uploaded screenshot,
// and reading a description aloud.
//
// These are best-effort collaborators, not part of the catalog's correctness
// contract. Every operation degrades to ("", nil) when the upstream call
// fails — the handler turns that into a null field and the frontend shows
// the feature as unavailable. Nothing here is ever fatal to a page.
package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"google.golang.org/genai"
)

// Model names per operation. The search-grounded description uses the fast
// flash model, image analysis the stronger pro model, and TTS needs the
// dedicated speech model.
const (
	describeModel = "gemini-3-flash-preview"
	analyzeModel  = "gemini-3.1-pro-preview"
	speechModel   = "gemini-2.5-flash-preview-tts"

	speechVoice = "Zephyr"
)

// Enricher wraps the Gemini client. A nil Enricher (API key not configured)
// is valid: every method returns the degraded empty result.
type Enricher struct {
	client *genai.Client
	logger *slog.Logger
}

// NewEnricher creates an Enricher, or returns (nil, nil) when apiKey is
// empty — callers treat a nil Enricher as "feature disabled".
func NewEnricher(ctx context.Context, apiKey string, logger *slog.Logger) (*Enricher, error) {
	if apiKey == "" {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("ai: creating Gemini client: %w", err)
	}

	return &Enricher{client: client, logger: logger}, nil
}

// DescribeMod returns a generated description for a mod title, grounded with
// Google Search so the model can pull in real information about well-known
// mods. Returns "" when the feature is disabled or the call fails.
func (e *Enricher) DescribeMod(ctx context.Context, title string) string {
	if e == nil {
		return ""
	}

	prompt := fmt.Sprintf(
		"Provide a detailed description and technical information for the Minecraft mod: %s. "+
			"Include its typical size, common features, and current popularity.", title)

	resp, err := e.client.Models.GenerateContent(ctx, describeModel,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		},
	)
	if err != nil {
		e.logger.Warn("gemini describe failed", slog.String("error", err.Error()))
		return ""
	}

	return resp.Text()
}

// AnalyzeScreenshot describes what a mod screenshot shows. imageData is the
// raw bytes (the handler decodes the client's base64), mimeType e.g.
// "image/png". Returns "" when disabled or on failure.
func (e *Enricher) AnalyzeScreenshot(ctx context.Context, imageData []byte, mimeType string) string {
	if e == nil {
		return ""
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(imageData, mimeType),
			genai.NewPartFromText("Analyze this Minecraft mod screenshot. What features or items " +
				"are visible? Describe the visual style and gameplay elements shown."),
		}, genai.RoleUser),
	}

	resp, err := e.client.Models.GenerateContent(ctx, analyzeModel, contents, nil)
	if err != nil {
		e.logger.Warn("gemini analyze failed", slog.String("error", err.Error()))
		return ""
	}

	return resp.Text()
}

// SynthesizeSpeech reads a description aloud and returns the audio as a
// data URL the frontend can feed straight into an <audio> element.
// Returns "" when disabled or on failure.
func (e *Enricher) SynthesizeSpeech(ctx context.Context, text string) string {
	if e == nil {
		return ""
	}

	prompt := fmt.Sprintf("Read this Minecraft mod description clearly and enthusiastically: %s", text)

	resp, err := e.client.Models.GenerateContent(ctx, speechModel,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &genai.SpeechConfig{
				VoiceConfig: &genai.VoiceConfig{
					PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: speechVoice},
				},
			},
		},
	)
	if err != nil {
		e.logger.Warn("gemini tts failed", slog.String("error", err.Error()))
		return ""
	}

	audio := inlineAudio(resp)
	if len(audio) == 0 {
		e.logger.Warn("gemini tts returned no audio data")
		return ""
	}

	return audioDataURL(audio)
}

// inlineAudio digs the first inline audio blob out of a response.
func inlineAudio(resp *genai.GenerateContentResponse) []byte {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data
			}
		}
	}
	return nil
}

// audioDataURL wraps raw audio bytes in the data: URL shape the frontend
// audio player expects.
func audioDataURL(data []byte) string {
	return "data:audio/mp3;base64," + base64.StdEncoding.EncodeToString(data)
}
