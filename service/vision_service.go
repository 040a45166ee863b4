package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sashabaranov/go-openai"
)

const visionPrompt = "Describe the diagrams, figures and tables on this service manual page. " +
	"Transcribe any labels, part names and callouts exactly as written. " +
	"If the page contains no figures, reply with an empty string."

// VisionService sends rendered page images to a multimodal model and returns
// textual descriptions to be merged into the page's chunk text.
type VisionService struct {
	client  *openai.Client
	model   string
	retries int
}

func NewVisionService(baseURL, apiKey, model string) *VisionService {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &VisionService{
		client:  openai.NewClientWithConfig(config),
		model:   model,
		retries: 3,
	}
}

// DescribePage returns a textual description of one page image. Transient
// failures are retried with exponential backoff; the caller treats a final
// failure as skippable for that page.
func (s *VisionService) DescribePage(ctx context.Context, png []byte) (string, error) {
	imageURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)

	var lastErr error
	for attempt := 1; attempt <= s.retries; attempt++ {
		resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       s.model,
			Temperature: 0,
			MaxTokens:   2000,
			Messages: []openai.ChatCompletionMessage{
				{
					Role: openai.ChatMessageRoleUser,
					MultiContent: []openai.ChatMessagePart{
						{Type: openai.ChatMessagePartTypeText, Text: visionPrompt},
						{
							Type:     openai.ChatMessagePartTypeImageURL,
							ImageURL: &openai.ChatMessageImageURL{URL: imageURL},
						},
					},
				},
			},
		})
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", errors.New("no response generated")
			}
			return resp.Choices[0].Message.Content, nil
		}

		lastErr = err
		log.Printf("Vision extract attempt %d failed: %v", attempt, err)
		if attempt == s.retries {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(1<<attempt) * time.Second):
		}
	}
	return "", fmt.Errorf("vision extraction failed after %d attempts: %w", s.retries, lastErr)
}
