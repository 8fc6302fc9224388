package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"blog-recommender/internal/domain"
)

// MetadataExtractor converts raw post text into the constrained
// structured-attribute object of the data model.
type MetadataExtractor struct {
	chat   domain.ChatClient
	model  string
	logger *slog.Logger
}

func NewMetadataExtractor(chat domain.ChatClient, model string, logger *slog.Logger) *MetadataExtractor {
	return &MetadataExtractor{
		chat:   chat,
		model:  model,
		logger: logger,
	}
}

const metadataPromptFormat = `You are a helpful assistant that analyzes content to extract key metadata. Based on the following content, generate a JSON object with the following structure and specific options:

{
  "activities": ["array of activities from these options only: Beach, Wine, Outdoors, Adventure, Luxury, Cuisine, Relaxation, Culture, Wellness"],
  "exertionLevel": number between 1-5 where:
    1 = Relaxing
    3 = Medium
    5 = Adventurous/Thrilling,
  "group": one of these options only: "Solo", "Couple", "Family", "Friends",
  "priceRange": one of these options only: "$" (Budget), "$$" (Moderate), "$$$" (Luxury)
}

Please analyze this content and return ONLY the JSON object:

%s`

// Extract asks the model for the structured attributes of text and
// decodes the first balanced JSON object in the reply. Values outside the
// closed attribute sets fail validation rather than being coerced. Every
// failure wraps ErrExtractionFailed; callers treat it as "no metadata
// available" and proceed with a nil value instead of aborting their batch.
func (e *MetadataExtractor) Extract(ctx context.Context, text string) (*domain.ContentMetadata, error) {
	result, err := e.chat.Complete(ctx, e.model, fmt.Sprintf(metadataPromptFormat, text), domain.CompletionOptions{
		Temperature: 0.7,
		MaxTokens:   200,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}

	objectJSON := extractJSONObject(result.Text)
	if objectJSON == "" {
		return nil, fmt.Errorf("%w: no JSON object in response", domain.ErrExtractionFailed)
	}

	var metadata domain.ContentMetadata
	if err := json.Unmarshal([]byte(objectJSON), &metadata); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}
	if err := metadata.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}

	e.logger.Debug("metadata_extracted",
		slog.Int("activity_count", len(metadata.Activities)),
		slog.String("group", string(metadata.Group)))

	return &metadata, nil
}
