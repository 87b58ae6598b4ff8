package recognize

import (
	"context"
	"fmt"
	"os"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
)

// DocumentAIConfig holds configuration for the Document AI engine.
type DocumentAIConfig struct {
	// ProjectID is the Google Cloud project ID where Document AI is enabled.
	ProjectID string

	// Location is the processing location (e.g., "us", "eu"). Should match
	// where the processor was created.
	Location string

	// ProcessorID is the Document AI OCR processor ID.
	ProcessorID string
}

// DocumentAIEngine implements Engine using a Google Document AI OCR processor.
// It is an alternative to the Vision engine for projects already running
// Document AI pipelines.
type DocumentAIEngine struct {
	client *documentai.DocumentProcessorClient
	config DocumentAIConfig
}

// NewDocumentAIEngine creates a Document AI engine with credentials from the
// environment.
// Expects: GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS
// Requires: GOOGLE_PROJECT_ID (or GOOGLE_CLOUD_PROJECT), DOCUMENT_AI_PROCESSOR_ID
// Optional: GOOGLE_LOCATION (default "us")
func NewDocumentAIEngine(ctx context.Context) (*DocumentAIEngine, error) {
	const op = "NewDocumentAIEngine"

	config := DocumentAIConfig{
		ProjectID:   getEnvVar("GOOGLE_PROJECT_ID", "GOOGLE_CLOUD_PROJECT"),
		Location:    getEnvVar("GOOGLE_LOCATION", "GOOGLE_CLOUD_LOCATION"),
		ProcessorID: getEnvVar("GOOGLE_PROCESSOR_ID", "DOCUMENT_AI_PROCESSOR_ID"),
	}

	if config.ProjectID == "" {
		return nil, WrapRecognitionError(op, ErrInvalidConfiguration, "GOOGLE_PROJECT_ID or GOOGLE_CLOUD_PROJECT is required")
	}
	if config.ProcessorID == "" {
		return nil, WrapRecognitionError(op, ErrInvalidConfiguration, "GOOGLE_PROCESSOR_ID or DOCUMENT_AI_PROCESSOR_ID is required")
	}
	if config.Location == "" {
		config.Location = "us"
	}

	var clientOptions []option.ClientOption

	// Regional endpoint for non-US processors
	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if len(clientOptions) == 0 {
			return nil, WrapRecognitionError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapRecognitionError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	return &DocumentAIEngine{client: client, config: config}, nil
}

// NewDocumentAIEngineWithClient creates an engine with explicit config and
// client (for testing).
func NewDocumentAIEngineWithClient(config DocumentAIConfig, client *documentai.DocumentProcessorClient) *DocumentAIEngine {
	return &DocumentAIEngine{client: client, config: config}
}

func (e *DocumentAIEngine) Name() string { return "documentai" }

// Recognize extracts text from one image through the configured OCR processor.
func (e *DocumentAIEngine) Recognize(ctx context.Context, data []byte, mimeType string) (string, error) {
	const op = "Recognize"

	if len(data) > MaxImageSizeBytes {
		return "", WrapRecognitionError(op, ErrImageTooLarge, fmt.Sprintf("image size: %d bytes", len(data)))
	}

	req := &documentaipb.ProcessRequest{
		Name: e.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  data,
				MimeType: mimeType,
			},
		},
	}

	resp, err := e.client.ProcessDocument(ctx, req)
	if err != nil {
		return "", WrapRecognitionError(op, ErrRecognitionFailed, fmt.Sprintf("Document AI call failed: %v", err))
	}

	return resp.GetDocument().GetText(), nil
}

// Close releases the underlying API client.
func (e *DocumentAIEngine) Close() error {
	return e.client.Close()
}

func (e *DocumentAIEngine) processorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		e.config.ProjectID, e.config.Location, e.config.ProcessorID)
}

// getEnvVar returns the first non-empty value among the given environment
// variable names.
func getEnvVar(names ...string) string {
	for _, name := range names {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	return ""
}
