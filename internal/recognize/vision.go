package recognize

import (
	"context"
	"fmt"
	"os"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// VisionEngine implements Engine using Google Cloud Vision's document text
// detection.
type VisionEngine struct {
	client *vision.ImageAnnotatorClient
}

// NewVisionEngine creates a Vision-backed engine with credentials from the
// environment. It expects either GOOGLE_APPLICATION_CREDENTIALS path or
// GOOGLE_CREDENTIALS JSON in env.
func NewVisionEngine(ctx context.Context) (*VisionEngine, error) {
	const op = "NewVisionEngine"

	var client *vision.ImageAnnotatorClient
	var err error

	// Check for inline credentials first
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapRecognitionError(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapRecognitionError(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		// Try default credentials as fallback
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapRecognitionError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return &VisionEngine{client: client}, nil
}

// NewVisionEngineWithClient creates a Vision engine with an explicit client
// (for testing).
func NewVisionEngineWithClient(client *vision.ImageAnnotatorClient) *VisionEngine {
	return &VisionEngine{client: client}
}

func (e *VisionEngine) Name() string { return "vision" }

// Recognize extracts text from one image via document text detection.
func (e *VisionEngine) Recognize(ctx context.Context, data []byte, mimeType string) (string, error) {
	const op = "Recognize"

	if len(data) > MaxImageSizeBytes {
		return "", WrapRecognitionError(op, ErrImageTooLarge, fmt.Sprintf("image size: %d bytes", len(data)))
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: data},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := e.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return "", WrapRecognitionError(op, ErrRecognitionFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.Responses) == 0 {
		return "", WrapRecognitionError(op, ErrRecognitionFailed, "no response from Vision API")
	}

	annotation := resp.Responses[0]
	if annotation.Error != nil {
		return "", WrapRecognitionError(op, ErrRecognitionFailed, fmt.Sprintf("Vision API error: %s", annotation.Error.Message))
	}

	// An image with no detectable text is a valid (empty) result.
	if annotation.FullTextAnnotation == nil {
		return "", nil
	}
	return annotation.FullTextAnnotation.GetText(), nil
}

// Close releases the underlying API client.
func (e *VisionEngine) Close() error {
	return e.client.Close()
}
