package recognize

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine implements Engine using a local Tesseract installation via
// gosseract. It needs no network access or credentials, which makes it the
// on-device counterpart to the hosted engines.
type TesseractEngine struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs a Tesseract-backed engine. languages selects
// the traineddata sets to use; empty means Tesseract's default.
func NewTesseractEngine(languages ...string) *TesseractEngine {
	return &TesseractEngine{
		languages:     languages,
		clientFactory: gosseract.NewClient,
	}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize runs Tesseract over one image. A fresh client is created per call
// so concurrent recognitions do not share native state.
func (e *TesseractEngine) Recognize(ctx context.Context, data []byte, mimeType string) (string, error) {
	const op = "Recognize"

	if err := ctx.Err(); err != nil {
		return "", WrapRecognitionError(op, err, "")
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(data); err != nil {
		return "", WrapRecognitionError(op, ErrRecognitionFailed, fmt.Sprintf("set image: %v", err))
	}
	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return "", WrapRecognitionError(op, ErrRecognitionFailed, fmt.Sprintf("set languages: %v", err))
		}
	}

	text, err := c.Text()
	if err != nil {
		return "", WrapRecognitionError(op, ErrRecognitionFailed, fmt.Sprintf("recognize text: %v", err))
	}
	return text, nil
}
