package remote

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/khrees2412/careerflow/pkg/models"
)

// AnalyzeRequest is the multipart body of POST /analyze. When JDID is set the
// backend reads the stored description and ignores JDText.
type AnalyzeRequest struct {
	FileName string
	File     []byte
	JDText   string
	JDID     models.ID
}

// Analyze uploads a CV with a job description and returns the analysis
// payload in whichever form the backend produced it.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) (models.Payload, error) {
	const op = "analyze"

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", req.FileName)
	if err != nil {
		return models.Payload{}, fmt.Errorf("%s: failed to build form: %w", op, err)
	}
	if _, err := part.Write(req.File); err != nil {
		return models.Payload{}, fmt.Errorf("%s: failed to build form: %w", op, err)
	}
	if req.JDText != "" {
		if err := w.WriteField("jd_text", req.JDText); err != nil {
			return models.Payload{}, fmt.Errorf("%s: failed to build form: %w", op, err)
		}
	}
	if req.JDID != "" {
		if err := w.WriteField("jd_id", req.JDID.String()); err != nil {
			return models.Payload{}, fmt.Errorf("%s: failed to build form: %w", op, err)
		}
	}
	if err := w.Close(); err != nil {
		return models.Payload{}, fmt.Errorf("%s: failed to build form: %w", op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.analysisTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", &buf)
	if err != nil {
		return models.Payload{}, fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())
	httpReq.Header.Set("Accept", "application/json")

	var payload models.Payload
	if err := c.send(op, httpReq, &payload); err != nil {
		return models.Payload{}, err
	}
	return payload, nil
}
