package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/muhammadolammi/jobmatchclient/internal/gateway"
)

type PresignRequest struct {
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
}

type PresignResponse struct {
	UploadURL string `json:"upload_url"`
	ObjectKey string `json:"object_key"`
}

type CompleteUploadRequest struct {
	SessionID uuid.UUID `json:"session_id"`
	ObjectKey string    `json:"object_key"`
	FileName  string    `json:"file_name"`
	Size      int64     `json:"size"`
	MimeType  string    `json:"mime_type"`
}

func (c *Client) Presign(ctx context.Context, sessionID uuid.UUID, req PresignRequest) (*PresignResponse, error) {
	if req.MimeType == "" {
		req.MimeType = "application/octet-stream"
	}
	var out PresignResponse
	path := fmt.Sprintf("/sessions/%s/presign", sessionID)
	if _, err := c.gw.Do(ctx, requestJSON(http.MethodPost, path, req, &out)); err != nil {
		return nil, fmt.Errorf("presign %s: %w", req.FileName, err)
	}
	if out.UploadURL == "" || out.ObjectKey == "" {
		return nil, fmt.Errorf("presign %s: response missing upload_url or object_key", req.FileName)
	}
	return &out, nil
}

func (c *Client) CompleteUpload(ctx context.Context, req CompleteUploadRequest) error {
	if _, err := c.gw.Do(ctx, requestJSON(http.MethodPost, "/uploads/complete", req, nil)); err != nil {
		return fmt.Errorf("complete upload %s: %w", req.FileName, err)
	}
	return nil
}

// UploadDirect posts the resume as multipart form data to the API itself.
func (c *Client) UploadDirect(ctx context.Context, sessionID uuid.UUID, fileName string, data []byte) error {
	_, err := c.gw.Do(ctx, gateway.Request{
		Method:    http.MethodPost,
		Path:      "/upload",
		FileField: "resume",
		FileName:  fileName,
		File:      data,
		FormData:  map[string]string{"session_id": sessionID.String()},
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", fileName, err)
	}
	return nil
}
