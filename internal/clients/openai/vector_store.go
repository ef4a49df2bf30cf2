package openai

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"strings"
)

type vectorStoreResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type fileResponse struct {
	ID string `json:"id"`
}

type vectorStoreFileRequest struct {
	FileID string `json:"file_id"`
}

type vectorStoreFileResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (c *client) CreateVectorStore(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("vector store name required")
	}
	var resp vectorStoreResponse
	if err := c.doJSON(ctx, "POST", "/v1/vector_stores", map[string]any{"name": name}, &resp); err != nil {
		return "", fmt.Errorf("create vector store %q: %w", name, err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("create vector store %q: empty id in response", name)
	}
	return resp.ID, nil
}

// UploadFileToVectorStore uploads the file bytes, then attaches the uploaded
// file to the vector store. Returns the file id.
func (c *client) UploadFileToVectorStore(ctx context.Context, vectorStoreID, filename string, content []byte) (string, error) {
	if vectorStoreID == "" {
		return "", fmt.Errorf("vector store id required")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("purpose", "assistants"); err != nil {
		return "", err
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(content); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	var file fileResponse
	if err := c.do(ctx, "POST", "/v1/files", mw.FormDataContentType(), body.Bytes(), &file); err != nil {
		return "", fmt.Errorf("upload file %q: %w", filename, err)
	}
	if file.ID == "" {
		return "", fmt.Errorf("upload file %q: empty id in response", filename)
	}

	var attached vectorStoreFileResponse
	if err := c.doJSON(ctx, "POST", "/v1/vector_stores/"+vectorStoreID+"/files", vectorStoreFileRequest{FileID: file.ID}, &attached); err != nil {
		return "", fmt.Errorf("attach file %q to vector store %s: %w", filename, vectorStoreID, err)
	}
	return file.ID, nil
}
