package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"quizbattle/internal/domain"
)

func (c *Client) AdminDashboard(ctx context.Context) (domain.AdminDashboard, error) {
	var out domain.AdminDashboard
	err := c.getJSON(ctx, "/admin/dashboard", nil, &out)
	return out, err
}

func (c *Client) AdminUsers(ctx context.Context) ([]domain.User, error) {
	var out struct {
		Users []domain.User `json:"users"`
	}
	err := c.getJSON(ctx, "/admin/users", nil, &out)
	return out.Users, err
}

func (c *Client) AdminQuestions(ctx context.Context) ([]domain.Question, error) {
	var out struct {
		Questions []domain.Question `json:"questions"`
	}
	err := c.getJSON(ctx, "/admin/questions", nil, &out)
	return out.Questions, err
}

func (c *Client) CreateQuestion(ctx context.Context, q domain.NewQuestion) (domain.Question, error) {
	var out struct {
		Question domain.Question `json:"question"`
	}
	err := c.sendJSON(ctx, http.MethodPost, "/admin/questions", q, &out)
	return out.Question, err
}

func (c *Client) DeleteQuestion(ctx context.Context, id int) error {
	return c.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("/admin/questions/%d", id), nil, nil)
}

func (c *Client) DeleteQuestions(ctx context.Context, ids []int) (domain.BulkDeleteResult, error) {
	var out domain.BulkDeleteResult
	in := map[string][]int{"question_ids": ids}
	err := c.sendJSON(ctx, http.MethodPost, "/admin/questions/delete-bulk", in, &out)
	return out, err
}

// UploadPDF streams a question PDF for server-side extraction. It uses the
// longer upload timeout since extraction runs synchronously on the backend.
func (c *Client) UploadPDF(ctx context.Context, filename string, pdf io.Reader, examType, difficulty string) (domain.UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("pdf", filepath.Base(filename))
	if err != nil {
		return domain.UploadResult{}, err
	}
	if _, err := io.Copy(part, pdf); err != nil {
		return domain.UploadResult{}, fmt.Errorf("read pdf: %w", err)
	}
	if err := mw.WriteField("exam_type", examType); err != nil {
		return domain.UploadResult{}, err
	}
	if err := mw.WriteField("difficulty", difficulty); err != nil {
		return domain.UploadResult{}, err
	}
	if err := mw.Close(); err != nil {
		return domain.UploadResult{}, err
	}

	var out domain.UploadResult
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/admin/upload-pdf",
		body:        &buf,
		contentType: mw.FormDataContentType(),
		timeout:     c.uploadTimeout,
	}, &out)
	return out, err
}

