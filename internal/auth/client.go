// Package auth is a client for the account backend: login, registration,
// password changes and profile pictures.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"blitzscan/internal/models"
	"blitzscan/pkg/errors"
	"blitzscan/pkg/logger"
)

const (
	DefaultBaseURL = "http://localhost:3001"

	pathLogin          = "/api/login"
	pathRegister       = "/api/register"
	pathChangePassword = "/api/change-password"
	pathUpdateProfile  = "/api/update-profile"
)

// envelope is the shape of every auth backend reply.
type envelope struct {
	Success      bool         `json:"success"`
	Message      string       `json:"message"`
	User         *models.User `json:"user"`
	ProfileImage string       `json:"profileImage"`
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *logger.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login returns the profile of the authenticated user.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	reply, err := c.postJSON(ctx, "login", pathLogin, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	if reply.User == nil {
		return nil, errors.NewAuthError("login", "response carried no user", nil)
	}
	return reply.User, nil
}

func (c *Client) Register(ctx context.Context, form models.RegisterForm) error {
	_, err := c.postJSON(ctx, "register", pathRegister, form)
	return err
}

func (c *Client) ChangePassword(ctx context.Context, userID models.UserID, oldPassword, newPassword string) error {
	_, err := c.postJSON(ctx, "change-password", pathChangePassword, map[string]string{
		"id":          userID.String(),
		"oldPassword": oldPassword,
		"newPassword": newPassword,
	})
	return err
}

// UpdateProfileImage uploads image as multipart form data and returns the
// stored image reference.
func (c *Client) UpdateProfileImage(ctx context.Context, userID models.UserID, filename string, image io.Reader) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	if err := form.WriteField("id", userID.String()); err != nil {
		return "", err
	}
	part, err := form.CreateFormFile("profileImage", filepath.Base(filename))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, image); err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathUpdateProfile, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	reply, err := c.do(req, "update-profile")
	if err != nil {
		return "", err
	}
	if reply.ProfileImage == "" {
		return "", errors.NewAuthError("update-profile", "response carried no image", nil)
	}
	return reply.ProfileImage, nil
}

func (c *Client) postJSON(ctx context.Context, operation, path string, payload interface{}) (*envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, operation)
}

// do sends req and decodes the envelope. success=false becomes an AuthError
// carrying the backend message whatever the HTTP status.
func (c *Client) do(req *http.Request, operation string) (*envelope, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.NewAuthError(operation, "", err)
	}
	defer resp.Body.Close()

	var reply envelope
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, errors.NewAuthError(operation, resp.Status, nil)
		}
		return nil, errors.NewAuthError(operation, "", fmt.Errorf("decode response: %w", err))
	}

	if !reply.Success {
		c.logger.WithFields(logger.Fields{
			"operation": operation,
			"status":    resp.StatusCode,
		}).Debug("auth backend rejected request")
		return nil, errors.NewAuthError(operation, reply.Message, nil)
	}
	return &reply, nil
}
