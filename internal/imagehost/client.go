package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/pkg/circuitbreaker"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultUploadURL = "https://api.imgbb.com/1/upload"
	MaxImageSize     = 32 << 20
)

var (
	ErrNotConfigured = errors.New("image upload is not configured")
	ErrEmptyImage    = errors.New("image is empty")
	ErrImageTooLarge = errors.New("image exceeds size limit")
	ErrUploadFailed  = errors.New("image upload failed")
)

type Config struct {
	UploadURL string
	APIKey    string
	Timeout   time.Duration
	Breaker   circuitbreaker.Config
}

// Client uploads images to an imgbb-compatible host and returns their public URLs.
type Client struct {
	uploadURL  string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[string]
}

type uploadResponse struct {
	Success bool `json:"success"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewClient(cfg Config, log logrus.FieldLogger) *Client {
	if cfg.UploadURL == "" {
		cfg.UploadURL = DefaultUploadURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		uploadURL: cfg.UploadURL,
		apiKey:    cfg.APIKey,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: circuitbreaker.New[string]("imagehost", cfg.Breaker, log),
	}
}

// Upload sends the image as multipart field "image" and returns the hosted URL.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmptyImage
	}
	if len(data) > MaxImageSize {
		return "", ErrImageTooLarge
	}

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	part, err := form.CreateFormFile("image", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	target, err := url.Parse(c.uploadURL)
	if err != nil {
		return "", fmt.Errorf("parse upload url: %w", err)
	}
	q := target.Query()
	q.Set("key", c.apiKey)
	target.RawQuery = q.Encode()

	hosted, err := c.breaker.Execute(func() (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(body.Bytes()))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", form.FormDataContentType())

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		var parsed uploadResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return "", fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
		}
		if !parsed.Success || parsed.Data.URL == "" {
			msg := parsed.Error.Message
			if msg == "" {
				msg = "Upload failed"
			}
			return "", fmt.Errorf("%w: %s", ErrUploadFailed, msg)
		}
		return parsed.Data.URL, nil
	})
	if err != nil {
		if errors.Is(err, ErrUploadFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return hosted, nil
}
