package storage

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"audio-articles/article-api/internal/config"
	"audio-articles/article-api/internal/domain/article"
	"audio-articles/article-api/internal/infrastructure/metrics"
)

const defaultCloudinaryBaseURL = "https://api.cloudinary.com/v1_1"

// audioUploadTransformation compresses narration on ingest: AAC capped at
// 32 kbps and resampled to 22.05 kHz is transparent for speech and an order
// of magnitude smaller than typical uploads. Channel downmix to mono is not
// part of the transformation grammar and travels as its own upload field.
const audioUploadTransformation = "br_32k,ac_aac,af_22050"

// audioDeliveryTransformation is injected into delivery URLs so the CDN
// serves a streaming-friendly rendition.
const audioDeliveryTransformation = "q_auto:good,f_auto,fl_streaming_attachment"

var errCloudinaryDisabled = errors.New("cloudinary storage is not configured; set CLOUDINARY_* to enable uploads")

// CloudinaryStorage stores article assets at Cloudinary through its upload
// REST API. Audio goes through the video pipeline, which is how Cloudinary
// models audio-only media.
type CloudinaryStorage struct {
	cloudName  string
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
	disabled   bool
}

func NewCloudinaryStorage(cfg *config.Config, log zerolog.Logger) *CloudinaryStorage {
	logger := log.With().Str("component", "cloudinary-storage").Logger()
	storage := &CloudinaryStorage{
		cloudName: cfg.CloudinaryCloudName,
		apiKey:    cfg.CloudinaryAPIKey,
		apiSecret: cfg.CloudinaryAPISecret,
		baseURL:   defaultCloudinaryBaseURL,
		httpClient: &http.Client{
			Timeout: cfg.CloudinaryTimeout,
		},
		log: logger,
	}
	if storage.cloudName == "" || storage.apiKey == "" || storage.apiSecret == "" {
		logger.Warn().Msg("CLOUDINARY_CLOUD_NAME or credentials are not set; asset uploads will be disabled until configured")
		storage.disabled = true
	}
	return storage
}

type uploadResponse struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Put uploads asset bytes and returns the delivery URL plus the provider's
// public ID for later deletion.
func (c *CloudinaryStorage) Put(ctx context.Context, data []byte, folder string, kind article.AssetKind) (article.Asset, error) {
	if c.disabled {
		return article.Asset{}, errCloudinaryDisabled
	}

	params := map[string]string{
		"timestamp": strconv.FormatInt(time.Now().Unix(), 10),
		"folder":    folder,
	}
	if kind == article.KindAudio {
		params["transformation"] = audioUploadTransformation
		params["audio_channels"] = "1"
		params["format"] = "m4a"
	}
	params["signature"] = c.sign(params)
	params["api_key"] = c.apiKey

	body, contentType, err := buildMultipart(params, data)
	if err != nil {
		return article.Asset{}, fmt.Errorf("build upload payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s/upload", c.baseURL, c.cloudName, resourceType(kind))
	parsed, err := c.post(ctx, endpoint, contentType, body)
	if err != nil {
		metrics.RecordStorageOperation("put", "failure")
		return article.Asset{}, err
	}
	metrics.RecordStorageOperation("put", "success")

	url := parsed.SecureURL
	if kind == article.KindAudio {
		url = OptimizedDeliveryURL(url)
	}
	return article.Asset{URL: url, ProviderID: parsed.PublicID}, nil
}

// Delete destroys a stored asset and invalidates cached CDN copies.
func (c *CloudinaryStorage) Delete(ctx context.Context, providerID string, kind article.AssetKind) error {
	if c.disabled {
		return errCloudinaryDisabled
	}

	params := map[string]string{
		"public_id":  providerID,
		"timestamp":  strconv.FormatInt(time.Now().Unix(), 10),
		"invalidate": "true",
	}
	params["signature"] = c.sign(params)
	params["api_key"] = c.apiKey

	body, contentType, err := buildMultipart(params, nil)
	if err != nil {
		return fmt.Errorf("build destroy payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s/destroy", c.baseURL, c.cloudName, resourceType(kind))
	if _, err := c.post(ctx, endpoint, contentType, body); err != nil {
		metrics.RecordStorageOperation("delete", "failure")
		return err
	}
	metrics.RecordStorageOperation("delete", "success")
	return nil
}

func (c *CloudinaryStorage) post(ctx context.Context, endpoint, contentType string, body *bytes.Buffer) (*uploadResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var parsed uploadResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("decode cloudinary response: %w", err)
	}
	if resp.StatusCode >= 400 {
		msg := parsed.Error.Message
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("cloudinary request failed: %s", msg)
	}
	return &parsed, nil
}

// sign computes the request signature: the signed params sorted by key,
// joined as a query string, with the API secret appended, hashed with SHA-1.
func (c *CloudinaryStorage) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + c.apiSecret))
	return hex.EncodeToString(sum[:])
}

func buildMultipart(fields map[string]string, file []byte) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if file != nil {
		part, err := writer.CreateFormFile("file", "file")
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

func resourceType(kind article.AssetKind) string {
	if kind == article.KindAudio {
		return "video"
	}
	return "image"
}

// OptimizedDeliveryURL injects the streaming transformation into a delivery
// URL. Already transformed or non-Cloudinary URLs are returned unchanged.
func OptimizedDeliveryURL(rawURL string) string {
	if !strings.Contains(rawURL, "cloudinary.com") {
		return rawURL
	}
	if strings.Contains(rawURL, audioDeliveryTransformation) {
		return rawURL
	}
	parts := strings.SplitN(rawURL, "/upload/", 2)
	if len(parts) != 2 {
		return rawURL
	}
	return parts[0] + "/upload/" + audioDeliveryTransformation + "/" + parts[1]
}
