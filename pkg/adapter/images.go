package adapter

import (
	"context"
	"io"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
)

// ImageSource fetches image bytes for a DesignImage locator. Returns the
// raw bytes and the MIME type.
type ImageSource interface {
	Fetch(ctx context.Context, locator string) ([]byte, string, error)
}

// imageSource resolves gs:// locators via Cloud Storage and http(s)://
// locators via plain HTTP.
type imageSource struct {
	client     *storage.Client
	httpClient *http.Client
}

// NewImageSource creates an ImageSource for gs:// and http(s):// locators.
func NewImageSource(ctx context.Context) (ImageSource, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &imageSource{
		client:     client,
		httpClient: http.DefaultClient,
	}, nil
}

func (s *imageSource) Fetch(ctx context.Context, locator string) ([]byte, string, error) {
	switch {
	case strings.HasPrefix(locator, "gs://"):
		return s.fetchObject(ctx, locator)
	case strings.HasPrefix(locator, "http://"), strings.HasPrefix(locator, "https://"):
		return s.fetchHTTP(ctx, locator)
	default:
		return nil, "", goerr.New("unsupported image locator", goerr.V("locator", locator))
	}
}

func (s *imageSource) fetchObject(ctx context.Context, locator string) ([]byte, string, error) {
	bucket, object, ok := strings.Cut(strings.TrimPrefix(locator, "gs://"), "/")
	if !ok {
		return nil, "", goerr.New("malformed gs:// locator", goerr.V("locator", locator))
	}

	reader, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, "", goerr.Wrap(err, "failed to open storage object", goerr.V("locator", locator))
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", goerr.Wrap(err, "failed to read storage object", goerr.V("locator", locator))
	}

	mimeType := reader.Attrs.ContentType
	if mimeType == "" {
		mimeType = "image/png"
	}

	return data, mimeType, nil
}

func (s *imageSource) fetchHTTP(ctx context.Context, locator string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, "", goerr.Wrap(err, "failed to build image request")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", goerr.Wrap(err, "failed to download image", goerr.V("locator", locator))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", goerr.New("unexpected status for image download",
			goerr.V("locator", locator), goerr.V("status", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", goerr.Wrap(err, "failed to read image body", goerr.V("locator", locator))
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/png"
	}

	return data, mimeType, nil
}
