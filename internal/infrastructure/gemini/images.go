package gemini

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"strings"
)

const (
	maxImages     = 4
	maxImageBytes = 4 << 20 // inline_data payload cap per attachment
)

// fetchImages downloads tweet photos for inline attachment. Image failures
// are soft: a tweet with an unreachable photo still gets a text-only prompt.
func (c *Client) fetchImages(ctx context.Context, urls []string) []inlineData {
	var images []inlineData
	for _, url := range urls {
		if len(images) >= maxImages {
			break
		}

		img, err := c.fetchImage(ctx, url)
		if err != nil {
			c.logger.Warn("skipping unfetchable tweet image", "url", url, "error", err)
			continue
		}
		images = append(images, img)
	}
	return images
}

func (c *Client) fetchImage(ctx context.Context, url string) (inlineData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return inlineData{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return inlineData{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return inlineData{}, &statusError{status: resp.Status}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return inlineData{}, err
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" || !strings.HasPrefix(mime, "image/") {
		mime = http.DetectContentType(data)
	}

	return inlineData{
		MIMEType: mime,
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}

type statusError struct {
	status string
}

func (e *statusError) Error() string {
	return "unexpected status " + e.status
}
