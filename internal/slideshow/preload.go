package slideshow

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"

	// Register decoders for the formats slide exports arrive in.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"dutyboard/internal/model"
)

// maxAssetBytes bounds how much of an asset is read during preload.
const maxAssetBytes = 32 << 20

// HTTPPreloader fetches an asset and verifies it decodes as an image, so
// the flip only happens once the asset is known displayable (or known
// broken).
type HTTPPreloader struct {
	HTTP *http.Client
}

func (p *HTTPPreloader) Preload(ctx context.Context, asset model.SlideAsset) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.Src, nil)
	if err != nil {
		return err
	}

	client := p.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("preload %s: %s", asset.Src, resp.Status)
	}

	limited := io.LimitReader(resp.Body, maxAssetBytes)
	if _, _, err := image.DecodeConfig(limited); err != nil {
		return fmt.Errorf("preload %s: undecodable image: %w", asset.Src, err)
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, limited)
	return nil
}
