package api

import (
	"context"
	"net/url"
)

// GetLogo fetches the raw logo payload for an ISIN. The payload is either
// Lottie JSON, JSON with an embedded SVG string, or a raw SVG document;
// decoding into the variant happens in the logo package.
func (c *Client) GetLogo(ctx context.Context, isin, assetClass string) (data []byte, contentType string, err error) {
	query := url.Values{}
	if assetClass != "" {
		query.Set("assetClass", assetClass)
	}
	return c.doRequest(ctx, pathLogo+url.PathEscape(isin), query)
}
