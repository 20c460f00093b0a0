package enrichment

import (
	"context"
	"net/http"
)

const zoomInfoBaseURL = "https://api.zoominfo.com"

type ZoomInfo struct {
	httpProvider
}

func NewZoomInfo(apiKey, baseURL string) *ZoomInfo {
	return &ZoomInfo{newHTTPProvider("zoominfo", baseURL, 2, map[string]string{
		"Authorization": "Bearer " + apiKey,
	})}
}

// EnrichCompany stores the raw ZoomInfo record. Its schema is account specific,
// so no firmographics are extracted.
func (z *ZoomInfo) EnrichCompany(ctx context.Context, domain string) (Result, error) {
	payload, err := z.doJSON(ctx, http.MethodPost, "/enrich/company", map[string]string{"domain": domain})
	if err != nil {
		return Result{}, err
	}
	return Result{Provider: z.Name(), Payload: payload}, nil
}
