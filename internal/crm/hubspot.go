package crm

import (
	"context"
	"net/http"
)

const hubSpotBaseURL = "https://api.hubapi.com"

type HubSpot struct {
	t transport
}

func NewHubSpot(accessToken, baseURL string) *HubSpot {
	return &HubSpot{t: newTransport(baseURL, 5, map[string]string{"Authorization": "Bearer " + accessToken})}
}

func (h *HubSpot) Name() string { return "hubspot" }

type hubSpotObject struct {
	ID string `json:"id"`
}

type hubSpotSearchResponse struct {
	Results []hubSpotObject `json:"results"`
}

func (h *HubSpot) findByEmail(ctx context.Context, email string) (string, error) {
	body := map[string]any{
		"filterGroups": []any{
			map[string]any{"filters": []any{
				map[string]string{"propertyName": "email", "operator": "EQ", "value": email},
			}},
		},
		"properties": []string{"firstname", "lastname", "company", "lifecyclestage"},
		"limit":      1,
	}
	var out hubSpotSearchResponse
	if err := h.t.do(ctx, http.MethodPost, "/crm/v3/objects/contacts/search", body, &out); err != nil {
		return "", err
	}
	if len(out.Results) == 0 {
		return "", nil
	}
	return out.Results[0].ID, nil
}

func (h *HubSpot) UpsertContact(ctx context.Context, contact Contact) (string, error) {
	existing, err := h.findByEmail(ctx, contact.Email)
	if err != nil {
		return "", err
	}

	props := map[string]string{
		"email":     contact.Email,
		"firstname": contact.FirstName,
		"lastname":  contact.LastName,
	}
	if contact.Phone != "" {
		props["phone"] = contact.Phone
	}
	if contact.Title != "" {
		props["jobtitle"] = contact.Title
	}
	if contact.Company != "" {
		props["company"] = contact.Company
	}
	if contact.LifecycleStage != "" {
		props["lifecyclestage"] = contact.LifecycleStage
	}
	body := map[string]any{"properties": props}

	if existing != "" {
		if err := h.t.do(ctx, http.MethodPatch, "/crm/v3/objects/contacts/"+existing, body, nil); err != nil {
			return "", err
		}
		return existing, nil
	}

	var created hubSpotObject
	if err := h.t.do(ctx, http.MethodPost, "/crm/v3/objects/contacts", body, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}
