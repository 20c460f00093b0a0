package crm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const pipedriveBaseURL = "https://api.pipedrive.com/v1"

type Pipedrive struct {
	t     transport
	token string
}

func NewPipedrive(apiToken, baseURL string) *Pipedrive {
	return &Pipedrive{t: newTransport(baseURL, 2, nil), token: apiToken}
}

func (p *Pipedrive) Name() string { return "pipedrive" }

type pipedriveSearchResponse struct {
	Data struct {
		Items []struct {
			Item struct {
				ID int64 `json:"id"`
			} `json:"item"`
		} `json:"items"`
	} `json:"data"`
}

type pipedrivePersonResponse struct {
	Data struct {
		ID int64 `json:"id"`
	} `json:"data"`
}

func (p *Pipedrive) path(base string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", p.token)
	return base + "?" + params.Encode()
}

func (p *Pipedrive) UpsertContact(ctx context.Context, contact Contact) (string, error) {
	params := url.Values{}
	params.Set("term", contact.Email)
	params.Set("fields", "email")
	params.Set("exact_match", "1")
	params.Set("limit", "1")

	var search pipedriveSearchResponse
	if err := p.t.do(ctx, http.MethodGet, p.path("/persons/search", params), nil, &search); err != nil {
		return "", err
	}

	body := map[string]any{
		"name":  contact.FullName(),
		"email": contact.Email,
	}
	if contact.Phone != "" {
		body["phone"] = contact.Phone
	}

	if len(search.Data.Items) > 0 {
		id := search.Data.Items[0].Item.ID
		if err := p.t.do(ctx, http.MethodPut, p.path(fmt.Sprintf("/persons/%d", id), nil), body, nil); err != nil {
			return "", err
		}
		return strconv.FormatInt(id, 10), nil
	}

	var created pipedrivePersonResponse
	if err := p.t.do(ctx, http.MethodPost, p.path("/persons", nil), body, &created); err != nil {
		return "", err
	}
	return strconv.FormatInt(created.Data.ID, 10), nil
}
