package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// DefaultGeoProviders returns the provider chain in its fixed priority
// order: ip-api.com (45 req/min free), ipwhois.app (10k req/month), then
// ipapi.co (1k req/day). The order encodes quota generosity and must match
// the documented fallback behavior.
func DefaultGeoProviders(client *http.Client) []GeoProvider {
	return []GeoProvider{
		&IPAPIProvider{Client: client, BaseURL: "http://ip-api.com"},
		&IPWhoisProvider{Client: client, BaseURL: "http://ipwhois.app"},
		&IPAPICoProvider{Client: client, BaseURL: "https://ipapi.co"},
	}
}

func fetchJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// IPAPIProvider queries ip-api.com.
type IPAPIProvider struct {
	Client  *http.Client
	BaseURL string
}

func (p *IPAPIProvider) Name() string { return "ip-api.com" }

func (p *IPAPIProvider) Lookup(ctx context.Context, ip string) (*Geo, error) {
	var body struct {
		Status      string `json:"status"`
		Country     string `json:"country"`
		CountryCode string `json:"countryCode"`
	}
	url := fmt.Sprintf("%s/json/%s?fields=status,country,countryCode", p.BaseURL, ip)
	if err := fetchJSON(ctx, p.Client, url, &body); err != nil {
		return nil, err
	}
	if body.Status != "success" || body.CountryCode == "" {
		return nil, fmt.Errorf("lookup unsuccessful")
	}
	return &Geo{Country: body.Country, CountryCode: body.CountryCode}, nil
}

// IPWhoisProvider queries ipwhois.app.
type IPWhoisProvider struct {
	Client  *http.Client
	BaseURL string
}

func (p *IPWhoisProvider) Name() string { return "ipwhois.app" }

func (p *IPWhoisProvider) Lookup(ctx context.Context, ip string) (*Geo, error) {
	var body struct {
		Success     bool   `json:"success"`
		Country     string `json:"country"`
		CountryCode string `json:"country_code"`
	}
	url := fmt.Sprintf("%s/json/%s", p.BaseURL, ip)
	if err := fetchJSON(ctx, p.Client, url, &body); err != nil {
		return nil, err
	}
	if !body.Success || body.CountryCode == "" {
		return nil, fmt.Errorf("lookup unsuccessful")
	}
	return &Geo{Country: body.Country, CountryCode: body.CountryCode}, nil
}

// IPAPICoProvider queries ipapi.co.
type IPAPICoProvider struct {
	Client  *http.Client
	BaseURL string
}

func (p *IPAPICoProvider) Name() string { return "ipapi.co" }

func (p *IPAPICoProvider) Lookup(ctx context.Context, ip string) (*Geo, error) {
	var body struct {
		CountryName string `json:"country_name"`
		CountryCode string `json:"country_code"`
	}
	url := fmt.Sprintf("%s/%s/json/", p.BaseURL, ip)
	if err := fetchJSON(ctx, p.Client, url, &body); err != nil {
		return nil, err
	}
	if body.CountryCode == "" || body.CountryName == "" {
		return nil, fmt.Errorf("lookup unsuccessful")
	}
	return &Geo{Country: body.CountryName, CountryCode: body.CountryCode}, nil
}
