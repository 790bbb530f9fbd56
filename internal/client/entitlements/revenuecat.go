package entitlements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	DefaultBaseURL  = "https://api.revenuecat.com"
	DefaultPlatform = "ios"
	defaultTimeout  = 15 * time.Second
)

// RevenueCatConfig configures the REST backend.
type RevenueCatConfig struct {
	APIKey     string
	BaseURL    string
	Platform   string
	HTTPClient *http.Client
}

// RevenueCat reads subscribers and offerings through the RevenueCat REST
// API v1. It cannot make store purchases.
type RevenueCat struct {
	apiKey   string
	baseURL  string
	platform string
	client   *http.Client
	now      func() time.Time
}

func NewRevenueCat(cfg RevenueCatConfig) (*RevenueCat, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	platform := cfg.Platform
	if platform == "" {
		platform = DefaultPlatform
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &RevenueCat{
		apiKey:   cfg.APIKey,
		baseURL:  strings.TrimRight(base, "/"),
		platform: platform,
		client:   client,
		now:      time.Now,
	}, nil
}

// RevenueCatFactory returns a BackendFactory building REST backends with
// the given base settings.
func RevenueCatFactory(cfg RevenueCatConfig) BackendFactory {
	return func(apiKey string) (Backend, error) {
		c := cfg
		c.APIKey = apiKey
		return NewRevenueCat(c)
	}
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("revenuecat: status %d: code %d: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

func (r *RevenueCat) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("X-Platform", r.platform)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("revenuecat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(body, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode revenuecat response: %w", err)
	}
	return nil
}

type subscriberResponse struct {
	Subscriber struct {
		OriginalAppUserID string                     `json:"original_app_user_id"`
		Entitlements      map[string]entitlementJSON `json:"entitlements"`
	} `json:"subscriber"`
}

type entitlementJSON struct {
	ExpiresDate       *time.Time `json:"expires_date"`
	ProductIdentifier string     `json:"product_identifier"`
}

// active is true when the entitlement never expires or expires later.
func (e entitlementJSON) active(now time.Time) bool {
	return e.ExpiresDate == nil || e.ExpiresDate.After(now)
}

func subscriberPath(appUserID string) string {
	return "/v1/subscribers/" + url.PathEscape(appUserID)
}

func (r *RevenueCat) CustomerInfo(ctx context.Context, appUserID string) (CustomerInfo, error) {
	var resp subscriberResponse
	if err := r.get(ctx, subscriberPath(appUserID), &resp); err != nil {
		return CustomerInfo{}, err
	}
	now := r.now()
	info := CustomerInfo{AppUserID: appUserID}
	for id, ent := range resp.Subscriber.Entitlements {
		if ent.active(now) {
			info.Active = append(info.Active, id)
		}
	}
	sort.Strings(info.Active)
	return info, nil
}

type offeringsResponse struct {
	CurrentOfferingID string `json:"current_offering_id"`
	Offerings         []struct {
		Identifier  string `json:"identifier"`
		Description string `json:"description"`
		Packages    []struct {
			Identifier                string `json:"identifier"`
			PlatformProductIdentifier string `json:"platform_product_identifier"`
		} `json:"packages"`
	} `json:"offerings"`
}

func (r *RevenueCat) CurrentOffering(ctx context.Context, appUserID string) (*Offering, error) {
	var resp offeringsResponse
	if err := r.get(ctx, subscriberPath(appUserID)+"/offerings", &resp); err != nil {
		return nil, err
	}
	for _, o := range resp.Offerings {
		if o.Identifier != resp.CurrentOfferingID {
			continue
		}
		off := &Offering{ID: o.Identifier}
		for _, p := range o.Packages {
			// REST carries no localized store data; the product id is the
			// best title available.
			off.Packages = append(off.Packages, Package{ID: p.Identifier, Title: p.PlatformProductIdentifier})
		}
		return off, nil
	}
	return nil, nil
}

func (r *RevenueCat) Purchase(context.Context, string, Package) (CustomerInfo, error) {
	return CustomerInfo{}, ErrPurchaseUnsupported
}

// Restore re-reads the subscriber; store receipts are synced by the store
// client, not over REST.
func (r *RevenueCat) Restore(ctx context.Context, appUserID string) (CustomerInfo, error) {
	return r.CustomerInfo(ctx, appUserID)
}

var _ Backend = (*RevenueCat)(nil)

// IsUnauthorized reports whether err means the API key was rejected.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
