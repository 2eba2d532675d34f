package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/splitsync/internal/common"
)

// TokenFunc supplies the current access token for a request.
type TokenFunc func(ctx context.Context) (string, error)

// HTTPClient implements Service against the authority's JSON API.
type HTTPClient struct {
	baseURL string
	token   TokenFunc
	http    *http.Client
}

func NewHTTPClient(baseURL string, token TokenFunc) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type errorBody struct {
	Message string `json:"message"`
}

// do performs one JSON round trip. Non-2xx responses come back as *APIError.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}
	req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		if eb.Message == "" {
			eb.Message = resp.Status
		}
		return &APIError{StatusCode: resp.StatusCode, Message: eb.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func doOne[T any](ctx context.Context, c *HTTPClient, method, path string, body any) (*T, error) {
	var out T
	if err := c.do(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func doList[T any](ctx context.Context, c *HTTPClient, path string, cursor int64) ([]T, error) {
	var out []T
	p := fmt.Sprintf("%s?since=%d", path, cursor)
	if err := c.do(ctx, http.MethodGet, p, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) CreateUser(ctx context.Context, u UserWire) (*UserWire, error) {
	return doOne[UserWire](ctx, c, http.MethodPost, "/v1/users", u)
}

func (c *HTTPClient) UpdateUser(ctx context.Context, u UserWire) (*UserWire, error) {
	return doOne[UserWire](ctx, c, http.MethodPut, fmt.Sprintf("/v1/users/%d", u.ID), u)
}

func (c *HTTPClient) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/v1/users/%d", id), nil, nil)
}

func (c *HTTPClient) ListUsersSince(ctx context.Context, cursor int64) ([]UserWire, error) {
	return doList[UserWire](ctx, c, "/v1/users", cursor)
}

func (c *HTTPClient) CreateGroup(ctx context.Context, g GroupWire) (*GroupWire, error) {
	return doOne[GroupWire](ctx, c, http.MethodPost, "/v1/groups", g)
}

func (c *HTTPClient) UpdateGroup(ctx context.Context, g GroupWire) (*GroupWire, error) {
	return doOne[GroupWire](ctx, c, http.MethodPut, fmt.Sprintf("/v1/groups/%d", g.ID), g)
}

func (c *HTTPClient) DeleteGroup(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/v1/groups/%d", id), nil, nil)
}

func (c *HTTPClient) ListGroupsSince(ctx context.Context, cursor int64) ([]GroupWire, error) {
	return doList[GroupWire](ctx, c, "/v1/groups", cursor)
}

func (c *HTTPClient) CreateMembership(ctx context.Context, m MembershipWire) (*MembershipWire, error) {
	return doOne[MembershipWire](ctx, c, http.MethodPost, "/v1/memberships", m)
}

func (c *HTTPClient) UpdateMembership(ctx context.Context, m MembershipWire) (*MembershipWire, error) {
	return doOne[MembershipWire](ctx, c, http.MethodPut, fmt.Sprintf("/v1/memberships/%d", m.ID), m)
}

func (c *HTTPClient) DeleteMembership(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/v1/memberships/%d", id), nil, nil)
}

func (c *HTTPClient) ListMembershipsSince(ctx context.Context, cursor int64) ([]MembershipWire, error) {
	return doList[MembershipWire](ctx, c, "/v1/memberships", cursor)
}

func (c *HTTPClient) CreatePayment(ctx context.Context, p PaymentWire) (*PaymentWire, error) {
	return doOne[PaymentWire](ctx, c, http.MethodPost, "/v1/payments", p)
}

func (c *HTTPClient) UpdatePayment(ctx context.Context, p PaymentWire) (*PaymentWire, error) {
	return doOne[PaymentWire](ctx, c, http.MethodPut, fmt.Sprintf("/v1/payments/%d", p.ID), p)
}

func (c *HTTPClient) DeletePayment(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/v1/payments/%d", id), nil, nil)
}

func (c *HTTPClient) ListPaymentsSince(ctx context.Context, cursor int64) ([]PaymentWire, error) {
	return doList[PaymentWire](ctx, c, "/v1/payments", cursor)
}

func (c *HTTPClient) CreateSplit(ctx context.Context, s SplitWire) (*SplitWire, error) {
	return doOne[SplitWire](ctx, c, http.MethodPost, "/v1/splits", s)
}

func (c *HTTPClient) UpdateSplit(ctx context.Context, s SplitWire) (*SplitWire, error) {
	return doOne[SplitWire](ctx, c, http.MethodPut, fmt.Sprintf("/v1/splits/%d", s.ID), s)
}

func (c *HTTPClient) DeleteSplit(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/v1/splits/%d", id), nil, nil)
}

func (c *HTTPClient) CreateBankAccount(ctx context.Context, a BankAccountWire) (*BankAccountWire, error) {
	return doOne[BankAccountWire](ctx, c, http.MethodPost, "/v1/bank-accounts", a)
}

func (c *HTTPClient) UpdateBankAccount(ctx context.Context, a BankAccountWire) (*BankAccountWire, error) {
	return doOne[BankAccountWire](ctx, c, http.MethodPut, fmt.Sprintf("/v1/bank-accounts/%d", a.ID), a)
}

func (c *HTTPClient) DeleteBankAccount(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/v1/bank-accounts/%d", id), nil, nil)
}

func (c *HTTPClient) ListBankAccountsSince(ctx context.Context, cursor int64) ([]BankAccountWire, error) {
	return doList[BankAccountWire](ctx, c, "/v1/bank-accounts", cursor)
}

func (c *HTTPClient) ListRequisitionsSince(ctx context.Context, cursor int64) ([]RequisitionWire, error) {
	return doList[RequisitionWire](ctx, c, "/v1/requisitions", cursor)
}

func (c *HTTPClient) CreateRate(ctx context.Context, r ConversionRateWire) (*ConversionRateWire, error) {
	return doOne[ConversionRateWire](ctx, c, http.MethodPost, "/v1/rates", r)
}

func (c *HTTPClient) UpdateRate(ctx context.Context, r ConversionRateWire) (*ConversionRateWire, error) {
	return doOne[ConversionRateWire](ctx, c, http.MethodPut, fmt.Sprintf("/v1/rates/%d", r.ID), r)
}

func (c *HTTPClient) DeleteRate(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/v1/rates/%d", id), nil, nil)
}

func (c *HTTPClient) ListRatesSince(ctx context.Context, cursor int64) ([]ConversionRateWire, error) {
	return doList[ConversionRateWire](ctx, c, "/v1/rates", cursor)
}

func (c *HTTPClient) CreateDeviceToken(ctx context.Context, d DeviceTokenWire) (*DeviceTokenWire, error) {
	return doOne[DeviceTokenWire](ctx, c, http.MethodPost, "/v1/device-tokens", d)
}

func (c *HTTPClient) UpdateDeviceToken(ctx context.Context, d DeviceTokenWire) (*DeviceTokenWire, error) {
	return doOne[DeviceTokenWire](ctx, c, http.MethodPut, fmt.Sprintf("/v1/device-tokens/%d", d.ID), d)
}

func (c *HTTPClient) DeleteDeviceToken(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/v1/device-tokens/%d", id), nil, nil)
}

func (c *HTTPClient) ListDeviceTokensSince(ctx context.Context, cursor int64) ([]DeviceTokenWire, error) {
	return doList[DeviceTokenWire](ctx, c, "/v1/device-tokens", cursor)
}

func (c *HTTPClient) CreatePreference(ctx context.Context, p PreferenceWire) (*PreferenceWire, error) {
	return doOne[PreferenceWire](ctx, c, http.MethodPost, "/v1/preferences", p)
}

func (c *HTTPClient) UpdatePreference(ctx context.Context, p PreferenceWire) (*PreferenceWire, error) {
	return doOne[PreferenceWire](ctx, c, http.MethodPut, fmt.Sprintf("/v1/preferences/%d", p.ID), p)
}

func (c *HTTPClient) ListPreferencesSince(ctx context.Context, cursor int64) ([]PreferenceWire, error) {
	return doList[PreferenceWire](ctx, c, "/v1/preferences", cursor)
}

func (c *HTTPClient) CreateArchive(ctx context.Context, a ArchiveWire) (*ArchiveWire, error) {
	return doOne[ArchiveWire](ctx, c, http.MethodPost, "/v1/archives", a)
}

func (c *HTTPClient) DeleteArchive(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/v1/archives/%d", id), nil, nil)
}

func (c *HTTPClient) ListArchivesSince(ctx context.Context, cursor int64) ([]ArchiveWire, error) {
	return doList[ArchiveWire](ctx, c, "/v1/archives", cursor)
}
