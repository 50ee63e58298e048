package marketplace

import (
	"context"
	"encoding/json"
	"io"
	"net/url"

	"backoffice/internal/application/listutil"
	"backoffice/internal/domain/coupon"
	"backoffice/internal/domain/record"
)

// Count returns how many records resource holds, reading a one-row page.
func (c *Client) Count(ctx context.Context, resource string) (int, error) {
	res, err := List[json.RawMessage](ctx, c, resource, listutil.ListQuery{Size: 1})
	if err != nil {
		return 0, err
	}
	return res.Count(), nil
}

// Coupons reads coupons and their sub-lists from the coupon service.
type Coupons struct {
	Client *Client
}

// Get fetches one coupon.
func (s Coupons) Get(ctx context.Context, id record.ID) (coupon.Coupon, error) {
	return Get[coupon.Coupon](ctx, s.Client, coupon.Resource, id)
}

// Stores lists the stores where a coupon can be redeemed.
func (s Coupons) Stores(ctx context.Context, id record.ID) ([]coupon.Store, error) {
	return ListAll[coupon.Store](ctx, s.Client, coupon.StoreResource, url.Values{"coupon": {string(id)}})
}

// Usage lists the accounts that hold a coupon.
func (s Coupons) Usage(ctx context.Context, id record.ID) ([]coupon.Usage, error) {
	return ListAll[coupon.Usage](ctx, s.Client, coupon.UsageResource, url.Values{"coupon": {string(id)}})
}

// UploadImage stores an image through the coupon service.
func (s Coupons) UploadImage(ctx context.Context, filename string, r io.Reader) (record.Image, error) {
	return s.Client.Upload(ctx, coupon.UploadPath, filename, r)
}
