package projections

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"backoffice/internal/domain/coupon"
	"backoffice/internal/domain/record"
)

// ErrUnsavedCoupon is returned for the detail of a coupon that has no id yet.
var ErrUnsavedCoupon = errors.New("coupon has not been saved")

// GetCouponDetailQuery carries input for the coupon detail projection.
type GetCouponDetailQuery struct {
	ID record.ID
}

// GetCouponDetailDeps holds dependencies for the coupon detail projection.
type GetCouponDetailDeps struct {
	Coupons  CouponSource
	Describe func(error) string
}

// CouponDetailResult is a coupon with its Stores and Usage tabs.
type CouponDetailResult struct {
	Coupon        coupon.Coupon  `json:"coupon"`
	Stores        []coupon.Store `json:"stores"`
	Usage         []coupon.Usage `json:"usage"`
	StoresFailure string         `json:"storesFailure,omitempty"`
	UsageFailure  string         `json:"usageFailure,omitempty"`
}

// QueryGetCouponDetail fetches a coupon and both sub-lists concurrently.
// PRE: query.ID is non-empty (the tabs exist only for saved coupons)
// POST: a coupon fetch failure fails the projection and cancels the sub-lists;
// a sub-list failure only sets its Failure message
func QueryGetCouponDetail(ctx context.Context, query GetCouponDetailQuery, deps GetCouponDetailDeps) (CouponDetailResult, error) {
	if query.ID == "" {
		return CouponDetailResult{}, ErrUnsavedCoupon
	}
	describe := deps.Describe
	if describe == nil {
		describe = func(err error) string { return err.Error() }
	}

	var result CouponDetailResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := deps.Coupons.Get(gctx, query.ID)
		if err != nil {
			return err
		}
		result.Coupon = c
		return nil
	})
	g.Go(func() error {
		stores, err := deps.Coupons.Stores(gctx, query.ID)
		if err != nil {
			result.StoresFailure = describe(err)
			return nil
		}
		result.Stores = stores
		return nil
	})
	g.Go(func() error {
		usage, err := deps.Coupons.Usage(gctx, query.ID)
		if err != nil {
			result.UsageFailure = describe(err)
			return nil
		}
		result.Usage = usage
		return nil
	})
	if err := g.Wait(); err != nil {
		return CouponDetailResult{}, err
	}
	return result, nil
}
