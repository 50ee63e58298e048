package projections

import (
	"context"
	"errors"
	"testing"

	"backoffice/internal/domain/coupon"
	"backoffice/internal/domain/record"
)

type mockCouponSource struct {
	getErr   error
	storeErr error
	stores   []coupon.Store
	usage    []coupon.Usage
}

// Get returns a coupon carrying the requested id.
// PRE: id is non-empty
// POST: Returns the coupon or the seeded error
func (m *mockCouponSource) Get(ctx context.Context, id record.ID) (coupon.Coupon, error) {
	if m.getErr != nil {
		return coupon.Coupon{}, m.getErr
	}
	return coupon.Coupon{ID: id, Description: "Ten off"}, nil
}

// Stores returns the seeded stores unless the context was cancelled.
// PRE: id is non-empty
// POST: Returns seeded stores or an error
func (m *mockCouponSource) Stores(ctx context.Context, _ record.ID) ([]coupon.Store, error) {
	if m.storeErr != nil {
		return nil, m.storeErr
	}
	return m.stores, ctx.Err()
}

// Usage returns the seeded usage rows.
// PRE: id is non-empty
// POST: Returns seeded usage
func (m *mockCouponSource) Usage(_ context.Context, _ record.ID) ([]coupon.Usage, error) {
	return m.usage, nil
}

// TestQueryGetCouponDetail verifies the coupon and both tabs are assembled.
func TestQueryGetCouponDetail(t *testing.T) {
	src := &mockCouponSource{
		stores: []coupon.Store{{ID: "1"}},
		usage:  []coupon.Usage{{ID: "2", Code: "ABC"}, {ID: "3", Code: "DEF"}},
	}
	res, err := QueryGetCouponDetail(context.Background(), GetCouponDetailQuery{ID: "7"}, GetCouponDetailDeps{Coupons: src})
	if err != nil {
		t.Fatalf("QueryGetCouponDetail: %v", err)
	}
	if res.Coupon.ID != "7" || len(res.Stores) != 1 || len(res.Usage) != 2 {
		t.Errorf("unexpected result %+v", res)
	}
}

// TestQueryGetCouponDetail_SubListFailure verifies a failing tab does not fail the page.
func TestQueryGetCouponDetail_SubListFailure(t *testing.T) {
	src := &mockCouponSource{storeErr: errors.New("boom")}
	deps := GetCouponDetailDeps{Coupons: src, Describe: func(error) string { return "connection failed" }}
	res, err := QueryGetCouponDetail(context.Background(), GetCouponDetailQuery{ID: "7"}, deps)
	if err != nil {
		t.Fatalf("QueryGetCouponDetail: %v", err)
	}
	if res.StoresFailure != "connection failed" || res.UsageFailure != "" {
		t.Errorf("failures = %q / %q", res.StoresFailure, res.UsageFailure)
	}
}

// TestQueryGetCouponDetail_Errors verifies unsaved coupons and coupon fetch failures.
func TestQueryGetCouponDetail_Errors(t *testing.T) {
	if _, err := QueryGetCouponDetail(context.Background(), GetCouponDetailQuery{}, GetCouponDetailDeps{}); !errors.Is(err, ErrUnsavedCoupon) {
		t.Errorf("err = %v, want ErrUnsavedCoupon", err)
	}
	notFound := errors.New("not found")
	src := &mockCouponSource{getErr: notFound}
	if _, err := QueryGetCouponDetail(context.Background(), GetCouponDetailQuery{ID: "7"}, GetCouponDetailDeps{Coupons: src}); !errors.Is(err, notFound) {
		t.Errorf("err = %v, want not found", err)
	}
}
