package insights_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ignite/adpilot/internal/meta"
	"github.com/ignite/adpilot/internal/service/insights"
	"github.com/ignite/adpilot/internal/shopify"
)

// fakeGraph returns a canned insights row (or none).
type fakeGraph struct {
	row *meta.InsightsRow
	err error
}

func (f *fakeGraph) GetInsights(_ context.Context, _, _ string, _ meta.Window) (*meta.InsightsRow, error) {
	return f.row, f.err
}

func (f *fakeGraph) GetInsightsBreakdown(_ context.Context, _, _ string, _ meta.Window, _ []string) ([]meta.InsightsRow, error) {
	if f.row == nil {
		return nil, f.err
	}
	return []meta.InsightsRow{*f.row}, f.err
}

type fakeOrders struct {
	aov   float64
	err   error
	calls int
}

func (f *fakeOrders) AverageOrderValue(_ context.Context, _, _ string) (float64, error) {
	f.calls++
	return f.aov, f.err
}

var creds = insights.Credentials{Shop: "test.myshopify.com", MetaToken: "m", ShopifyToken: "s"}

func TestSnapshotComputesROAS(t *testing.T) {
	graph := &fakeGraph{row: &meta.InsightsRow{Spend: 100, Conversions: 10, Clicks: 50}}
	svc := insights.NewService(graph, &fakeOrders{aov: 40})

	snap, err := svc.Snapshot(context.Background(), creds, "123", meta.LookbackWindow(24))
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap == nil {
		t.Fatal("expected a snapshot")
	}
	// 10 conversions × 40 AOV / 100 spend = 4.0
	if snap.ROAS != 4.0 {
		t.Errorf("ROAS = %v, want 4.0", snap.ROAS)
	}
}

func TestSnapshotZeroSpendYieldsZeroROAS(t *testing.T) {
	graph := &fakeGraph{row: &meta.InsightsRow{Spend: 0, Conversions: 25}}
	svc := insights.NewService(graph, &fakeOrders{aov: 500})

	snap, err := svc.Snapshot(context.Background(), creds, "123", meta.LookbackWindow(24))
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap.ROAS != 0 {
		t.Errorf("ROAS = %v, want 0 for zero spend", snap.ROAS)
	}
}

func TestSnapshotNoDataReturnsNil(t *testing.T) {
	svc := insights.NewService(&fakeGraph{row: nil}, &fakeOrders{aov: 40})

	snap, err := svc.Snapshot(context.Background(), creds, "123", meta.LookbackWindow(24))
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap != nil {
		t.Errorf("expected nil snapshot for empty remote data, got %+v", snap)
	}
}

func TestSnapshotSkipsAOVLookupWithoutToken(t *testing.T) {
	graph := &fakeGraph{row: &meta.InsightsRow{Spend: 100, Conversions: 2}}
	orders := &fakeOrders{aov: 80}
	svc := insights.NewService(graph, orders)

	noShopify := insights.Credentials{Shop: "test.myshopify.com", MetaToken: "m"}
	snap, err := svc.Snapshot(context.Background(), noShopify, "123", meta.LookbackWindow(24))
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	want := 2 * shopify.DefaultAverageOrderValue / 100
	if snap.ROAS != want {
		t.Errorf("ROAS = %v, want fallback-based %v", snap.ROAS, want)
	}
	if orders.calls != 0 {
		t.Errorf("AOV lookup made %d calls, want 0 without a token", orders.calls)
	}
}

func TestSnapshotFallsBackWhenAOVFails(t *testing.T) {
	graph := &fakeGraph{row: &meta.InsightsRow{Spend: 100, Conversions: 2}}
	svc := insights.NewService(graph, &fakeOrders{err: errors.New("shopify down")})

	snap, err := svc.Snapshot(context.Background(), creds, "123", meta.LookbackWindow(24))
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	want := 2 * shopify.DefaultAverageOrderValue / 100
	if snap.ROAS != want {
		t.Errorf("ROAS = %v, want fallback-based %v", snap.ROAS, want)
	}
}
