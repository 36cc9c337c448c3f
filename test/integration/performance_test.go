package integration

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/iwvelando/zakatease/internal/prices"
	"github.com/iwvelando/zakatease/internal/zakat"
	"github.com/iwvelando/zakatease/pkg/testutil"
	"go.uber.org/zap"
)

func benchmarkLedgers() (zakat.AssetLedger, zakat.DeductionLedger) {
	assets := zakat.NewAssetLedger()
	for i, category := range zakat.AssetCategories {
		_ = assets.Set(category, float64(100000*(i+1)))
	}
	deductions := zakat.NewDeductionLedger()
	for i, category := range zakat.DeductionCategories {
		_ = deductions.Set(category, float64(25000*(i+1)))
	}
	return assets, deductions
}

func BenchmarkCompute(b *testing.B) {
	assets, deductions := benchmarkLedgers()
	calculator := zakat.NewCalculator(zakat.DefaultResolver())
	nisab := zakat.ThresholdConfig{GoldPricePerUnit: 243750, SilverPricePerUnit: 3000}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = calculator.Compute(assets, deductions, nisab)
	}
}

func BenchmarkCachedReferencePrices(b *testing.B) {
	source := testutil.NewPriceSource(b, http.StatusOK, map[string][]byte{
		"xau.json": testutil.PricePayload("xau", "2026-10-17", map[string]float64{"pkr": 650000}),
		"xag.json": testutil.PricePayload("xag", "2026-10-17", map[string]float64{"pkr": 8000}),
	})
	cfg := prices.DefaultConfig()
	cfg.PrimaryURL = source.URL
	cfg.FallbackURL = source.URL
	svc := prices.NewService(cfg, nil, nil, zap.NewNop())
	defer svc.Wait()

	ctx := context.Background()
	if _, err := svc.ReferencePrices(ctx); err != nil {
		b.Fatalf("ReferencePrices() error = %v", err)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := svc.ReferencePrices(ctx); err != nil {
				b.Errorf("ReferencePrices() error = %v", err)
				return
			}
		}
	})
}

// TestConcurrentColdRequestsShareFetch checks that a burst of callers against
// an empty cache produces a single fetch per metal.
func TestConcurrentColdRequestsShareFetch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping concurrency test in short mode")
	}

	source := testutil.NewPriceSource(t, http.StatusOK, map[string][]byte{
		"xau.json": testutil.PricePayload("xau", "2026-10-17", map[string]float64{"pkr": 650000}),
		"xag.json": testutil.PricePayload("xag", "2026-10-17", map[string]float64{"pkr": 8000}),
	})
	release := source.Block()

	cfg := prices.DefaultConfig()
	cfg.PrimaryURL = source.URL
	cfg.FallbackURL = source.URL
	svc := prices.NewService(cfg, nil, nil, zap.NewNop())
	defer svc.Wait()

	const callers = 50
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	start := time.Now()
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ReferencePrices(context.Background())
			errs <- err
		}()
	}

	time.Sleep(50 * time.Millisecond)
	release()
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("ReferencePrices() error = %v", err)
		}
	}
	if hits := source.Hits(); hits != 2 {
		t.Errorf("expected 2 upstream requests, got %d", hits)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("concurrent requests took %v", elapsed)
	}
}
