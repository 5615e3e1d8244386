package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*YahooProvider, func()) {
	t.Helper()

	srv := httptest.NewServer(handler)
	p := NewYahooProvider(5 * time.Second)
	p.baseURL = srv.URL
	return p, srv.Close
}

func TestGetQuote(t *testing.T) {
	p, cleanup := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v7/finance/quote") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"quoteResponse":{"result":[{"marketCap":5300000000}]}}`))
	})
	defer cleanup()

	quote, err := p.GetQuote(context.Background(), "ACME")
	if err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}
	if !quote.MarketCap.Valid {
		t.Fatal("expected market cap to be present")
	}
	if quote.MarketCap.Decimal.InexactFloat64() != 5.3e9 {
		t.Errorf("unexpected market cap: %s", quote.MarketCap.Decimal)
	}
}

func TestGetQuoteMissingCap(t *testing.T) {
	p, cleanup := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"quoteResponse":{"result":[{}]}}`))
	})
	defer cleanup()

	quote, err := p.GetQuote(context.Background(), "ACME")
	if err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}
	if quote.MarketCap.Valid {
		t.Error("expected null market cap when field is absent")
	}
}

func TestGetQuoteUnknownTicker(t *testing.T) {
	p, cleanup := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"quoteResponse":{"result":[]}}`))
	})
	defer cleanup()

	if _, err := p.GetQuote(context.Background(), "NOPE"); err == nil {
		t.Fatal("expected error for unknown ticker")
	}
}

func TestGetPriceHistorySkipsNullCloses(t *testing.T) {
	p, cleanup := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[{
			"timestamp":[1767571200,1767657600,1767744000],
			"indicators":{"quote":[{"close":[101.5,null,103.25]}]}
		}]}}`))
	})
	defer cleanup()

	bars, err := p.GetPriceHistory(context.Background(), "ACME", 7)
	if err != nil {
		t.Fatalf("GetPriceHistory failed: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars after skipping null close, got %d", len(bars))
	}
	if bars[0].Close.InexactFloat64() != 101.5 || bars[1].Close.InexactFloat64() != 103.25 {
		t.Errorf("unexpected closes: %v", bars)
	}
	if !bars[0].Date.Before(bars[1].Date) {
		t.Error("expected bars ordered oldest first")
	}
}

func TestGetEarningsDatesWrappedShape(t *testing.T) {
	p, cleanup := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"quoteSummary":{"result":[{
			"calendarEvents":{"earnings":{"earningsDate":[{"raw":1772323200,"fmt":"2026-02-29"}]}},
			"earningsHistory":{"history":[
				{"quarter":{"raw":1764547200}},
				{"quarter":{"raw":1756684800}}
			]}
		}]}}`))
	})
	defer cleanup()

	dates, err := p.GetEarningsDates(context.Background(), "ACME")
	if err != nil {
		t.Fatalf("GetEarningsDates failed: %v", err)
	}
	if dates.Next == nil {
		t.Fatal("expected next earnings date")
	}
	if dates.Last == nil {
		t.Fatal("expected last earnings date")
	}
	// Latest history quarter wins.
	if dates.Last.Unix() != 1764547200 {
		t.Errorf("unexpected last earnings: %v", dates.Last)
	}
}

func TestGetEarningsDatesBareEpochShape(t *testing.T) {
	p, cleanup := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"quoteSummary":{"result":[{
			"calendarEvents":{"earnings":{"earningsDate":[1772323200]}}
		}]}}`))
	})
	defer cleanup()

	dates, err := p.GetEarningsDates(context.Background(), "ACME")
	if err != nil {
		t.Fatalf("GetEarningsDates failed: %v", err)
	}
	if dates.Next == nil || dates.Next.Unix() != 1772323200 {
		t.Errorf("unexpected next earnings: %v", dates.Next)
	}
	if dates.Last != nil {
		t.Errorf("expected nil last earnings without history, got %v", dates.Last)
	}
}

func TestGetEarningsDatesAbsentCalendar(t *testing.T) {
	p, cleanup := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"quoteSummary":{"result":[{}]}}`))
	})
	defer cleanup()

	dates, err := p.GetEarningsDates(context.Background(), "ACME")
	if err != nil {
		t.Fatalf("GetEarningsDates failed: %v", err)
	}
	if dates.Last != nil || dates.Next != nil {
		t.Errorf("expected empty dates, got %+v", dates)
	}
}
