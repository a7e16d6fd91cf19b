package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func productPage(whole string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="fr">
	<body>
		<div id="corePrice_feature_div">
			<span class="a-price aok-align-center">
				<span class="a-offscreen">%[1]s,99 €</span>
				<span aria-hidden="true">
					<span class="a-price-whole">%[1]s<span class="a-price-decimal">,</span></span><span class="a-price-fraction">99</span><span class="a-price-symbol">€</span>
				</span>
			</span>
		</div>
	</body>
</html>
`, whole)
}

const pageWithoutPrice = `<!DOCTYPE html>
<html lang="fr">
	<body>
		<div id="captcha">Saisissez les caractères que vous voyez ci-dessous</div>
	</body>
</html>
`

type fakeFetcher struct {
	body string
	err  error
	urls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.urls = append(f.urls, url)
	return f.body, f.err
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		text    string
		want    int64
		wantErr bool
	}{
		{text: "129", want: 129},
		{text: "129,", want: 129},
		{text: "1,299", want: 1299},
		{text: "1,299.", want: 1299},
		{text: "1 299,", want: 1299},
		{text: "1\u00a0299,", want: 1299},
		{text: "1\u202f299", want: 1299},
		{text: "  42\n", want: 42},
		{text: "0", want: 0},
		{text: "", wantErr: true},
		{text: ",", wantErr: true},
		{text: "-5", wantErr: true},
		{text: "+5", wantErr: true},
		{text: "12€", wantErr: true},
		{text: "abc", wantErr: true},
		{text: "99999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParsePrice(tt.text, DefaultGroupingSeparators)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParsePrice(%q) = %d, want error", tt.text, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePrice(%q) unexpected error: %v", tt.text, err)
			}
			if got != tt.want {
				t.Errorf("ParsePrice(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestParsePriceCustomSeparators(t *testing.T) {
	// with only commas stripped a trailing dot is not a valid integer
	if _, err := ParsePrice("1,299.", ","); err == nil {
		t.Error("ParsePrice with comma-only separators accepted a dot")
	}
	got, err := ParsePrice("1'299", "'")
	if err != nil || got != 1299 {
		t.Errorf("ParsePrice(1'299) = (%d, %v), want (1299, nil)", got, err)
	}
}

func TestSelectors(t *testing.T) {
	tests := []struct {
		name      string
		selector  Selector
		expr      string
		doc       string
		wantText  string
		wantFound bool
		wantErr   bool
	}{
		{
			name:      "css first match",
			selector:  CSSSelector{},
			expr:      DefaultSelector,
			doc:       productPage("129") + productPage("999"),
			wantText:  "129,",
			wantFound: true,
		},
		{
			name:     "css no match",
			selector: CSSSelector{},
			expr:     DefaultSelector,
			doc:      pageWithoutPrice,
		},
		{
			name:     "css invalid selector",
			selector: CSSSelector{},
			expr:     "span[",
			doc:      pageWithoutPrice,
			wantErr:  true,
		},
		{
			name:      "xpath first match",
			selector:  XPathSelector{},
			expr:      `//span[@class="a-price-whole"]`,
			doc:       productPage("1 299"),
			wantText:  "1 299,",
			wantFound: true,
		},
		{
			name:     "xpath no match",
			selector: XPathSelector{},
			expr:     `//span[@class="a-price-whole"]`,
			doc:      pageWithoutPrice,
		},
		{
			name:     "xpath invalid expression",
			selector: XPathSelector{},
			expr:     `//span[`,
			doc:      pageWithoutPrice,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, found, err := tt.selector.Select(tt.doc, tt.expr)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Select expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Select unexpected error: %v", err)
			}
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if text != tt.wantText {
				t.Errorf("text = %q, want %q", text, tt.wantText)
			}
		})
	}
}

func TestNewSelector(t *testing.T) {
	if s, err := NewSelector(""); err != nil || s == nil {
		t.Errorf("NewSelector(\"\") = (%v, %v), want css selector", s, err)
	}
	if _, ok := mustSelector(t, SelectorCSS).(CSSSelector); !ok {
		t.Error("NewSelector(css) is not a CSSSelector")
	}
	if _, ok := mustSelector(t, SelectorXPath).(XPathSelector); !ok {
		t.Error("NewSelector(xpath) is not an XPathSelector")
	}
	if _, err := NewSelector("regex"); err == nil {
		t.Error("NewSelector(regex) expected error")
	}
}

func mustSelector(t *testing.T, kind string) Selector {
	t.Helper()
	s, err := NewSelector(kind)
	if err != nil {
		t.Fatalf("NewSelector(%q): %v", kind, err)
	}
	return s
}

func TestFetchPrice(t *testing.T) {
	f := &fakeFetcher{body: productPage("1,299")}
	s := NewPriceScraper(f, CSSSelector{})

	got, err := s.FetchPrice(context.Background(), "B0B46N7QQL")
	if err != nil {
		t.Fatalf("FetchPrice: %v", err)
	}
	if got != 1299 {
		t.Errorf("FetchPrice = %d, want 1299", got)
	}
	if len(f.urls) != 1 || f.urls[0] != "https://www.amazon.fr/dp/B0B46N7QQL" {
		t.Errorf("fetched %v, want the default product url", f.urls)
	}
}

func TestFetchPriceCustomTemplate(t *testing.T) {
	f := &fakeFetcher{body: productPage("10")}
	s := NewPriceScraper(f, XPathSelector{},
		WithURLTemplate("https://shop.example/item/%s?ref=watch"),
		WithSelectorExpr(`//span[@class="a-price-whole"]`),
	)

	if _, err := s.FetchPrice(context.Background(), "a b/c"); err != nil {
		t.Fatalf("FetchPrice: %v", err)
	}
	if want := "https://shop.example/item/a%20b%2Fc?ref=watch"; f.urls[0] != want {
		t.Errorf("fetched %q, want %q", f.urls[0], want)
	}
}

func TestFetchPriceNotFound(t *testing.T) {
	s := NewPriceScraper(&fakeFetcher{body: pageWithoutPrice}, CSSSelector{})

	_, err := s.FetchPrice(context.Background(), "B0B46N7QQL")
	var nf *PriceNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("FetchPrice error = %v, want PriceNotFoundError", err)
	}
	if nf.URL != "https://www.amazon.fr/dp/B0B46N7QQL" {
		t.Errorf("PriceNotFoundError.URL = %q", nf.URL)
	}
}

func TestFetchPriceBadText(t *testing.T) {
	s := NewPriceScraper(&fakeFetcher{body: productPage("gratuit")}, CSSSelector{})

	_, err := s.FetchPrice(context.Background(), "B0B46N7QQL")
	var pf *PriceFormatError
	if !errors.As(err, &pf) {
		t.Fatalf("FetchPrice error = %v, want PriceFormatError", err)
	}
	if pf.Text != "gratuit," {
		t.Errorf("PriceFormatError.Text = %q, want %q", pf.Text, "gratuit,")
	}
}

func TestFetchPriceFetcherError(t *testing.T) {
	cause := errors.New("connection reset by peer")
	s := NewPriceScraper(&fakeFetcher{err: cause}, CSSSelector{})

	_, err := s.FetchPrice(context.Background(), "B0B46N7QQL")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("FetchPrice error = %v, want FetchError", err)
	}
	if fe.URL != "https://www.amazon.fr/dp/B0B46N7QQL" {
		t.Errorf("FetchError.URL = %q", fe.URL)
	}
	if !errors.Is(err, cause) {
		t.Error("FetchError does not unwrap to the transport cause")
	}
}

func TestFetchPriceEmptyID(t *testing.T) {
	f := &fakeFetcher{body: productPage("10")}
	s := NewPriceScraper(f, CSSSelector{})
	if _, err := s.FetchPrice(context.Background(), ""); err == nil {
		t.Fatal("FetchPrice(\"\") expected error")
	}
	if len(f.urls) != 0 {
		t.Error("FetchPrice fetched a page for an empty product id")
	}
}

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *[]string) {
	t.Helper()
	var agents []string
	mux := http.NewServeMux()
	mux.HandleFunc("/dp/", func(w http.ResponseWriter, r *http.Request) {
		agents = append(agents, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		w.Write([]byte(body))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, &agents
}

func TestCollyFetcher(t *testing.T) {
	ts, agents := newTestServer(t, http.StatusOK, productPage("129"))

	f, err := NewCollyFetcher()
	if err != nil {
		t.Fatal(err)
	}

	// twice: the same url must be fetchable on every call
	for i := 0; i < 2; i++ {
		body, err := f.Fetch(context.Background(), ts.URL+"/dp/B0B46N7QQL")
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if !strings.Contains(body, "a-price-whole") {
			t.Errorf("Fetch body missing price markup: %q", body)
		}
	}

	if len(*agents) != 2 {
		t.Fatalf("server saw %d requests, want 2", len(*agents))
	}
	if (*agents)[0] != DefaultUserAgent {
		t.Errorf("User-Agent = %q, want %q", (*agents)[0], DefaultUserAgent)
	}
}

func TestCollyFetcherUserAgent(t *testing.T) {
	ts, agents := newTestServer(t, http.StatusOK, productPage("129"))

	f, err := NewCollyFetcher(WithUserAgent("pricewatch-test/1.0"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Fetch(context.Background(), ts.URL+"/dp/X"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if (*agents)[0] != "pricewatch-test/1.0" {
		t.Errorf("User-Agent = %q", (*agents)[0])
	}
}

func TestCollyFetcherStatusErrors(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusServiceUnavailable, http.StatusTooManyRequests} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			ts, _ := newTestServer(t, status, pageWithoutPrice)
			f, err := NewCollyFetcher()
			if err != nil {
				t.Fatal(err)
			}

			_, err = f.Fetch(context.Background(), ts.URL+"/dp/X")
			var fe *FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("Fetch error = %v, want FetchError", err)
			}
			if fe.StatusCode != status {
				t.Errorf("FetchError.StatusCode = %d, want %d", fe.StatusCode, status)
			}
			if fe.URL != ts.URL+"/dp/X" {
				t.Errorf("FetchError.URL = %q", fe.URL)
			}
		})
	}
}

func TestCollyFetcherNonAuthoritativeIsSuccess(t *testing.T) {
	ts, _ := newTestServer(t, http.StatusNonAuthoritativeInfo, productPage("5"))
	f, err := NewCollyFetcher()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Fetch(context.Background(), ts.URL+"/dp/X"); err != nil {
		t.Errorf("Fetch on 203 error = %v, want nil", err)
	}
}

func TestCollyFetcherConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	target := ts.URL + "/dp/X"
	ts.Close()

	f, err := NewCollyFetcher()
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.Fetch(context.Background(), target)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Fetch error = %v, want FetchError", err)
	}
	if fe.StatusCode != 0 {
		t.Errorf("FetchError.StatusCode = %d, want 0 for transport failure", fe.StatusCode)
	}
}

func TestCollyFetcherCancelledContext(t *testing.T) {
	ts, agents := newTestServer(t, http.StatusOK, productPage("5"))
	f, err := NewCollyFetcher()
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Fetch(ctx, ts.URL+"/dp/X")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Fetch error = %v, want context.Canceled", err)
	}
	if len(*agents) != 0 {
		t.Error("Fetch sent a request with a cancelled context")
	}
}

func TestCollyFetcherTLS(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(productPage("77")))
	}))
	defer ts.Close()

	t.Run("verification on", func(t *testing.T) {
		f, err := NewCollyFetcher()
		if err != nil {
			t.Fatal(err)
		}
		_, err = f.Fetch(context.Background(), ts.URL+"/dp/X")
		var fe *FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("Fetch error = %v, want FetchError for self-signed cert", err)
		}
	})

	t.Run("verification off", func(t *testing.T) {
		f, err := NewCollyFetcher(WithInsecureSkipVerify(true))
		if err != nil {
			t.Fatal(err)
		}
		body, err := f.Fetch(context.Background(), ts.URL+"/dp/X")
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if !strings.Contains(body, "77") {
			t.Errorf("unexpected body %q", body)
		}
	})
}

func TestCollyFetcherProxy(t *testing.T) {
	var proxied []string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxied = append(proxied, r.URL.String())
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(productPage("64")))
	}))
	defer proxy.Close()

	f, err := NewCollyFetcher(WithProxy(proxy.URL))
	if err != nil {
		t.Fatal(err)
	}
	body, err := f.Fetch(context.Background(), "http://shop.example/dp/B0B46N7QQL")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(body, "64") {
		t.Errorf("unexpected body %q", body)
	}
	if len(proxied) != 1 || proxied[0] != "http://shop.example/dp/B0B46N7QQL" {
		t.Errorf("proxy saw %v, want the absolute target url", proxied)
	}
}

func TestNewCollyFetcherBadProxy(t *testing.T) {
	for _, p := range []string{"://nope", "localhost:3128"} {
		if _, err := NewCollyFetcher(WithProxy(p)); err == nil {
			t.Errorf("NewCollyFetcher(WithProxy(%q)) expected error", p)
		}
	}
}

func TestFetchErrorMessage(t *testing.T) {
	err := &FetchError{URL: "https://shop.example/dp/X", StatusCode: 503, Err: errUnexpectedStatus}
	want := `fetch "https://shop.example/dp/X": status 503 Service Unavailable: unexpected status`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
