package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/ShortLink/internal/app/model"
	"github.com/sifan077/ShortLink/internal/app/repository"
	"github.com/sifan077/ShortLink/internal/app/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "http://short.test"

type fakePublisher struct {
	events chan model.ClickEvent
}

func (p *fakePublisher) Publish(event model.ClickEvent) error {
	p.events <- event
	return nil
}

// failingRepo overrides selected calls of an embedded repository.
type failingRepo struct {
	repository.LinkRepository
	findErr   error
	countErr  error
	allExists bool
}

func (r *failingRepo) FindByOriginalURL(ctx context.Context, u string) (*model.ShortLink, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.LinkRepository.FindByOriginalURL(ctx, u)
}

func (r *failingRepo) CountAll(ctx context.Context) (int64, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	return r.LinkRepository.CountAll(ctx)
}

func (r *failingRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	if r.allExists {
		return true, nil
	}
	return r.LinkRepository.ExistsByCode(ctx, code)
}

func newTestApp(t *testing.T, repo repository.LinkRepository, publisher ClickPublisher) *fiber.App {
	t.Helper()

	resolver := service.NewCodeResolver(repo, service.ResolverConfig{MaxAttempts: 5}, nil, nil)
	app := fiber.New()
	NewHealthHandler(HealthDeps{
		Now: func() time.Time { return time.Date(2024, 5, 1, 12, 30, 0, 0, time.FixedZone("X", 3600)) },
	}).Register(app)
	NewWebHandler(WebDeps{
		Links:   service.NewLinkService(repo, resolver, nil, nil),
		Stats:   service.NewStatsService(repo, 10),
		BaseURL: testBaseURL,
	}).Register(app)
	NewRedirectHandler(RedirectDeps{
		Redirects:      service.NewRedirectService(repo, nil, nil),
		ClickPublisher: publisher,
	}).Register(app)
	return app
}

func postForm(t *testing.T, app *fiber.App, originalURL string, accept string) *http.Response {
	t.Helper()
	form := url.Values{"original_url": {originalURL}}
	req := httptest.NewRequest(fiber.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	if accept != "" {
		req.Header.Set(fiber.HeaderAccept, accept)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func getJSON(t *testing.T, app *fiber.App, path string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	req.Header.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp, decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

func count(t *testing.T, repo repository.LinkRepository) int64 {
	t.Helper()
	n, err := repo.CountAll(context.Background())
	require.NoError(t, err)
	return n
}

func TestIndex_RendersForm(t *testing.T) {
	repo := repository.NewMemoryLinkRepository()
	app := newTestApp(t, repo, nil)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/html")
	assert.Contains(t, readBody(t, resp), `name="original_url"`)
}

func TestIndex_ListsFiveMostRecent(t *testing.T) {
	repo := repository.NewMemoryLinkRepository()
	app := newTestApp(t, repo, nil)
	for i := 0; i < 7; i++ {
		_, err := repo.Insert(context.Background(), fmt.Sprintf("https://example.com/%d", i), fmt.Sprintf("rec%03d", i))
		require.NoError(t, err)
	}

	resp, body := getJSON(t, app, "/")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	recent := body["recentUrls"].([]interface{})
	require.Len(t, recent, 5)
	assert.Equal(t, "rec006", recent[0].(map[string]interface{})["short_code"])
}

func TestShorten_HTMLCreated(t *testing.T) {
	repo := repository.NewMemoryLinkRepository()
	app := newTestApp(t, repo, nil)

	resp := postForm(t, app, "https://example.com/very/long/url/that/needs/to/be/shortened", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	html := readBody(t, resp)
	assert.Contains(t, html, "URL shortened successfully!")
	assert.Contains(t, html, testBaseURL+"/s/")
	assert.Equal(t, int64(1), count(t, repo))
}

func TestShorten_StoredURLSurvivesLaterRequests(t *testing.T) {
	repo := repository.NewMemoryLinkRepository()
	app := newTestApp(t, repo, nil)

	first := postForm(t, app, "https://example.com/first-link", "")
	require.Equal(t, fiber.StatusOK, first.StatusCode)
	second := postForm(t, app, "https://zzzzzzz.org/second-link", "")
	require.Equal(t, fiber.StatusOK, second.StatusCode)

	stored, err := repo.FindByOriginalURL(context.Background(), "https://example.com/first-link")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stored.ID)
	assert.Equal(t, "https://example.com/first-link", stored.OriginalURL)

	again := postForm(t, app, "https://example.com/first-link", fiber.MIMEApplicationJSON)
	assert.Equal(t, fiber.StatusOK, again.StatusCode)
	assert.Equal(t, "duplicate", decode(t, again)["status"])
	assert.Equal(t, int64(2), count(t, repo))
}

func TestShorten_JSONCreatedThenDuplicate(t *testing.T) {
	repo := repository.NewMemoryLinkRepository()
	app := newTestApp(t, repo, nil)

	first := postForm(t, app, "https://example.com/test", fiber.MIMEApplicationJSON)
	assert.Equal(t, fiber.StatusCreated, first.StatusCode)
	created := decode(t, first)
	assert.Equal(t, "URL shortened successfully!", created["message"])
	assert.Equal(t, "created", created["status"])
	assert.Regexp(t, `^http://short\.test/s/[a-zA-Z0-9]{6}$`, created["short_url"])
	createdURL := created["url"].(map[string]interface{})
	assert.Equal(t, 0.0, createdURL["clicks"])

	second := postForm(t, app, "https://example.com/test", fiber.MIMEApplicationJSON)
	assert.Equal(t, fiber.StatusOK, second.StatusCode)
	duplicate := decode(t, second)
	assert.Equal(t, "This URL has already been shortened!", duplicate["message"])
	assert.Equal(t, "duplicate", duplicate["status"])
	duplicateURL := duplicate["url"].(map[string]interface{})
	assert.Equal(t, createdURL["id"], duplicateURL["id"])
	assert.Equal(t, createdURL["short_code"], duplicateURL["short_code"])

	assert.Equal(t, int64(1), count(t, repo))
}

func TestShorten_JSONBody(t *testing.T) {
	repo := repository.NewMemoryLinkRepository()
	app := newTestApp(t, repo, nil)

	req := httptest.NewRequest(fiber.MethodPost, "/", strings.NewReader(`{"original_url":"https://example.com/json"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestShorten_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantMsg string
	}{
		{name: "invalid url", url: "not-a-valid-url", wantMsg: "Please enter a valid URL (including http:// or https://)."},
		{name: "javascript scheme", url: "javascript:alert(document.cookie)", wantMsg: "Please enter a valid URL (including http:// or https://)."},
		{name: "data scheme", url: "data:text/html,<script>alert(1)</script>", wantMsg: "Please enter a valid URL (including http:// or https://)."},
		{name: "mailto", url: "mailto:x@y.z", wantMsg: "Please enter a valid URL (including http:// or https://)."},
		{name: "opaque uri", url: "foo:bar", wantMsg: "Please enter a valid URL (including http:// or https://)."},
		{name: "empty", url: "", wantMsg: "Please enter a URL to shorten."},
		{name: "too long", url: "https://example.com/" + strings.Repeat("x", 2048), wantMsg: "The URL is too long. Please enter a URL with less than 2048 characters."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := repository.NewMemoryLinkRepository()
			app := newTestApp(t, repo, nil)

			resp := postForm(t, app, tt.url, fiber.MIMEApplicationJSON)
			assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
			body := decode(t, resp)
			errs := body["errors"].(map[string]interface{})
			assert.Equal(t, []interface{}{tt.wantMsg}, errs["original_url"])
			assert.Zero(t, count(t, repo))
		})
	}
}

func TestShorten_EmptyBody(t *testing.T) {
	repo := repository.NewMemoryLinkRepository()
	app := newTestApp(t, repo, nil)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Please enter a URL to shorten.")
	assert.Zero(t, count(t, repo))
}

func TestShorten_HTMLValidationKeepsInput(t *testing.T) {
	repo := repository.NewMemoryLinkRepository()
	app := newTestApp(t, repo, nil)

	resp := postForm(t, app, "not-a-valid-url", "")
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	html := readBody(t, resp)
	assert.Contains(t, html, `value="not-a-valid-url"`)
	assert.Contains(t, html, "Please enter a valid URL")
}

func TestShorten_StoreTimeoutIs503(t *testing.T) {
	repo := &failingRepo{
		LinkRepository: repository.NewMemoryLinkRepository(),
		findErr:        fmt.Errorf("%w: deadline", repository.ErrStoreTimeout),
	}
	app := newTestApp(t, repo, nil)

	resp := postForm(t, app, "https://example.com", fiber.MIMEApplicationJSON)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestShorten_CodeSpaceExhaustedIs500(t *testing.T) {
	repo := &failingRepo{LinkRepository: repository.NewMemoryLinkRepository(), allExists: true}
	app := newTestApp(t, repo, nil)

	resp := postForm(t, app, "https://example.com", fiber.MIMEApplicationJSON)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal server error", decode(t, resp)["error"])
	assert.Zero(t, count(t, repo))
}

func TestRedirect_CountsEachHit(t *testing.T) {
	repo := repository.NewMemoryLinkRepository()
	publisher := &fakePublisher{events: make(chan model.ClickEvent, 10)}
	app := newTestApp(t, repo, publisher)

	link, err := repo.Insert(context.Background(), "https://example.com/test", "abc123")
	require.NoError(t, err)

	const n = 4
	for i := 0; i < n; i++ {
		req := httptest.NewRequest(fiber.MethodGet, "/s/abc123", nil)
		req.Header.Set(fiber.HeaderUserAgent, "tester")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "https://example.com/test", resp.Header.Get(fiber.HeaderLocation))
	}

	stored, err := repo.FindByCode(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, int64(n), stored.Clicks)

	for i := 0; i < n; i++ {
		select {
		case event := <-publisher.events:
			assert.Equal(t, link.ID, event.LinkID)
			assert.Equal(t, "abc123", event.ShortCode)
			assert.Equal(t, "tester", event.UserAgent)
		case <-time.After(time.Second):
			t.Fatal("click event not published")
		}
	}
}

func TestRedirect_NotFound(t *testing.T) {
	repo := repository.NewMemoryLinkRepository()
	app := newTestApp(t, repo, nil)

	_, err := repo.Insert(context.Background(), "https://example.com/test", "abc123")
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/s/invalid", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	assert.Equal(t, int64(1), count(t, repo))
	stored, err := repo.FindByCode(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Zero(t, stored.Clicks)
}

func TestStats_OrdersByClicks(t *testing.T) {
	repo := repository.NewMemoryLinkRepository()
	app := newTestApp(t, repo, nil)
	ctx := context.Background()
	for i, clicks := range []int{42, 78, 23, 15, 56} {
		link, err := repo.Insert(ctx, fmt.Sprintf("https://example.com/%d", i), fmt.Sprintf("st%04d", i))
		require.NoError(t, err)
		for j := 0; j < clicks; j++ {
			_, err := repo.IncrementClicks(ctx, link.ID)
			require.NoError(t, err)
		}
	}

	resp, body := getJSON(t, app, "/stats")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 5.0, body["totalUrls"])
	assert.Equal(t, 214.0, body["totalClicks"])
	assert.InDelta(t, 42.8, body["averageClicks"], 1e-9)

	urls := body["urls"].(map[string]interface{})
	assert.Equal(t, 1.0, urls["current_page"])
	assert.Equal(t, 1.0, urls["last_page"])
	assert.Equal(t, 10.0, urls["per_page"])
	assert.Equal(t, 5.0, urls["total"])

	var clicks []float64
	for _, item := range urls["data"].([]interface{}) {
		clicks = append(clicks, item.(map[string]interface{})["clicks"].(float64))
	}
	assert.Equal(t, []float64{78, 56, 42, 23, 15}, clicks)
}

func TestStats_PageParsing(t *testing.T) {
	repo := repository.NewMemoryLinkRepository()
	app := newTestApp(t, repo, nil)
	for i := 0; i < 25; i++ {
		_, err := repo.Insert(context.Background(), fmt.Sprintf("https://example.com/%d", i), fmt.Sprintf("pg%04d", i))
		require.NoError(t, err)
	}

	tests := []struct {
		query    string
		wantPage float64
		wantLen  int
	}{
		{query: "", wantPage: 1, wantLen: 10},
		{query: "?page=3", wantPage: 3, wantLen: 5},
		{query: "?page=0", wantPage: 1, wantLen: 10},
		{query: "?page=-2", wantPage: 1, wantLen: 10},
		{query: "?page=abc", wantPage: 1, wantLen: 10},
		{query: "?page=9", wantPage: 9, wantLen: 0},
		{query: "?page=9223372036854775807", wantPage: float64(math.MaxInt64), wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, body := getJSON(t, app, "/stats"+tt.query)
			require.Equal(t, fiber.StatusOK, resp.StatusCode)
			urls := body["urls"].(map[string]interface{})
			assert.Equal(t, tt.wantPage, urls["current_page"])
			assert.Equal(t, 3.0, urls["last_page"])
			assert.Len(t, urls["data"], tt.wantLen)
		})
	}
}

func TestStats_HTML(t *testing.T) {
	app := newTestApp(t, repository.NewMemoryLinkRepository(), nil)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/stats", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	html := readBody(t, resp)
	assert.Contains(t, html, "Total URLs")
	assert.Contains(t, html, "Page 1 of 1")
}

func TestStats_HTMLPagePastInt(t *testing.T) {
	repo := repository.NewMemoryLinkRepository()
	app := newTestApp(t, repo, nil)
	_, err := repo.Insert(context.Background(), "https://example.com/only", "only01")
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/stats?page=9223372036854775807", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotContains(t, readBody(t, resp), "only01")
}

func TestStats_StoreFailureIs500(t *testing.T) {
	repo := &failingRepo{LinkRepository: repository.NewMemoryLinkRepository(), countErr: errors.New("connection reset")}
	app := newTestApp(t, repo, nil)

	resp, body := getJSON(t, app, "/stats")
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal server error", body["error"])
}

func TestHealthCheck(t *testing.T) {
	app := newTestApp(t, repository.NewMemoryLinkRepository(), nil)

	resp, body := getJSON(t, app, "/health-check")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "2024-05-01T11:30:00Z", body["timestamp"])
}

func TestReady(t *testing.T) {
	healthy := func(ctx context.Context) error { return nil }
	broken := func(ctx context.Context) error { return errors.New("dial tcp: refused") }

	t.Run("all checks pass", func(t *testing.T) {
		app := fiber.New()
		NewHealthHandler(HealthDeps{Checks: map[string]Check{"postgres": healthy, "redis": healthy}}).Register(app)

		resp, body := getJSON(t, app, "/ready")
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "ready", body["status"])
	})

	t.Run("one check fails", func(t *testing.T) {
		app := fiber.New()
		NewHealthHandler(HealthDeps{Checks: map[string]Check{"postgres": healthy, "redis": broken}}).Register(app)

		resp, body := getJSON(t, app, "/ready")
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
		checks := body["checks"].(map[string]interface{})
		assert.Equal(t, "ok", checks["postgres"])
		assert.Equal(t, "unavailable", checks["redis"])
	})

	t.Run("no checks configured", func(t *testing.T) {
		app := fiber.New()
		NewHealthHandler(HealthDeps{}).Register(app)

		resp, _ := getJSON(t, app, "/ready")
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}

func TestParsePage(t *testing.T) {
	assert.Equal(t, 1, parsePage(""))
	assert.Equal(t, 1, parsePage("zero"))
	assert.Equal(t, 1, parsePage("0"))
	assert.Equal(t, 4, parsePage("4"))
}
