package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pet-adoption-portal/internal/apiclient"
	"pet-adoption-portal/internal/apitest"
	"pet-adoption-portal/internal/config"
	"pet-adoption-portal/internal/handler"
	"pet-adoption-portal/internal/middleware"
	"pet-adoption-portal/internal/model"
	"pet-adoption-portal/internal/repository"
	"pet-adoption-portal/internal/service"
)

var csrfFieldPattern = regexp.MustCompile(`name="gorilla.csrf.Token" value="([^"]+)"`)

type portal struct {
	t         *testing.T
	fake      *apitest.Server
	server    *httptest.Server
	http      *http.Client
	workflows *service.WorkflowRegistry
}

func newPortal(t *testing.T) *portal {
	t.Helper()
	return newPortalWithHealth(t, nil)
}

func newPortalWithHealth(t *testing.T, ping func(ctx context.Context) error) *portal {
	t.Helper()

	fake := apitest.New(t)
	cfg := &config.Config{
		RequestTimeout:    10 * time.Second,
		APIBaseURL:        fake.URL(),
		SessionCookieName: "pet_session",
		SessionIdleTTL:    time.Hour,
		CSRFKey:           []byte("0123456789abcdef0123456789abcdef"),
		CORSOrigins:       []string{"*"},
		RateLimitRPM:      10000,
		AuthRateLimitRPM:  10000,
		RedirectDelay:     3 * time.Second,
	}

	client, err := apiclient.New(apiclient.Config{BaseURL: cfg.APIBaseURL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	views, err := handler.NewRenderer()
	require.NoError(t, err)

	gate := service.NewAuthGate(cfg.RedirectDelay)
	workflows := service.NewWorkflowRegistry()
	sessions := middleware.NewSessionMiddleware(repository.NewMemoryTokenRepository(), cfg.SessionCookieName, false, cfg.SessionIdleTTL)

	h := New(cfg, sessions, views,
		handler.NewHealthHandler(ping),
		handler.NewHomeHandler(client, views),
		handler.NewAuthHandler(service.NewAuthService(client), workflows, views),
		handler.NewProfileHandler(gate, client, workflows, views),
		handler.NewAdminHandler(gate, client, workflows, views),
		handler.NewAnimalsHandler(client),
	)
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &portal{
		t:         t,
		fake:      fake,
		server:    server,
		workflows: workflows,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (p *portal) get(path string) (*http.Response, string) {
	p.t.Helper()

	resp, err := p.http.Get(p.server.URL + path)
	require.NoError(p.t, err)
	return resp, readBody(p.t, resp)
}

// post submits form with the CSRF token scraped from the page at tokenPage.
func (p *portal) post(tokenPage string, path string, form url.Values) (*http.Response, string) {
	p.t.Helper()

	_, page := p.get(tokenPage)
	match := csrfFieldPattern.FindStringSubmatch(page)
	require.Len(p.t, match, 2, "no csrf field on %s", tokenPage)

	if form == nil {
		form = url.Values{}
	}
	form.Set("gorilla.csrf.Token", match[1])

	resp, err := p.http.PostForm(p.server.URL+path, form)
	require.NoError(p.t, err)
	return resp, readBody(p.t, resp)
}

func (p *portal) login(email string, password string) {
	p.t.Helper()

	resp, _ := p.post("/login", "/login", url.Values{"email": {email}, "senha": {password}})
	require.Equal(p.t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(p.t, "/", resp.Header.Get("Location"))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	p := newPortal(t)

	resp, body := p.get("/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body)
}

func TestHealthReportsUnreachableSessionStore(t *testing.T) {
	t.Parallel()

	calls := 0
	p := newPortalWithHealth(t, func(context.Context) error {
		calls++
		return errors.New("connection refused")
	})

	resp, body := p.get("/health")
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.Equal(t, "session store unavailable", body)
	require.Equal(t, 1, calls)
}

func TestHomeShowsOnlyAvailableAnimals(t *testing.T) {
	t.Parallel()
	p := newPortal(t)
	p.fake.SeedAnimal(model.Animal{Name: "Rex", Age: 2, Weight: 12.5, Temperament: "**calm**"})
	p.fake.SeedAnimal(model.Animal{Name: "Mia", Adopted: true})

	resp, body := p.get("/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Rex")
	require.Contains(t, body, "2 years")
	require.Contains(t, body, "12.5 kg")
	require.Contains(t, body, "<strong>calm</strong>")
	require.NotContains(t, body, "Mia")
	require.Contains(t, body, `href="/login"`)
}

func TestProtectedPageWithoutTokenRedirectsWithoutNetworkCall(t *testing.T) {
	t.Parallel()
	p := newPortal(t)

	for _, path := range []string{"/perfil", "/admin"} {
		resp, _ := p.get(path)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
		require.Equal(t, "/login", resp.Header.Get("Location"))
	}
	require.Empty(t, p.fake.Calls())
}

func TestLoginProfileAndLogout(t *testing.T) {
	t.Parallel()
	p := newPortal(t)
	p.fake.SeedUser("Bia", "bia@example.com", "pw123", model.RoleRegular)

	resp, body := p.post("/login", "/login", url.Values{"email": {"bia@example.com"}, "senha": {"wrong"}})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Contains(t, body, "incorrect email or password")
	require.Contains(t, body, `value="bia@example.com"`)

	p.login("bia@example.com", "pw123")

	p.fake.ResetCalls()
	resp, body = p.get("/perfil")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Bia")
	require.Contains(t, body, `action="/logout"`)
	require.Len(t, p.fake.CallsTo(http.MethodGet, apiclient.PathCurrentUser), 1)

	resp, _ = p.post("/", "/logout", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = p.get("/perfil")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func (p *portal) sessionCookie() string {
	p.t.Helper()

	base, err := url.Parse(p.server.URL)
	require.NoError(p.t, err)
	for _, cookie := range p.http.Jar.Cookies(base) {
		if cookie.Name == "pet_session" {
			return cookie.Value
		}
	}
	return ""
}

func TestLoginIssuesFreshSessionID(t *testing.T) {
	t.Parallel()
	p := newPortal(t)
	p.fake.SeedUser("Bia", "bia@example.com", "pw123", model.RoleRegular)

	p.get("/login")
	before := p.sessionCookie()
	require.NotEmpty(t, before)

	p.login("bia@example.com", "pw123")
	after := p.sessionCookie()
	require.NotEmpty(t, after)
	require.NotEqual(t, before, after)

	resp, _ := p.get("/perfil")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, p.server.URL+"/perfil", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: "pet_session", Value: before})
	stale := &http.Client{CheckRedirect: p.http.CheckRedirect}
	resp, err = stale.Do(req)
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestRegisterRedirectsToLoginWithMessage(t *testing.T) {
	t.Parallel()
	p := newPortal(t)

	resp, _ := p.post("/cadastro", "/cadastro", url.Values{
		"nome":  {"Caio"},
		"email": {"caio@example.com"},
		"senha": {"pw123"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	location := resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(location, "/login?message="))

	_, body := p.get(location)
	require.Contains(t, body, "registration completed, you can log in now")

	resp, body = p.post("/cadastro", "/cadastro", url.Values{
		"nome":  {"Caio"},
		"email": {"caio@example.com"},
		"senha": {"pw123"},
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Contains(t, body, "email already registered")
}

func TestFormPostWithoutCSRFTokenIsRejected(t *testing.T) {
	t.Parallel()
	p := newPortal(t)
	p.get("/login")

	resp, err := p.http.PostForm(p.server.URL+"/login", url.Values{"email": {"a@b.c"}, "senha": {"x"}})
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Empty(t, p.fake.CallsTo(http.MethodPost, apiclient.PathLogin))
}

func TestRegularUserIsDeniedAdminPanel(t *testing.T) {
	t.Parallel()
	p := newPortal(t)
	p.fake.SeedUser("Bia", "bia@example.com", "pw123", model.RoleRegular)
	p.login("bia@example.com", "pw123")

	p.fake.ResetCalls()
	resp, body := p.get("/admin")
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Contains(t, body, "access denied")
	require.Empty(t, p.fake.CallsTo(http.MethodGet, apiclient.PathAnimals))
}

func TestFailedLookupClearsSessionAndSchedulesRedirect(t *testing.T) {
	t.Parallel()
	p := newPortal(t)
	p.fake.SeedUser("Bia", "bia@example.com", "pw123", model.RoleRegular)
	p.login("bia@example.com", "pw123")

	p.fake.FailNext(http.MethodGet, apiclient.PathCurrentUser, http.StatusInternalServerError, "")
	resp, body := p.get("/perfil")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Contains(t, body, `http-equiv="refresh"`)
	require.Contains(t, body, "url=/login?message=")

	p.fake.ResetCalls()
	resp, _ = p.get("/perfil")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Empty(t, p.fake.Calls())
}

func TestFailedLookupDropsAdminWorkflow(t *testing.T) {
	t.Parallel()
	p := newPortal(t)
	p.fake.SeedUser("Root", "root@example.com", "pw", model.RoleAdmin)
	p.login("root@example.com", "pw")

	resp, _ := p.get("/admin")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, p.workflows.Len())

	p.fake.FailNext(http.MethodGet, apiclient.PathCurrentUser, http.StatusInternalServerError, "")
	resp, _ = p.get("/admin")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Zero(t, p.workflows.Len())
}

func TestAdminCreateEditAndDelete(t *testing.T) {
	t.Parallel()
	p := newPortal(t)
	p.fake.SeedUser("Ana", "ana@example.com", "pw123", model.RoleAdmin)
	rex := p.fake.SeedAnimal(model.Animal{Name: "Rex", Breed: "SRD", Sex: model.SexMale, Color: "caramelo", Age: 3, Weight: 10})
	p.login("ana@example.com", "pw123")

	resp, body := p.get("/admin")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Rex")
	require.Contains(t, body, "Total: 1")

	resp, body = p.post("/admin/animais/novo", "/admin/animais", url.Values{
		"nome":    {"Luna"},
		"raca":    {"Siamês"},
		"idade":   {"2 anos"},
		"sexo":    {string(model.SexFemale)},
		"tamanho": {string(model.SizeSmall)},
		"peso":    {"abc"},
		"cor":     {"branca"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "animal created")
	require.Contains(t, body, "Total: 2")

	var luna model.Animal
	for _, a := range p.fake.Animals() {
		if a.Name == "Luna" {
			luna = a
		}
	}
	require.Equal(t, 2, luna.Age)
	require.InDelta(t, 1.0, luna.Weight, 0.001)

	resp, body = p.get("/admin/animais/" + rex.ID + "/editar")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `name="nome" value="Rex" disabled`)

	resp, body = p.post("/admin/animais/"+rex.ID+"/editar", "/admin/animais/"+rex.ID, url.Values{
		"nome":    {"Renamed"},
		"idade":   {"4"},
		"tamanho": {string(model.SizeLarge)},
		"peso":    {"11"},
		"adotado": {"true"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "animal updated")

	patches := p.fake.CallsTo(http.MethodPatch, apiclient.AnimalPath(rex.ID))
	require.Len(t, patches, 1)
	require.NotContains(t, patches[0].JSONBody(), "nome")

	resp, body = p.get("/admin/animais/" + rex.ID + "/excluir")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Delete Rex?")

	p.fake.ResetCalls()
	resp, body = p.post("/admin", "/admin/animais/"+rex.ID+"/excluir", url.Values{"action": {"cancel"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotContains(t, body, "Delete Rex?")
	require.Empty(t, p.fake.CallsTo(http.MethodDelete, apiclient.AnimalPath(rex.ID)))

	// Reopen the prompt and confirm from it without passing through the list.
	_, page := p.get("/admin/animais/" + rex.ID + "/excluir")
	token := csrfFieldPattern.FindStringSubmatch(page)
	require.Len(t, token, 2)
	p.fake.ResetCalls()

	resp, err := p.http.PostForm(p.server.URL+"/admin/animais/"+rex.ID+"/excluir", url.Values{
		"action":             {"confirm"},
		"gorilla.csrf.Token": {token[1]},
	})
	require.NoError(t, err)
	body = readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "animal deleted")
	require.Len(t, p.fake.CallsTo(http.MethodDelete, apiclient.AnimalPath(rex.ID)), 1)
	require.Len(t, p.fake.CallsTo(http.MethodGet, apiclient.PathAnimals), 1)
	require.Len(t, p.fake.Animals(), 1)
}

func TestAdminFormFailureKeepsFormOpen(t *testing.T) {
	t.Parallel()
	p := newPortal(t)
	p.fake.SeedUser("Ana", "ana@example.com", "pw123", model.RoleAdmin)
	p.login("ana@example.com", "pw123")

	p.fake.FailNext(http.MethodPost, apiclient.PathAnimals, http.StatusBadRequest, "nome is required")
	resp, body := p.post("/admin/animais/novo", "/admin/animais", url.Values{"raca": {"SRD"}, "idade": {"3"}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, body, "nome is required")
	require.Contains(t, body, `value="SRD"`)
	require.Contains(t, body, `value="3"`)
}

func TestUnknownAnimalIsNotFound(t *testing.T) {
	t.Parallel()
	p := newPortal(t)
	p.fake.SeedUser("Ana", "ana@example.com", "pw123", model.RoleAdmin)
	p.login("ana@example.com", "pw123")

	resp, body := p.get("/admin/animais/missing/editar")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Contains(t, body, "animal not found")
}

func TestAnimalsJSON(t *testing.T) {
	t.Parallel()
	p := newPortal(t)
	p.fake.SeedAnimal(model.Animal{Name: "Rex"})
	p.fake.SeedAnimal(model.Animal{Name: "Mia", Adopted: true})
	p.fake.SeedAnimal(model.Animal{Name: "Tom", Adopted: true})

	resp, body := p.get("/api/animals?status=adopted")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var envelope struct {
		Success bool           `json:"success"`
		Data    []model.Animal `json:"data"`
		Meta    model.Meta     `json:"meta"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &envelope))
	require.True(t, envelope.Success)
	require.Len(t, envelope.Data, 2)
	require.Equal(t, model.Meta{Total: 3, Available: 1, Adopted: 2}, envelope.Meta)

	resp, body = p.get("/api/animals?status=bogus")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, body, "BAD_REQUEST")
}
