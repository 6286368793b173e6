package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"banking_portal/internal/config"
	"banking_portal/internal/repository"
	"banking_portal/internal/repository/db"
	"banking_portal/internal/service"

	"github.com/gin-gonic/gin"
)

// newE2EServer wires real services over a fresh sqlite file.
func newE2EServer(t *testing.T) *httptest.Server {
	t.Helper()
	conn, err := db.InitDB(context.Background(), filepath.Join(t.TempDir(), "bank.db"), nil)
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	cfg := &config.Config{
		Session: config.SessionConfig{Secret: "e2e-secret", TTL: time.Hour},
		Auth:    config.AuthConfig{TokenTTL: time.Hour},
	}
	gin.SetMode(gin.TestMode)
	h := NewHandler(service.NewService(repository.NewRepository(conn), cfg, nil), nil, Options{Currency: "Ksh"})
	srv := httptest.NewServer(h.InitRoutes())
	t.Cleanup(srv.Close)
	return srv
}

type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newBrowser(t *testing.T, srv *httptest.Server) *browser {
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &browser{t: t, base: srv.URL, client: &http.Client{Jar: jar}}
}

func (b *browser) get(path string) (int, string) {
	b.t.Helper()
	resp, err := b.client.Get(b.base + path)
	if err != nil {
		b.t.Fatalf("GET %s: %v", path, err)
	}
	return readBody(b.t, resp)
}

func (b *browser) post(path string, kv ...string) (int, string) {
	b.t.Helper()
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Set(kv[i], kv[i+1])
	}
	resp, err := b.client.PostForm(b.base+path, v)
	if err != nil {
		b.t.Fatalf("POST %s: %v", path, err)
	}
	return readBody(b.t, resp)
}

func readBody(t *testing.T, resp *http.Response) (int, string) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func mustContain(t *testing.T, body string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		if !strings.Contains(body, p) {
			t.Fatalf("body missing %q:\n%s", p, body)
		}
	}
}

func TestE2E_RegisterLoginAndLedgerScenario(t *testing.T) {
	b := newBrowser(t, newE2EServer(t))

	_, body := b.post("/signup",
		"name", "Alice", "email", "alice@example.com", "username", "alice",
		"password", "s3cret", "confirm", "s3cret")
	mustContain(t, body, "You are now registered and can log in")

	_, body = b.post("/login", "username", "alice", "password", "wrong")
	mustContain(t, body, "Invalid login")
	_, body = b.post("/login", "username", "nobody", "password", "s3cret")
	mustContain(t, body, "Username not found")

	_, body = b.post("/login", "username", "alice", "password", "s3cret")
	mustContain(t, body, "Name: Alice", "Account balance is now Ksh 0.00")

	_, body = b.post("/deposit", "deposit", "500")
	mustContain(t, body, "Deposited 500.00 successfully", "Ksh 500.00")
	_, body = b.post("/withdraw", "withdraw", "200")
	mustContain(t, body, "Withdrew 200.00 successfully", "Ksh 300.00")
	_, body = b.post("/withdraw", "withdraw", "400")
	mustContain(t, body, "Insufficient funds Ksh 300.00", "Account balance is now Ksh 300.00")
	_, body = b.post("/deposit", "deposit", "50")
	mustContain(t, body, "Account balance is now Ksh 350.00")

	_, body = b.get("/history")
	if strings.Count(body, "<tr>") != 4 { // header + three applied operations
		t.Fatalf("expected 3 history rows:\n%s", body)
	}

	_, body = b.get("/logout")
	mustContain(t, body, "You are now logged out")
	_, body = b.get("/account")
	mustContain(t, body, "Unauthorized, Please login")
}

func TestE2E_DuplicateUsername(t *testing.T) {
	b := newBrowser(t, newE2EServer(t))
	form := []string{"name", "Bob", "email", "bob@example.com", "username", "bobby", "password", "pw", "confirm", "pw"}

	b.post("/signup", form...)
	status, body := b.post("/signup", form...)
	if status != http.StatusConflict {
		t.Fatalf("expected 409, got %d", status)
	}
	mustContain(t, body, "Username already taken")
}

func TestE2E_ReplayedFormIsRejected(t *testing.T) {
	b := newBrowser(t, newE2EServer(t))
	b.post("/signup", "name", "Carol", "email", "carol@example.com", "username", "carol", "password", "pw", "confirm", "pw")
	b.post("/login", "username", "carol", "password", "pw")

	_, body := b.post("/deposit", "deposit", "100", "request_id", "form-1")
	mustContain(t, body, "Ksh 100.00")
	_, body = b.post("/deposit", "deposit", "100", "request_id", "form-1")
	mustContain(t, body, "This request was already processed", "Account balance is now Ksh 100.00")
}

func TestE2E_ConcurrentDepositsBothApply(t *testing.T) {
	srv := newE2EServer(t)
	b := newBrowser(t, srv)
	b.post("/signup", "name", "Dan", "email", "dan@example.com", "username", "danny", "password", "pw", "confirm", "pw")
	b.post("/login", "username", "danny", "password", "pw")

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := url.Values{"deposit": {"100"}}
			// No redirect following: only the mutation matters here.
			client := &http.Client{
				Jar: b.client.Jar,
				CheckRedirect: func(*http.Request, []*http.Request) error {
					return http.ErrUseLastResponse
				},
			}
			resp, err := client.PostForm(srv.URL+"/deposit", v)
			if err != nil {
				t.Errorf("deposit: %v", err)
				return
			}
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusSeeOther {
				t.Errorf("deposit status=%d", resp.StatusCode)
			}
		}()
	}
	wg.Wait()

	_, body := b.get("/account")
	mustContain(t, body, "Account balance is now Ksh 200.00")
}

func TestE2E_APIWithBearerToken(t *testing.T) {
	srv := newE2EServer(t)

	post := func(path, body, token string) (int, string) {
		req, _ := http.NewRequest(http.MethodPost, srv.URL+path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		return readBody(t, resp)
	}

	status, _ := post("/api/v1/auth/sign-up", `{"name":"Eve","email":"eve@example.com","username":"evelyn","password":"pw","confirm":"pw"}`, "")
	if status != http.StatusOK {
		t.Fatalf("sign-up status=%d", status)
	}
	status, body := post("/api/v1/auth/sign-in", `{"username":"evelyn","password":"pw"}`, "")
	if status != http.StatusOK {
		t.Fatalf("sign-in status=%d", status)
	}
	token := body[strings.Index(body, `"token":"`)+len(`"token":"`):]
	token = token[:strings.Index(token, `"`)]

	status, body = post("/api/v1/account/deposit", `{"amount":"20.25"}`, token)
	if status != http.StatusOK {
		t.Fatalf("deposit status=%d body=%s", status, body)
	}
	mustContain(t, body, `"balance":"20.25"`)

	status, body = post("/api/v1/account/withdraw", `{"amount":"30"}`, token)
	if status != http.StatusConflict {
		t.Fatalf("expected 409, got %d", status)
	}
	mustContain(t, body, `"available":"20.25"`)
}
