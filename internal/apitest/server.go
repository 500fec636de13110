// Package apitest runs an in-process stand-in for the remote adoption API so
// client, service and router tests can exercise real HTTP round trips.
package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"pet-adoption-portal/internal/model"
)

const accessTTL = 15 * time.Minute

// Call is one request received by the fake.
type Call struct {
	Method        string
	Path          string
	Authorization string
	Body          []byte
}

// JSONBody decodes the recorded body into a generic map.
func (c Call) JSONBody() map[string]any {
	out := map[string]any{}
	_ = json.Unmarshal(c.Body, &out)
	return out
}

type storedUser struct {
	user         model.User
	passwordHash string
}

type failure struct {
	status  int
	message string
}

type Server struct {
	srv    *httptest.Server
	secret []byte

	mu       sync.Mutex
	users    map[string]storedUser
	byEmail  map[string]string
	animals  []model.Animal
	calls    []Call
	failures map[string][]failure
}

// New starts the fake and closes it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		secret:   []byte(uuid.NewString()),
		users:    map[string]storedUser{},
		byEmail:  map[string]string{},
		failures: map[string][]failure{},
	}
	s.srv = httptest.NewServer(s.routes())
	t.Cleanup(s.srv.Close)
	return s
}

func (s *Server) URL() string {
	return s.srv.URL
}

// Close stops the listener; later calls fail at the transport level.
func (s *Server) Close() {
	s.srv.Close()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Use(s.injectFailures)

	r.Post("/api/v1/usuario", s.handleRegister)
	r.Post("/api/v1/usuario/login", s.handleLogin)
	r.With(s.requireToken).Get("/api/v1/usuario/me", s.handleMe)

	r.Get("/api/v1/animais", s.handleListAnimals)
	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Use(s.requireAdmin)
		r.Post("/api/v1/animais", s.handleCreateAnimal)
		r.Patch("/api/v1/animais/{id}", s.handleUpdateAnimal)
		r.Delete("/api/v1/animais/{id}", s.handleDeleteAnimal)
	})

	return r
}

// SeedUser stores a user with the given password and returns it.
func (s *Server) SeedUser(name string, email string, password string, role model.Role) model.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	user := model.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = storedUser{user: user, passwordHash: string(hash)}
	s.byEmail[strings.ToLower(email)] = user.ID
	return user
}

// SeedAnimal stores a copy of a, assigning an id when empty.
func (s *Server) SeedAnimal(a model.Animal) model.Animal {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt == "" {
		a.CreatedAt = time.Now().UTC().Format(time.RFC3339)
		a.UpdatedAt = a.CreatedAt
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.animals = append(s.animals, a)
	return a
}

func (s *Server) Animals() []model.Animal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Animal(nil), s.animals...)
}

// Token issues a valid access token for userID without a login call.
func (s *Server) Token(userID string) string {
	token, err := s.sign(userID, "access", accessTTL)
	if err != nil {
		panic(err)
	}
	return token
}

func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo filters recorded calls by method and exact path.
func (s *Server) CallsTo(method string, path string) []Call {
	var out []Call
	for _, call := range s.Calls() {
		if call.Method == method && call.Path == path {
			out = append(out, call)
		}
	}
	return out
}

func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// FailNext makes the next request matching method and path answer with status
// and a {"message": ...} body. An empty message sends a non-JSON body.
func (s *Server) FailNext(method string, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	s.failures[key] = append(s.failures[key], failure{status: status, message: message})
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		s.mu.Lock()
		s.calls = append(s.calls, Call{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			Body:          body,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		s.mu.Lock()
		queue := s.failures[key]
		var f *failure
		if len(queue) > 0 {
			f = &queue[0]
			s.failures[key] = queue[1:]
		}
		s.mu.Unlock()

		if f == nil {
			next.ServeHTTP(w, r)
			return
		}
		if f.message == "" {
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte("upstream exploded"))
			return
		}
		writeMessage(w, f.status, f.message)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func (s *Server) sign(userID string, typ string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"typ": typ,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
	return token.SignedString(s.secret)
}
