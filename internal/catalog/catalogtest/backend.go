// Package catalogtest runs an in-process fake of the book catalog backend for tests.
package catalogtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	jwt "github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/lachlan2k/bookshelf/internal/catalog"
)

var signingKey = []byte("catalogtest-backend-key")

type Backend struct {
	*httptest.Server

	mu     sync.Mutex
	users  map[string]string // email => password
	ids    map[string]string // email => user id
	tokens map[string]string // token => user id
	books  []catalog.Book

	// DeleteGate, when set, holds every delete until it receives a value or is closed
	DeleteGate chan struct{}

	// Down makes every endpoint answer 502 with no body
	Down atomic.Bool

	calls sync.Map // path key => *int64
}

func New(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{
		users:  map[string]string{},
		ids:    map[string]string{},
		tokens: map[string]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/register", b.handleRegister)
	mux.HandleFunc("/api/v1/auth/login", b.handleLogin)
	mux.HandleFunc("/api/v1/auth/logout", b.handleLogout)
	mux.HandleFunc("/api/v1/books", b.handleBooks)
	mux.HandleFunc("/api/v1/books/", b.handleBookByID)

	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.count(r.Method + " " + routeKey(r.URL.Path))
		if b.Down.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.Server.Close)

	return b
}

func routeKey(path string) string {
	if strings.HasPrefix(path, "/api/v1/books/") {
		return "/api/v1/books/:id"
	}
	return path
}

func (b *Backend) count(key string) {
	n, _ := b.calls.LoadOrStore(key, new(int64))
	atomic.AddInt64(n.(*int64), 1)
}

// Calls reports how many requests hit "METHOD /path" (book ids collapse to :id)
func (b *Backend) Calls(key string) int {
	n, ok := b.calls.Load(key)
	if !ok {
		return 0
	}
	return int(atomic.LoadInt64(n.(*int64)))
}

// TotalCalls counts every request the backend received
func (b *Backend) TotalCalls() int {
	total := 0
	b.calls.Range(func(_, v any) bool {
		total += int(atomic.LoadInt64(v.(*int64)))
		return true
	})
	return total
}

// AddUser registers a user directly and returns a valid token for them
func (b *Backend) AddUser(email, password string) (userID, token string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	userID = b.addUserLocked(email, password)
	return userID, b.issueLocked(userID)
}

func (b *Backend) addUserLocked(email, password string) string {
	id := uuid.NewString()
	b.users[email] = password
	b.ids[email] = id
	return id
}

func (b *Backend) issueLocked(userID string) string {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": userID}).SignedString(signingKey)
	if err != nil {
		panic(err)
	}
	b.tokens[tok] = userID
	return tok
}

// Seed stores a book as if ownerID had created it
func (b *Backend) Seed(ownerID, title, author string, gender catalog.Gender) catalog.Book {
	b.mu.Lock()
	defer b.mu.Unlock()

	book := catalog.Book{ID: uuid.NewString(), Title: title, Author: author, Gender: gender, OwnerUserID: ownerID}
	b.books = append(b.books, book)
	return book
}

func (b *Backend) Books() []catalog.Book {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]catalog.Book(nil), b.books...)
}

// Revoke makes token invalid, as if it expired server-side
func (b *Backend) Revoke(token string) {
	b.mu.Lock()
	delete(b.tokens, token)
	b.mu.Unlock()
}

func (b *Backend) userFor(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.tokens[strings.TrimPrefix(header, "Bearer ")]
	return id, ok
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var cred catalog.Credential
	if err := json.NewDecoder(r.Body).Decode(&cred); err != nil || cred.Email == "" || cred.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Email and password are required"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.users[cred.Email]; exists {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "User already exists"})
		return
	}
	b.addUserLocked(cred.Email, cred.Password)
	writeJSON(w, http.StatusCreated, map[string]any{"success": true})
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var cred catalog.Credential
	_ = json.NewDecoder(r.Body).Decode(&cred)

	b.mu.Lock()
	defer b.mu.Unlock()
	if pw, ok := b.users[cred.Email]; !ok || pw != cred.Password {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "msg": "Invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": b.issueLocked(b.ids[cred.Email])})
}

func (b *Backend) handleLogout(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.userFor(r); !ok {
		unauthorized(w)
		return
	}
	b.Revoke(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (b *Backend) handleBooks(w http.ResponseWriter, r *http.Request) {
	userID, ok := b.userFor(r)
	if !ok {
		unauthorized(w)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": b.Books()})
	case http.MethodPost:
		var in catalog.NewBook
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Title == "" || in.Author == "" {
			writeJSON(w, http.StatusOK, map[string]any{"success": false, "msg": "Title and author are required"})
			return
		}
		if _, ok := catalog.ParseGender(string(in.Gender)); !ok {
			writeJSON(w, http.StatusOK, map[string]any{"success": false, "msg": "Invalid gender"})
			return
		}
		book := b.Seed(userID, in.Title, in.Author, in.Gender)
		writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": book})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (b *Backend) handleBookByID(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.userFor(r); !ok {
		unauthorized(w)
		return
	}
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if b.DeleteGate != nil {
		<-b.DeleteGate
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/books/")

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, book := range b.books {
		if book.ID == id {
			b.books = append(b.books[:i], b.books[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "msg": "Book not found"})
}

func unauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "msg": "Invalid token"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
