package appwrite_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	testProject    = "board-test"
	testDatabase   = "db1"
	testCollection = "messages"
)

type fakeUser struct {
	ID       string
	Email    string
	Name     string
	Password string
}

type fakeDoc struct {
	ID          string   `json:"$id"`
	CreatedAt   string   `json:"$createdAt"`
	Permissions []string `json:"$permissions"`
	Content     string   `json:"content"`
	UserID      string   `json:"userId"`
	Username    string   `json:"username"`
}

// fakeAppwrite serves the subset of the Appwrite REST API the client uses.
type fakeAppwrite struct {
	mu sync.Mutex

	users    map[string]*fakeUser // by email
	sessions map[string]string    // token -> user id
	docs     []fakeDoc
	clock    time.Time

	// rejectFormats answers 404 to session creation with these formats.
	rejectFormats map[string]bool
	legacy        bool
	// fallbackOnly returns the session in X-Fallback-Cookies instead of Set-Cookie.
	fallbackOnly bool
	// failLogout answers 500 to session deletion and keeps the session.
	failLogout bool

	formats   []string
	listCalls int
	projects  map[string]int
}

func newFakeAppwrite(t *testing.T) (*fakeAppwrite, *httptest.Server) {
	t.Helper()

	f := &fakeAppwrite{
		users:         make(map[string]*fakeUser),
		sessions:      make(map[string]string),
		clock:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		rejectFormats: make(map[string]bool),
		projects:      make(map[string]int),
	}

	r := mux.NewRouter()
	r.Use(f.recordProject)
	r.HandleFunc("/account", f.getAccount).Methods(http.MethodGet)
	r.HandleFunc("/account", f.createAccount).Methods(http.MethodPost)
	r.HandleFunc("/account/sessions/email", f.createEmailSession).Methods(http.MethodPost)
	r.HandleFunc("/account/sessions", f.createLegacySession).Methods(http.MethodPost)
	r.HandleFunc("/account/sessions/{id}", f.deleteSession).Methods(http.MethodDelete)
	r.HandleFunc("/databases/{db}/collections/{col}/documents", f.listDocuments).Methods(http.MethodGet)
	r.HandleFunc("/databases/{db}/collections/{col}/documents", f.createDocument).Methods(http.MethodPost)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "general_route_not_found", "The requested route was not found.")
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAppwrite) recordProject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.projects[r.Header.Get("X-Appwrite-Project")]++
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func cookieName() string {
	return "a_session_" + testProject
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, typ, msg string) {
	writeJSON(w, status, map[string]any{
		"message": msg,
		"code":    status,
		"type":    typ,
		"version": "1.5.7",
	})
}

func (f *fakeAppwrite) tick() string {
	f.clock = f.clock.Add(time.Minute)
	return f.clock.Format("2006-01-02T15:04:05.000+00:00")
}

// currentUser must be called with f.mu held.
func (f *fakeAppwrite) currentUser(r *http.Request) *fakeUser {
	token := ""
	if c, err := r.Cookie(cookieName()); err == nil {
		token = c.Value
	}
	if token == "" {
		if raw := r.Header.Get("X-Fallback-Cookies"); raw != "" {
			var m map[string]string
			if json.Unmarshal([]byte(raw), &m) == nil {
				token = m[cookieName()]
			}
		}
	}

	userID, ok := f.sessions[token]
	if !ok {
		return nil
	}
	for _, u := range f.users {
		if u.ID == userID {
			return u
		}
	}
	return nil
}

func (f *fakeAppwrite) getAccount(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u := f.currentUser(r)
	if u == nil {
		writeError(w, http.StatusUnauthorized, "general_unauthorized_scope", "User (role: guests) missing scope (account)")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"$id":        u.ID,
		"$createdAt": "2024-01-01T00:00:00.000+00:00",
		"name":       u.Name,
		"email":      u.Email,
	})
}

func (f *fakeAppwrite) createAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"userId"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "general_argument_invalid", "invalid body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.users[req.Email]; ok {
		writeError(w, http.StatusConflict, "user_already_exists", "A user with the same id, email, or phone already exists in this project.")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "general_argument_invalid", "Invalid `password` param: Password must be at least 8 characters")
		return
	}

	id := req.UserID
	if id == "unique()" {
		id = uuid.NewString()
	}
	f.users[req.Email] = &fakeUser{ID: id, Email: req.Email, Name: req.Name, Password: req.Password}

	writeJSON(w, http.StatusCreated, map[string]any{
		"$id":        id,
		"$createdAt": f.tick(),
		"name":       req.Name,
		"email":      req.Email,
	})
}

func (f *fakeAppwrite) createEmailSession(w http.ResponseWriter, r *http.Request) {
	format := r.Header.Get("X-Appwrite-Response-Format")

	f.mu.Lock()
	f.formats = append(f.formats, format)
	reject := f.rejectFormats[format]
	f.mu.Unlock()

	if reject {
		writeError(w, http.StatusNotFound, "general_route_not_found", "The requested route was not found.")
		return
	}
	f.startSession(w, r)
}

func (f *fakeAppwrite) createLegacySession(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.formats = append(f.formats, "legacy")
	enabled := f.legacy
	f.mu.Unlock()

	if !enabled {
		writeError(w, http.StatusNotFound, "general_route_not_found", "The requested route was not found.")
		return
	}
	f.startSession(w, r)
}

func (f *fakeAppwrite) startSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "general_argument_invalid", "invalid body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[req.Email]
	if !ok || u.Password != req.Password {
		writeError(w, http.StatusUnauthorized, "user_invalid_credentials", "Invalid credentials. Please check the email and password.")
		return
	}

	token := uuid.NewString()
	f.sessions[token] = u.ID

	if f.fallbackOnly {
		b, _ := json.Marshal(map[string]string{cookieName(): token})
		w.Header().Set("X-Fallback-Cookies", string(b))
	} else {
		http.SetCookie(w, &http.Cookie{Name: cookieName(), Value: token, Path: "/", HttpOnly: true})
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"$id":      token,
		"userId":   u.ID,
		"provider": "email",
		"expire":   "2025-01-01T00:00:00.000+00:00",
		"current":  true,
	})
}

func (f *fakeAppwrite) deleteSession(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failLogout {
		writeError(w, http.StatusInternalServerError, "general_unknown", "Server Error")
		return
	}

	u := f.currentUser(r)
	if u == nil {
		writeError(w, http.StatusUnauthorized, "general_unauthorized_scope", "User (role: guests) missing scope (account)")
		return
	}
	for token, id := range f.sessions {
		if id == u.ID {
			delete(f.sessions, token)
		}
	}
	http.SetCookie(w, &http.Cookie{Name: cookieName(), Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

type fakeQuery struct {
	Method string `json:"method"`
	Values []any  `json:"values"`
}

func (f *fakeAppwrite) listDocuments(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if vars["db"] != testDatabase || vars["col"] != testCollection {
		writeError(w, http.StatusNotFound, "collection_not_found", "Collection with the requested ID could not be found.")
		return
	}

	limit := 25
	cursor := ""
	for _, raw := range r.URL.Query()["queries[]"] {
		var q fakeQuery
		if err := json.Unmarshal([]byte(raw), &q); err != nil || len(q.Values) == 0 {
			writeError(w, http.StatusBadRequest, "general_query_invalid", "Invalid query: "+raw)
			return
		}
		switch q.Method {
		case "limit":
			limit = int(q.Values[0].(float64))
		case "cursorAfter":
			cursor = fmt.Sprint(q.Values[0])
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++

	start := 0
	if cursor != "" {
		start = -1
		for i, d := range f.docs {
			if d.ID == cursor {
				start = i + 1
				break
			}
		}
		if start < 0 {
			writeError(w, http.StatusBadRequest, "general_cursor_not_found", "Cursor not found.")
			return
		}
	}
	end := start + limit
	if end > len(f.docs) {
		end = len(f.docs)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total":     len(f.docs),
		"documents": f.docs[start:end],
	})
}

func (f *fakeAppwrite) createDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentID  string   `json:"documentId"`
		Permissions []string `json:"permissions"`
		Data        struct {
			Content  string `json:"content"`
			UserID   string `json:"userId"`
			Username string `json:"username"`
		} `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "general_argument_invalid", "invalid body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.currentUser(r) == nil {
		writeError(w, http.StatusUnauthorized, "user_unauthorized", "The current user is not authorized to perform the requested action.")
		return
	}

	id := req.DocumentID
	if id == "unique()" {
		id = uuid.NewString()
	}
	doc := fakeDoc{
		ID:          id,
		CreatedAt:   f.tick(),
		Permissions: req.Permissions,
		Content:     req.Data.Content,
		UserID:      req.Data.UserID,
		Username:    req.Data.Username,
	}
	f.docs = append(f.docs, doc)

	writeJSON(w, http.StatusCreated, doc)
}

// seed adds n documents directly.
func (f *fakeAppwrite) seed(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		f.docs = append(f.docs, fakeDoc{
			ID:        fmt.Sprintf("doc-%03d", i),
			CreatedAt: f.tick(),
			Content:   fmt.Sprintf("message %d", i),
			UserID:    "seed",
			Username:  "seed",
		})
	}
}
