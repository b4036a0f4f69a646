package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/session"
)

type fakeCommitter struct {
	committed []*session.Session
	err       error
}

func (f *fakeCommitter) Commit(_ context.Context, _ http.ResponseWriter, s *session.Session) error {
	f.committed = append(f.committed, s)
	return f.err
}

var _ = ginkgo.Describe("Handler", func() {
	var (
		repo      *mockRepository
		committer *fakeCommitter
		handler   *Handler
	)

	ginkgo.BeforeEach(func() {
		repo = newMockRepository()
		hasher := NewPasswordHasher(SchemeBcrypt, bcrypt.MinCost)
		digest, _ := hasher.Hash("hunter2")
		repo.addUser(&mockUser{
			cred:   Credential{UserID: 1, Name: "Ana", Email: "a@x.com", PasswordHash: digest, RoleID: 3, RoleName: "guard"},
			active: true,
		})

		svc := NewService(repo, hasher, NewGuard(2, time.Minute), nil, nil)
		committer = &fakeCommitter{}
		handler = NewHandler(svc, committer)
	})

	post := func(body string, sess *session.Session) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
		req.RemoteAddr = "203.0.113.5:41000"
		if sess != nil {
			req = req.WithContext(session.NewContext(req.Context(), sess))
		}
		rec := httptest.NewRecorder()
		handler.Login(rec, req)
		return rec
	}

	ginkgo.Describe("Login", func() {
		ginkgo.It("returns the user and commits the session", func() {
			sess := session.New()
			rec := post(`{"correo":"a@x.com","contrasena":"hunter2","recordar":true}`, sess)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			var resp LoginResponseV1
			gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(gomega.Succeed())
			gomega.Expect(resp.User).To(gomega.Equal(UserV1{ID: 1, Name: "Ana", RoleID: 3, RoleName: "guard"}))
			gomega.Expect(committer.committed).To(gomega.ConsistOf(sess))
			gomega.Expect(sess.Permanent).To(gomega.BeTrue())
		})

		ginkgo.It("answers 401 with the generic message on a wrong secret", func() {
			rec := post(`{"correo":"a@x.com","contrasena":"nope"}`, session.New())

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring("Credenciales incorrectas"))
			gomega.Expect(committer.committed).To(gomega.BeEmpty())
		})

		ginkgo.It("answers 429 once the caller is locked out", func() {
			post(`{"correo":"a@x.com","contrasena":"nope"}`, nil)
			post(`{"correo":"a@x.com","contrasena":"nope"}`, nil)

			rec := post(`{"correo":"a@x.com","contrasena":"hunter2"}`, nil)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusTooManyRequests))
			gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring("TOO_MANY_ATTEMPTS"))
		})

		ginkgo.It("answers 400 for a malformed body", func() {
			rec := post(`{`, nil)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
		})

		ginkgo.It("answers 400 with field details for missing credentials", func() {
			rec := post(`{"correo":""}`, nil)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
			gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring("contrasena"))
		})

		ginkgo.It("answers 500 when the session cannot be stored", func() {
			committer.err = errors.New("db down")
			rec := post(`{"correo":"a@x.com","contrasena":"hunter2"}`, nil)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusInternalServerError))
			gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring("Error en el servidor"))
			gomega.Expect(rec.Body.String()).ToNot(gomega.ContainSubstring("db down"))
			gomega.Expect(repo.entriesOf("login")).To(gomega.BeEmpty())
		})

		ginkgo.It("answers 413 when the body exceeds the request limit", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
				strings.NewReader(`{"correo":"a@x.com","contrasena":"`+strings.Repeat("x", 512)+`"}`))
			rec := httptest.NewRecorder()
			req.Body = http.MaxBytesReader(rec, req.Body, 64)
			handler.Login(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusRequestEntityTooLarge))
			gomega.Expect(repo.lookups).To(gomega.Equal(0))
		})
	})

	ginkgo.Describe("RejectLocked", func() {
		ginkgo.It("answers 429 to a locked out caller whatever the body", func() {
			post(`{"correo":"a@x.com","contrasena":"nope"}`, nil)
			post(`{"correo":"a@x.com","contrasena":"nope"}`, nil)

			reached := false
			h := handler.RejectLocked(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { reached = true }))
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{`))
			req.RemoteAddr = "203.0.113.5:41000"
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusTooManyRequests))
			gomega.Expect(reached).To(gomega.BeFalse())
		})

		ginkgo.It("passes other callers through", func() {
			reached := false
			h := handler.RejectLocked(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { reached = true }))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))

			gomega.Expect(reached).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("Logout", func() {
		ginkgo.It("clears the session and succeeds even if the record cannot be deleted", func() {
			committer.err = errors.New("db down")
			sess := session.New()
			sess.SetUser(session.Data{UserID: 1}, false)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
			req = req.WithContext(session.NewContext(req.Context(), sess))
			rec := httptest.NewRecorder()
			handler.Logout(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(sess.Authenticated()).To(gomega.BeFalse())
			gomega.Expect(repo.entriesOf("logout")).To(gomega.HaveLen(1))
		})
	})
})

var _ = ginkgo.Describe("RBACAuthorization", func() {
	var (
		repo *mockRepository
		rbac *RBACAuthorization
		ok   http.HandlerFunc
	)

	ginkgo.BeforeEach(func() {
		repo = newMockRepository()
		repo.addUser(&mockUser{
			cred:   Credential{UserID: 1, Email: "a@x.com"},
			active: true,
			perms:  []string{string(PermViewAccessLog)},
		})
		rbac = NewRBACAuthorization(NewResolver(repo, nil), nil)
		ok = func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }
	})

	serve := func(userID int64, p Permission) int {
		sess := session.New()
		if userID != 0 {
			sess.SetUser(session.Data{UserID: userID}, false)
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(session.NewContext(req.Context(), sess))
		rec := httptest.NewRecorder()
		rbac.Middleware(p)(ok).ServeHTTP(rec, req)
		return rec.Code
	}

	ginkgo.It("lets a user with the permission through", func() {
		gomega.Expect(serve(1, PermViewAccessLog)).To(gomega.Equal(http.StatusNoContent))
	})

	ginkgo.It("forbids a user without the permission", func() {
		gomega.Expect(serve(1, PermViewUsers)).To(gomega.Equal(http.StatusForbidden))
	})

	ginkgo.It("requires a session user", func() {
		gomega.Expect(serve(0, PermViewAccessLog)).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("uses the user id resolved by RequireLogin", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(internal.ContextWithUserID(req.Context(), 1))
		rec := httptest.NewRecorder()
		rbac.Middleware(PermViewAccessLog)(ok).ServeHTTP(rec, req)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
	})

	ginkgo.It("denies when permissions cannot be resolved", func() {
		repo.permErr = errDatastore
		gomega.Expect(serve(1, PermViewAccessLog)).To(gomega.Equal(http.StatusForbidden))
	})
})
