package internal_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/access-control/internal"
)

var _ = Describe("AppError", func() {
	It("matches wrapped copies of a sentinel by code", func() {
		err := fmt.Errorf("login: %w", internal.ErrServer.WithCause(errors.New("dial tcp: refused")))

		Expect(errors.Is(err, internal.ErrServer)).To(BeTrue())
		Expect(errors.Is(err, internal.ErrInvalidCredentials)).To(BeFalse())

		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(http.StatusInternalServerError))
	})

	It("never mutates the shared sentinel", func() {
		_ = internal.ErrForbidden.WithCause(errors.New("x")).WithDetails("y")

		Expect(internal.ErrForbidden.Cause).To(BeNil())
		Expect(internal.ErrForbidden.Details).To(BeNil())
	})

	It("keeps the cause out of the JSON body", func() {
		status, body := internal.ErrServer.WithCause(errors.New("password authentication failed")).ToHTTPResponse()
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())

		Expect(status).To(Equal(http.StatusInternalServerError))
		Expect(string(raw)).To(MatchJSON(`{"error":{"type":"INTERNAL_ERROR","code":"SERVER_ERROR","message":"Error en el servidor"}}`))
	})

	It("uses the same wording for every credential failure", func() {
		Expect(internal.ErrInvalidCredentials.Error()).To(Equal("Credenciales incorrectas"))
		Expect(internal.ErrTooManyAttempts.StatusCode).To(Equal(http.StatusTooManyRequests))
	})
})
