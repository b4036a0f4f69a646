package auth

import (
	"context"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Permission", func() {
	ginkgo.It("splits into module and name", func() {
		gomega.Expect(PermViewAccessLog.Module()).To(gomega.Equal("acceso"))
		gomega.Expect(PermViewAccessLog.Name()).To(gomega.Equal("ver_registro_accesos"))
		gomega.Expect(NewPermission("alertas", "ver_alertas")).To(gomega.Equal(PermViewAlerts))
	})

	ginkgo.It("lists a set in sorted order", func() {
		set := NewPermissionSet("usuarios.ver_usuarios", "alertas.ver_alertas")
		gomega.Expect(set.Strings()).To(gomega.Equal([]string{"alertas.ver_alertas", "usuarios.ver_usuarios"}))
		gomega.Expect(PermissionSet{}.Strings()).ToNot(gomega.BeNil())
	})
})

var _ = ginkgo.Describe("Resolver", func() {
	var (
		repo     *mockRepository
		resolver *Resolver
		ctx      context.Context
	)

	ginkgo.BeforeEach(func() {
		repo = newMockRepository()
		repo.addUser(&mockUser{
			cred:   Credential{UserID: 1, Email: "a@x.com"},
			active: true,
			perms:  []string{"acceso.ver_registro_accesos", "alertas.ver_alertas"},
		})
		repo.addUser(&mockUser{
			cred:   Credential{UserID: 2, Email: "off@x.com"},
			active: false,
			perms:  []string{"usuarios.ver_usuarios"},
		})
		resolver = NewResolver(repo, nil)
		ctx = context.Background()
	})

	ginkgo.It("resolves the role's permissions for an active user", func() {
		set := resolver.Resolve(ctx, 1)
		gomega.Expect(set.Has(PermViewAccessLog)).To(gomega.BeTrue())
		gomega.Expect(set.Has(PermViewAlerts)).To(gomega.BeTrue())
		gomega.Expect(set.Has(PermViewUsers)).To(gomega.BeFalse())
	})

	ginkgo.It("returns the empty set for an inactive user", func() {
		gomega.Expect(resolver.Resolve(ctx, 2)).To(gomega.BeEmpty())
	})

	ginkgo.It("returns the empty set for a nonexistent user", func() {
		gomega.Expect(resolver.Resolve(ctx, 404)).To(gomega.BeEmpty())
	})

	ginkgo.It("fails closed on datastore errors", func() {
		repo.permErr = errDatastore
		gomega.Expect(resolver.Resolve(ctx, 1)).To(gomega.BeEmpty())
		gomega.Expect(resolver.HasPermission(ctx, 1, PermViewAccessLog)).To(gomega.BeFalse())
	})

	ginkgo.It("reflects role changes on the next call", func() {
		gomega.Expect(resolver.HasPermission(ctx, 1, PermViewUsers)).To(gomega.BeFalse())

		repo.mu.Lock()
		repo.byID(1).perms = append(repo.byID(1).perms, string(PermViewUsers))
		repo.mu.Unlock()
		gomega.Expect(resolver.HasPermission(ctx, 1, PermViewUsers)).To(gomega.BeTrue())

		repo.mu.Lock()
		repo.byID(1).perms = nil
		repo.mu.Unlock()
		gomega.Expect(resolver.HasPermission(ctx, 1, PermViewAccessLog)).To(gomega.BeFalse())
	})
})
