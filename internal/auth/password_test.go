package auth

import (
	"strings"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = ginkgo.Describe("PasswordHasher", func() {
	ginkgo.Context("legacy-sha256 scheme", func() {
		hasher := NewPasswordHasher(SchemeLegacySHA256, 0)

		ginkgo.It("produces the unsalted hex digest", func() {
			digest, err := hasher.Hash("hunter2")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(digest).To(gomega.Equal("f52fbd32b2b3b86ff88ef6c490628285f482af15ddcb29541f94bcf526a3f6c7"))
		})

		ginkgo.It("verifies a matching secret and rejects others", func() {
			digest, _ := hasher.Hash("hunter2")
			gomega.Expect(hasher.Verify("hunter2", digest)).To(gomega.BeTrue())
			gomega.Expect(hasher.Verify("hunter3", digest)).To(gomega.BeFalse())
			gomega.Expect(hasher.Verify("", digest)).To(gomega.BeFalse())
		})

		ginkgo.It("rejects a stored digest that differs only in case", func() {
			digest, _ := hasher.Hash("hunter2")
			gomega.Expect(hasher.Verify("hunter2", strings.ToUpper(digest))).To(gomega.BeFalse())
			gomega.Expect(NewPasswordHasher(SchemeBcrypt, bcrypt.MinCost).Verify("hunter2", strings.ToUpper(digest))).To(gomega.BeFalse())
		})

		ginkgo.It("never asks for a rehash", func() {
			digest, _ := hasher.Hash("hunter2")
			gomega.Expect(hasher.NeedsRehash(digest)).To(gomega.BeFalse())
		})
	})

	ginkgo.Context("bcrypt scheme", func() {
		hasher := NewPasswordHasher(SchemeBcrypt, bcrypt.MinCost)

		ginkgo.It("round-trips", func() {
			digest, err := hasher.Hash("hunter2")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(digest).To(gomega.HavePrefix("$2"))
			gomega.Expect(hasher.Verify("hunter2", digest)).To(gomega.BeTrue())
			gomega.Expect(hasher.Verify("wrong", digest)).To(gomega.BeFalse())
		})

		ginkgo.It("still verifies legacy digests", func() {
			legacy, _ := NewPasswordHasher(SchemeLegacySHA256, 0).Hash("hunter2")
			gomega.Expect(hasher.Verify("hunter2", legacy)).To(gomega.BeTrue())
			gomega.Expect(hasher.NeedsRehash(legacy)).To(gomega.BeTrue())
		})

		ginkgo.It("does not rehash a current digest", func() {
			digest, _ := hasher.Hash("hunter2")
			gomega.Expect(hasher.NeedsRehash(digest)).To(gomega.BeFalse())
		})
	})

	ginkgo.It("rejects an unknown scheme", func() {
		_, err := NewPasswordHasher("md5", 0).Hash("x")
		gomega.Expect(err).To(gomega.HaveOccurred())
	})
})
