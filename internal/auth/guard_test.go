package auth

import (
	"sync"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Guard", func() {
	var (
		guard *Guard
		now   time.Time
	)

	ginkgo.BeforeEach(func() {
		now = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
		guard = NewGuard(3, 15*time.Minute).WithClock(func() time.Time { return now })
	})

	ginkgo.It("locks an address after the maximum number of failures", func() {
		gomega.Expect(guard.RegisterFailure("10.0.0.1")).To(gomega.BeFalse())
		gomega.Expect(guard.RegisterFailure("10.0.0.1")).To(gomega.BeFalse())
		gomega.Expect(guard.IsLocked("10.0.0.1")).To(gomega.BeFalse())

		gomega.Expect(guard.RegisterFailure("10.0.0.1")).To(gomega.BeTrue())
		gomega.Expect(guard.IsLocked("10.0.0.1")).To(gomega.BeTrue())
		gomega.Expect(guard.IsLocked("10.0.0.2")).To(gomega.BeFalse())
	})

	ginkgo.It("unlocks once the lockout window elapses", func() {
		for i := 0; i < 3; i++ {
			guard.RegisterFailure("10.0.0.1")
		}
		now = now.Add(15 * time.Minute)
		gomega.Expect(guard.IsLocked("10.0.0.1")).To(gomega.BeFalse())
		gomega.Expect(guard.Failures("10.0.0.1")).To(gomega.Equal(0))
	})

	ginkgo.It("forgets failures older than the window", func() {
		guard.RegisterFailure("10.0.0.1")
		guard.RegisterFailure("10.0.0.1")
		now = now.Add(16 * time.Minute)

		gomega.Expect(guard.RegisterFailure("10.0.0.1")).To(gomega.BeFalse())
		gomega.Expect(guard.Failures("10.0.0.1")).To(gomega.Equal(1))
	})

	ginkgo.It("resets an address", func() {
		guard.RegisterFailure("10.0.0.1")
		guard.Reset("10.0.0.1")
		gomega.Expect(guard.Failures("10.0.0.1")).To(gomega.Equal(0))
	})

	ginkgo.It("sweeps expired entries only", func() {
		guard.RegisterFailure("old")
		now = now.Add(10 * time.Minute)
		guard.RegisterFailure("fresh")
		now = now.Add(6 * time.Minute)

		gomega.Expect(guard.Sweep()).To(gomega.Equal(1))
		gomega.Expect(guard.Failures("fresh")).To(gomega.Equal(1))
	})

	ginkgo.It("counts concurrent failures exactly", func() {
		guard = NewGuard(1000, time.Hour)
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					guard.RegisterFailure("10.0.0.9")
				}
			}()
		}
		wg.Wait()
		gomega.Expect(guard.Failures("10.0.0.9")).To(gomega.Equal(500))
	})
})
