package cleanup_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/instant-karaoke-be/src/server/internal/errors/api"
	"github.com/veedubyou/instant-karaoke-be/src/server/internal/session/cleanup"
	sessionentity "github.com/veedubyou/instant-karaoke-be/src/shared/session/entity"
	"github.com/veedubyou/instant-karaoke-be/src/shared/session/registry"
)

// recordingDeleter removes the session from the registry and records the
// call, standing in for the full usecase teardown.
type recordingDeleter struct {
	registry   *registry.Registry
	DeletedIDs []string
}

func (r *recordingDeleter) Delete(ctx context.Context, sessionID string) *api.Error {
	r.registry.Delete(sessionID)
	r.DeletedIDs = append(r.DeletedIDs, sessionID)
	return nil
}

var _ = Describe("Cleanup scheduler", func() {
	var (
		sessionRegistry *registry.Registry
		deleter         *recordingDeleter
		scheduler       *cleanup.Scheduler

		now time.Time
	)

	BeforeEach(func() {
		sessionRegistry = registry.NewRegistry()
		deleter = &recordingDeleter{registry: sessionRegistry}
		scheduler = cleanup.NewScheduler(sessionRegistry, deleter, time.Hour, time.Hour)

		now = time.Now()
	})

	addSessionCreatedAt := func(createdAt time.Time) *sessionentity.Session {
		session := sessionentity.NewSession(
			sessionentity.Source{Type: sessionentity.LocalSourceType},
			44100,
			5.0,
			1,
		)

		Expect(sessionRegistry.Add(session)).To(Succeed())
		Expect(sessionRegistry.Update(session.ID, func(s *sessionentity.Session) {
			s.CreatedAt = createdAt
		})).To(Succeed())

		return session
	}

	It("deletes sessions older than the TTL", func() {
		expired := addSessionCreatedAt(now.Add(-61 * time.Minute))

		scheduler.Sweep(now)

		Expect(deleter.DeletedIDs).To(Equal([]string{expired.ID}))
		Expect(sessionRegistry.Has(expired.ID)).To(BeFalse())
	})

	It("keeps sessions within the TTL", func() {
		fresh := addSessionCreatedAt(now.Add(-59 * time.Minute))

		scheduler.Sweep(now)

		Expect(deleter.DeletedIDs).To(BeEmpty())
		Expect(sessionRegistry.Has(fresh.ID)).To(BeTrue())
	})

	It("keeps a session created exactly at the cutoff", func() {
		borderline := addSessionCreatedAt(now.Add(-time.Hour))

		scheduler.Sweep(now)

		Expect(sessionRegistry.Has(borderline.ID)).To(BeTrue())
	})

	It("only sweeps the expired portion of a mixed registry", func() {
		expired := addSessionCreatedAt(now.Add(-2 * time.Hour))
		fresh := addSessionCreatedAt(now.Add(-time.Minute))

		scheduler.Sweep(now)

		Expect(deleter.DeletedIDs).To(Equal([]string{expired.ID}))
		Expect(sessionRegistry.Has(fresh.ID)).To(BeTrue())
	})
})
