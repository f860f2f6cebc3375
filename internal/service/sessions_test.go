package service_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/healthdesk/triage/internal/service"
)

var _ = Describe("EditSessions", func() {
	var sessions *service.EditSessions

	BeforeEach(func() {
		sessions = service.NewEditSessions()
	})

	It("reports no session for an unknown reviewer", func() {
		_, ok := sessions.Get(1)
		Expect(ok).To(BeFalse())
	})

	It("round-trips start and get", func() {
		sessions.Start(1, 42)

		requestID, ok := sessions.Get(1)
		Expect(ok).To(BeTrue())
		Expect(requestID).To(Equal(int64(42)))
	})

	It("replaces a stale session on a new start", func() {
		sessions.Start(1, 42)
		sessions.Start(1, 99)

		requestID, _ := sessions.Get(1)
		Expect(requestID).To(Equal(int64(99)))
	})

	It("keeps reviewers independent", func() {
		sessions.Start(1, 42)
		sessions.Start(2, 99)

		first, _ := sessions.Get(1)
		second, _ := sessions.Get(2)
		Expect(first).To(Equal(int64(42)))
		Expect(second).To(Equal(int64(99)))
	})

	It("clears a session", func() {
		sessions.Start(1, 42)
		sessions.Clear(1)

		_, ok := sessions.Get(1)
		Expect(ok).To(BeFalse())
	})

	It("tolerates clearing a reviewer without a session", func() {
		Expect(func() { sessions.Clear(7) }).NotTo(Panic())
	})
})
