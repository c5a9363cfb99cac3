package eventstream_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/toolbox/pkg/eventstream"
	testutils "github.com/papercomputeco/toolbox/pkg/utils/test"
)

var _ = Describe("Event", func() {
	It("marshals CallCompletedEvent with expected top-level keys", func() {
		now := time.Unix(1735689600, 0).UTC()
		rec := testutils.NewCallRecord("call-1", now.Add(-2*time.Second))
		event := eventstream.NewCallCompletedEvent("api", rec, now)

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("source"))
		Expect(got).To(HaveKey("call"))

		call, ok := got["call"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(call).To(HaveKeyWithValue("id", "call-1"))
		Expect(call).To(HaveKey("duration_ms"))
	})

	It("fills the envelope from the record", func() {
		now := time.Now()
		rec := testutils.NewCallRecord("call-1", now)
		event := eventstream.NewCallCompletedEvent("mcp", rec, now)

		Expect(event.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(event.EventType).To(Equal(eventstream.EventTypeCallCompleted))
		Expect(event.EventID).NotTo(BeEmpty())
		Expect(event.Source.Surface).To(Equal("mcp"))
		Expect(event.Source.Tool).To(Equal("code_analyze"))
		Expect(event.Call.ID).To(Equal("call-1"))
	})

	It("assigns unique event ids", func() {
		rec := testutils.NewCallRecord("call-1", time.Now())
		a := eventstream.NewCallCompletedEvent("api", rec, time.Now())
		b := eventstream.NewCallCompletedEvent("api", rec, time.Now())
		Expect(a.EventID).NotTo(Equal(b.EventID))
	})

	It("defines stable event constants", func() {
		Expect(eventstream.SchemaVersionV1).To(BeNumerically(">", 0))
		Expect(eventstream.EventTypeCallCompleted).To(Equal("toolbox.call.completed"))
	})

	It("provides ErrNilCallEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilCallEvent).To(MatchError("nil call event"))
	})
})
