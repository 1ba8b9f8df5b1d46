package metrics

import (
	"bytes"
	"strings"
	"testing"
)

func TestSink_TracksSkipReasonsAndDeliveries(t *testing.T) {
	s := NewSink()
	s.IncSkip("skipped_since_early_view_")
	s.IncSkip("skipped_since_early_view_")
	s.IncSkip("skipped_since_already_delivered_")
	s.IncDelivered("ixtheo")
	s.IncDelivered("ixtheo")
	s.IncDownloadFailure()
	s.IncConversionFailure()

	summary := s.Summary()
	if summary.Skipped["skipped_since_early_view_"] != 2 {
		t.Errorf("early_view = %d", summary.Skipped["skipped_since_early_view_"])
	}
	if summary.DeliveredByGroup["ixtheo"] != 2 {
		t.Errorf("delivered ixtheo = %d", summary.DeliveredByGroup["ixtheo"])
	}
	if summary.DownloadFailures != 1 || summary.ConversionFailures != 1 {
		t.Errorf("failures wrong: %+v", summary)
	}
}

func TestPrintSummary_IncludesAllBuckets(t *testing.T) {
	s := NewSink()
	s.IncSkip("skipped_since_online_first_")
	s.IncDelivered("relbib")

	var buf bytes.Buffer
	PrintSummary(&buf, s.Summary())

	out := buf.String()
	if !strings.Contains(out, "skipped_since_online_first_: 1") {
		t.Errorf("missing skip bucket: %s", out)
	}
	if !strings.Contains(out, "delivered [relbib]: 1") {
		t.Errorf("missing delivery line: %s", out)
	}
}
