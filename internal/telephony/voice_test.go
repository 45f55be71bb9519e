package telephony

import (
	"strings"
	"testing"
)

func TestRenderGreeting(t *testing.T) {
	doc, err := RenderGreeting("Hello there.", "How can I help?", "/process-speech")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, want := range []string{"<Say", "Hello there.", "<Gather", `action="/process-speech"`, `input="speech"`} {
		if !strings.Contains(doc, want) {
			t.Fatalf("expected %q in doc:\n%s", want, doc)
		}
	}
}

func TestRenderReply(t *testing.T) {
	doc, err := RenderReply("Thank you for your time.")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(doc, "Thank you for your time.") {
		t.Fatalf("expected reply in doc:\n%s", doc)
	}
	if strings.Contains(doc, "<Gather") {
		t.Fatalf("reply doc must not gather:\n%s", doc)
	}
}
