package transport

import (
	"strings"
	"testing"

	"github.com/bombsquad-bot/bombsquad/internal/logging"
)

func TestSVGAttachment(t *testing.T) {
	att := SVGAttachment("module-3", "<svg/>")
	if att.Name != "module-3.svg" {
		t.Fatalf("name = %q", att.Name)
	}
	if att.ContentType != "image/svg+xml" {
		t.Fatalf("content type = %q", att.ContentType)
	}
	if att.ID == "" || string(att.Body) != "<svg/>" {
		t.Fatalf("attachment = %+v", att)
	}
	if att.ID == SVGAttachment("module-3", "<svg/>").ID {
		t.Fatal("attachment IDs should be unique")
	}
}

func TestRenderViewDegradesOnPanic(t *testing.T) {
	log := logging.WithComponent("transport-test")
	att := RenderView(log, "broken", func() string { panic("boom") })
	if att != nil {
		t.Fatalf("expected nil attachment, got %+v", att)
	}
	att = RenderView(log, "empty", func() string { return "" })
	if att != nil {
		t.Fatalf("empty view should degrade, got %+v", att)
	}
	att = RenderView(log, "ok", func() string { return "<svg/>" })
	if att == nil || !strings.HasPrefix(att.Name, "ok") {
		t.Fatalf("expected rendered attachment, got %+v", att)
	}
}

func TestSenderFunc(t *testing.T) {
	var gotChannel, gotText string
	s := SenderFunc(func(channelID, text string, attachment *Attachment) error {
		gotChannel, gotText = channelID, text
		return nil
	})
	if err := s.Send("chan-1", "hello", nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotChannel != "chan-1" || gotText != "hello" {
		t.Fatalf("send saw %q %q", gotChannel, gotText)
	}
}
