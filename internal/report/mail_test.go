package report

import (
	"errors"
	"testing"

	"github.com/keckobservatory/koa-daa/internal/config"
)

func TestSendNoRecipients(t *testing.T) {
	m := NewMailer(config.ReportConfig{From: "daa@keck.hawaii.edu"})
	if err := m.Send("body", false); !errors.Is(err, ErrNoRecipients) {
		t.Fatalf("err = %v, want ErrNoRecipients", err)
	}
}
