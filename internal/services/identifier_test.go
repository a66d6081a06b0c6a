package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentify(t *testing.T) {
	tests := []struct {
		hostname string
		want     string
	}{
		{"mail-sor-f41.google.com", "Google Workspace"},
		{"unknown.randomdomain.net", "Other"},
		{"mail-eopbgr00123.outbound.protection.outlook.com", "Microsoft 365"},
		{"o1.email.sendgrid.net", "SendGrid"},
		{"a27-12.smtp-out.us-west-2.amazonses.com", "Amazon SES"},
		{"mail.mailgun.org", "Mailgun"},
		{"smtp.zohomail.com", "Zoho Mail"},
		{"sonic301.consmr.mail.ne1.yahoo.com", "Yahoo"},
		{"postfix-outbound.hoster.example", "Postfix"},
		{"", "Other"},
	}

	for _, tt := range tests {
		t.Run(tt.hostname, func(t *testing.T) {
			assert.Equal(t, tt.want, Identify(tt.hostname))
		})
	}
}

func TestIdentify_CaseInsensitive(t *testing.T) {
	assert.Equal(t, "Google Workspace", Identify("MAIL-SOR-F41.GOOGLE.COM"))
}

func TestIdentify_FirstMatchWins(t *testing.T) {
	// sendgrid.net is claimed by both SendGrid and Twilio SendGrid; the
	// earlier table entry must win for deterministic classification.
	assert.Equal(t, "SendGrid", Identify("o1.email.sendgrid.net"))
}

func TestShortName(t *testing.T) {
	assert.Equal(t, "M365", ShortName("Microsoft 365"))
	assert.Equal(t, "AWS SES", ShortName("Amazon SES"))
	assert.Equal(t, "Mailjet", ShortName("Mailjet"))
}
