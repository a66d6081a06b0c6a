// Package services maps resolved hostnames to known email sending services.
package services

import (
	"regexp"
)

// signature pairs a provider name with its hostname patterns. The table is
// matched first-match-wins in declared order; later entries are deliberately
// broader or duplicate earlier ones, so the order must not be changed.
type signature struct {
	name     string
	patterns []*regexp.Regexp
}

var signatures = []signature{
	{"Microsoft 365", compileAll(
		`outlook\.com$`,
		`office365\.com$`,
		`microsoft\.com$`,
		`protection\.outlook\.com$`,
		`mail\.protection\.outlook\.com$`,
		`prod\.outlook\.com$`,
		`prod\.protection\.outlook\.com$`,
		`o365\.com$`,
	)},
	{"Google Workspace", compileAll(
		`google\.com$`,
		`googlemail\.com$`,
		`gmail\.com$`,
		`mail-.*\.google\.com$`,
	)},
	{"SendGrid", compileAll(
		`sendgrid\.net$`,
		`sendgrid\.com$`,
	)},
	{"Mailgun", compileAll(
		`mailgun\.org$`,
		`mailgun\.net$`,
		`mailgun\.com$`,
	)},
	{"Amazon SES", compileAll(
		`amazonses\.com$`,
		`amazon-smtp\.com$`,
		`ses\.amazonaws\.com$`,
		`email\..*\.amazonaws\.com$`,
	)},
	{"Postmark", compileAll(
		`postmarkapp\.com$`,
		`pmta\..*\.com$`,
	)},
	{"Mandrill", compileAll(
		`mandrillapp\.com$`,
		`mandrill\.com$`,
	)},
	{"SparkPost", compileAll(
		`sparkpost\.com$`,
		`sparkpostmail\.com$`,
	)},
	{"Mailchimp", compileAll(
		`mailchimp\.com$`,
		`mcsv\.net$`,
	)},
	{"Constant Contact", compileAll(
		`constantcontact\.com$`,
		`roving\.com$`,
	)},
	{"Proofpoint", compileAll(
		`proofpoint\.com$`,
		`pphosted\.com$`,
	)},
	{"Mimecast", compileAll(
		`mimecast\.com$`,
		`mimecast-offshore\.com$`,
	)},
	{"Zoho Mail", compileAll(
		`zoho\.com$`,
		`zohomail\.com$`,
	)},
	{"iCloud", compileAll(
		`icloud\.com$`,
		`mail\.me\.com$`,
		`apple\.com$`,
	)},
	{"Yahoo", compileAll(
		`yahoo\.com$`,
		`yahoodns\.net$`,
		`yahoo\.`,
	)},
	{"AOL", compileAll(
		`aol\.com$`,
		`aol\.`,
	)},
	{"Rackspace", compileAll(
		`emailsrvr\.com$`,
		`rackspace\.com$`,
	)},
	{"GoDaddy", compileAll(
		`secureserver\.net$`,
		`godaddy\.com$`,
	)},
	{"Cloudflare", compileAll(
		`cloudflare\.com$`,
		`cloudflare\.net$`,
	)},
	{"Fastmail", compileAll(
		`fastmail\.com$`,
		`messagingengine\.com$`,
	)},
	{"MailerSend", compileAll(
		`mailersend\.net$`,
		`mailersend\.com$`,
	)},
	{"Sendinblue", compileAll(
		`sendinblue\.com$`,
		`brevo\.com$`,
	)},
	{"Elastic Email", compileAll(
		`elasticemail\.com$`,
	)},
	{"Salesforce", compileAll(
		`salesforce\.com$`,
		`exacttarget\.com$`,
		`marketingcloud\.com$`,
		`mc\.s.*\.exacttarget\.com$`,
	)},
	{"HubSpot", compileAll(
		`hubspot\.com$`,
		`hubspotemail\.net$`,
	)},
	{"ActiveCampaign", compileAll(
		`activecampaign\.com$`,
	)},
	{"Campaign Monitor", compileAll(
		`createsend\.com$`,
		`campaignmonitor\.com$`,
	)},
	{"GetResponse", compileAll(
		`getresponse\.com$`,
	)},
	{"AWeber", compileAll(
		`aweber\.com$`,
	)},
	{"Klaviyo", compileAll(
		`klaviyo\.com$`,
	)},
	{"Omnisend", compileAll(
		`omnisend\.com$`,
	)},
	{"SendPulse", compileAll(
		`sendpulse\.com$`,
	)},
	{"Mailjet", compileAll(
		`mailjet\.com$`,
	)},
	{"Pepipost", compileAll(
		`pepipost\.com$`,
	)},
	{"SocketLabs", compileAll(
		`socketlabs\.com$`,
	)},
	{"Twilio SendGrid", compileAll(
		`sendgrid\.net$`,
		`sendgrid\.com$`,
	)},
	{"Postfix", compileAll(
		`postfix`,
	)},
	{"Exim", compileAll(
		`exim`,
	)},
}

func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(`(?i)`+p))
	}
	return compiled
}

// Identify returns the sending service for a resolved hostname, or "Other"
// when the hostname is empty or matches no signature.
func Identify(hostname string) string {
	if hostname == "" {
		return "Other"
	}

	for _, sig := range signatures {
		for _, pattern := range sig.patterns {
			if pattern.MatchString(hostname) {
				return sig.name
			}
		}
	}
	return "Other"
}

var shortNames = map[string]string{
	"Microsoft 365":    "M365",
	"Google Workspace": "Google",
	"Amazon SES":       "AWS SES",
	"Constant Contact": "CC",
}

// ShortName returns a compact display name for a service.
func ShortName(service string) string {
	if short, ok := shortNames[service]; ok {
		return short
	}
	return service
}
