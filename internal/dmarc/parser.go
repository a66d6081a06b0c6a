package dmarc

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// ParseError describes a malformed aggregate report. It is scoped to one
// document: a multi-file batch reports the failure per file and continues.
type ParseError struct {
	FileName string
	Reason   string
	Err      error
}

func (e *ParseError) Error() string {
	if e.FileName != "" {
		return fmt.Sprintf("parsing %s: %s", e.FileName, e.Reason)
	}
	return fmt.Sprintf("parsing report: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// XML wire structure of the RFC 7489 feedback document. Numeric-ish fields
// are read as strings so a missing or garbled value degrades to a default
// instead of aborting the whole document.
type feedback struct {
	XMLName         xml.Name        `xml:"feedback"`
	ReportMetadata  reportMetadata  `xml:"report_metadata"`
	PolicyPublished policyPublished `xml:"policy_published"`
	Records         []record        `xml:"record"`
}

type reportMetadata struct {
	OrgName   string    `xml:"org_name"`
	Email     string    `xml:"email"`
	ReportID  string    `xml:"report_id"`
	DateRange dateRange `xml:"date_range"`
}

type dateRange struct {
	Begin string `xml:"begin"`
	End   string `xml:"end"`
}

type policyPublished struct {
	Domain string `xml:"domain"`
	ADKIM  string `xml:"adkim"`
	ASPF   string `xml:"aspf"`
	P      string `xml:"p"`
	SP     string `xml:"sp"`
	Pct    string `xml:"pct"`
}

type record struct {
	Row         row         `xml:"row"`
	Identifiers identifiers `xml:"identifiers"`
	AuthResults authResults `xml:"auth_results"`
}

type row struct {
	SourceIP        string          `xml:"source_ip"`
	Count           string          `xml:"count"`
	PolicyEvaluated policyEvaluated `xml:"policy_evaluated"`
}

type policyEvaluated struct {
	Disposition string `xml:"disposition"`
	DKIM        string `xml:"dkim"`
	SPF         string `xml:"spf"`
}

type identifiers struct {
	HeaderFrom   string `xml:"header_from"`
	EnvelopeFrom string `xml:"envelope_from"`
	EnvelopeTo   string `xml:"envelope_to"`
}

type authResults struct {
	DKIM []dkimResult `xml:"dkim"`
	SPF  []spfResult  `xml:"spf"`
}

type dkimResult struct {
	Domain   string `xml:"domain"`
	Result   string `xml:"result"`
	Selector string `xml:"selector"`
}

type spfResult struct {
	Domain string `xml:"domain"`
	Result string `xml:"result"`
	Scope  string `xml:"scope"`
}

// Parse converts a raw aggregate report document into a Report. Malformed
// XML fails atomically with a *ParseError; missing optional fields fall back
// to their documented defaults. TotalMessages is always computed from the
// record counts, never read from the document.
func Parse(raw []byte, fileName string) (*Report, error) {
	var doc feedback
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, &ParseError{
			FileName: fileName,
			Reason:   "invalid XML format",
			Err:      err,
		}
	}

	report := &Report{
		FileName: fileName,
		Metadata: ReportMetadata{
			OrgName:  strings.TrimSpace(doc.ReportMetadata.OrgName),
			Email:    strings.TrimSpace(doc.ReportMetadata.Email),
			ReportID: strings.TrimSpace(doc.ReportMetadata.ReportID),
			DateRange: DateRange{
				Begin: parseEpoch(doc.ReportMetadata.DateRange.Begin),
				End:   parseEpoch(doc.ReportMetadata.DateRange.End),
			},
		},
		Policy: PolicyPublished{
			Domain: strings.TrimSpace(doc.PolicyPublished.Domain),
			ADKIM:  defaultString(doc.PolicyPublished.ADKIM, "r"),
			ASPF:   defaultString(doc.PolicyPublished.ASPF, "r"),
			P:      strings.TrimSpace(doc.PolicyPublished.P),
			SP:     strings.TrimSpace(doc.PolicyPublished.SP),
			Pct:    defaultString(doc.PolicyPublished.Pct, "100"),
		},
	}

	for _, rec := range doc.Records {
		count := parseCount(rec.Row.Count)

		out := Record{
			SourceIP: strings.TrimSpace(rec.Row.SourceIP),
			Count:    count,
			PolicyEvaluated: PolicyEvaluated{
				Disposition: strings.TrimSpace(rec.Row.PolicyEvaluated.Disposition),
				DKIM:        strings.TrimSpace(rec.Row.PolicyEvaluated.DKIM),
				SPF:         strings.TrimSpace(rec.Row.PolicyEvaluated.SPF),
			},
			Identifiers: Identifiers{
				HeaderFrom:   strings.TrimSpace(rec.Identifiers.HeaderFrom),
				EnvelopeFrom: strings.TrimSpace(rec.Identifiers.EnvelopeFrom),
				EnvelopeTo:   strings.TrimSpace(rec.Identifiers.EnvelopeTo),
			},
		}

		for _, dkim := range rec.AuthResults.DKIM {
			out.AuthResults.DKIM = append(out.AuthResults.DKIM, DKIMAuthResult{
				Domain:   strings.TrimSpace(dkim.Domain),
				Result:   strings.TrimSpace(dkim.Result),
				Selector: strings.TrimSpace(dkim.Selector),
			})
		}
		for _, spf := range rec.AuthResults.SPF {
			out.AuthResults.SPF = append(out.AuthResults.SPF, SPFAuthResult{
				Domain: strings.TrimSpace(spf.Domain),
				Result: strings.TrimSpace(spf.Result),
				Scope:  strings.TrimSpace(spf.Scope),
			})
		}

		report.Records = append(report.Records, out)
		report.TotalMessages += count
	}

	return report, nil
}

func defaultString(s, fallback string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	return s
}

func parseCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func parseEpoch(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
