// Package dmarc parses DMARC aggregate reports and derives per-report
// statistics and per-record compliance verdicts.
package dmarc

// Report is a parsed DMARC aggregate report. Immutable once parsed.
type Report struct {
	FileName      string          `json:"fileName"`
	Metadata      ReportMetadata  `json:"metadata"`
	Policy        PolicyPublished `json:"policy"`
	Records       []Record        `json:"records"`
	TotalMessages int             `json:"totalMessages"`
}

type ReportMetadata struct {
	OrgName   string    `json:"orgName"`
	Email     string    `json:"email"`
	ReportID  string    `json:"reportId"`
	DateRange DateRange `json:"dateRange"`
}

// DateRange bounds the reporting window in epoch seconds.
type DateRange struct {
	Begin int64 `json:"begin"`
	End   int64 `json:"end"`
}

// PolicyPublished is the domain owner's published DMARC policy. Alignment
// modes default to "r" (relaxed) and Pct keeps its published string form,
// defaulting to "100".
type PolicyPublished struct {
	Domain string `json:"domain"`
	ADKIM  string `json:"adkim"`
	ASPF   string `json:"aspf"`
	P      string `json:"p"`
	SP     string `json:"sp"`
	Pct    string `json:"pct"`
}

// Record is a single row of the aggregate report: one source IP's outcomes.
type Record struct {
	SourceIP        string          `json:"sourceIp"`
	Count           int             `json:"count"`
	PolicyEvaluated PolicyEvaluated `json:"policyEvaluated"`
	AuthResults     AuthResults     `json:"authResults"`
	Identifiers     Identifiers     `json:"identifiers"`
}

type PolicyEvaluated struct {
	Disposition string `json:"disposition"`
	DKIM        string `json:"dkim"`
	SPF         string `json:"spf"`
}

// AuthResults holds the raw authentication outcomes. A record may carry
// zero, one, or several DKIM and SPF entries; document order is preserved.
type AuthResults struct {
	DKIM []DKIMAuthResult `json:"dkim"`
	SPF  []SPFAuthResult  `json:"spf"`
}

type DKIMAuthResult struct {
	Domain   string `json:"domain"`
	Result   string `json:"result"`
	Selector string `json:"selector"`
}

type SPFAuthResult struct {
	Domain string `json:"domain"`
	Result string `json:"result"`
	Scope  string `json:"scope"`
}

type Identifiers struct {
	HeaderFrom   string `json:"headerFrom"`
	EnvelopeFrom string `json:"envelopeFrom"`
	EnvelopeTo   string `json:"envelopeTo"`
}
