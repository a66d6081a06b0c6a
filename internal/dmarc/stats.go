package dmarc

import (
	"sort"
	"strings"
)

// Statistics are derived aggregates for one report. They are recomputed on
// demand and never persisted.
type Statistics struct {
	TotalMessages  int            `json:"totalMessages"`
	PassedCount    int            `json:"passedCount"`
	PartialCount   int            `json:"partialCount"`
	FailedCount    int            `json:"failedCount"`
	DKIMPass       int            `json:"dkimPass"`
	DKIMFail       int            `json:"dkimFail"`
	SPFPass        int            `json:"spfPass"`
	SPFFail        int            `json:"spfFail"`
	ForwardedCount int            `json:"forwardedCount"`
	Dispositions   map[string]int `json:"dispositions"`
	TopIPs         []IPCount      `json:"topIPs"`
}

// IPCount is one entry of the top-sources ranking.
type IPCount struct {
	IP    string `json:"ip"`
	Count int    `json:"count"`
}

// Compliance buckets for a single record.
const (
	ComplianceFull    = "full"
	CompliancePartial = "partial"
	ComplianceNone    = "none"
)

// Risk tiers for forwarded records.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// Verdict is the per-record classification.
type Verdict struct {
	SourceIP   string `json:"sourceIp"`
	Count      int    `json:"count"`
	Compliance string `json:"compliance"`
	Forwarded  bool   `json:"forwarded"`
	// RiskTier is only set for forwarded records; direct records carry none.
	RiskTier string `json:"riskTier,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Calculate derives Statistics from a report. Pure and deterministic: the
// same report always yields the same result.
func Calculate(r *Report) Statistics {
	stats := Statistics{
		TotalMessages: r.TotalMessages,
		Dispositions:  make(map[string]int),
	}

	ipCounts := make(map[string]int)
	var ipOrder []string

	for i := range r.Records {
		rec := &r.Records[i]
		count := rec.Count

		disp := rec.PolicyEvaluated.Disposition
		if disp == "" {
			disp = "none"
		}
		stats.Dispositions[disp] += count

		dkimPass := rec.PolicyEvaluated.DKIM == "pass"
		spfPass := rec.PolicyEvaluated.SPF == "pass"

		switch {
		case dkimPass && spfPass:
			stats.PassedCount += count
		case dkimPass || spfPass:
			stats.PartialCount += count
		default:
			stats.FailedCount += count
		}

		if dkimPass {
			stats.DKIMPass += count
		} else {
			stats.DKIMFail += count
		}
		if spfPass {
			stats.SPFPass += count
		} else {
			stats.SPFFail += count
		}

		if isForwarded(rec) {
			stats.ForwardedCount += count
		}

		if _, seen := ipCounts[rec.SourceIP]; !seen {
			ipOrder = append(ipOrder, rec.SourceIP)
		}
		ipCounts[rec.SourceIP] += count
	}

	stats.TopIPs = topIPs(ipCounts, ipOrder, 10)
	return stats
}

// Classify produces the compliance and forwarding-risk verdict for one
// record, weighted by its message count.
func Classify(rec *Record) Verdict {
	dkimPass := rec.PolicyEvaluated.DKIM == "pass"
	spfPass := rec.PolicyEvaluated.SPF == "pass"

	v := Verdict{
		SourceIP: rec.SourceIP,
		Count:    rec.Count,
	}

	switch {
	case dkimPass && spfPass:
		v.Compliance = ComplianceFull
	case dkimPass || spfPass:
		v.Compliance = CompliancePartial
	default:
		v.Compliance = ComplianceNone
	}

	if !isForwarded(rec) {
		v.Reason = "direct"
		return v
	}
	v.Forwarded = true

	// Strict priority: a valid DKIM signature survives forwarding, so it
	// outranks the disposition checks.
	switch {
	case dkimPass:
		v.RiskTier = RiskLow
		v.Reason = "legitimate forward"
	case rec.PolicyEvaluated.Disposition == "reject":
		v.RiskTier = RiskCritical
		v.Reason = "blocked spoof attempt"
	case rec.PolicyEvaluated.Disposition == "quarantine":
		v.RiskTier = RiskHigh
		v.Reason = "suspicious, quarantined"
	case spfPass:
		v.RiskTier = RiskMedium
		v.Reason = "forwarded without DKIM, needs review"
	default:
		v.RiskTier = RiskHigh
		v.Reason = "both mechanisms failed, likely spoof"
	}
	return v
}

// ClassifyAll returns the verdict for every record, in record order.
func ClassifyAll(r *Report) []Verdict {
	verdicts := make([]Verdict, 0, len(r.Records))
	for i := range r.Records {
		verdicts = append(verdicts, Classify(&r.Records[i]))
	}
	return verdicts
}

// isForwarded reports whether a record looks like forwarded mail: the SPF
// authenticated domain and the visible From domain belong to different
// organizations. Base-domain comparison tolerates subdomain sending
// infrastructure (ses.example.com vs example.com is not a forward).
func isForwarded(rec *Record) bool {
	headerDomain := headerFromDomain(rec.Identifiers.HeaderFrom)
	spfDomain := spfAuthDomain(rec.AuthResults.SPF)

	if headerDomain == "" || spfDomain == "" {
		return false
	}
	return baseDomain(spfDomain) != baseDomain(headerDomain)
}

func headerFromDomain(headerFrom string) string {
	headerFrom = strings.ToLower(strings.TrimSpace(headerFrom))
	if at := strings.LastIndex(headerFrom, "@"); at >= 0 {
		return headerFrom[at+1:]
	}
	return headerFrom
}

// spfAuthDomain picks the SPF auth-result domain: the mfrom-scoped entry
// (MAIL FROM) when present, otherwise the first entry.
func spfAuthDomain(results []SPFAuthResult) string {
	if len(results) == 0 {
		return ""
	}
	for _, r := range results {
		if r.Scope == "mfrom" {
			return strings.ToLower(strings.TrimSpace(r.Domain))
		}
	}
	return strings.ToLower(strings.TrimSpace(results[0].Domain))
}

// baseDomain returns the last two dot-separated labels, a coarse
// organizational-identity comparison.
func baseDomain(domain string) string {
	parts := strings.Split(domain, ".")
	if len(parts) >= 2 {
		return strings.Join(parts[len(parts)-2:], ".")
	}
	return domain
}

// topIPs aggregates counts per source IP, sorted descending with ties broken
// by first appearance in the record sequence, truncated to limit.
func topIPs(counts map[string]int, order []string, limit int) []IPCount {
	ranked := make([]IPCount, 0, len(order))
	for _, ip := range order {
		ranked = append(ranked, IPCount{IP: ip, Count: counts[ip]})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
