package resolver

import (
	"net/netip"
)

// isPrivateOrLocal reports whether an address can never have a meaningful
// geolocation: loopback (127/8, ::1), RFC 1918 / unique-local (10/8,
// 172.16/12, 192.168/16, fc00::/7), link-local (fe80::/10) and IPv4-mapped
// IPv6 (::ffff:0:0/96). Unparseable strings count as local: they will never
// resolve, and caching the null avoids retrying them.
func isPrivateOrLocal(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return true
	}
	return addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.Is4In6()
}
