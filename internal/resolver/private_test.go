package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPrivateOrLocal(t *testing.T) {
	private := []string{
		"10.1.2.3",
		"172.16.0.1",
		"172.31.255.255",
		"192.168.0.5",
		"127.0.0.1",
		"fe80::1",
		"::1",
		"fc00::1",
		"fd12:3456::1",
		"::ffff:8.8.8.8",
		"not-an-ip",
		"",
	}
	for _, ip := range private {
		assert.True(t, isPrivateOrLocal(ip), "expected %q to be private/local", ip)
	}

	public := []string{
		"8.8.8.8",
		"203.0.113.5",
		"172.32.0.1",
		"2001:db8::1",
		"2606:4700::6810:84e5",
	}
	for _, ip := range public {
		assert.False(t, isPrivateOrLocal(ip), "expected %q to be public", ip)
	}
}
