package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ProxyResolver works out the client address of a request. Forwarding
// headers are only believed when the direct peer is a trusted proxy, so a
// client cannot pick its own rate-limit key or audit address.
// A nil resolver trusts nobody.
type ProxyResolver struct {
	trusted []*net.IPNet
}

// NewProxyResolver accepts plain addresses and CIDR ranges.
func NewProxyResolver(trusted []string) (*ProxyResolver, error) {
	p := &ProxyResolver{}
	for _, entry := range trusted {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", entry)
			}
			bits := 8 * net.IPv6len
			if ip.To4() != nil {
				ip, bits = ip.To4(), 8*net.IPv4len
			}
			p.trusted = append(p.trusted, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, network, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
		}
		p.trusted = append(p.trusted, network)
	}
	return p, nil
}

// ClientIP returns the peer address, or when the peer is a trusted proxy,
// the right-most X-Forwarded-For hop that is not itself a trusted proxy.
func (p *ProxyResolver) ClientIP(r *http.Request) string {
	peer := remoteHost(r)
	if !p.isTrusted(peer) {
		return peer
	}

	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		hops := strings.Split(fwd, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if net.ParseIP(hop) == nil {
				break
			}
			if !p.isTrusted(hop) || i == 0 {
				return hop
			}
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(real) != nil {
		return real
	}
	return peer
}

func (p *ProxyResolver) isTrusted(addr string) bool {
	if p == nil {
		return false
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, network := range p.trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
