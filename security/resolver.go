package security

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
)

// defaultHeaderPriority is the ordered list of header keys inspected when
// the caller does not provide an explicit HeaderPriority.
var defaultHeaderPriority = []string{"x-real-ip", "x-forwarded-for"}

// headerFunc returns every value of a header. HTTP and gRPC metadata
// normalise keys differently, so each transport supplies its own.
type headerFunc func(key string) []string

// ClientResolver determines the effective client address of a request. The
// forwarding headers are only honoured when the connection comes from one of
// the trusted proxies.
type ClientResolver struct {
	trustedProxies []netip.Prefix
	headerPriority []string
}

// NewClientResolver parses trustedProxies (CIDRs or bare addresses). An empty
// headerPriority selects X-Real-IP then X-Forwarded-For.
func NewClientResolver(trustedProxies, headerPriority []string) (*ClientResolver, error) {
	proxies, err := parsePrefixes(trustedProxies)
	if err != nil {
		return nil, fmt.Errorf("invalid trusted proxy: %w", err)
	}
	if len(headerPriority) == 0 {
		headerPriority = defaultHeaderPriority
	}
	return &ClientResolver{trustedProxies: proxies, headerPriority: headerPriority}, nil
}

// FromRequest resolves the client address of an HTTP request.
func (c *ClientResolver) FromRequest(r *http.Request) (netip.Addr, bool) {
	return c.resolve(r.RemoteAddr, r.Header.Values)
}

// FromPeer resolves the client address of a gRPC call from the peer stored in
// ctx and the incoming metadata.
func (c *ClientResolver) FromPeer(ctx context.Context, md metadata.MD) (netip.Addr, bool) {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return netip.Addr{}, false
	}
	return c.resolve(p.Addr.String(), md.Get)
}

// resolve parses remote and, if it is a trusted proxy, walks the header
// priority list and returns the first valid IP found. Otherwise (or when no
// valid header IP is found) it returns the remote address itself.
func (c *ClientResolver) resolve(remote string, header headerFunc) (netip.Addr, bool) {
	remoteAddr, ok := parseHostAddr(remote)
	if !ok {
		return netip.Addr{}, false
	}
	if matchesAny(remoteAddr, c.trustedProxies) {
		if addr, found := addrFromHeaders(header, c.headerPriority); found {
			return addr, true
		}
	}
	return remoteAddr, true
}

// parseHostAddr parses "host:port" or a bare host into a netip.Addr.
func parseHostAddr(s string) (netip.Addr, bool) {
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	ip, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return ip.Unmap(), true
}

// addrFromHeaders walks the header keys in priority order and returns the
// first valid IP address found. For multi-value headers such as
// X-Forwarded-For the left-most (client) entry is used.
func addrFromHeaders(header headerFunc, priority []string) (netip.Addr, bool) {
	for _, key := range priority {
		for _, v := range header(key) {
			for part := range strings.SplitSeq(v, ",") {
				trimmed := strings.TrimSpace(part)
				if trimmed == "" {
					continue
				}
				if ip, err := netip.ParseAddr(trimmed); err == nil {
					return ip.Unmap(), true
				}
			}
		}
	}
	return netip.Addr{}, false
}
