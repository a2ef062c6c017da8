package loopback

import (
	"strconv"
	"strings"

	"github.com/wippyai/zmq-runtime/native"
)

var transports = map[string]bool{
	"inproc": true,
	"ipc":    true,
	"tcp":    true,
	"pgm":    true,
	"epgm":   true,
}

type endpoint struct {
	transport string
	host      string
	port      string
	address   string
}

func parseEndpoint(s string) (endpoint, native.Errno) {
	transport, address, ok := strings.Cut(s, "://")
	if !ok || transport == "" || address == "" {
		return endpoint{}, native.EINVAL
	}
	if !transports[transport] {
		return endpoint{}, native.EPROTONOSUPPORT
	}

	ep := endpoint{transport: transport, address: address}
	if transport != "tcp" {
		return ep, 0
	}

	i := strings.LastIndexByte(address, ':')
	if i <= 0 || i == len(address)-1 {
		return endpoint{}, native.EINVAL
	}
	ep.host, ep.port = address[:i], address[i+1:]
	if ep.port != "*" {
		n, err := strconv.Atoi(ep.port)
		if err != nil || n < 1 || n > 65535 {
			return endpoint{}, native.EINVAL
		}
	}
	return ep, 0
}

// key identifies the rendezvous point. Every tcp host maps to the same port
// space.
func (ep endpoint) key() string {
	if ep.transport == "tcp" {
		return "tcp://:" + ep.port
	}
	return ep.transport + "://" + ep.address
}

// resolved is the endpoint reported through LAST_ENDPOINT after a bind.
func (ep endpoint) resolved() string {
	if ep.transport != "tcp" {
		return ep.transport + "://" + ep.address
	}
	host := ep.host
	if host == "*" {
		host = "0.0.0.0"
	}
	return "tcp://" + host + ":" + ep.port
}
