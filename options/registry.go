package options

import (
	"sort"
	"sync"

	"github.com/wippyai/zmq-runtime/native"
)

// Option is the logical, revision-independent name of a socket option.
type Option string

const (
	HWM                  Option = "hwm"
	Swap                 Option = "swap"
	Affinity             Option = "affinity"
	Identity             Option = "identity"
	Subscribe            Option = "subscribe"
	Unsubscribe          Option = "unsubscribe"
	Rate                 Option = "rate"
	RecoveryIvl          Option = "recovery_ivl"
	McastLoop            Option = "mcast_loop"
	SndBuf               Option = "sndbuf"
	RcvBuf               Option = "rcvbuf"
	RcvMore              Option = "rcvmore"
	FD                   Option = "fd"
	Events               Option = "events"
	Type                 Option = "type"
	Linger               Option = "linger"
	ReconnectIvl         Option = "reconnect_ivl"
	Backlog              Option = "backlog"
	RecoveryIvlMsec      Option = "recovery_ivl_msec"
	ReconnectIvlMax      Option = "reconnect_ivl_max"
	MaxMsgSize           Option = "maxmsgsize"
	SndHWM               Option = "sndhwm"
	RcvHWM               Option = "rcvhwm"
	MulticastHops        Option = "multicast_hops"
	RcvTimeo             Option = "rcvtimeo"
	SndTimeo             Option = "sndtimeo"
	IPv4Only             Option = "ipv4only"
	LastEndpoint         Option = "last_endpoint"
	RouterMandatory      Option = "router_mandatory"
	TCPKeepalive         Option = "tcp_keepalive"
	TCPKeepaliveCnt      Option = "tcp_keepalive_cnt"
	TCPKeepaliveIdle     Option = "tcp_keepalive_idle"
	TCPKeepaliveIntvl    Option = "tcp_keepalive_intvl"
	TCPAcceptFilter      Option = "tcp_accept_filter"
	DelayAttachOnConnect Option = "delay_attach_on_connect"
	XPubVerbose          Option = "xpub_verbose"
)

// Access says which accessors an entry yields.
type Access uint8

const (
	Get Access = 1 << iota
	Set

	GetSet = Get | Set
)

// Entry binds a logical option to its native id and value encoding.
type Entry struct {
	Name     Option
	ID       int
	Encoding Encoding
	Access   Access
	// Since is the first engine release carrying the option.
	Since native.Version
	// Mirror lists extra ids the setter writes with the same value.
	Mirror []int
}

// CanGet reports whether the entry yields a getter.
func (e Entry) CanGet() bool { return e.Access&Get != 0 }

// CanSet reports whether the entry yields a setter.
func (e Entry) CanSet() bool { return e.Access&Set != 0 }

func since(major, minor int) native.Version {
	return native.Version{Major: major, Minor: minor}
}

// 2.x options use 64-bit widths for most integers.
var rev2Entries = []Entry{
	{Name: HWM, ID: native.OptHWM, Encoding: Uint64, Access: GetSet},
	{Name: Swap, ID: native.OptSwap, Encoding: Int64, Access: GetSet},
	{Name: Affinity, ID: native.OptAffinity, Encoding: Uint64, Access: GetSet},
	{Name: Identity, ID: native.OptIdentity, Encoding: Bytes, Access: GetSet},
	{Name: Subscribe, ID: native.OptSubscribe, Encoding: Bytes, Access: Set},
	{Name: Unsubscribe, ID: native.OptUnsubscribe, Encoding: Bytes, Access: Set},
	{Name: Rate, ID: native.OptRate, Encoding: Int64, Access: GetSet},
	{Name: RecoveryIvl, ID: native.OptRecoveryIvl, Encoding: Int64, Access: GetSet},
	{Name: McastLoop, ID: native.OptMcastLoop, Encoding: Int64, Access: GetSet},
	{Name: SndBuf, ID: native.OptSndBuf, Encoding: Uint64, Access: GetSet},
	{Name: RcvBuf, ID: native.OptRcvBuf, Encoding: Uint64, Access: GetSet},
	{Name: RcvMore, ID: native.OptRcvMore, Encoding: Int64, Access: Get},
	{Name: FD, ID: native.OptFD, Encoding: Int, Access: Get},
	{Name: Events, ID: native.OptEvents, Encoding: Uint32, Access: Get},
	{Name: Type, ID: native.OptType, Encoding: Int, Access: Get},
	{Name: Linger, ID: native.OptLinger, Encoding: Int, Access: GetSet},
	{Name: ReconnectIvl, ID: native.OptReconnectIvl, Encoding: Int, Access: GetSet},
	{Name: Backlog, ID: native.OptBacklog, Encoding: Int, Access: GetSet},
	{Name: RecoveryIvlMsec, ID: native.OptRecoveryIvlMsec, Encoding: Int64, Access: GetSet, Since: since(2, 1)},
	{Name: ReconnectIvlMax, ID: native.OptReconnectIvlMax, Encoding: Int, Access: GetSet, Since: since(2, 1)},
	{Name: RcvTimeo, ID: native.OptRcvTimeo, Encoding: Int, Access: GetSet, Since: since(2, 2)},
	{Name: SndTimeo, ID: native.OptSndTimeo, Encoding: Int, Access: GetSet, Since: since(2, 2)},
}

// 3.x options use native int for nearly everything. HWM splits into
// SNDHWM/RCVHWM; the logical HWM writes both and reads SNDHWM.
var rev3Entries = []Entry{
	{Name: HWM, ID: native.OptSndHWM, Encoding: Int, Access: GetSet, Mirror: []int{native.OptRcvHWM}},
	{Name: Affinity, ID: native.OptAffinity, Encoding: Uint64, Access: GetSet},
	{Name: Identity, ID: native.OptIdentity, Encoding: Bytes, Access: GetSet},
	{Name: Subscribe, ID: native.OptSubscribe, Encoding: Bytes, Access: Set},
	{Name: Unsubscribe, ID: native.OptUnsubscribe, Encoding: Bytes, Access: Set},
	{Name: Rate, ID: native.OptRate, Encoding: Int, Access: GetSet},
	{Name: RecoveryIvl, ID: native.OptRecoveryIvl, Encoding: Int, Access: GetSet},
	{Name: SndBuf, ID: native.OptSndBuf, Encoding: Int, Access: GetSet},
	{Name: RcvBuf, ID: native.OptRcvBuf, Encoding: Int, Access: GetSet},
	{Name: RcvMore, ID: native.OptRcvMore, Encoding: Int, Access: Get},
	{Name: FD, ID: native.OptFD, Encoding: Int, Access: Get},
	{Name: Events, ID: native.OptEvents, Encoding: Int, Access: Get},
	{Name: Type, ID: native.OptType, Encoding: Int, Access: Get},
	{Name: Linger, ID: native.OptLinger, Encoding: Int, Access: GetSet},
	{Name: ReconnectIvl, ID: native.OptReconnectIvl, Encoding: Int, Access: GetSet},
	{Name: Backlog, ID: native.OptBacklog, Encoding: Int, Access: GetSet},
	{Name: ReconnectIvlMax, ID: native.OptReconnectIvlMax, Encoding: Int, Access: GetSet},
	{Name: MaxMsgSize, ID: native.OptMaxMsgSize, Encoding: Int64, Access: GetSet},
	{Name: SndHWM, ID: native.OptSndHWM, Encoding: Int, Access: GetSet},
	{Name: RcvHWM, ID: native.OptRcvHWM, Encoding: Int, Access: GetSet},
	{Name: MulticastHops, ID: native.OptMulticastHops, Encoding: Int, Access: GetSet},
	{Name: RcvTimeo, ID: native.OptRcvTimeo, Encoding: Int, Access: GetSet},
	{Name: SndTimeo, ID: native.OptSndTimeo, Encoding: Int, Access: GetSet},
	{Name: IPv4Only, ID: native.OptIPv4Only, Encoding: Int, Access: GetSet, Since: since(3, 1)},
	{Name: LastEndpoint, ID: native.OptLastEndpoint, Encoding: Bytes, Access: Get, Since: since(3, 2)},
	{Name: RouterMandatory, ID: native.OptRouterMandatory, Encoding: Int, Access: Set, Since: since(3, 2)},
	{Name: TCPKeepalive, ID: native.OptTCPKeepalive, Encoding: Int, Access: GetSet, Since: since(3, 2)},
	{Name: TCPKeepaliveCnt, ID: native.OptTCPKeepaliveCnt, Encoding: Int, Access: GetSet, Since: since(3, 2)},
	{Name: TCPKeepaliveIdle, ID: native.OptTCPKeepaliveIdle, Encoding: Int, Access: GetSet, Since: since(3, 2)},
	{Name: TCPKeepaliveIntvl, ID: native.OptTCPKeepaliveIntvl, Encoding: Int, Access: GetSet, Since: since(3, 2)},
	{Name: TCPAcceptFilter, ID: native.OptTCPAcceptFilter, Encoding: Bytes, Access: Set, Since: since(3, 2)},
	{Name: DelayAttachOnConnect, ID: native.OptDelayAttachOnConnect, Encoding: Int, Access: GetSet, Since: since(3, 2)},
	{Name: XPubVerbose, ID: native.OptXPubVerbose, Encoding: Int, Access: Set, Since: since(3, 2)},
}

// Table is the option set of one engine version, split by value kind.
// A Table is immutable once built.
type Table struct {
	Version native.Version
	ints    map[Option]Entry
	bytes   map[Option]Entry
	ids     map[int]Entry
}

var tables sync.Map // map[native.Version]*Table

// ForVersion returns the option table for an engine version, building it on
// first use. It returns nil for releases older than 2.0.
func ForVersion(v native.Version) *Table {
	if v.Major < 2 {
		return nil
	}
	if t, ok := tables.Load(v); ok {
		return t.(*Table)
	}

	source := rev3Entries
	if v.Major == 2 {
		source = rev2Entries
	}

	t := &Table{
		Version: v,
		ints:    make(map[Option]Entry),
		bytes:   make(map[Option]Entry),
		ids:     make(map[int]Entry),
	}
	for _, e := range source {
		if !e.Since.IsZero() && !v.AtLeast(e.Since.Major, e.Since.Minor) {
			continue
		}
		if e.Encoding == Bytes {
			t.bytes[e.Name] = e
		} else {
			t.ints[e.Name] = e
		}
		if _, dup := t.ids[e.ID]; !dup {
			t.ids[e.ID] = e
		}
	}

	actual, _ := tables.LoadOrStore(v, t)
	return actual.(*Table)
}

// Lookup finds an entry in either table.
func (t *Table) Lookup(name Option) (Entry, bool) {
	if e, ok := t.ints[name]; ok {
		return e, true
	}
	e, ok := t.bytes[name]
	return e, ok
}

// Int finds an integer-valued entry.
func (t *Table) Int(name Option) (Entry, bool) {
	e, ok := t.ints[name]
	return e, ok
}

// Bytes finds a byte-string-valued entry.
func (t *Table) Bytes(name Option) (Entry, bool) {
	e, ok := t.bytes[name]
	return e, ok
}

// ByID finds the entry for a native option id.
func (t *Table) ByID(id int) (Entry, bool) {
	e, ok := t.ids[id]
	return e, ok
}

// Entries returns every entry ordered by native id.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.ints)+len(t.bytes))
	for _, e := range t.ints {
		out = append(out, e)
	}
	for _, e := range t.bytes {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.ints) + len(t.bytes)
}
