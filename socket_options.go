package zmqruntime

import (
	"fmt"
	"time"

	"github.com/wippyai/zmq-runtime/errors"
	"github.com/wippyai/zmq-runtime/options"
)

func (s *Socket) entry(name options.Option, op string) (options.Entry, error) {
	e, ok := s.state.d.Options().Lookup(name)
	if !ok {
		se := errors.Rejected(errors.PhaseOption, op,
			fmt.Sprintf("option %s is not available on engine %s", name, s.state.d.Version()))
		se.Option = string(name)
		return options.Entry{}, se
	}
	return e, nil
}

// SetInt sets an integer option by name.
func (s *Socket) SetInt(name options.Option, v int64) error {
	e, err := s.entry(name, "set")
	if err != nil {
		return err
	}
	h, err := s.state.live(errors.PhaseOption, "set")
	if err != nil {
		return err
	}
	return options.SetInt(s.state.d.Lib(), h, e, v)
}

// GetInt reads an integer option by name.
func (s *Socket) GetInt(name options.Option) (int64, error) {
	e, err := s.entry(name, "get")
	if err != nil {
		return 0, err
	}
	h, err := s.state.live(errors.PhaseOption, "get")
	if err != nil {
		return 0, err
	}
	return options.GetInt(s.state.d.Lib(), h, e)
}

// SetBytes sets a byte-string option by name. Values are limited to 255
// bytes.
func (s *Socket) SetBytes(name options.Option, v []byte) error {
	e, err := s.entry(name, "set")
	if err != nil {
		return err
	}
	h, err := s.state.live(errors.PhaseOption, "set")
	if err != nil {
		return err
	}
	return options.SetBytes(s.state.d.Lib(), h, e, v)
}

// GetBytes reads a byte-string option by name.
func (s *Socket) GetBytes(name options.Option) ([]byte, error) {
	e, err := s.entry(name, "get")
	if err != nil {
		return nil, err
	}
	h, err := s.state.live(errors.PhaseOption, "get")
	if err != nil {
		return nil, err
	}
	return options.GetBytes(s.state.d.Lib(), h, e)
}

// SetString sets a byte-string option from text.
func (s *Socket) SetString(name options.Option, v string) error {
	return s.SetBytes(name, []byte(v))
}

// GetString reads a byte-string option as text.
func (s *Socket) GetString(name options.Option) (string, error) {
	b, err := s.GetBytes(name)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *Socket) setBool(name options.Option, v bool) error {
	var n int64
	if v {
		n = 1
	}
	return s.SetInt(name, n)
}

func (s *Socket) getBool(name options.Option) (bool, error) {
	n, err := s.GetInt(name)
	return n != 0, err
}

// Durations are passed in milliseconds; a negative duration means infinite.
func (s *Socket) setMillis(name options.Option, d time.Duration) error {
	if d < 0 {
		return s.SetInt(name, -1)
	}
	return s.SetInt(name, d.Milliseconds())
}

func (s *Socket) getMillis(name options.Option) (time.Duration, error) {
	n, err := s.GetInt(name)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return -1, nil
	}
	return time.Duration(n) * time.Millisecond, nil
}

// SetHWM sets the high water mark. On 3.x it sets both SNDHWM and RCVHWM.
func (s *Socket) SetHWM(v int64) error { return s.SetInt(options.HWM, v) }

// HWM reads the high water mark (SNDHWM on 3.x).
func (s *Socket) HWM() (int64, error) { return s.GetInt(options.HWM) }

func (s *Socket) SetSndHWM(v int64) error { return s.SetInt(options.SndHWM, v) }
func (s *Socket) SndHWM() (int64, error)  { return s.GetInt(options.SndHWM) }
func (s *Socket) SetRcvHWM(v int64) error { return s.SetInt(options.RcvHWM, v) }
func (s *Socket) RcvHWM() (int64, error)  { return s.GetInt(options.RcvHWM) }

// SetSwap sets the 2.x on-disk swap size in bytes.
func (s *Socket) SetSwap(v int64) error { return s.SetInt(options.Swap, v) }
func (s *Socket) Swap() (int64, error)  { return s.GetInt(options.Swap) }

func (s *Socket) SetAffinity(v int64) error { return s.SetInt(options.Affinity, v) }
func (s *Socket) Affinity() (int64, error)  { return s.GetInt(options.Affinity) }

// SetIdentity sets the socket identity used by ROUTER peers.
func (s *Socket) SetIdentity(id string) error { return s.SetString(options.Identity, id) }
func (s *Socket) Identity() (string, error)   { return s.GetString(options.Identity) }

// Subscribe adds a prefix filter on a SUB socket. The empty prefix matches
// everything.
func (s *Socket) Subscribe(prefix string) error { return s.SetString(options.Subscribe, prefix) }

// Unsubscribe removes one matching Subscribe.
func (s *Socket) Unsubscribe(prefix string) error { return s.SetString(options.Unsubscribe, prefix) }

func (s *Socket) SetRate(v int64) error        { return s.SetInt(options.Rate, v) }
func (s *Socket) Rate() (int64, error)         { return s.GetInt(options.Rate) }
func (s *Socket) SetRecoveryIvl(v int64) error { return s.SetInt(options.RecoveryIvl, v) }
func (s *Socket) RecoveryIvl() (int64, error)  { return s.GetInt(options.RecoveryIvl) }

func (s *Socket) SetRecoveryIvlMsec(v int64) error { return s.SetInt(options.RecoveryIvlMsec, v) }
func (s *Socket) RecoveryIvlMsec() (int64, error)  { return s.GetInt(options.RecoveryIvlMsec) }

func (s *Socket) SetMcastLoop(v bool) error { return s.setBool(options.McastLoop, v) }
func (s *Socket) McastLoop() (bool, error)  { return s.getBool(options.McastLoop) }

func (s *Socket) SetSndBuf(v int64) error { return s.SetInt(options.SndBuf, v) }
func (s *Socket) SndBuf() (int64, error)  { return s.GetInt(options.SndBuf) }
func (s *Socket) SetRcvBuf(v int64) error { return s.SetInt(options.RcvBuf, v) }
func (s *Socket) RcvBuf() (int64, error)  { return s.GetInt(options.RcvBuf) }

// RcvMore reports whether the last received frame is followed by more.
func (s *Socket) RcvMore() (bool, error) { return s.getBool(options.RcvMore) }

// FD returns the file descriptor signalling socket events.
func (s *Socket) FD() (int64, error) { return s.GetInt(options.FD) }

// Events returns the PollIn/PollOut bits that are ready now.
func (s *Socket) Events() (int64, error) { return s.GetInt(options.Events) }

func (s *Socket) SetLinger(d time.Duration) error { return s.setMillis(options.Linger, d) }
func (s *Socket) Linger() (time.Duration, error)  { return s.getMillis(options.Linger) }

func (s *Socket) SetReconnectIvl(d time.Duration) error { return s.setMillis(options.ReconnectIvl, d) }
func (s *Socket) ReconnectIvl() (time.Duration, error)  { return s.getMillis(options.ReconnectIvl) }

func (s *Socket) SetReconnectIvlMax(d time.Duration) error {
	return s.setMillis(options.ReconnectIvlMax, d)
}
func (s *Socket) ReconnectIvlMax() (time.Duration, error) {
	return s.getMillis(options.ReconnectIvlMax)
}

func (s *Socket) SetBacklog(v int64) error { return s.SetInt(options.Backlog, v) }
func (s *Socket) Backlog() (int64, error)  { return s.GetInt(options.Backlog) }

func (s *Socket) SetMaxMsgSize(v int64) error { return s.SetInt(options.MaxMsgSize, v) }
func (s *Socket) MaxMsgSize() (int64, error)  { return s.GetInt(options.MaxMsgSize) }

func (s *Socket) SetMulticastHops(v int64) error { return s.SetInt(options.MulticastHops, v) }
func (s *Socket) MulticastHops() (int64, error)  { return s.GetInt(options.MulticastHops) }

// SetRcvTimeout bounds blocking receives. A negative duration blocks forever.
func (s *Socket) SetRcvTimeout(d time.Duration) error { return s.setMillis(options.RcvTimeo, d) }
func (s *Socket) RcvTimeout() (time.Duration, error)  { return s.getMillis(options.RcvTimeo) }

// SetSndTimeout bounds blocking sends. A negative duration blocks forever.
func (s *Socket) SetSndTimeout(d time.Duration) error { return s.setMillis(options.SndTimeo, d) }
func (s *Socket) SndTimeout() (time.Duration, error)  { return s.getMillis(options.SndTimeo) }

func (s *Socket) SetIPv4Only(v bool) error { return s.setBool(options.IPv4Only, v) }
func (s *Socket) IPv4Only() (bool, error)  { return s.getBool(options.IPv4Only) }

// LastEndpoint returns the endpoint of the last bind, with wildcards resolved.
func (s *Socket) LastEndpoint() (string, error) { return s.GetString(options.LastEndpoint) }

// SetRouterMandatory makes a ROUTER fail with EHOSTUNREACH for unknown
// identities instead of dropping the message.
func (s *Socket) SetRouterMandatory(v bool) error { return s.setBool(options.RouterMandatory, v) }

func (s *Socket) SetTCPKeepalive(v int64) error { return s.SetInt(options.TCPKeepalive, v) }
func (s *Socket) TCPKeepalive() (int64, error)  { return s.GetInt(options.TCPKeepalive) }

func (s *Socket) SetTCPKeepaliveCnt(v int64) error { return s.SetInt(options.TCPKeepaliveCnt, v) }
func (s *Socket) TCPKeepaliveCnt() (int64, error)  { return s.GetInt(options.TCPKeepaliveCnt) }

func (s *Socket) SetTCPKeepaliveIdle(v int64) error { return s.SetInt(options.TCPKeepaliveIdle, v) }
func (s *Socket) TCPKeepaliveIdle() (int64, error)  { return s.GetInt(options.TCPKeepaliveIdle) }

func (s *Socket) SetTCPKeepaliveIntvl(v int64) error { return s.SetInt(options.TCPKeepaliveIntvl, v) }
func (s *Socket) TCPKeepaliveIntvl() (int64, error)  { return s.GetInt(options.TCPKeepaliveIntvl) }

// SetTCPAcceptFilter adds an address filter for incoming tcp connections.
func (s *Socket) SetTCPAcceptFilter(filter string) error {
	return s.SetString(options.TCPAcceptFilter, filter)
}

func (s *Socket) SetDelayAttachOnConnect(v bool) error {
	return s.setBool(options.DelayAttachOnConnect, v)
}
func (s *Socket) DelayAttachOnConnect() (bool, error) {
	return s.getBool(options.DelayAttachOnConnect)
}

// SetXPubVerbose passes every subscription to an XPUB, not only new ones.
func (s *Socket) SetXPubVerbose(v bool) error { return s.setBool(options.XPubVerbose, v) }
