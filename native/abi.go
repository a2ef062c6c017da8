package native

// Socket types.
const (
	Pair   = 0
	Pub    = 1
	Sub    = 2
	Req    = 3
	Rep    = 4
	Dealer = 5
	Router = 6
	Pull   = 7
	Push   = 8
	XPub   = 9
	XSub   = 10
)

// Context options (3.x).
const (
	CtxIOThreads  = 1
	CtxMaxSockets = 2
)

// Message properties (3.x).
const (
	MsgMore = 1
)

// Transfer flags. NOBLOCK (2.x) and DONTWAIT (3.x) share a bit.
const (
	FlagDontWait = 1
	FlagSndMore  = 2
)

// Poll event bits, also returned by the EVENTS option.
const (
	PollIn  = 1
	PollOut = 2
	PollErr = 4
)

// Built-in device kinds (2.x zmq_device).
const (
	DeviceStreamer  = 1
	DeviceForwarder = 2
	DeviceQueue     = 3
)

// Socket option ids. Ids absent from a revision are never passed to it.
const (
	OptHWM                  = 1
	OptSwap                 = 3
	OptAffinity             = 4
	OptIdentity             = 5
	OptSubscribe            = 6
	OptUnsubscribe          = 7
	OptRate                 = 8
	OptRecoveryIvl          = 9
	OptMcastLoop            = 10
	OptSndBuf               = 11
	OptRcvBuf               = 12
	OptRcvMore              = 13
	OptFD                   = 14
	OptEvents               = 15
	OptType                 = 16
	OptLinger               = 17
	OptReconnectIvl         = 18
	OptBacklog              = 19
	OptRecoveryIvlMsec      = 20
	OptReconnectIvlMax      = 21
	OptMaxMsgSize           = 22
	OptSndHWM               = 23
	OptRcvHWM               = 24
	OptMulticastHops        = 25
	OptRcvTimeo             = 27
	OptSndTimeo             = 28
	OptIPv4Only             = 31
	OptLastEndpoint         = 32
	OptRouterMandatory      = 33
	OptTCPKeepalive         = 34
	OptTCPKeepaliveCnt      = 35
	OptTCPKeepaliveIdle     = 36
	OptTCPKeepaliveIntvl    = 37
	OptTCPAcceptFilter      = 38
	OptDelayAttachOnConnect = 39
	OptXPubVerbose          = 40
)

// MaxOptionBytes caps byte-string option values.
const MaxOptionBytes = 255
