// Package session implements the KM003C session controller: the
// connect/auth/stream state machine, transaction-id correlation, and the
// request/response contracts built on top of the wire protocol.
//
// The device processes one outstanding request at a time per endpoint, so
// the controller never pipelines: each public operation writes its
// request, then reads frames until it finds the matching id, drops and
// logs anything else, or times out.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff"
	"golang.org/x/time/rate"

	"github.com/okhsunrog/km003c-rs/config"
	"github.com/okhsunrog/km003c-rs/cryptohook"
	"github.com/okhsunrog/km003c-rs/pdmsg"
	"github.com/okhsunrog/km003c-rs/protocol"
	"github.com/okhsunrog/km003c-rs/transport"
)

// State is a state of the session controller's connect/auth/stream state
// machine.
type State int

// Recognized states.
const (
	StateIdle State = iota
	StateConnected
	StateAuthReady
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateConnected:
		return "Connected"
	case StateAuthReady:
		return "AuthReady"
	case StateStreaming:
		return "Streaming"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// readKeyMutation is the fixed key mutation applied before decrypting an
// auth challenge response.
var readKeyMutation = &cryptohook.KeyMutation{Index: 1, Value: 'X'}

// Controller drives a single KM003C session over one transport. It is not
// safe for concurrent use: one caller task at a time is expected to
// serialize requests through the controller.
type Controller struct {
	tr        transport.Transport
	crypto    cryptohook.Crypto
	pdDecoder pdmsg.Decoder
	cfg       config.Config
	log       *log.Logger

	state       State
	idCounter   uint8
	limiter     *rate.Limiter
	lastSeq     uint32
	haveLastSeq bool
}

// New creates a Controller. crypto may be cryptohook.Disabled{} if
// cfg.AuthEnabled is false; pdDecoder may be nil, in which case
// WrappedMessage events are returned undecoded.
func New(tr transport.Transport, crypto cryptohook.Crypto, pdDecoder pdmsg.Decoder, cfg config.Config) *Controller {
	interval := time.Duration(cfg.StreamPollIntervalMs) * time.Millisecond
	return &Controller{
		tr:        tr,
		crypto:    crypto,
		pdDecoder: pdDecoder,
		cfg:       cfg,
		log:       log.Default(),
		state:     StateIdle,
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
	}
}

// SetLogger overrides the controller's logger, which defaults to
// log.Default(). A nil l restores log.Default().
func (c *Controller) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.Default()
	}
	c.log = l
}

// State returns the controller's current state.
func (c *Controller) State() State {
	return c.state
}

func (c *Controller) requireState(op string, allowed ...State) error {
	for _, s := range allowed {
		if c.state == s {
			return nil
		}
	}
	return InvalidStateError{Current: c.state, Attempted: op}
}

func (c *Controller) requestTimeout() time.Duration {
	return time.Duration(c.cfg.RequestTimeoutMs) * time.Millisecond
}

// nextID allocates the next transaction id, wrapping modulo 256 and
// skipping 0 on wrap.
func (c *Controller) nextID() uint8 {
	c.idCounter++
	if c.idCounter == 0 {
		c.idCounter = 1
	}
	return c.idCounter
}

// doRequest assembles and sends a command frame, then reads frames until
// one with a matching id arrives, a framing error occurs, or timeout
// elapses. Responses with an unknown or stale id are logged and dropped.
func (c *Controller) doRequest(cmd protocol.CommandType, attribute protocol.AttributeMask, payload []byte, timeout time.Duration) (protocol.DataHeader, []byte, error) {
	id := c.nextID()
	frame := protocol.Assemble(cmd, id, attribute, payload)
	if err := c.tr.WriteAll(frame, timeout); err != nil {
		return protocol.DataHeader{}, nil, err
	}

	deadline := time.Now().Add(timeout)
	buf := make([]byte, 2048)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return protocol.DataHeader{}, nil, ErrTimeout
		}
		n, err := c.tr.ReadSome(buf, remaining)
		if err != nil {
			if errors.Is(err, transport.ErrTimeout) {
				return protocol.DataHeader{}, nil, ErrTimeout
			}
			return protocol.DataHeader{}, nil, err
		}
		hdr, body, err := protocol.Disassemble(buf[:n])
		if err != nil {
			return protocol.DataHeader{}, nil, err
		}
		if hdr.ID != id {
			c.log.Printf("session: dropping response id=%d (want %d)", hdr.ID, id)
			continue
		}
		if hdr.Type == protocol.CmdReject {
			var code byte
			if len(body) > 0 {
				code = body[0]
			}
			return hdr, nil, protocol.RejectError{Code: code}
		}
		return hdr, body, nil
	}
}

// Connect issues Connect and expects Accept with a matching id. It retries
// up to cfg.ConnectRetries times on ErrTimeout; any other failure is
// fatal.
func (c *Controller) Connect() error {
	if err := c.requireState("Connect", StateIdle); err != nil {
		return err
	}

	attempt := 0
	op := func() error {
		attempt++
		_, _, err := c.doRequest(protocol.CmdConnect, 0, nil, c.requestTimeout())
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrTimeout) && attempt <= c.cfg.ConnectRetries {
			return err
		}
		return backoff.Permanent(err)
	}
	bo := &backoff.ExponentialBackOff{
		InitialInterval:     50 * time.Millisecond,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         time.Second,
		MaxElapsedTime:      time.Duration(c.cfg.ConnectRetries+1) * c.requestTimeout(),
		Clock:               backoff.SystemClock,
	}
	if err := backoff.Retry(op, bo); err != nil {
		return err
	}

	c.state = StateConnected
	if c.cfg.AuthEnabled {
		if err := c.authenticate(); err != nil {
			c.log.Printf("session: auth failed, staying unauthenticated: %v", err)
			return nil
		}
		c.state = StateAuthReady
	}
	return nil
}

// authenticate runs the challenge-response handshake through the injected
// crypto capability. Failure leaves the controller in StateConnected; it
// is never retried within a session.
func (c *Controller) authenticate() error {
	var challenge [16]byte
	block, err := c.crypto.Encrypt(0, challenge)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	_, err = c.crypto.Decrypt(0, readKeyMutation, block)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	return nil
}

// Disconnect issues Disconnect and returns to Idle regardless of the
// response.
func (c *Controller) Disconnect() error {
	if err := c.requireState("Disconnect", StateConnected, StateAuthReady, StateStreaming); err != nil {
		return err
	}
	_, _, err := c.doRequest(protocol.CmdDisconnect, 0, nil, c.requestTimeout())
	c.state = StateIdle
	return err
}

// LogicalResult is the decoded outcome of a GetData-family request: the
// chain of logical packets the device returned.
type LogicalResult struct {
	Packets []protocol.LogicalPacket
}

func (c *Controller) requestChain(attribute protocol.AttributeMask) (LogicalResult, error) {
	hdr, body, err := c.doRequest(protocol.CmdGetData, attribute, nil, c.requestTimeout())
	if err != nil {
		return LogicalResult{}, err
	}
	if !hdr.IsChainedPayload() {
		return LogicalResult{}, nil
	}
	if len(body) < 4 {
		c.log.Printf("session: decode error: %v", protocol.ErrTruncated)
		return LogicalResult{}, protocol.ErrTruncated
	}
	first, err := protocol.DecodeExt(body[:4])
	if err != nil {
		c.log.Printf("session: decode error: %v", err)
		return LogicalResult{}, err
	}
	pkts, err := protocol.WalkChain(first, body[4:])
	if err != nil {
		c.log.Printf("session: decode error: %v", err)
		return LogicalResult{}, err
	}
	return LogicalResult{Packets: pkts}, nil
}

// RequestAdc issues GetData(Adc) and decodes exactly one ADC-44 logical
// packet.
func (c *Controller) RequestAdc() (protocol.Adc, error) {
	if err := c.requireState("RequestAdc", StateConnected, StateAuthReady); err != nil {
		return protocol.Adc{}, err
	}
	res, err := c.requestChain(protocol.AttrAdc)
	if err != nil {
		return protocol.Adc{}, err
	}
	if len(res.Packets) != 1 || res.Packets[0].Adc == nil {
		return protocol.Adc{}, protocol.ErrUnexpectedAttribute
	}
	return *res.Packets[0].Adc, nil
}

// PdEventsResult is a decoded PD event stream, with any wrapped messages
// additionally decoded by the configured pdmsg.Decoder where possible.
type PdEventsResult struct {
	Stream  protocol.PdEventStream
	Decoded []pdmsg.Message // decoded wrapped events of Stream.Events, in order; events whose wire bytes fail to decode are logged and left out
}

// RequestPdEvents issues GetData(PdPacket) and decodes one PD-event-stream
// logical packet.
func (c *Controller) RequestPdEvents() (PdEventsResult, error) {
	if err := c.requireState("RequestPdEvents", StateConnected, StateAuthReady); err != nil {
		return PdEventsResult{}, err
	}
	res, err := c.requestChain(protocol.AttrPdPacket)
	if err != nil {
		return PdEventsResult{}, err
	}
	if len(res.Packets) != 1 || res.Packets[0].PdStream == nil {
		return PdEventsResult{}, protocol.ErrUnexpectedAttribute
	}
	stream := *res.Packets[0].PdStream
	out := PdEventsResult{Stream: stream}
	if c.pdDecoder == nil {
		return out, nil
	}
	for _, ev := range stream.Events {
		if ev.Wrapped == nil {
			continue
		}
		msg, err := c.pdDecoder.DecodePdWire(ev.Wrapped.Wire)
		if err != nil {
			c.log.Printf("session: pd wire decode failed: %v", err)
			continue
		}
		out.Decoded = append(out.Decoded, msg)
	}
	return out, nil
}

// RequestCombined issues GetData(mask) and decodes the resulting chain,
// one logical packet per set bit of mask.
func (c *Controller) RequestCombined(mask protocol.AttributeMask) (LogicalResult, error) {
	if err := c.requireState("RequestCombined", StateConnected, StateAuthReady); err != nil {
		return LogicalResult{}, err
	}
	return c.requestChain(mask)
}

// StartGraph issues StartGraph with the rate code for sps and, on Accept,
// transitions to Streaming. Only reachable from AuthReady.
func (c *Controller) StartGraph(sps int) error {
	if err := c.requireState("StartGraph", StateAuthReady); err != nil {
		return err
	}
	rateCode, err := protocol.ParseSampleRate(sps)
	if err != nil {
		return err
	}
	_, _, err = c.doRequest(protocol.CmdStartGraph, protocol.AttrAdcQueue, []byte{byte(rateCode)}, c.requestTimeout())
	if err != nil {
		return err
	}
	c.state = StateStreaming
	c.haveLastSeq = false
	return nil
}

// PollSamplesResult is one PollSamples outcome.
type PollSamplesResult struct {
	Queue   protocol.AdcQueue
	Dropped *DroppedSamplesError // non-nil if a gap was detected since the last poll
}

// PollSamples issues GetData(AdcQueue) and yields the decoded sample
// vector, paced by the configured poll interval so the controller doesn't
// exceed the device's serving rate. Gaps in the sequence field since the
// previous PollSamples call are reported via Dropped but are not fatal.
func (c *Controller) PollSamples() (PollSamplesResult, error) {
	if err := c.requireState("PollSamples", StateStreaming); err != nil {
		return PollSamplesResult{}, err
	}
	if err := c.limiter.Wait(context.Background()); err != nil {
		return PollSamplesResult{}, err
	}
	res, err := c.requestChain(protocol.AttrAdcQueue)
	if err != nil {
		return PollSamplesResult{}, err
	}
	if len(res.Packets) != 1 || res.Packets[0].AdcQueue == nil {
		return PollSamplesResult{}, protocol.ErrUnexpectedAttribute
	}
	q := *res.Packets[0].AdcQueue

	out := PollSamplesResult{Queue: q}
	if c.haveLastSeq && len(q.Samples) > 0 {
		gap := q.Samples[0].Sequence - c.lastSeq - 1
		if gap > 0 && gap < 1<<31 {
			out.Dropped = &DroppedSamplesError{Gap: gap}
			c.log.Print(out.Dropped)
		}
	}
	if len(q.Samples) > 0 {
		c.lastSeq = q.Samples[len(q.Samples)-1].Sequence
		c.haveLastSeq = true
	}
	return out, nil
}

// StopGraph issues StopGraph and, on Accept, returns to AuthReady.
func (c *Controller) StopGraph() error {
	if err := c.requireState("StopGraph", StateStreaming); err != nil {
		return err
	}
	_, _, err := c.doRequest(protocol.CmdStopGraph, 0, nil, c.requestTimeout())
	if err != nil {
		return err
	}
	c.state = StateAuthReady
	return nil
}
