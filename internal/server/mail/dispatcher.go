// Package mail delivers outbound mail asynchronously. Callers enqueue with
// Dispatch and a single worker started with Run sends over SMTP.
// Delivery failures are logged and counted, never retried.
package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"sync"

	"github.com/dmitrijs2005/recipehub/internal/common"
	"github.com/dmitrijs2005/recipehub/internal/logging"
)

// Delivery outcomes reported to a Recorder.
const (
	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultDropped = "dropped"
)

// Message is a plain-text mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Recorder receives one outcome per message.
type Recorder interface {
	ObserveMail(result string)
}

// Config describes the SMTP relay and the queue.
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	QueueSize int
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Dispatcher is a bounded mail queue drained by Run.
type Dispatcher struct {
	cfg      Config
	queue    chan Message
	send     sendFunc
	log      logging.Logger
	recorder Recorder

	// mu orders enqueues against stop, so nothing is queued after the
	// final drain.
	mu      sync.RWMutex
	stopped bool
}

func NewDispatcher(cfg Config, log logging.Logger, recorder Recorder) *Dispatcher {
	size := cfg.QueueSize
	if size <= 0 {
		size = 1
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &Dispatcher{
		cfg:      cfg,
		queue:    make(chan Message, size),
		send:     smtp.SendMail,
		log:      log.With("module", "mail"),
		recorder: recorder,
	}
}

// Dispatch validates msg and enqueues it. It fails synchronously with
// common.ErrDispatchFailed when msg is unusable, the queue is full, or the
// dispatcher has stopped.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDispatchFailed, err)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return fmt.Errorf("%w: dispatcher stopped", common.ErrDispatchFailed)
	}

	select {
	case d.queue <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("%w: queue full", common.ErrDispatchFailed)
	}
}

// Run sends queued messages until ctx is done. Messages still queued at
// that point are dropped.
func (d *Dispatcher) Run(ctx context.Context) {
	defer d.stop()

	for {
		select {
		case <-ctx.Done():
			d.stop()
			d.drain(ctx)
			return
		case msg := <-d.queue:
			d.deliver(ctx, msg)
		}
	}
}

func (d *Dispatcher) stop() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
}

func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case msg := <-d.queue:
			d.log.Warn(ctx, "mail dropped on shutdown", "to", msg.To, "subject", msg.Subject)
			d.observe(ResultDropped)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) {
	addr := net.JoinHostPort(d.cfg.Host, strconv.Itoa(d.cfg.Port))

	var auth smtp.Auth
	if d.cfg.Username != "" {
		auth = smtp.PlainAuth("", d.cfg.Username, d.cfg.Password, d.cfg.Host)
	}

	if err := d.send(addr, auth, d.cfg.From, []string{msg.To}, compose(d.cfg.From, msg)); err != nil {
		d.log.Error(ctx, "mail delivery failed", "to", msg.To, "subject", msg.Subject, "error", err)
		d.observe(ResultFailed)
		return
	}

	d.log.Info(ctx, "mail sent", "to", msg.To, "subject", msg.Subject)
	d.observe(ResultSent)
}

func (d *Dispatcher) observe(result string) {
	if d.recorder != nil {
		d.recorder.ObserveMail(result)
	}
}

func validate(msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("empty recipient")
	}
	if strings.ContainsAny(msg.To, "\r\n") || strings.ContainsAny(msg.Subject, "\r\n") {
		return errors.New("line break in header")
	}
	return nil
}

func compose(from string, msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}
