// Package exchange runs one chat request/response cycle at a time.
//
// A Controller validates the user's input, renders it into a transcript,
// calls the backend and renders the reply or the failure. At most one
// exchange is in flight per Controller; the submit affordance of the
// attached Surface is disabled exactly while one is.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	apierrors "github.com/diogo/learnchat/internal/errors"
	"github.com/diogo/learnchat/internal/models"
	"github.com/diogo/learnchat/internal/transcript"
)

// ErrBusy is returned when a submission arrives while another is in flight
var ErrBusy = errors.New("an exchange is already in flight")

// Surface is the input affordance the controller drives
type Surface interface {
	ClearInput()
	SetSubmitEnabled(enabled bool)
	FocusInput()
}

// Transport sends one message to the backend
type Transport interface {
	Chat(ctx context.Context, message string) (*models.ChatReply, error)
}

// Outcome describes how a submission ended
type Outcome int

const (
	// OutcomeIgnored means the input was blank and nothing happened
	OutcomeIgnored Outcome = iota
	// OutcomeReplied means an assistant entry was appended
	OutcomeReplied
	// OutcomeFailed means a system-error entry was appended
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeReplied:
		return "replied"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result is what the transport produced for an exchange
type Result struct {
	Reply *models.ChatReply
	Err   error
}

type nopSurface struct{}

func (nopSurface) ClearInput() {}

func (nopSurface) SetSubmitEnabled(bool) {}

func (nopSurface) FocusInput() {}

// Controller owns the in-flight state for one chat widget
type Controller struct {
	transport   Transport
	transcript  *transcript.Transcript
	surface     Surface
	placeholder string
	logger      *zap.Logger
	inFlight    atomic.Bool
}

// Option configures a Controller
type Option func(*Controller)

// WithSurface attaches the input affordance
func WithSurface(s Surface) Option {
	return func(c *Controller) {
		if s != nil {
			c.surface = s
		}
	}
}

// WithPlaceholder sets the text of the provisional entry
func WithPlaceholder(text string) Option {
	return func(c *Controller) {
		if text != "" {
			c.placeholder = text
		}
	}
}

// WithLogger sets the logger; the default discards everything
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Controller rendering into tr
func New(transport Transport, tr *transcript.Transcript, opts ...Option) *Controller {
	c := &Controller{
		transport:   transport,
		transcript:  tr,
		surface:     nopSurface{},
		placeholder: models.PlaceholderText,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetSurface replaces the input affordance. Surfaces built after the
// controller (such as the terminal widget) attach themselves this way.
func (c *Controller) SetSurface(s Surface) {
	if s == nil {
		s = nopSurface{}
	}
	c.surface = s
}

// Transcript returns the transcript the controller renders into
func (c *Controller) Transcript() *transcript.Transcript {
	return c.transcript
}

// InFlight reports whether an exchange is awaiting its reply
func (c *Controller) InFlight() bool {
	return c.inFlight.Load()
}

// Exchange is one accepted submission awaiting its reply
type Exchange struct {
	ctrl        *Controller
	message     string
	placeholder transcript.Handle
	started     time.Time
	finished    atomic.Bool
}

// Message returns the trimmed text that was submitted
func (e *Exchange) Message() string {
	return e.message
}

// Begin accepts raw input. It returns a nil Exchange and nil error when the
// input is blank, and ErrBusy without side effects when an exchange is
// already in flight. Otherwise the user entry and the provisional entry are
// rendered and the affordance is disabled until Finish.
func (c *Controller) Begin(raw string) (*Exchange, error) {
	message := strings.TrimSpace(raw)
	if message == "" {
		return nil, nil
	}

	if !c.inFlight.CompareAndSwap(false, true) {
		c.logger.Debug("submission rejected, exchange in flight")
		return nil, ErrBusy
	}

	c.surface.ClearInput()
	c.transcript.Append(message, models.RoleUser)
	c.surface.SetSubmitEnabled(false)
	h := c.transcript.AppendProvisional(c.placeholder, models.RoleAssistant)

	c.logger.Debug("exchange started", zap.Int("length", len(message)))

	return &Exchange{
		ctrl:        c,
		message:     message,
		placeholder: h,
		started:     time.Now(),
	}, nil
}

// Send performs the single transport call of the exchange. It touches
// neither the transcript nor the surface, so it may run on any goroutine.
func (e *Exchange) Send(ctx context.Context) Result {
	reply, err := e.ctrl.transport.Chat(ctx, e.message)
	if err == nil && reply == nil {
		err = apierrors.NewParseError("empty reply", "")
	}
	return Result{Reply: reply, Err: err}
}

// Finish resolves the exchange: the provisional entry is replaced by the
// reply or by an error entry, then the affordance is re-enabled and
// focused. Finishing an exchange twice is a no-op.
func (c *Controller) Finish(ex *Exchange, res Result) Outcome {
	if ex == nil {
		return OutcomeIgnored
	}
	if !ex.finished.CompareAndSwap(false, true) {
		return OutcomeIgnored
	}
	defer c.release()

	c.transcript.Remove(ex.placeholder)

	elapsed := time.Since(ex.started)
	if res.Err != nil {
		reason := apierrors.FailureReason(res.Err)
		c.transcript.Append(models.ErrorPrefix+reason, models.RoleSystemError)
		c.logger.Warn("exchange failed",
			zap.Error(res.Err),
			zap.String("reason", reason),
			zap.Int("status", apierrors.GetHTTPStatus(res.Err)),
			zap.Duration("elapsed", elapsed),
		)
		return OutcomeFailed
	}

	c.transcript.Append(res.Reply.DisplayText(), models.RoleAssistant)
	c.logger.Info("exchange replied",
		zap.String("source", res.Reply.Source),
		zap.Int("learned", res.Reply.Learned),
		zap.Duration("elapsed", elapsed),
	)
	return OutcomeReplied
}

func (c *Controller) release() {
	c.inFlight.Store(false)
	c.surface.SetSubmitEnabled(true)
	c.surface.FocusInput()
}

// Submit runs a whole exchange on the calling goroutine. If the transport
// panics the exchange is resolved as a failure before the panic continues.
func (c *Controller) Submit(ctx context.Context, raw string) (outcome Outcome, err error) {
	ex, err := c.Begin(raw)
	if err != nil {
		return OutcomeIgnored, err
	}
	if ex == nil {
		return OutcomeIgnored, nil
	}

	defer func() {
		if r := recover(); r != nil {
			c.Finish(ex, Result{Err: fmt.Errorf("transport panic: %v", r)})
			panic(r)
		}
	}()

	res := ex.Send(ctx)
	return c.Finish(ex, res), nil
}
