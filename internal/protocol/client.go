package protocol

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds a request when the caller's context has no deadline.
const DefaultTimeout = 3 * time.Second

// Client sends one request per connection, the way a browser extension
// sends a runtime message and waits for the single reply.
type Client struct {
	path    string
	timeout time.Duration
}

func NewClient(socketPath string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{path: socketPath, timeout: timeout}
}

// Send delivers req and waits for its response. Transport failures wrap
// ErrUnavailable; a response with success=false is returned together with a
// *CommandError.
func (c *Client) Send(ctx context.Context, req Request) (Response, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.path)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("encode %s: %w", req.Action, err)
	}
	if _, err := conn.Write(append(payload, '\n')); err != nil {
		return Response{}, fmt.Errorf("%w: send %s: %v", ErrUnavailable, req.Action, err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return Response{}, fmt.Errorf("%w: read %s reply: %v", ErrUnavailable, req.Action, err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("decode %s reply: %w", req.Action, err)
	}
	if resp.ID != "" && resp.ID != req.ID {
		return resp, fmt.Errorf("reply id %q does not match request %q", resp.ID, req.ID)
	}
	if !resp.Success {
		return resp, &CommandError{Action: req.Action, Kind: resp.Kind, Message: resp.Error}
	}
	return resp, nil
}

// StartTimer asks the daemon to start a session of minutes in mode.
// durationMs may be zero to let the daemon derive it from minutes.
func (c *Client) StartTimer(ctx context.Context, minutes float64, mode string, durationMs int64) error {
	_, err := c.Send(ctx, Request{Action: ActionStartTimer, Minutes: minutes, Mode: mode, Duration: durationMs})
	return err
}

// StopTimer clears the wake-up and the running fields.
func (c *Client) StopTimer(ctx context.Context) error {
	_, err := c.Send(ctx, Request{Action: ActionStopTimer})
	return err
}

// Attach registers or renews a foreground surface lease and reports whether
// the surface has been asked to come to the front.
func (c *Client) Attach(ctx context.Context, surface, id string) (bool, error) {
	resp, err := c.Send(ctx, Request{Action: ActionAttach, Surface: surface, SurfaceID: id})
	return resp.Focus, err
}

func (c *Client) Detach(ctx context.Context, id string) error {
	_, err := c.Send(ctx, Request{Action: ActionDetach, SurfaceID: id})
	return err
}

// FocusPopup asks an attached popup to come to the front.
func (c *Client) FocusPopup(ctx context.Context) error {
	_, err := c.Send(ctx, Request{Action: ActionFocusPopup})
	return err
}

func (c *Client) Status(ctx context.Context) (Response, error) {
	return c.Send(ctx, Request{Action: ActionStatus})
}
