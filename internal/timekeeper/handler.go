package timekeeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sadopc/daytick/internal/protocol"
	"github.com/sadopc/daytick/internal/store"
)

var errNoPopup = errors.New("no popup attached")

// Handle answers one protocol request. It implements protocol.Handler.
func (keeper *Timekeeper) Handle(ctx context.Context, req protocol.Request) protocol.Response {
	var (
		resp = protocol.OK(req)
		err  error
	)

	switch req.Action {
	case protocol.ActionStartTimer:
		err = keeper.handleStart(ctx, req)
	case protocol.ActionStopTimer:
		err = keeper.StopTimer(ctx)
	case protocol.ActionAttach:
		resp.Focus, err = keeper.Attach(ctx, req.Surface, req.SurfaceID)
	case protocol.ActionDetach:
		err = keeper.Detach(ctx, req.SurfaceID)
	case protocol.ActionFocusPopup:
		err = keeper.FocusPopup(ctx)
	case protocol.ActionStatus:
		var status Status
		status, err = keeper.Status(ctx)
		resp.Session = sessionInfo(status.Session)
		resp.Surfaces = status.Surfaces
	default:
		err = fmt.Errorf("%w: unknown action %q", protocol.ErrBadRequest, req.Action)
	}

	if err != nil {
		keeper.logger.Warn("request failed", "action", req.Action, "kind", protocol.KindOf(err), "error", err)
		return protocol.Fail(req, err)
	}
	return resp
}

func (keeper *Timekeeper) handleStart(ctx context.Context, req protocol.Request) error {
	mode := store.ModeFocus
	if req.Mode != "" {
		parsed, ok := store.ParseMode(req.Mode)
		if !ok {
			return fmt.Errorf("%w: unknown mode %q", protocol.ErrBadRequest, req.Mode)
		}
		mode = parsed
	}
	if req.Duration < 0 {
		return fmt.Errorf("%w: negative duration", protocol.ErrBadRequest)
	}
	return keeper.StartTimer(ctx, req.Minutes, mode, time.Duration(req.Duration)*time.Millisecond)
}

// Attach registers or renews a foreground surface lease. The result reports
// a pending request for this surface to come to the front.
func (keeper *Timekeeper) Attach(ctx context.Context, kind, id string) (bool, error) {
	if id == "" {
		return false, fmt.Errorf("%w: surface id required", protocol.ErrBadRequest)
	}
	if kind == "" {
		kind = protocol.SurfacePopup
	}
	var focus bool
	err := keeper.do(ctx, func(context.Context) error {
		focus = keeper.surfaces.attach(id, kind, keeper.clock.Now())
		return nil
	})
	return focus, err
}

func (keeper *Timekeeper) Detach(ctx context.Context, id string) error {
	return keeper.do(ctx, func(context.Context) error {
		keeper.surfaces.detach(id)
		return nil
	})
}

// FocusPopup flags the newest attached popup to raise itself on its next
// heartbeat. It fails when no popup holds a lease.
func (keeper *Timekeeper) FocusPopup(ctx context.Context) error {
	return keeper.do(ctx, func(context.Context) error {
		if !keeper.surfaces.requestFocus(protocol.SurfacePopup, keeper.clock.Now()) {
			return errNoPopup
		}
		return nil
	})
}

// Status is a snapshot of the persisted session and open surfaces.
type Status struct {
	Session  store.Session
	Surfaces int
}

func (keeper *Timekeeper) Status(ctx context.Context) (Status, error) {
	var status Status
	err := keeper.do(ctx, func(ctx context.Context) error {
		sess, err := keeper.store.LoadSession(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", protocol.ErrStorage, err)
		}
		status = Status{Session: sess, Surfaces: keeper.surfaces.open(keeper.clock.Now())}
		return nil
	})
	return status, err
}

func sessionInfo(sess store.Session) *protocol.SessionInfo {
	info := &protocol.SessionInfo{
		Mode:        string(sess.Mode),
		State:       string(sess.State),
		DurationMs:  sess.Duration.Milliseconds(),
		RemainingMs: sess.Remaining.Milliseconds(),
	}
	if !sess.EndTime.IsZero() {
		info.EndTimeMs = sess.EndTime.UnixMilli()
	}
	return info
}
