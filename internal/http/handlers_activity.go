package http

import (
	"context"
	"net/http"

	"activity/internal/activity"
	"activity/internal/chart"
	applog "activity/internal/log"
	"activity/internal/period"
)

// HitResponse is the outcome of a touch plus the view it produced.
type HitResponse struct {
	activity.TouchResult
	View activity.View `json:"view"`
}

// CategoryResponse is a taxonomy entry with its localized label.
type CategoryResponse struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// newSession returns a session for a single request and the navigator's
// initial position.
func (s *Server) newSession() (*activity.Session, period.State) {
	sess := activity.NewSession(s.loader, s.builder, s.window, s.now())
	p := sess.View().Period
	return sess, period.State{YearIndex: p.YearIndex, MonthIndex: p.MonthIndex}
}

// load positions sess on p and fetches the period. Provider failures are
// reported inside the view; only a cancelled request returns an error.
func load(ctx context.Context, sess *activity.Session, p ActivityParams, initial period.State) (activity.View, error) {
	st := initial
	if p.State != nil {
		st = *p.State
	}
	sess.Restore(st, p.Selection)
	return sess.Refresh(ctx)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, initial := s.newSession()
	params, err := ParseActivityParams(r.URL.Query(), initial)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	view, err := load(ctx, sess, params, initial)
	if err != nil {
		writeLoadError(ctx, w, err)
		return
	}
	NewJSONResponse().Body(view).Write(w)
}

func (s *Server) handleHit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req HitRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	sess, initial := s.newSession()
	if _, err := load(ctx, sess, req.Params(initial), initial); err != nil {
		writeLoadError(ctx, w, err)
		return
	}

	res := sess.Touch(chart.Point{X: req.X, Y: req.Y})
	applog.FromContext(ctx).DebugContext(ctx, "Chart touch resolved",
		applog.FieldOperation, applog.OpHitTest,
		"index", res.Index,
		"hit", res.Hit)
	NewJSONResponse().Body(HitResponse{TouchResult: res, View: sess.View()}).Write(w)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Failed to list categories",
			applog.FieldOperation, applog.OpList,
			applog.FieldError, err.Error())
		InternalServerError("failed to list categories").Write(w)
		return
	}
	out := make([]CategoryResponse, len(cats))
	for i, c := range cats {
		label := c.Label
		if s.builder != nil && s.builder.Labels != nil {
			label = s.builder.Labels.Resolve(c.Key, c.Label)
		}
		out[i] = CategoryResponse{Key: c.Key, Label: label, Color: c.Color}
	}
	NewJSONResponse().Body(out).Write(w)
}

func writeLoadError(ctx context.Context, w http.ResponseWriter, err error) {
	applog.FromContext(ctx).WarnContext(ctx, "Activity request aborted", applog.FieldError, err.Error())
	ServiceUnavailableError("request cancelled").Write(w)
}
