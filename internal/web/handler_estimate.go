package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/vbonduro/dishcarbon/internal/domain"
	"github.com/vbonduro/dishcarbon/internal/estimation"
	"github.com/vbonduro/dishcarbon/internal/session"
)

const maxDishNameLen = 200

// resultData feeds partials/result.html.
// The sample list and both submit buttons ride along so they can be updated
// out of band.
type resultData struct {
	Display     estimation.Display
	SourceLabel string
	Info        *estimation.ErrorInfo
	Live        bool
	ShowSamples bool
	Samples     []string
	Busy        bool
	TextBusy    bool
	ImageBusy   bool
	OOB         bool
}

func (s *Server) newResultData(sess *session.Session, oob bool) resultData {
	d := sess.Display()
	data := resultData{
		Display:     d,
		SourceLabel: estimation.SourceLabel(d.Source),
		Live:        s.hub != nil,
		ShowSamples: sess.ShowSamples(),
		Samples:     estimation.SampleDishes,
		Busy:        sess.Busy(),
		TextBusy:    sess.Text.State().IsLoading,
		ImageBusy:   sess.Image.State().IsLoading,
		OOB:         oob,
	}
	if !d.IsLoading && d.Error != "" {
		info := estimation.ClassifyError(d.Error)
		data.Info = &info
	}
	return data
}

// indexData feeds pages/index.html.
type indexData struct {
	ActiveNav string
	Result    resultData
	Accept    string
}

// session returns the caller's session, issuing a cookie for a new one.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.Session {
	var id string
	if c, err := r.Cookie(session.CookieName); err == nil {
		id = c.Value
	}
	sess, created := s.sessions.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     session.CookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

// isHTMX reports whether the request came from htmx rather than a plain form post.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	data := indexData{
		ActiveNav: "estimate",
		Result:    s.newResultData(sess, false),
		Accept:    strings.Join(estimation.AcceptedImageTypes, ","),
	}
	if err := s.renderPage(w, data, "base.html", "pages/index.html", "partials/result.html"); err != nil {
		s.logger.Error("render page failed", "page", "index", "error", err)
	}
}

func (s *Server) handleEstimateText(w http.ResponseWriter, r *http.Request) {
	dish := strings.TrimSpace(r.FormValue("dish"))
	if dish == "" {
		http.Error(w, "dish name required", http.StatusBadRequest)
		return
	}
	if len(dish) > maxDishNameLen {
		http.Error(w, "dish name too long", http.StatusBadRequest)
		return
	}

	sess := s.session(w, r)
	// Detached so the call completes and lands in the session state even if
	// the page navigates away.
	ctx := context.WithoutCancel(r.Context())
	seq, accepted := sess.TrySubmit(ctx, domain.MethodText, func(ctx context.Context) (*domain.EstimationResult, error) {
		return s.service.EstimateDish(ctx, sess.ID, dish)
	})
	if accepted {
		s.logger.Debug("text estimation submitted", "session_id", sess.ID, "seq", seq)
	} else {
		s.logger.Debug("text estimation already loading", "session_id", sess.ID, "seq", seq)
	}

	s.respondResult(w, r, sess)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.CombinedReset()
	s.respondResult(w, r, sess)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if err := s.renderPartial(w, "partials/result.html", s.newResultData(sess, true)); err != nil {
		s.logger.Error("render partial failed", "partial", "result", "error", err)
	}
}

// respondResult answers a state-changing request: the result partial for
// htmx, a redirect back to the page otherwise.
func (s *Server) respondResult(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := s.renderPartial(w, "partials/result.html", s.newResultData(sess, true)); err != nil {
		s.logger.Error("render partial failed", "partial", "result", "error", err)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.NotFound(w, r)
		return
	}
	c, err := r.Cookie(session.CookieName)
	if err != nil {
		http.Error(w, "session required", http.StatusUnauthorized)
		return
	}
	sess := s.sessions.Get(c.Value)
	if sess == nil {
		http.Error(w, "unknown session", http.StatusUnauthorized)
		return
	}
	s.hub.ServeWS(w, r, sess.ID)
}
