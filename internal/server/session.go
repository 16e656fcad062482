package server

import (
	"context"
	"net/http"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/lovecontract/pkg/canvas"
	"github.com/matzehuels/lovecontract/pkg/errors"
	"github.com/matzehuels/lovecontract/pkg/session"
)

// maxStrokePoints bounds the points accepted by one strokes request.
const maxStrokePoints = 20000

type sessionRef struct {
	id    string
	coord *session.Coordinator
}

func sessionFrom(ctx context.Context) sessionRef {
	ref, _ := ctx.Value(sessionKey).(sessionRef)
	return ref
}

// withSession resolves the lc_session cookie, starting a session when the
// cookie is missing or stale.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(SessionCookie); err == nil {
			id = c.Value
		}
		newID, coord, err := s.sessions.GetOrCreate(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if newID != id {
			s.logger.Debug("session started", "session", newID)
		}
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    newID,
			Path:     "/",
			HttpOnly: true,
			Secure:   s.secure,
			SameSite: http.SameSiteLaxMode,
		})
		ctx := context.WithValue(r.Context(), sessionKey, sessionRef{id: newID, coord: coord})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type resultJSON struct {
	Op         session.Op  `json:"op"`
	Slot       string      `json:"slot,omitempty"`
	OK         bool        `json:"ok"`
	Code       errors.Code `json:"code,omitempty"`
	Message    string      `json:"message,omitempty"`
	RolledBack bool        `json:"rolledBack"`
}

type sessionJSON struct {
	ID                   string                `json:"id"`
	Contract             documentJSON          `json:"contract"`
	View                 session.View          `json:"view"`
	Envelope             session.EnvelopeState `json:"envelope"`
	Celebration          bool                  `json:"celebration"`
	CelebrationReachable bool                  `json:"celebrationReachable"`
	CaptureSlot          string                `json:"captureSlot,omitempty"`
	Drawing              bool                  `json:"drawing"`
	Notices              []session.Notice      `json:"notices"`
	Result               *resultJSON           `json:"result,omitempty"`
}

func toSessionJSON(id string, snap session.Snapshot) sessionJSON {
	out := sessionJSON{
		ID:                   id,
		Contract:             toDocumentJSON(snap.Document),
		View:                 snap.View,
		Envelope:             snap.Envelope,
		Celebration:          snap.Celebration,
		CelebrationReachable: snap.CelebrationReachable(),
		Drawing:              snap.Drawing,
		Notices:              snap.Notices,
	}
	if snap.Capturing() {
		out.CaptureSlot = snap.CaptureSlot.String()
	}
	if out.Notices == nil {
		out.Notices = []session.Notice{}
	}
	return out
}

func (s *Server) writeSnapshot(w http.ResponseWriter, r *http.Request) {
	ref := sessionFrom(r.Context())
	writeJSON(w, http.StatusOK, toSessionJSON(ref.id, ref.coord.Snapshot()))
}

// writeResult reports a persistence call. A store failure whose update was
// kept in memory is still a 200 carrying the result; a refused call or a
// rolled back update is an error response.
func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, res session.Result) {
	if res.Err != nil {
		code := errors.GetCode(res.Err)
		persisted := code == errors.ErrCodeStore || code == errors.ErrCodeTimeout
		if !persisted || res.RolledBack {
			s.writeError(w, r, res.Err)
			return
		}
	}

	ref := sessionFrom(r.Context())
	out := toSessionJSON(ref.id, ref.coord.Snapshot())
	rj := &resultJSON{Op: res.Op, OK: res.OK(), RolledBack: res.RolledBack}
	if res.Slot.Valid() {
		rj.Slot = res.Slot.String()
	}
	if res.Err != nil {
		rj.Code = errors.GetCode(res.Err)
		rj.Message = errors.UserMessage(res.Err)
	}
	out.Result = rj
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	s.writeSnapshot(w, r)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	s.sessions.Remove(sessionFrom(r.Context()).id)
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		View session.View `json:"view"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := sessionFrom(r.Context()).coord.Navigate(req.View); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSnapshot(w, r)
}

func (s *Server) handleOpenEnvelope(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r.Context()).coord.OpenEnvelope()
	s.writeSnapshot(w, r)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r.Context()).coord.DismissCelebration()
	s.writeSnapshot(w, r)
}

func (s *Server) handleSessionAccept(w http.ResponseWriter, r *http.Request) {
	s.writeResult(w, r, sessionFrom(r.Context()).coord.Accept(r.Context()))
}

func (s *Server) handleSessionClear(w http.ResponseWriter, r *http.Request) {
	slot, err := slotParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeResult(w, r, sessionFrom(r.Context()).coord.ClearSlot(r.Context(), slot))
}

func (s *Server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	slot, err := slotParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	img, err := sessionFrom(r.Context()).coord.Display(slot)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		s.logger.Warn("write display image", "slot", slot, "err", err)
	}
}

func (s *Server) handleOpenCapture(w http.ResponseWriter, r *http.Request) {
	slot, err := slotParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := sessionFrom(r.Context()).coord.OpenCapture(slot); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSnapshot(w, r)
}

// handleStrokes draws whole strokes onto the open capture.
func (s *Server) handleStrokes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Strokes [][]canvas.Point `json:"strokes"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	total := 0
	for _, stroke := range req.Strokes {
		total += len(stroke)
	}
	if total == 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "strokes must contain at least one point"))
		return
	}
	if total > maxStrokePoints {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "too many points (max %d)", maxStrokePoints))
		return
	}

	coord := sessionFrom(r.Context()).coord
	for _, stroke := range req.Strokes {
		if err := coord.Stroke(stroke); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	s.writeSnapshot(w, r)
}

func (s *Server) handleClearCapture(w http.ResponseWriter, r *http.Request) {
	if err := sessionFrom(r.Context()).coord.ClearCapture(); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSnapshot(w, r)
}

func (s *Server) handleCancelCapture(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r.Context()).coord.CancelCapture()
	s.writeSnapshot(w, r)
}

func (s *Server) handleSaveCapture(w http.ResponseWriter, r *http.Request) {
	s.writeResult(w, r, sessionFrom(r.Context()).coord.SaveCapture(r.Context()))
}

func (s *Server) handleNotices(w http.ResponseWriter, r *http.Request) {
	notices := sessionFrom(r.Context()).coord.Notices()
	if notices == nil {
		notices = []session.Notice{}
	}
	writeJSON(w, http.StatusOK, map[string][]session.Notice{"notices": notices})
}
