package studio

import (
	"fmt"
	"time"

	"go.uber.org/atomic"

	"github.com/tryonfusion/studio/models"
)

// Session is one user's live editing state. All mutation goes through the
// Studio command methods; the busy flag serializes commands so history
// mutations never interleave.
type Session struct {
	UserID     string
	ModelImage string
	History    History
	Wardrobe   []models.Garment
	PoseIndex  int

	busy atomic.Bool
	seq  atomic.Uint64
}

// Pose returns the pose instruction at the session's pose cursor.
func (s *Session) Pose() string {
	return models.PoseInstructions[s.PoseIndex]
}

// DisplayImage is the image the client should show right now: the current
// layer at the current pose, falling back to the layer's first generated
// image when that pose was never rendered.
func (s *Session) DisplayImage() string {
	layer := s.History.Current()
	if layer == nil {
		return ""
	}
	return layer.PoseImage(s.Pose())
}

// AddToWardrobe appends a garment unless one with the same id is already
// present. The wardrobe only grows within a session.
func (s *Session) AddToWardrobe(g models.Garment) {
	for _, have := range s.Wardrobe {
		if have.ID == g.ID {
			return
		}
	}
	s.Wardrobe = append(s.Wardrobe, g)
}

// Snapshot produces the durable-store record for this session. Layers are
// deep-copied so later edits cannot leak into an in-flight write.
func (s *Session) Snapshot() models.SessionSnapshot {
	return models.SessionSnapshot{
		UserID:       s.UserID,
		ModelImage:   s.ModelImage,
		History:      models.CloneLayers(s.History.Layers),
		Wardrobe:     append([]models.Garment(nil), s.Wardrobe...),
		CurrentIndex: s.History.Cursor,
		UpdatedAt:    time.Now(),
	}
}

// sessionFromSnapshot adopts a persisted snapshot wholesale. A snapshot that
// would violate the session invariants is rejected so a partial or corrupt
// record can never become live state.
func sessionFromSnapshot(snap *models.SessionSnapshot) (*Session, error) {
	if snap.ModelImage == "" {
		return nil, fmt.Errorf("snapshot has no model image")
	}
	if len(snap.History) == 0 {
		return nil, fmt.Errorf("snapshot has no history")
	}
	if snap.CurrentIndex < 0 || snap.CurrentIndex >= len(snap.History) {
		return nil, fmt.Errorf("snapshot cursor %d out of range for %d layers", snap.CurrentIndex, len(snap.History))
	}
	return &Session{
		UserID:     snap.UserID,
		ModelImage: snap.ModelImage,
		History: History{
			Layers: models.CloneLayers(snap.History),
			Cursor: snap.CurrentIndex,
		},
		Wardrobe: append([]models.Garment(nil), snap.Wardrobe...),
	}, nil
}

// acquire takes the single-flight guard. A second command while one is in
// flight must be rejected, not queued.
func (s *Session) acquire() bool {
	return s.busy.CompareAndSwap(false, true)
}

func (s *Session) release() {
	s.busy.Store(false)
}

// fence returns a token identifying this command as the most recent one.
// Completions holding a stale token are discarded so a slow generation can
// never clobber state written by a newer command.
func (s *Session) fence() uint64 {
	return s.seq.Inc()
}

func (s *Session) fenceCurrent(token uint64) bool {
	return s.seq.Load() == token
}
