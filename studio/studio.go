package studio

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tryonfusion/studio/models"
)

// Gateway is the generative-image service boundary. Every call is a single
// request/response; implementations must not retry on their own.
type Gateway interface {
	GenerateModel(ctx context.Context, personImage string, opts ModelOptions) ([]byte, error)
	ApplyGarment(ctx context.Context, baseImage, garmentImage string) ([]byte, error)
	VaryPose(ctx context.Context, baseImage, poseInstruction string) ([]byte, error)
	ChangeBackground(ctx context.Context, baseImage, background string) ([]byte, error)
	Enhance(ctx context.Context, image string) ([]byte, error)
}

// ImageStore turns raw generated bytes into a stable image reference.
type ImageStore interface {
	Upload(ctx context.Context, data []byte, folder string) (string, error)
}

// SessionStore is the durable tier for session snapshots. Load returns
// (nil, nil) when no snapshot exists.
type SessionStore interface {
	Load(ctx context.Context, userID string) (*models.SessionSnapshot, error)
	Save(ctx context.Context, snap models.SessionSnapshot) error
	Delete(ctx context.Context, userID string) error
}

// OutfitStore is the light tier for the saved-outfit catalog. The list is
// read and rewritten wholesale.
type OutfitStore interface {
	List(ctx context.Context, userID string) ([]models.SavedOutfit, error)
	Put(ctx context.Context, userID string, outfits []models.SavedOutfit) error
}

// GenerationLog records successful generations for the gallery. Recording is
// best-effort; implementations log their own failures.
type GenerationLog interface {
	Record(userID, kind, imageKey string)
}

// ModelOptions carries the attributes for base-model generation.
type ModelOptions struct {
	Gender    string `json:"gender"`
	SkinTone  string `json:"skin_tone"`
	HairColor string `json:"hair_color"`
	StyleText string `json:"style_text"`
}

// Background is the tagged background input: either uploaded image bytes or
// a reference to an existing image. Exactly one side is set.
type Background struct {
	Data     []byte
	MimeType string
	Ref      string
}

// StateView is the serializable snapshot of a session handed to the API.
type StateView struct {
	ModelImage   string               `json:"model_image"`
	History      []models.OutfitLayer `json:"history"`
	CurrentIndex int                  `json:"current_index"`
	Wardrobe     []models.Garment     `json:"wardrobe"`
	PoseIndex    int                  `json:"pose_index"`
	Pose         string               `json:"pose"`
	DisplayImage string               `json:"display_image"`
	ActiveIDs    []string             `json:"active_garment_ids"`
	Poses        []string             `json:"poses"`
}

// Studio owns every live session and is the only writer of session state.
type Studio struct {
	gateway  Gateway
	images   ImageStore
	sessions SessionStore
	outfits  OutfitStore
	genlog   GenerationLog
	gate     *Gate

	mu   sync.Mutex
	live map[string]*Session
}

// New wires a Studio. genlog may be nil to disable the gallery log.
func New(gateway Gateway, images ImageStore, sessions SessionStore, outfits OutfitStore, genlog GenerationLog) *Studio {
	return &Studio{
		gateway:  gateway,
		images:   images,
		sessions: sessions,
		outfits:  outfits,
		genlog:   genlog,
		gate:     NewGate(),
		live:     make(map[string]*Session),
	}
}

// Gate exposes the connectivity gate for the probe and the admin endpoint.
func (st *Studio) Gate() *Gate {
	return st.gate
}

// session returns the live session for the user, resuming it from the
// durable store on first access. A missing or invalid snapshot yields nil:
// the user has no active model yet.
func (st *Studio) session(ctx context.Context, userID string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.live[userID]; ok {
		return s
	}
	snap, err := st.sessions.Load(ctx, userID)
	if err != nil {
		log.Printf("session resume for %s failed: %v", userID, err)
		return nil
	}
	if snap == nil {
		return nil
	}
	s, err := sessionFromSnapshot(snap)
	if err != nil {
		log.Printf("discarding unusable snapshot for %s: %v", userID, err)
		return nil
	}
	st.live[userID] = s
	return s
}

func (st *Studio) register(s *Session) {
	st.mu.Lock()
	st.live[s.UserID] = s
	st.mu.Unlock()
}

// persist writes the session snapshot through to the durable store. The
// in-memory session is the source of truth; a failed write is logged and
// never rolled back.
func (st *Studio) persist(s *Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := st.sessions.Save(ctx, s.Snapshot()); err != nil {
		log.Printf("failed to persist session for %s: %v", s.UserID, err)
	}
}

func (st *Studio) record(userID, kind, imageKey string) {
	if st.genlog == nil {
		return
	}
	go st.genlog.Record(userID, kind, imageKey)
}

// State returns the current session view, or ErrNoSession when the user has
// no active model.
func (st *Studio) State(ctx context.Context, userID string) (*StateView, error) {
	s := st.session(ctx, userID)
	if s == nil {
		return nil, ErrNoSession
	}
	return st.view(s), nil
}

// view copies the session into a response snapshot. Layers are cloned so
// the encoder never races a later command against live state.
func (st *Studio) view(s *Session) *StateView {
	wardrobe := append([]models.Garment{}, s.Wardrobe...)
	return &StateView{
		ModelImage:   s.ModelImage,
		History:      models.CloneLayers(s.History.Layers),
		CurrentIndex: s.History.Cursor,
		Wardrobe:     wardrobe,
		PoseIndex:    s.PoseIndex,
		Pose:         s.Pose(),
		DisplayImage: s.DisplayImage(),
		ActiveIDs:    s.History.ActiveGarmentIDs(),
		Poses:        models.PoseInstructions,
	}
}

// CreateModel turns a person photo into the base model and starts a fresh
// session, replacing any previous one for the user.
func (st *Studio) CreateModel(ctx context.Context, userID, personImage string, opts ModelOptions) (*StateView, error) {
	if err := st.gate.Require(); err != nil {
		return nil, err
	}
	s := st.session(ctx, userID)
	if s == nil {
		s = &Session{UserID: userID}
		st.register(s)
	}
	if !s.acquire() {
		return nil, ErrBusy
	}
	defer s.release()

	token := s.fence()
	data, err := st.gateway.GenerateModel(ctx, personImage, opts)
	if err != nil {
		return nil, fmt.Errorf("generate model: %w", err)
	}
	if !s.fenceCurrent(token) {
		return nil, ErrBusy
	}
	key, err := st.images.Upload(ctx, data, "models")
	if err != nil {
		return nil, fmt.Errorf("store model image: %w", err)
	}

	s.ModelImage = key
	s.History = History{Layers: []models.OutfitLayer{models.NewLayer(nil, models.DefaultPose(), key)}}
	s.Wardrobe = nil
	s.PoseIndex = 0
	st.persist(s)
	st.record(userID, models.GenerationModel, key)
	return st.view(s), nil
}

// ApplyGarment layers a garment onto the current look. Re-selecting the
// garment that sits just beyond the cursor is a free redo: the cursor moves
// forward without any generation.
func (st *Studio) ApplyGarment(ctx context.Context, userID string, g models.Garment) (*StateView, error) {
	s := st.session(ctx, userID)
	if s == nil {
		return nil, ErrNoSession
	}
	if !s.acquire() {
		return nil, ErrBusy
	}
	defer s.release()

	if s.History.AdvanceIfMatches(g.ID) {
		s.PoseIndex = 0
		st.persist(s)
		return st.view(s), nil
	}

	if err := st.gate.Require(); err != nil {
		return nil, err
	}
	base := s.DisplayImage()
	if base == "" {
		return nil, ErrNoSession
	}

	token := s.fence()
	data, err := st.gateway.ApplyGarment(ctx, base, g.Image)
	if err != nil {
		return nil, fmt.Errorf("apply garment: %w", err)
	}
	if !s.fenceCurrent(token) {
		return nil, ErrBusy
	}
	key, err := st.images.Upload(ctx, data, "layers")
	if err != nil {
		return nil, fmt.Errorf("store layer image: %w", err)
	}

	s.History.Append(models.NewLayer(&g, s.Pose(), key))
	s.PoseIndex = 0
	s.AddToWardrobe(g)
	st.persist(s)
	st.record(userID, models.GenerationGarment, key)
	return st.view(s), nil
}

// Retreat removes the top garment by moving the cursor back one layer. The
// discarded layer stays in the history until the next divergent edit, so
// re-applying the same garment is free. No-op on the base layer.
func (st *Studio) Retreat(ctx context.Context, userID string) (*StateView, error) {
	s := st.session(ctx, userID)
	if s == nil {
		return nil, ErrNoSession
	}
	if !s.acquire() {
		return nil, ErrBusy
	}
	defer s.release()

	if s.History.Retreat() {
		s.PoseIndex = 0
		st.persist(s)
	}
	return st.view(s), nil
}

// SelectPose moves the pose cursor. A pose already generated for the current
// layer is a cursor-only move; otherwise the move is optimistic and rolled
// back if generation fails, leaving the cache untouched.
func (st *Studio) SelectPose(ctx context.Context, userID string, poseIndex int) (*StateView, error) {
	if !models.ValidPoseIndex(poseIndex) {
		return nil, ErrUnknownPose
	}
	s := st.session(ctx, userID)
	if s == nil {
		return nil, ErrNoSession
	}
	if !s.acquire() {
		return nil, ErrBusy
	}
	defer s.release()

	layer := s.History.Current()
	if layer == nil {
		return nil, ErrNoSession
	}
	pose := models.PoseInstructions[poseIndex]
	if layer.HasPose(pose) {
		s.PoseIndex = poseIndex
		st.persist(s)
		return st.view(s), nil
	}

	if err := st.gate.Require(); err != nil {
		return nil, err
	}

	prev := s.PoseIndex
	s.PoseIndex = poseIndex
	token := s.fence()
	data, err := st.gateway.VaryPose(ctx, layer.PoseImage(pose), pose)
	if err != nil {
		if s.fenceCurrent(token) {
			s.PoseIndex = prev
		}
		return nil, fmt.Errorf("change pose: %w", err)
	}
	if !s.fenceCurrent(token) {
		return nil, ErrBusy
	}
	key, err := st.images.Upload(ctx, data, "poses")
	if err != nil {
		s.PoseIndex = prev
		return nil, fmt.Errorf("store pose image: %w", err)
	}

	layer.SetPoseImage(pose, key)
	st.persist(s)
	st.record(userID, models.GenerationPose, key)
	return st.view(s), nil
}

// ChangeBackground re-renders the current pose of the current layer against
// a new background. Uploaded bytes are stored first so the gateway only ever
// sees an image reference.
func (st *Studio) ChangeBackground(ctx context.Context, userID string, bg Background) (*StateView, error) {
	s := st.session(ctx, userID)
	if s == nil {
		return nil, ErrNoSession
	}
	if !s.acquire() {
		return nil, ErrBusy
	}
	defer s.release()

	if err := st.gate.Require(); err != nil {
		return nil, err
	}
	base := s.DisplayImage()
	if base == "" {
		return nil, ErrNoSession
	}

	ref := bg.Ref
	if len(bg.Data) > 0 {
		var err error
		ref, err = st.images.Upload(ctx, bg.Data, "backgrounds")
		if err != nil {
			return nil, fmt.Errorf("store background image: %w", err)
		}
	}

	token := s.fence()
	data, err := st.gateway.ChangeBackground(ctx, base, ref)
	if err != nil {
		return nil, fmt.Errorf("change background: %w", err)
	}
	if !s.fenceCurrent(token) {
		return nil, ErrBusy
	}
	key, err := st.images.Upload(ctx, data, "layers")
	if err != nil {
		return nil, fmt.Errorf("store layer image: %w", err)
	}

	s.History.Current().SetPoseImage(s.Pose(), key)
	st.persist(s)
	st.record(userID, models.GenerationBackground, key)
	return st.view(s), nil
}

// Enhance re-renders the current display image at higher fidelity and
// replaces the current pose entry with the result.
func (st *Studio) Enhance(ctx context.Context, userID string) (*StateView, error) {
	s := st.session(ctx, userID)
	if s == nil {
		return nil, ErrNoSession
	}
	if !s.acquire() {
		return nil, ErrBusy
	}
	defer s.release()

	if err := st.gate.Require(); err != nil {
		return nil, err
	}
	base := s.DisplayImage()
	if base == "" {
		return nil, ErrNoSession
	}

	token := s.fence()
	data, err := st.gateway.Enhance(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("enhance: %w", err)
	}
	if !s.fenceCurrent(token) {
		return nil, ErrBusy
	}
	key, err := st.images.Upload(ctx, data, "layers")
	if err != nil {
		return nil, fmt.Errorf("store enhanced image: %w", err)
	}

	s.History.Current().SetPoseImage(s.Pose(), key)
	st.persist(s)
	st.record(userID, models.GenerationEnhance, key)
	return st.view(s), nil
}

// SaveOutfit snapshots the active layers into the catalog. The snapshot is a
// deep copy: later edits to the live history never touch it.
func (st *Studio) SaveOutfit(ctx context.Context, userID, name string) (*models.SavedOutfit, error) {
	s := st.session(ctx, userID)
	if s == nil {
		return nil, ErrNoSession
	}
	if !s.acquire() {
		return nil, ErrBusy
	}
	defer s.release()

	active := s.History.Active()
	if len(active) <= 1 {
		return nil, ErrNothingToSave
	}

	existing, err := st.outfits.List(ctx, userID)
	if err != nil {
		log.Printf("reading outfit catalog for %s failed, starting empty: %v", userID, err)
		existing = nil
	}
	if name == "" {
		name = fmt.Sprintf("Outfit %d", len(existing)+1)
	}
	outfit := models.SavedOutfit{
		ID:        uuid.New().String(),
		Name:      name,
		Preview:   s.DisplayImage(),
		Layers:    models.CloneLayers(active),
		CreatedAt: time.Now(),
	}
	updated := append([]models.SavedOutfit{outfit}, existing...)
	if err := st.outfits.Put(ctx, userID, updated); err != nil {
		return nil, fmt.Errorf("save outfit: %w", err)
	}
	return &outfit, nil
}

// Outfits lists the saved-outfit catalog, newest first. A missing or
// unreadable catalog is an empty one, never an error.
func (st *Studio) Outfits(ctx context.Context, userID string) []models.SavedOutfit {
	outfits, err := st.outfits.List(ctx, userID)
	if err != nil {
		log.Printf("reading outfit catalog for %s failed: %v", userID, err)
		return []models.SavedOutfit{}
	}
	if outfits == nil {
		outfits = []models.SavedOutfit{}
	}
	return outfits
}

// LoadOutfit replaces the live history with a saved outfit. The outfit must
// have been created from the live session's base model; anything else is
// rejected and the session stays untouched.
func (st *Studio) LoadOutfit(ctx context.Context, userID, outfitID string) (*StateView, error) {
	s := st.session(ctx, userID)
	if s == nil {
		return nil, ErrNoSession
	}
	if !s.acquire() {
		return nil, ErrBusy
	}
	defer s.release()

	outfits, err := st.outfits.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load outfit: %w", err)
	}
	var found *models.SavedOutfit
	for i := range outfits {
		if outfits[i].ID == outfitID {
			found = &outfits[i]
			break
		}
	}
	if found == nil {
		return nil, ErrOutfitNotFound
	}
	if found.BaseImage() != s.ModelImage {
		return nil, ErrModelMismatch
	}

	s.History = History{
		Layers: models.CloneLayers(found.Layers),
		Cursor: len(found.Layers) - 1,
	}
	s.PoseIndex = 0
	st.persist(s)
	return st.view(s), nil
}

// DeleteOutfit removes an outfit by id. Deleting an absent id is a no-op.
func (st *Studio) DeleteOutfit(ctx context.Context, userID, outfitID string) error {
	outfits, err := st.outfits.List(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete outfit: %w", err)
	}
	kept := outfits[:0]
	for _, o := range outfits {
		if o.ID != outfitID {
			kept = append(kept, o)
		}
	}
	if len(kept) == len(outfits) {
		return nil
	}
	if err := st.outfits.Put(ctx, userID, kept); err != nil {
		return fmt.Errorf("delete outfit: %w", err)
	}
	return nil
}

// StartOver drops the live session and deletes the durable record. Saved
// outfits are untouched; they have their own lifecycle.
func (st *Studio) StartOver(ctx context.Context, userID string) error {
	st.mu.Lock()
	delete(st.live, userID)
	st.mu.Unlock()
	if err := st.sessions.Delete(ctx, userID); err != nil {
		log.Printf("failed to delete session record for %s: %v", userID, err)
	}
	return nil
}
