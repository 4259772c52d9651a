package studio

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/tryonfusion/studio/models"
)

// fakeGateway counts calls and serves canned results, so tests can assert
// that free operations (redo, cached poses, offline rejections) never reach
// the image service.
type fakeGateway struct {
	calls int
	err   error
}

func (f *fakeGateway) generate() ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("image-bytes"), nil
}

func (f *fakeGateway) GenerateModel(ctx context.Context, personImage string, opts ModelOptions) ([]byte, error) {
	return f.generate()
}
func (f *fakeGateway) ApplyGarment(ctx context.Context, baseImage, garmentImage string) ([]byte, error) {
	return f.generate()
}
func (f *fakeGateway) VaryPose(ctx context.Context, baseImage, poseInstruction string) ([]byte, error) {
	return f.generate()
}
func (f *fakeGateway) ChangeBackground(ctx context.Context, baseImage, background string) ([]byte, error) {
	return f.generate()
}
func (f *fakeGateway) Enhance(ctx context.Context, image string) ([]byte, error) {
	return f.generate()
}

type memImages struct {
	n int
}

func (m *memImages) Upload(ctx context.Context, data []byte, folder string) (string, error) {
	m.n++
	return fmt.Sprintf("%s/img-%d", folder, m.n), nil
}

type memSessions struct {
	saved map[string]models.SessionSnapshot
}

func newMemSessions() *memSessions {
	return &memSessions{saved: make(map[string]models.SessionSnapshot)}
}

func (m *memSessions) Load(ctx context.Context, userID string) (*models.SessionSnapshot, error) {
	snap, ok := m.saved[userID]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (m *memSessions) Save(ctx context.Context, snap models.SessionSnapshot) error {
	m.saved[snap.UserID] = snap
	return nil
}

func (m *memSessions) Delete(ctx context.Context, userID string) error {
	delete(m.saved, userID)
	return nil
}

type memOutfits struct {
	saved   map[string][]models.SavedOutfit
	failErr error
}

func newMemOutfits() *memOutfits {
	return &memOutfits{saved: make(map[string][]models.SavedOutfit)}
}

func (m *memOutfits) List(ctx context.Context, userID string) ([]models.SavedOutfit, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	return m.saved[userID], nil
}

func (m *memOutfits) Put(ctx context.Context, userID string, outfits []models.SavedOutfit) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.saved[userID] = outfits
	return nil
}

func newTestStudio() (*Studio, *fakeGateway, *memSessions, *memOutfits) {
	gw := &fakeGateway{}
	sessions := newMemSessions()
	outfits := newMemOutfits()
	st := New(gw, &memImages{}, sessions, outfits, nil)
	return st, gw, sessions, outfits
}

const user = "user-1"

func mustCreateModel(t *testing.T, st *Studio) *StateView {
	t.Helper()
	view, err := st.CreateModel(context.Background(), user, "profiles/photo.jpg", ModelOptions{Gender: "female"})
	if err != nil {
		t.Fatalf("create model: %v", err)
	}
	return view
}

func mustApply(t *testing.T, st *Studio, id string) *StateView {
	t.Helper()
	view, err := st.ApplyGarment(context.Background(), user, models.Garment{ID: id, Name: id, Image: "garments/" + id})
	if err != nil {
		t.Fatalf("apply garment %s: %v", id, err)
	}
	return view
}

func TestCreateModel(t *testing.T) {
	st, gw, sessions, _ := newTestStudio()
	view := mustCreateModel(t, st)

	if view.ModelImage == "" {
		t.Fatal("expected a model image reference")
	}
	if len(view.History) != 1 || view.CurrentIndex != 0 {
		t.Fatalf("expected fresh single-layer history, got %d layers at %d", len(view.History), view.CurrentIndex)
	}
	if view.History[0].Garment != nil {
		t.Fatal("base layer must have no garment")
	}
	if gw.calls != 1 {
		t.Fatalf("expected 1 gateway call, got %d", gw.calls)
	}
	if _, ok := sessions.saved[user]; !ok {
		t.Fatal("expected session snapshot to be persisted")
	}
}

func TestApplyGarment(t *testing.T) {
	st, gw, _, _ := newTestStudio()
	mustCreateModel(t, st)
	view := mustApply(t, st, "jacket")

	if len(view.History) != 2 || view.CurrentIndex != 1 {
		t.Fatalf("expected 2 layers at cursor 1, got %d at %d", len(view.History), view.CurrentIndex)
	}
	if view.PoseIndex != 0 {
		t.Fatalf("pose cursor must reset on garment add, got %d", view.PoseIndex)
	}
	if len(view.Wardrobe) != 1 || view.Wardrobe[0].ID != "jacket" {
		t.Fatalf("expected jacket in wardrobe, got %v", view.Wardrobe)
	}
	if gw.calls != 2 {
		t.Fatalf("expected 2 gateway calls, got %d", gw.calls)
	}

	// Same garment again: wardrobe must not grow.
	mustApply(t, st, "jacket2")
	view = mustApply(t, st, "jacket2")
	count := 0
	for _, g := range view.Wardrobe {
		if g.ID == "jacket2" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("wardrobe deduplication failed: %d entries", count)
	}
}

func TestApplyGarment_RedoShortcut(t *testing.T) {
	st, gw, _, _ := newTestStudio()
	mustCreateModel(t, st)
	mustApply(t, st, "jacket")

	if _, err := st.Retreat(context.Background(), user); err != nil {
		t.Fatalf("retreat: %v", err)
	}
	before := gw.calls

	view := mustApply(t, st, "jacket")
	if gw.calls != before {
		t.Fatalf("redo shortcut must not call the gateway: %d -> %d", before, gw.calls)
	}
	if view.CurrentIndex != 1 {
		t.Fatalf("expected cursor 1 after redo, got %d", view.CurrentIndex)
	}
	if view.PoseIndex != 0 {
		t.Fatalf("pose cursor must reset on redo, got %d", view.PoseIndex)
	}
}

func TestOfflineGate(t *testing.T) {
	st, gw, _, _ := newTestStudio()
	mustCreateModel(t, st)
	mustApply(t, st, "jacket")
	st.Gate().SetOnline(false)
	before := gw.calls

	ctx := context.Background()
	if _, err := st.ApplyGarment(ctx, user, models.Garment{ID: "new", Image: "garments/new"}); !errors.Is(err, ErrOffline) {
		t.Fatalf("expected ErrOffline, got %v", err)
	}
	if _, err := st.SelectPose(ctx, user, 1); !errors.Is(err, ErrOffline) {
		t.Fatalf("expected ErrOffline, got %v", err)
	}
	if _, err := st.ChangeBackground(ctx, user, Background{Ref: "backgrounds/beach.jpg"}); !errors.Is(err, ErrOffline) {
		t.Fatalf("expected ErrOffline, got %v", err)
	}
	if _, err := st.Enhance(ctx, user); !errors.Is(err, ErrOffline) {
		t.Fatalf("expected ErrOffline, got %v", err)
	}
	if _, err := st.CreateModel(ctx, user, "p.jpg", ModelOptions{}); !errors.Is(err, ErrOffline) {
		t.Fatalf("expected ErrOffline, got %v", err)
	}

	if gw.calls != before {
		t.Fatalf("offline rejection must issue zero gateway calls: %d -> %d", before, gw.calls)
	}
	view, err := st.State(ctx, user)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if len(view.History) != 2 || view.CurrentIndex != 1 || view.PoseIndex != 0 {
		t.Fatal("offline rejection must leave the session untouched")
	}

	// Cursor-only moves stay available offline: retreat and redo never
	// touch the gateway.
	if _, err := st.Retreat(ctx, user); err != nil {
		t.Fatalf("retreat offline: %v", err)
	}
	if _, err := st.ApplyGarment(ctx, user, models.Garment{ID: "jacket", Image: "garments/jacket"}); err != nil {
		t.Fatalf("redo shortcut offline: %v", err)
	}
}

func TestSelectPose_CachedMoveIsFree(t *testing.T) {
	st, gw, _, _ := newTestStudio()
	mustCreateModel(t, st)

	view, err := st.SelectPose(context.Background(), user, 1)
	if err != nil {
		t.Fatalf("select pose: %v", err)
	}
	if view.PoseIndex != 1 {
		t.Fatalf("expected pose 1, got %d", view.PoseIndex)
	}
	generated := gw.calls

	// Back to the seed pose and forward again: both cached.
	if _, err := st.SelectPose(context.Background(), user, 0); err != nil {
		t.Fatalf("select pose 0: %v", err)
	}
	if _, err := st.SelectPose(context.Background(), user, 1); err != nil {
		t.Fatalf("select pose 1 again: %v", err)
	}
	if gw.calls != generated {
		t.Fatalf("cached pose moves must not call the gateway: %d -> %d", generated, gw.calls)
	}
}

func TestSelectPose_FailureRollsBack(t *testing.T) {
	st, gw, _, _ := newTestStudio()
	mustCreateModel(t, st)

	gw.err = errors.New("model unavailable")
	_, err := st.SelectPose(context.Background(), user, 2)
	if err == nil {
		t.Fatal("expected pose generation to fail")
	}

	gw.err = nil
	view, err := st.State(context.Background(), user)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if view.PoseIndex != 0 {
		t.Fatalf("pose cursor must roll back on failure, got %d", view.PoseIndex)
	}
	if len(view.History[0].PoseImages) != 1 {
		t.Fatalf("failed generation must not poison the pose cache: %v", view.History[0].PoseImages)
	}
}

func TestSelectPose_UnknownPose(t *testing.T) {
	st, _, _, _ := newTestStudio()
	mustCreateModel(t, st)

	if _, err := st.SelectPose(context.Background(), user, len(models.PoseInstructions)); !errors.Is(err, ErrUnknownPose) {
		t.Fatalf("expected ErrUnknownPose, got %v", err)
	}
}

func TestRetreat_ResetsPoseCursor(t *testing.T) {
	st, _, _, _ := newTestStudio()
	mustCreateModel(t, st)
	mustApply(t, st, "jacket")

	if _, err := st.SelectPose(context.Background(), user, 1); err != nil {
		t.Fatalf("select pose: %v", err)
	}
	view, err := st.Retreat(context.Background(), user)
	if err != nil {
		t.Fatalf("retreat: %v", err)
	}
	if view.PoseIndex != 0 {
		t.Fatalf("pose cursor must reset on retreat, got %d", view.PoseIndex)
	}
}

func TestChangeBackground_OverwritesCurrentPose(t *testing.T) {
	st, _, _, _ := newTestStudio()
	view := mustCreateModel(t, st)
	before := view.DisplayImage

	view, err := st.ChangeBackground(context.Background(), user, Background{Ref: "backgrounds/beach.jpg"})
	if err != nil {
		t.Fatalf("change background: %v", err)
	}
	if view.DisplayImage == before {
		t.Fatal("expected a new display image")
	}
	if len(view.History[0].PoseImages) != 1 {
		t.Fatalf("background change must overwrite, not add a pose: %v", view.History[0].PoseImages)
	}
}

func TestSaveOutfit_RejectedOnBaseOnly(t *testing.T) {
	st, _, _, outfits := newTestStudio()
	mustCreateModel(t, st)

	if _, err := st.SaveOutfit(context.Background(), user, "look"); !errors.Is(err, ErrNothingToSave) {
		t.Fatalf("expected ErrNothingToSave, got %v", err)
	}
	if len(outfits.saved[user]) != 0 {
		t.Fatal("rejected save must not mutate the catalog")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	st, _, _, _ := newTestStudio()
	mustCreateModel(t, st)
	mustApply(t, st, "jacket")

	ctx := context.Background()
	outfit, err := st.SaveOutfit(ctx, user, "friday look")
	if err != nil {
		t.Fatalf("save outfit: %v", err)
	}
	savedLayers := models.CloneLayers(outfit.Layers)

	// Mutate the live history after saving: generate an extra pose and
	// layer another garment on top.
	if _, err := st.SelectPose(ctx, user, 1); err != nil {
		t.Fatalf("select pose: %v", err)
	}
	mustApply(t, st, "scarf")

	view, err := st.LoadOutfit(ctx, user, outfit.ID)
	if err != nil {
		t.Fatalf("load outfit: %v", err)
	}
	if !reflect.DeepEqual(view.History, savedLayers) {
		t.Fatalf("loaded history differs from the saved snapshot:\n%v\nvs\n%v", view.History, savedLayers)
	}
	if view.CurrentIndex != len(savedLayers)-1 {
		t.Fatalf("cursor must land on the last layer, got %d", view.CurrentIndex)
	}
	if view.PoseIndex != 0 {
		t.Fatalf("pose cursor must reset on load, got %d", view.PoseIndex)
	}

	// The catalog copy must stay independent of post-load edits.
	if _, err := st.SelectPose(ctx, user, 2); err != nil {
		t.Fatalf("select pose after load: %v", err)
	}
	stored := st.Outfits(ctx, user)
	if len(stored) != 1 {
		t.Fatalf("expected 1 saved outfit, got %d", len(stored))
	}
	if !reflect.DeepEqual(stored[0].Layers, savedLayers) {
		t.Fatal("editing the live history mutated the stored outfit")
	}
}

func TestLoadOutfit_ModelMismatch(t *testing.T) {
	st, _, _, outfits := newTestStudio()
	mustCreateModel(t, st)
	mustApply(t, st, "jacket")

	other := models.SavedOutfit{
		ID: "foreign",
		Layers: []models.OutfitLayer{
			models.NewLayer(nil, models.DefaultPose(), "models/other-model"),
			models.NewLayer(&models.Garment{ID: "hat", Image: "garments/hat"}, models.DefaultPose(), "layers/hat"),
		},
	}
	outfits.saved[user] = append(outfits.saved[user], other)

	ctx := context.Background()
	if _, err := st.LoadOutfit(ctx, user, "foreign"); !errors.Is(err, ErrModelMismatch) {
		t.Fatalf("expected ErrModelMismatch, got %v", err)
	}

	view, err := st.State(ctx, user)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if len(view.History) != 2 || view.CurrentIndex != 1 {
		t.Fatal("rejected load must leave the live session unchanged")
	}
}

func TestLoadOutfit_NotFound(t *testing.T) {
	st, _, _, _ := newTestStudio()
	mustCreateModel(t, st)

	if _, err := st.LoadOutfit(context.Background(), user, "missing"); !errors.Is(err, ErrOutfitNotFound) {
		t.Fatalf("expected ErrOutfitNotFound, got %v", err)
	}
}

func TestDeleteOutfit_Idempotent(t *testing.T) {
	st, _, _, _ := newTestStudio()
	mustCreateModel(t, st)
	mustApply(t, st, "jacket")

	ctx := context.Background()
	outfit, err := st.SaveOutfit(ctx, user, "")
	if err != nil {
		t.Fatalf("save outfit: %v", err)
	}

	if err := st.DeleteOutfit(ctx, user, outfit.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := st.DeleteOutfit(ctx, user, outfit.ID); err != nil {
		t.Fatalf("second delete must be a no-op: %v", err)
	}
	if got := st.Outfits(ctx, user); len(got) != 0 {
		t.Fatalf("expected empty catalog, got %d", len(got))
	}
}

func TestOutfits_EmptyOnStoreFailure(t *testing.T) {
	st, _, _, outfits := newTestStudio()
	outfits.failErr = errors.New("redis down")

	got := st.Outfits(context.Background(), user)
	if got == nil || len(got) != 0 {
		t.Fatalf("catalog read failure must yield an empty catalog, got %v", got)
	}
}

func TestStartOver(t *testing.T) {
	st, _, sessions, _ := newTestStudio()
	mustCreateModel(t, st)

	ctx := context.Background()
	if err := st.StartOver(ctx, user); err != nil {
		t.Fatalf("start over: %v", err)
	}
	if _, ok := sessions.saved[user]; ok {
		t.Fatal("durable record must be deleted on start over")
	}
	if _, err := st.State(ctx, user); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after reset, got %v", err)
	}
}

func TestResume_BootstrapIdempotence(t *testing.T) {
	st, _, sessions, outfits := newTestStudio()
	mustCreateModel(t, st)
	mustApply(t, st, "jacket")
	if _, err := st.SelectPose(context.Background(), user, 1); err != nil {
		t.Fatalf("select pose: %v", err)
	}
	persisted := sessions.saved[user]

	// A fresh process sharing the same stores adopts the snapshot.
	st2 := New(&fakeGateway{}, &memImages{}, sessions, outfits, nil)
	s := st2.session(context.Background(), user)
	if s == nil {
		t.Fatal("expected session to resume from snapshot")
	}

	// Re-deriving the snapshot from the resumed state must not drift.
	rederived := s.Snapshot()
	persisted.UpdatedAt = rederived.UpdatedAt
	if !reflect.DeepEqual(persisted, rederived) {
		t.Fatalf("snapshot drifted through storage round trip:\n%v\nvs\n%v", persisted, rederived)
	}
}

func TestResume_RejectsCorruptSnapshot(t *testing.T) {
	st, _, sessions, _ := newTestStudio()
	mustCreateModel(t, st)

	snap := sessions.saved[user]
	snap.CurrentIndex = 5 // out of range
	sessions.saved[user] = snap

	st2 := New(&fakeGateway{}, &memImages{}, sessions, newMemOutfits(), nil)
	if s := st2.session(context.Background(), user); s != nil {
		t.Fatal("corrupt snapshot must not become live state")
	}
}

func TestBusyGuard(t *testing.T) {
	st, _, _, _ := newTestStudio()
	mustCreateModel(t, st)

	ctx := context.Background()
	s := st.session(ctx, user)
	if !s.acquire() {
		t.Fatal("acquire on idle session failed")
	}
	if _, err := st.Retreat(ctx, user); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	s.release()
	if _, err := st.Retreat(ctx, user); err != nil {
		t.Fatalf("retreat after release: %v", err)
	}
}

func TestFence_StaleTokenDiscarded(t *testing.T) {
	s := &Session{}
	old := s.fence()
	if !s.fenceCurrent(old) {
		t.Fatal("fresh token must be current")
	}
	s.fence()
	if s.fenceCurrent(old) {
		t.Fatal("superseded token must be stale")
	}
}
