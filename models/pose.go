package models

// PoseInstructions is the fixed set of camera poses the studio can render.
// The instruction text doubles as the cache key on each outfit layer and as
// the prompt fragment sent to the image model, so entries must never be
// reworded once sessions exist that reference them.
var PoseInstructions = []string{
	"Full frontal view, hands on hips",
	"Slightly turned, 3/4 view",
	"Side profile view",
	"Back view, looking over shoulder",
	"Walking towards camera",
	"Leaning against a wall",
}

// DefaultPose is the pose every new layer is seeded with.
func DefaultPose() string {
	return PoseInstructions[0]
}

// ValidPoseIndex reports whether i addresses a pose instruction.
func ValidPoseIndex(i int) bool {
	return i >= 0 && i < len(PoseInstructions)
}
