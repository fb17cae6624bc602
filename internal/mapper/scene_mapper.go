package mapper

import (
	"time"

	"cogentcore.org/core/math32"

	"vr-scene-sync/internal/dto"
	"vr-scene-sync/internal/entity"
	"vr-scene-sync/internal/interaction"
	"vr-scene-sync/internal/pkg/logger"
	"vr-scene-sync/internal/scene"
	"vr-scene-sync/internal/session"
)

type SceneMapper struct{}

func NewSceneMapper() *SceneMapper {
	return &SceneMapper{}
}

func (m *SceneMapper) ToEntityResponse(n *scene.Node) *dto.EntityResponse {
	if n == nil {
		return nil
	}

	res := &dto.EntityResponse{
		Id:         n.Entity.ID,
		Kind:       string(n.Entity.Kind),
		Position:   vec(n.Position),
		Rotation:   quat(n.Rotation),
		UseGravity: n.Body.UseGravity,
		Kinematic:  n.Body.Kinematic,
	}

	switch n.Entity.Kind {
	case entity.KindNote:
		res.Text = n.Entity.Payload.Text
	case entity.KindImage:
		if img := n.Entity.Payload.Image; img != nil {
			b := img.Bounds()
			res.ImageWidth, res.ImageHeight = b.Dx(), b.Dy()
		}
	case entity.KindModel:
		res.MeshNodes = n.Entity.Payload.Model.Count()
	}
	return res
}

func (m *SceneMapper) ToSessionResponse(ctx session.Context, gripped bool) *dto.SessionResponse {
	return &dto.SessionResponse{
		Origin:       vec(ctx.Origin),
		Orientation:  quat(ctx.Orientation),
		EyeTracking:  ctx.EyeTracking,
		EyeGazePoint: vec(ctx.EyeGazePoint),
		SpatialAudio: ctx.SpatialAudio,
		AudioAnchor:  vec(ctx.AudioAnchor),
		LeftTracked:  ctx.Left.Tracked,
		RightTracked: ctx.Right.Tracked,
		Gripped:      gripped,
	}
}

func (m *SceneMapper) ToInteractableResponses(snaps []interaction.Snapshot) []*dto.InteractableResponse {
	res := make([]*dto.InteractableResponse, 0, len(snaps))
	for _, s := range snaps {
		res = append(res, &dto.InteractableResponse{
			Id:       s.ID,
			State:    s.State,
			Distance: s.Distance,
			Seq:      s.Seq,
		})
	}
	return res
}

// ToInputFrame converts an observer frame into hardware samples.
// A zero orientation becomes the identity rotation.
func (m *SceneMapper) ToInputFrame(f dto.ControllerFrame) entity.InputFrame {
	return entity.InputFrame{
		Left:  sample(entity.HandLeft, f.Left),
		Right: sample(entity.HandRight, f.Right),
		Head: entity.HeadPose{
			Position:    toVec(f.Head.Position),
			Orientation: entity.IdentityQuat(toQuat(f.Head.Orientation)),
		},
	}
}

func (m *SceneMapper) ToLogListResponse(l logger.LogEntry) *dto.LogListResponse {
	return &dto.LogListResponse{
		Id:        l.Id,
		Level:     l.Level,
		Module:    l.Module,
		Message:   l.Message,
		CreatedAt: parseTimestamp(l.Timestamp),
	}
}

// parseTimestamp accepts RFC3339 and the zap ISO8601 encoder layout.
func parseTimestamp(s string) time.Time {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts
	}
	ts, _ := time.Parse("2006-01-02T15:04:05.000Z0700", s)
	return ts
}

func (m *SceneMapper) ToLogDetailResponse(l *logger.LogEntry) *dto.LogDetailResponse {
	if l == nil {
		return nil
	}
	return &dto.LogDetailResponse{
		LogListResponse: *m.ToLogListResponse(*l),
		Details:         l.Details,
	}
}

func sample(hand entity.Hand, s dto.ControllerSampleFrame) entity.ControllerSample {
	return entity.ControllerSample{
		Hand:         hand,
		Position:     toVec(s.Position),
		Orientation:  entity.IdentityQuat(toQuat(s.Orientation)),
		GripValue:    s.Grip,
		TriggerValue: s.Trigger,
		Tracked:      s.Tracked,
	}
}

func vec(v math32.Vector3) [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

func quat(q math32.Quat) [4]float32 {
	return [4]float32{q.X, q.Y, q.Z, q.W}
}

func toVec(a [3]float32) math32.Vector3 {
	return math32.Vec3(a[0], a[1], a[2])
}

func toQuat(a [4]float32) math32.Quat {
	return math32.NewQuat(a[0], a[1], a[2], a[3])
}
