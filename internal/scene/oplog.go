package scene

import (
	"sync"

	"github.com/hydra/aware/internal/engine/tile"
)

// OpKind names a scene mutation.
type OpKind string

const (
	OpMarkerAdd     OpKind = "marker.add"
	OpMarkerMove    OpKind = "marker.move"
	OpMarkerIcon    OpKind = "marker.icon"
	OpMarkerOpacity OpKind = "marker.opacity"
	OpCircleAdd     OpKind = "circle.add"
	OpCircleMove    OpKind = "circle.move"
	OpOverlayAdd    OpKind = "overlay.add"
	OpOverlayBounds OpKind = "overlay.bounds"
	OpOverlayURL    OpKind = "overlay.url"
	OpAttach        OpKind = "layer.attach"
	OpDetach        OpKind = "layer.detach"
	OpRemove        OpKind = "layer.remove"
	OpCameraView    OpKind = "camera.view"
	OpCameraZoom    OpKind = "camera.zoom"
	OpCameraFly     OpKind = "camera.fly"
	OpCameraPan     OpKind = "camera.pan"
	OpTileLayer     OpKind = "tiles.set"
)

// Redraw reports whether the op creates a layer or regenerates its image,
// as opposed to moving or fading one already drawn.
func (k OpKind) Redraw() bool {
	switch k {
	case OpMarkerAdd, OpMarkerIcon, OpCircleAdd, OpOverlayAdd, OpOverlayURL:
		return true
	}
	return false
}

// Op is one recorded mutation.
type Op struct {
	Kind   OpKind
	Handle tile.Handle
}

// OpLog is a thread-safe append-only record of scene mutations.
type OpLog struct {
	mu  sync.Mutex
	ops []Op
}

// NewOpLog creates an empty log.
func NewOpLog() *OpLog {
	return &OpLog{ops: make([]Op, 0)}
}

// Record appends ops to the log.
func (l *OpLog) Record(ops ...Op) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ops = append(l.ops, ops...)
}

// Len returns the number of recorded ops.
func (l *OpLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ops)
}

// Drain returns all ops and empties the log.
func (l *OpLog) Drain() []Op {
	l.mu.Lock()
	defer l.mu.Unlock()
	result := l.ops
	l.ops = make([]Op, 0, cap(l.ops))
	return result
}

// Clear empties the log.
func (l *OpLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ops = l.ops[:0]
}
