package core

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tkoskin/praisecast/internal/domain"
)

type fakeSender struct {
	mu     sync.Mutex
	frames []Frame
	fail   bool
}

func (f *fakeSender) TrySend(fr Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("send queue full")
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeSender) Close() {}

func (f *fakeSender) sent() []Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Frame, len(f.frames))
	copy(out, f.frames)
	return out
}

func TestRoom_ViewerGetsWelcomeSnapshotFirst(t *testing.T) {
	req := require.New(t)
	room := newRoom("123456")
	op := &fakeSender{}
	viewer := &fakeSender{}

	// Given an operator already presenting a slide
	room.AttachOperator("op-1", op, "user-1")
	slide := domain.SlideRef{ContentID: "song-42", DisplayMode: domain.DisplayModeSong}
	_, err := room.UpdateSlide("op-1", slide, Frame("delta:song-42"))
	req.NoError(err)

	// When a viewer joins
	count, operator := room.AddViewer("v-1", viewer, func(s domain.Snapshot) Frame {
		return Frame("welcome:" + s.Slide.ContentID)
	})

	// Then the welcome frame reflects current state and is first in line
	req.Equal(1, count)
	req.Equal(op, operator)
	frames := viewer.sent()
	req.Len(frames, 1)
	req.Equal(Frame("welcome:song-42"), frames[0])
}

func TestRoom_UpdatesArriveInIssuedOrder(t *testing.T) {
	req := require.New(t)
	room := newRoom("123456")
	op := &fakeSender{}
	viewer := &fakeSender{}
	room.AttachOperator("op-1", op, "user-1")
	room.AddViewer("v-1", viewer, nil)

	for _, id := range []string{"a", "b", "c"} {
		_, err := room.UpdateSlide("op-1", domain.SlideRef{ContentID: id}, Frame(id))
		req.NoError(err)
	}

	req.Equal([]Frame{Frame("a"), Frame("b"), Frame("c")}, viewer.sent())
	// And the registry state agrees with the last broadcast
	req.Equal("c", room.Snapshot().Slide.ContentID)
}

func TestRoom_DisplacedOperatorIsRejectedAndNeverBroadcast(t *testing.T) {
	req := require.New(t)
	room := newRoom("123456")
	first := &fakeSender{}
	second := &fakeSender{}
	viewer := &fakeSender{}
	room.AddViewer("v-1", viewer, nil)

	// Given two operators attached to the same PIN, latest wins
	displaced := room.AttachOperator("op-1", first, "user-1")
	req.Nil(displaced)
	displaced = room.AttachOperator("op-2", second, "user-1")
	req.Equal(first, displaced)

	// When the displaced operator tries to mutate
	_, err := room.UpdateSlide("op-1", domain.SlideRef{ContentID: "stale"}, Frame("stale"))

	// Then it is rejected and nothing reaches the viewers
	req.ErrorIs(err, domain.ErrUnauthorized)
	req.Empty(viewer.sent())

	// And the authorized operator still works
	_, err = room.UpdateSlide("op-2", domain.SlideRef{ContentID: "fresh"}, Frame("fresh"))
	req.NoError(err)
	req.Equal([]Frame{Frame("fresh")}, viewer.sent())
}

func TestRoom_SlowViewerDoesNotBlockOthers(t *testing.T) {
	req := require.New(t)
	room := newRoom("123456")
	op := &fakeSender{}
	slow := &fakeSender{fail: true}
	healthy := &fakeSender{}
	room.AttachOperator("op-1", op, "user-1")
	room.AddViewer("v-slow", slow, nil)
	room.AddViewer("v-ok", healthy, nil)

	res, err := room.UpdateBackground("op-1", "sky.jpg", Frame("bg"))
	req.NoError(err)

	req.Equal(1, res.SentTo)
	req.Equal([]ConnID{"v-slow"}, res.Dropped)
	req.Equal([]Frame{Frame("bg")}, healthy.sent())
	req.Equal("sky.jpg", room.Snapshot().Background)
}

func TestRoom_ViewerRosterCounts(t *testing.T) {
	req := require.New(t)
	room := newRoom("123456")
	a := &fakeSender{}
	b := &fakeSender{}

	count, _ := room.AddViewer("a", a, nil)
	req.Equal(1, count)
	count, _ = room.AddViewer("b", b, nil)
	req.Equal(2, count)

	count, _, wasMember := room.RemoveViewer("a")
	req.True(wasMember)
	req.Equal(1, count)

	// Removing the same connection again is a no-op, never negative
	count, _, wasMember = room.RemoveViewer("a")
	req.False(wasMember)
	req.Equal(1, count)
}

func TestRoom_DetachOperatorOnlyForCurrentHolder(t *testing.T) {
	req := require.New(t)
	room := newRoom("123456")
	first := &fakeSender{}
	second := &fakeSender{}

	room.AttachOperator("op-1", first, "user-1")
	room.AttachOperator("op-2", second, "user-1")

	// A demoted operator leaving must not free the slot
	req.False(room.DetachOperator("op-1"))
	req.NotNil(room.Operator())

	req.True(room.DetachOperator("op-2"))
	req.Nil(room.Operator())
}

func TestRoom_CloseAllNotifiesAndEmptiesRoster(t *testing.T) {
	req := require.New(t)
	room := newRoom("123456")
	a := &fakeSender{}
	b := &fakeSender{}
	room.AddViewer("a", a, nil)
	room.AddViewer("b", b, nil)

	res := room.CloseAll(Frame("closed"))

	req.Equal(2, res.SentTo)
	req.Equal([]Frame{Frame("closed")}, a.sent())
	req.Equal([]Frame{Frame("closed")}, b.sent())
	req.Equal(0, room.ViewerCount())
}
