package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tkoskin/praisecast/internal/domain"
)

func TestRegistry_CreateAllocatesUniquePIN(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(time.Minute)

	a, err := reg.Create()
	req.NoError(err)
	req.Len(string(a.PIN()), domain.PINDigits)

	b, err := reg.Create()
	req.NoError(err)
	req.NotEqual(a.PIN(), b.PIN())

	got, ok := reg.Get(a.PIN())
	req.True(ok)
	req.Equal(a, got)
}

func TestRegistry_PINCollisionRetries(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(time.Minute)

	pins := []domain.PIN{"111111", "111111", "222222"}
	reg.newPIN = func() domain.PIN {
		pin := pins[0]
		if len(pins) > 1 {
			pins = pins[1:]
		}
		return pin
	}

	a, err := reg.Create()
	req.NoError(err)
	req.Equal(domain.PIN("111111"), a.PIN())

	// Second creation collides once, then lands on a free PIN
	b, err := reg.Create()
	req.NoError(err)
	req.Equal(domain.PIN("222222"), b.PIN())
}

func TestRegistry_ExhaustedPinSpaceIsDefinedOutcome(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(time.Minute)
	reg.newPIN = func() domain.PIN { return "111111" }

	_, err := reg.Create()
	req.NoError(err)

	// Every regeneration attempt collides; the result is a distinct
	// error, not an infinite loop or a generic failure.
	_, err = reg.Create()
	req.ErrorIs(err, domain.ErrExhaustedPinSpace)
}

func TestRegistry_GetOrCreateWithSuppliedPIN(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(time.Minute)

	room := reg.GetOrCreate("424242")
	req.Equal(domain.PIN("424242"), room.PIN())

	// Attaching again returns the same room
	req.Equal(room, reg.GetOrCreate("424242"))
	req.Equal(1, reg.Len())
}

func TestRegistry_GraceExpiryRemovesRoom(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(20 * time.Millisecond)
	room, err := reg.Create()
	req.NoError(err)

	expired := make(chan domain.PIN, 1)
	reg.ScheduleClose(room.PIN(), func(r *Room) { expired <- r.PIN() })

	select {
	case pin := <-expired:
		req.Equal(room.PIN(), pin)
	case <-time.After(time.Second):
		t.Fatal("grace timer never fired")
	}

	req.Eventually(func() bool {
		_, ok := reg.Get(room.PIN())
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestRegistry_CancelCloseKeepsRoom(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(20 * time.Millisecond)
	room, err := reg.Create()
	req.NoError(err)

	reg.ScheduleClose(room.PIN(), func(*Room) { t.Error("expire must not run after cancel") })
	req.True(reg.CancelClose(room.PIN()))

	time.Sleep(80 * time.Millisecond)
	_, ok := reg.Get(room.PIN())
	req.True(ok)
}

func TestRegistry_ReattachRacesTimerAndWins(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(20 * time.Millisecond)
	room, err := reg.Create()
	req.NoError(err)

	// The timer fires, but an operator is attached again by then; the
	// expiry must notice and leave the room alone.
	reg.ScheduleClose(room.PIN(), func(*Room) { t.Error("expire must not run for a live room") })
	room.AttachOperator("op-2", &fakeSender{}, "user-1")

	time.Sleep(80 * time.Millisecond)
	_, ok := reg.Get(room.PIN())
	req.True(ok)
}

func TestRegistry_OwnerIndex(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(time.Minute)
	room, err := reg.Create()
	req.NoError(err)

	reg.SetOwner("user-1", room.PIN())
	pin, ok := reg.OwnerPIN("user-1")
	req.True(ok)
	req.Equal(room.PIN(), pin)

	// Removing the room drops the owner entry with it
	reg.Remove(room.PIN())
	_, ok = reg.OwnerPIN("user-1")
	req.False(ok)
}
