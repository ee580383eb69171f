package testutil

import (
	"testing"
	"time"
)

func TestStubClock(t *testing.T) {
	t.Run("frozen", func(t *testing.T) {
		c := FixedClock()
		if a, b := c.Now(), c.Now(); !a.Equal(Epoch) || !b.Equal(Epoch) {
			t.Errorf("Now() = %v, %v; want %v twice", a, b, Epoch)
		}
		c.Advance(time.Minute)
		if got := c.Now(); !got.Equal(Epoch.Add(time.Minute)) {
			t.Errorf("Now() after Advance = %v, want %v", got, Epoch.Add(time.Minute))
		}
	})

	t.Run("stepping", func(t *testing.T) {
		c := NewSteppingClock(Epoch, time.Second)
		for i := 0; i < 3; i++ {
			if got, want := c.Now(), Epoch.Add(time.Duration(i)*time.Second); !got.Equal(want) {
				t.Errorf("Now() #%d = %v, want %v", i+1, got, want)
			}
		}
	})
}

func TestStubIDGenerator(t *testing.T) {
	g := NewStubIDGenerator()
	for _, want := range []string{"id-1", "id-2", "id-3"} {
		if got := g.New(); got != want {
			t.Errorf("New() = %q, want %q", got, want)
		}
	}
	issued := g.Issued()
	if len(issued) != 3 || issued[0] != "id-1" || issued[2] != "id-3" {
		t.Errorf("Issued() = %v", issued)
	}
	issued[0] = "mutated"
	if g.Issued()[0] != "id-1" {
		t.Error("Issued() shares its backing array")
	}
}
