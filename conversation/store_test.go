package conversation

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStore_PutKeepsFirstNode(t *testing.T) {
	s := NewStore()
	first := s.Put(&Node{ID: "a", Author: "u1"})
	second := s.Put(&Node{ID: "a", Author: "u2"})
	if second != first {
		t.Fatal("Put replaced a cached node")
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestStore_LinkIsSetOnce(t *testing.T) {
	s := NewStore()
	a, b, c := &Node{ID: "a"}, &Node{ID: "b"}, &Node{ID: "c"}
	if !s.Link(c, b) {
		t.Fatal("first link refused")
	}
	if s.Link(c, a) {
		t.Fatal("second link accepted")
	}
	if c.Parent() != b {
		t.Errorf("parent = %v, want b", c.Parent().ID)
	}
	if s.Link(a, a) {
		t.Error("self link accepted")
	}
}

func TestStore_ActiveSet(t *testing.T) {
	s := NewStore()
	s.Activate("r1")
	s.Activate("r2")
	s.Activate("r1")
	if s.ActiveCount() != 2 {
		t.Fatalf("ActiveCount = %d, want 2", s.ActiveCount())
	}
	s.Release("r1")
	s.Release("r1")
	if s.IsActive("r1") || !s.IsActive("r2") {
		t.Error("release cleared the wrong id")
	}
}

func TestStore_WaitReleased(t *testing.T) {
	s := NewStore()
	if err := s.WaitReleased(context.Background(), "idle"); err != nil {
		t.Fatalf("wait on inactive id: %v", err)
	}

	s.Activate("r1")
	done := make(chan error, 1)
	go func() { done <- s.WaitReleased(context.Background(), "r1") }()

	select {
	case <-done:
		t.Fatal("wait returned while still active")
	case <-time.After(20 * time.Millisecond):
	}

	s.Release("r1")
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("wait: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("wait did not return after release")
	}
}

func TestStore_WaitReleasedHonorsContext(t *testing.T) {
	s := NewStore()
	s.Activate("r1")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := s.WaitReleased(ctx, "r1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestStore_WaitAnsweredBeforeActivate(t *testing.T) {
	s := NewStore()
	done := make(chan error, 1)
	go func() { done <- s.WaitAnswered(context.Background(), "r1") }()

	deadline := time.Now().Add(time.Second)
	for !s.IsActive("r1") {
		if time.Now().After(deadline) {
			t.Fatal("wait did not reserve r1")
		}
		time.Sleep(time.Millisecond)
	}
	if n := s.ActiveCount(); n != 0 {
		t.Errorf("reserved id counted as active: %d", n)
	}

	s.Activate("r1")
	if n := s.ActiveCount(); n != 1 {
		t.Errorf("active count = %d after activate", n)
	}
	select {
	case <-done:
		t.Fatal("wait returned before release")
	case <-time.After(20 * time.Millisecond):
	}

	s.Release("r1")
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("wait: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("wait did not return after release")
	}
}

func TestStore_WaitAnsweredCachedReturns(t *testing.T) {
	s := NewStore()
	s.Put(&Node{ID: "r1"})
	if err := s.WaitAnswered(context.Background(), "r1"); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if s.IsActive("r1") {
		t.Error("cached id was reserved")
	}
}

func TestStore_WaitAnsweredDropsReservation(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := s.WaitAnswered(ctx, "r1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if s.IsActive("r1") || s.ActiveCount() != 0 {
		t.Error("reservation left behind")
	}
}

func TestStore_ReplaceOverwritesAndKeepsParent(t *testing.T) {
	s := NewStore()
	q := s.Put(&Node{ID: "q"})
	stale := s.Put(&Node{ID: "a", Parts: nil})
	s.Link(stale, q)

	fresh := s.Replace(&Node{ID: "a"})
	got, _ := s.Node("a")
	if got != fresh {
		t.Fatal("replace did not overwrite the cached node")
	}
	if fresh.Parent() != q {
		t.Errorf("parent = %v, want q", fresh.Parent())
	}
}
