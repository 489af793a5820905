package pubsub

import "testing"

func TestChannel_FanOut(t *testing.T) {
	p := NewChannel[string](4)
	a, unsubA := p.Subscribe("general")
	b, unsubB := p.Subscribe("general")
	other, unsubOther := p.Subscribe("random")
	defer unsubB()
	defer unsubOther()

	if n := p.Publish("general", "hi"); n != 2 {
		t.Fatalf("delivered to %d, want 2", n)
	}
	if <-a != "hi" || <-b != "hi" {
		t.Fatal("subscribers missed the message")
	}
	select {
	case m := <-other:
		t.Fatalf("other topic got %q", m)
	default:
	}

	unsubA()
	unsubA()
	if _, ok := <-a; ok {
		t.Error("channel open after unsubscribe")
	}
	if p.Subscribers("general") != 1 {
		t.Errorf("subscribers = %d", p.Subscribers("general"))
	}
}

func TestChannel_DropsWhenFull(t *testing.T) {
	p := NewChannel[int](1)
	ch, unsub := p.Subscribe("t")
	defer unsub()

	p.Publish("t", 1)
	if n := p.Publish("t", 2); n != 0 {
		t.Fatalf("full subscriber received %d", n)
	}
	if <-ch != 1 {
		t.Error("first message lost")
	}
}
