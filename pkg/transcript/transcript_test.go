package transcript

import "testing"

func TestAppendOrder(t *testing.T) {
	l := NewLog()
	l.Append(RoleUser, "Turn on lights")
	l.Append(RoleModel, "Lights are on.")

	msgs := l.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[0].Text != "Turn on lights" {
		t.Errorf("unexpected first message: %+v", msgs[0])
	}
	if msgs[1].Role != RoleModel || msgs[1].Text != "Lights are on." {
		t.Errorf("unexpected second message: %+v", msgs[1])
	}
}

func TestTimestampsNonDecreasing(t *testing.T) {
	l := NewLog()
	for i := 0; i < 100; i++ {
		l.Append(RoleUser, "hello")
	}

	msgs := l.Messages()
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Timestamp < msgs[i-1].Timestamp {
			t.Fatalf("timestamp regressed at index %d: %d < %d", i, msgs[i].Timestamp, msgs[i-1].Timestamp)
		}
	}
}

func TestMessageIDsUnique(t *testing.T) {
	l := NewLog()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		m := l.Append(RoleModel, "x")
		if seen[m.ID] {
			t.Fatalf("duplicate message ID %q", m.ID)
		}
		seen[m.ID] = true
	}
}

func TestMessagesReturnsCopy(t *testing.T) {
	l := NewLog()
	l.Append(RoleUser, "original")

	msgs := l.Messages()
	msgs[0].Text = "tampered"

	if l.Messages()[0].Text != "original" {
		t.Error("mutating the returned slice must not affect the log")
	}
}
