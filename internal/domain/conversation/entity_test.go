package conversation

import (
	"testing"

	"github.com/google/uuid"
)

func TestParticipantKeyIgnoresOrderAndDuplicates(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	k1 := ParticipantKey([]uuid.UUID{a, b, c})
	k2 := ParticipantKey([]uuid.UUID{c, a, b, a})
	if k1 != k2 {
		t.Fatalf("expected equal keys, got %q and %q", k1, k2)
	}

	if ParticipantKey([]uuid.UUID{a, b}) == k1 {
		t.Fatalf("subset must not share a key with the full set")
	}
}

func TestNormalizeParticipantsKeepsInsertionOrder(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	got := NormalizeParticipants(b, uuid.Nil, a, b)
	if len(got) != 2 || got[0] != b || got[1] != a {
		t.Fatalf("unexpected participants: %v", got)
	}
}

func TestWithParticipant(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	conv := New(uuid.New(), "MP-1", "Jane", a)

	joined := conv.WithParticipant(b)
	if !joined.HasParticipant(b) || len(joined.Participants) != 2 {
		t.Fatalf("expected b to join, got %v", joined.Participants)
	}
	if joined.ParticipantKey == conv.ParticipantKey {
		t.Fatalf("expected key to change after join")
	}
	if len(conv.Participants) != 1 {
		t.Fatalf("original conversation must not be mutated")
	}

	same := joined.WithParticipant(a)
	if same.ParticipantKey != joined.ParticipantKey {
		t.Fatalf("re-adding an existing participant must not change the key")
	}
}
