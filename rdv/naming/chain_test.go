package naming

import (
	"errors"
	"fmt"
	"regexp"
	"testing"
)

var hexName = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestDerivationFormat(t *testing.T) {
	names := []Name{
		FromSecret("label"),
		FromPayload("abcdef"),
		FromCompound("test.session", "00ff"),
		SessionName("test.session", true),
	}
	for _, n := range names {
		if !hexName.MatchString(string(n)) {
			t.Fatalf("unexpected name format %q", n)
		}
	}
	if SessionName("test.session", false) != "test.session" {
		t.Fatalf("expected literal session name when not encoded")
	}
	if FromCompound("a", "b") != FromPayload("a.b") {
		t.Fatalf("compound should hash base.suffix")
	}
	// Known SHA-256 vector.
	if FromPayload("abc") != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Fatalf("unexpected digest %s", FromPayload("abc"))
	}
}

func TestNameConvergence(t *testing.T) {
	frame := "0a1b2c3d4e5f"
	sent := []byte(frame)
	received := string(append([]byte(nil), sent...))
	if FromPayload(frame) != FromPayload(received) {
		t.Fatalf("peers disagree on next name")
	}
	if FromPayload(frame) == FromPayload(frame+"0") {
		t.Fatalf("distinct frames must yield distinct names")
	}
}

func TestChainConvergence(t *testing.T) {
	first := FromSecret("shared")
	sender, err := NewChain(first)
	if err != nil {
		t.Fatalf("NewChain sender: %v", err)
	}
	receiver, err := NewChain(first)
	if err != nil {
		t.Fatalf("NewChain receiver: %v", err)
	}

	for i := 0; i < 10; i++ {
		frame := fmt.Sprintf("%064x", i)
		a, err := sender.Advance(frame)
		if err != nil {
			t.Fatalf("Advance sender %d: %v", i, err)
		}
		b, err := receiver.Advance(frame)
		if err != nil {
			t.Fatalf("Advance receiver %d: %v", i, err)
		}
		if a != b || sender.Current() != receiver.Current() {
			t.Fatalf("chains diverged at step %d", i)
		}
	}
	if sender.Generation() != 10 {
		t.Fatalf("unexpected generation %d", sender.Generation())
	}
}

func TestChainForwardOnly(t *testing.T) {
	c, _ := NewChain(FromSecret("shared"))
	for i := 0; i < 32; i++ {
		if _, err := c.Advance(fmt.Sprintf("frame-%d", i)); err != nil {
			t.Fatalf("Advance %d: %v", i, err)
		}
	}

	visited := c.Visited()
	if len(visited) != 33 {
		t.Fatalf("expected 33 names, got %d", len(visited))
	}
	seen := map[Name]bool{}
	for _, n := range visited {
		if seen[n] {
			t.Fatalf("name %s visited twice", n.Short())
		}
		seen[n] = true
	}

	// Replaying an earlier frame would move back onto a used slot.
	if _, err := c.Advance("frame-3"); !errors.Is(err, ErrNameReused) {
		t.Fatalf("expected ErrNameReused, got %v", err)
	}
	if c.Generation() != 32 {
		t.Fatalf("failed advance must not move the chain")
	}
}

func TestNewChainEmpty(t *testing.T) {
	if _, err := NewChain(""); !errors.Is(err, ErrChainEmpty) {
		t.Fatalf("expected ErrChainEmpty, got %v", err)
	}
}
