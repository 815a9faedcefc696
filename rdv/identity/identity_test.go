package identity

import (
	"errors"
	"io"
	"testing"

	"github.com/TheusHen/rendezvous/rdv/crypto"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestFingerprintStable(t *testing.T) {
	id, err := Generate(crypto.DefaultContext())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	fp1 := id.Fingerprint()
	fp2 := FingerprintOf(id.PublicKey())
	if fp1 != fp2 {
		t.Fatalf("Fingerprint mismatch")
	}

	if len(fp1.String()) != 64 {
		t.Fatalf("unexpected fingerprint %q", fp1.String())
	}
	if len(fp1.Short()) != 16 {
		t.Fatalf("unexpected short fingerprint %q", fp1.Short())
	}
}

func TestGenerateCryptoUnavailable(t *testing.T) {
	if _, err := Generate(crypto.NewContext(failingReader{})); !errors.Is(err, crypto.ErrCryptoUnavailable) {
		t.Fatalf("expected ErrCryptoUnavailable, got %v", err)
	}
}

func TestDeriveChannelSymmetry(t *testing.T) {
	ctx := crypto.DefaultContext()
	alice, _ := Generate(ctx)
	bob, _ := Generate(ctx)

	if alice.PublicKey() == bob.PublicKey() {
		t.Fatalf("expected distinct public keys")
	}

	ab, err := alice.DeriveChannel(bob.PublicKey())
	if err != nil {
		t.Fatalf("DeriveChannel alice: %v", err)
	}
	ba, err := bob.DeriveChannel(alice.PublicKey())
	if err != nil {
		t.Fatalf("DeriveChannel bob: %v", err)
	}

	if SharedSecretLabel(ab) != SharedSecretLabel(ba) {
		t.Fatalf("shared secret labels differ")
	}

	frame, err := ab.Encrypt([]byte("hello"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	pt, err := ba.Decrypt(frame)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if string(pt) != "hello" {
		t.Fatalf("unexpected plaintext %q", pt)
	}

	// A third party derives a different label.
	eve, _ := Generate(ctx)
	ae, _ := alice.DeriveChannel(eve.PublicKey())
	if SharedSecretLabel(ae) == SharedSecretLabel(ab) {
		t.Fatalf("expected distinct labels for distinct peers")
	}
}

func TestDeriveChannelInvalidPeerKey(t *testing.T) {
	id, _ := Generate(crypto.DefaultContext())
	for _, peer := range []string{"", "00", "not a key", id.PublicKey()[:10]} {
		if _, err := id.DeriveChannel(peer); !errors.Is(err, crypto.ErrInvalidPeerKey) {
			t.Fatalf("DeriveChannel(%q): expected ErrInvalidPeerKey, got %v", peer, err)
		}
	}
}
