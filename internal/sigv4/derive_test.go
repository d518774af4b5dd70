package sigv4

import "testing"

func TestDeriveSigningKeyLeavesCallersSecretIntact(t *testing.T) {
	// deriveSigningKey only zeroizes its own intermediates; the
	// caller-owned secret key must survive, since a Signer reuses it to
	// derive a fresh key on every date-stamp rollover.
	secret := []byte("wJalrXUtnFEMI/K7MDENG/bPxRfiCYEXAMPLEKEY")
	want := append([]byte(nil), secret...)

	key, err := deriveSigningKey(secret, "20150830", "us-east-1", "service")
	if err != nil {
		t.Fatalf("deriveSigningKey failed: %v", err)
	}
	if len(key) != 32 {
		t.Fatalf("signing key length = %d, want 32", len(key))
	}
	if string(secret) != string(want) {
		t.Error("deriveSigningKey must not mutate the caller's secret key")
	}
}

func TestDeriveSigningKeyDeterministic(t *testing.T) {
	secret := func() []byte { return []byte("wJalrXUtnFEMI/K7MDENG/bPxRfiCYEXAMPLEKEY") }

	a, err := deriveSigningKey(secret(), "20150830", "us-east-1", "service")
	if err != nil {
		t.Fatalf("deriveSigningKey failed: %v", err)
	}
	b, err := deriveSigningKey(secret(), "20150830", "us-east-1", "service")
	if err != nil {
		t.Fatalf("deriveSigningKey failed: %v", err)
	}
	if string(a) != string(b) {
		t.Error("deriveSigningKey is not deterministic for identical inputs")
	}
}

func TestDeriveSigningKeyRejectsMissingArguments(t *testing.T) {
	if _, err := deriveSigningKey(nil, "20150830", "us-east-1", "service"); err == nil {
		t.Error("expected an error for a nil secret key")
	}
	if _, err := deriveSigningKey([]byte("secret"), "", "us-east-1", "service"); err == nil {
		t.Error("expected an error for an empty date stamp")
	}
}
