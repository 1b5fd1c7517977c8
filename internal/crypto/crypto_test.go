package crypto

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Well-known anvil/hardhat dev key, safe to embed in tests.
const (
	testKey     = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func TestNewSignerDerivesAddress(t *testing.T) {
	s, err := NewSigner(testKey, 137)
	if err != nil {
		t.Fatalf("NewSigner() error = %v", err)
	}
	if got := s.Address().Hex(); got != testAddress {
		t.Errorf("Address() = %s, want %s", got, testAddress)
	}

	// 0x prefix is accepted too.
	s2, err := NewSigner("0x"+testKey, 137)
	if err != nil {
		t.Fatalf("NewSigner(0x-prefixed) error = %v", err)
	}
	if s2.Address() != s.Address() {
		t.Error("prefix changed the derived address")
	}
}

func TestNewSignerRejectsGarbage(t *testing.T) {
	if _, err := NewSigner("not-a-key", 137); err == nil {
		t.Error("NewSigner(garbage) = nil error")
	}
}

func TestSignAuthMessageIsDeterministic(t *testing.T) {
	s, err := NewSigner(testKey, 137)
	if err != nil {
		t.Fatal(err)
	}

	sig1, err := s.SignAuthMessage(testAddress, 1714000000, 0)
	if err != nil {
		t.Fatalf("SignAuthMessage() error = %v", err)
	}
	sig2, err := s.SignAuthMessage(testAddress, 1714000000, 0)
	if err != nil {
		t.Fatal(err)
	}

	if sig1 != sig2 {
		t.Error("same inputs produced different signatures")
	}
	if !strings.HasPrefix(sig1, "0x") || len(sig1) != 2+65*2 {
		t.Errorf("signature = %q, want 0x-prefixed 65 bytes", sig1)
	}
	// v must be normalized to {27,28}.
	v := sig1[len(sig1)-2:]
	if v != "1b" && v != "1c" {
		t.Errorf("v byte = %s, want 1b or 1c", v)
	}
}

func TestSignOrder(t *testing.T) {
	s, err := NewSigner(testKey, 137)
	if err != nil {
		t.Fatal(err)
	}

	payload := OrderPayload{
		Salt:          "12345",
		Maker:         testAddress,
		Signer:        testAddress,
		Taker:         "0x0000000000000000000000000000000000000000",
		TokenID:       "71321045679252212594626385532706912750332728571942532289631379312455583992563",
		MakerAmount:   "10000000",
		TakerAmount:   "25000000",
		Expiration:    "0",
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          0,
		SignatureType: 0,
	}

	sig, err := s.SignOrder(payload)
	if err != nil {
		t.Fatalf("SignOrder() error = %v", err)
	}
	if !strings.HasPrefix(sig, "0x") || len(sig) != 2+65*2 {
		t.Errorf("signature = %q", sig)
	}

	// A different salt must change the signature.
	payload.Salt = "54321"
	sig2, err := s.SignOrder(payload)
	if err != nil {
		t.Fatal(err)
	}
	if sig == sig2 {
		t.Error("different salts produced the same signature")
	}
}

func TestSignOrderRejectsBadNumbers(t *testing.T) {
	s, _ := NewSigner(testKey, 137)
	_, err := s.SignOrder(OrderPayload{Salt: "xyz"})
	if err == nil {
		t.Error("SignOrder(bad salt) = nil error")
	}
}

func TestNewSaltIsUniqueDecimal(t *testing.T) {
	a, err := NewSalt()
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewSalt()
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two salts collided")
	}
	for _, c := range a {
		if c < '0' || c > '9' {
			t.Fatalf("salt %q is not decimal", a)
		}
	}
}

func TestL2HeadersAtDeterministic(t *testing.T) {
	h := &HMACAuth{
		Key:        "api-key",
		Secret:     "c2VjcmV0LWJ5dGVz", // base64("secret-bytes")
		Passphrase: "pass",
	}

	got := h.L2HeadersAt(testAddress, "GET", "/trades", "", 1714000000)

	if got["POLY_ADDRESS"] != testAddress {
		t.Errorf("POLY_ADDRESS = %q", got["POLY_ADDRESS"])
	}
	if got["POLY_API_KEY"] != "api-key" || got["POLY_PASSPHRASE"] != "pass" {
		t.Errorf("credentials headers = %v", got)
	}
	if got["POLY_TIMESTAMP"] != "1714000000" {
		t.Errorf("POLY_TIMESTAMP = %q", got["POLY_TIMESTAMP"])
	}

	again := h.L2HeadersAt(testAddress, "GET", "/trades", "", 1714000000)
	if got["POLY_SIGNATURE"] != again["POLY_SIGNATURE"] {
		t.Error("signature not deterministic for fixed timestamp")
	}

	other := h.L2HeadersAt(testAddress, "POST", "/order", `{"x":1}`, 1714000000)
	if got["POLY_SIGNATURE"] == other["POLY_SIGNATURE"] {
		t.Error("different request produced the same signature")
	}
}

func TestHMACAuthStringRedacts(t *testing.T) {
	h := &HMACAuth{Key: "verylongkey", Secret: "verylongsecret"}
	s := h.String()
	if strings.Contains(s, "verylongkey") || strings.Contains(s, "verylongsecret") {
		t.Errorf("String() leaked credentials: %s", s)
	}
}

func TestEncryptDecryptKeyRoundTrip(t *testing.T) {
	blob, err := EncryptKey("0x"+testKey, "hunter2")
	if err != nil {
		t.Fatalf("EncryptKey() error = %v", err)
	}

	got, err := DecryptKey(blob, "hunter2")
	if err != nil {
		t.Fatalf("DecryptKey() error = %v", err)
	}
	if got != testKey {
		t.Errorf("round trip = %q, want original key", got)
	}

	if _, err := DecryptKey(blob, "wrong"); err == nil {
		t.Error("DecryptKey(wrong password) = nil error")
	}
}

func TestLoadKeyPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "key.json")
	blob, err := EncryptKey(testKey, "pw")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, blob, 0o600); err != nil {
		t.Fatal(err)
	}

	// Raw key wins over the encrypted file.
	got, err := LoadKey(KeyConfig{RawPrivateKey: "0x" + testKey, EncryptedKeyPath: path, KeyPassword: "pw"})
	if err != nil || got != testKey {
		t.Errorf("LoadKey(raw) = %q, %v", got, err)
	}

	// Encrypted file used when no raw key.
	got, err = LoadKey(KeyConfig{EncryptedKeyPath: path, KeyPassword: "pw"})
	if err != nil || got != testKey {
		t.Errorf("LoadKey(file) = %q, %v", got, err)
	}

	// Nothing configured.
	if _, err := LoadKey(KeyConfig{}); err == nil {
		t.Error("LoadKey(empty) = nil error")
	}
}

func TestLoadKeyRejectsTruncatedRawKey(t *testing.T) {
	if _, err := LoadKey(KeyConfig{RawPrivateKey: "0xdeadbeef"}); err == nil {
		t.Error("LoadKey(truncated key) = nil error")
	}
}
