package helloworld

import (
	"bytes"
	"errors"
	"testing"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
)

func newTestKey(t *testing.T) *ec.PrivateKey {
	t.Helper()
	priv, err := ec.NewPrivateKey()
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}
	return priv
}

func TestPushDropRoundTrip(t *testing.T) {
	priv := newTestKey(t)

	cases := [][][]byte{
		{[]byte("Hello, world!")},
		{[]byte("one"), []byte("two")},
		{[]byte("a"), []byte("b"), []byte("c")},
	}
	for _, fields := range cases {
		lock, err := NewPushDropLock(priv.PubKey(), fields)
		if err != nil {
			t.Fatalf("NewPushDropLock(%d fields): %v", len(fields), err)
		}

		decoded, err := DecodePushDrop(lock)
		if err != nil {
			t.Fatalf("DecodePushDrop(%d fields): %v", len(fields), err)
		}
		if !bytes.Equal(decoded.LockingPublicKey.ToDER(), priv.PubKey().ToDER()) {
			t.Fatalf("locking key mismatch")
		}
		if len(decoded.Fields) != len(fields) {
			t.Fatalf("fields = %d, want %d", len(decoded.Fields), len(fields))
		}
		for i := range fields {
			if !bytes.Equal(decoded.Fields[i], fields[i]) {
				t.Fatalf("field %d = %q, want %q", i, decoded.Fields[i], fields[i])
			}
		}
	}
}

func TestPushDropMessage(t *testing.T) {
	priv := newTestKey(t)

	lock, err := NewPushDropLock(priv.PubKey(), [][]byte{[]byte("¡hola, mundo!")})
	if err != nil {
		t.Fatalf("NewPushDropLock: %v", err)
	}
	decoded, err := DecodePushDrop(lock)
	if err != nil {
		t.Fatalf("DecodePushDrop: %v", err)
	}
	if got := decoded.Message(); got != "¡hola, mundo!" {
		t.Fatalf("Message = %q", got)
	}
}

func TestDecodePushDropRejectsOtherScripts(t *testing.T) {
	// A plain P2PKH lock.
	p2pkhScript, err := script.NewFromHex("76a914aabbccddeeff00112233445566778899aabbccdd88ac")
	if err != nil {
		t.Fatalf("NewFromHex: %v", err)
	}

	for name, s := range map[string]*script.Script{
		"nil":   nil,
		"empty": {},
		"p2pkh": p2pkhScript,
	} {
		if _, err := DecodePushDrop(s); !errors.Is(err, ErrNotPushDrop) {
			t.Fatalf("%s: err = %v, want ErrNotPushDrop", name, err)
		}
	}
}

func TestNewPushDropLockRequiresKey(t *testing.T) {
	if _, err := NewPushDropLock(nil, [][]byte{[]byte("x")}); err == nil {
		t.Fatal("expected error for nil key")
	}
}
