package helloworld

import (
	"errors"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
)

// Push-drop lock layout:
//
//	<33-byte compressed pubkey> OP_CHECKSIG <field 1> .. <field N> drops
//
// where drops are one OP_2DROP per field pair plus one OP_DROP for an odd
// remainder. Spending requires a signature for the leading key; the fields
// ride along purely as data. Field 1 is the token message.

var ErrNotPushDrop = errors.New("script is not a push-drop lock")

// PushDropFields is a decoded push-drop lock.
type PushDropFields struct {
	LockingPublicKey *ec.PublicKey
	Fields           [][]byte
}

// Message returns the first field as UTF-8 text.
func (p *PushDropFields) Message() string {
	if len(p.Fields) == 0 {
		return ""
	}
	return string(p.Fields[0])
}

// NewPushDropLock builds a push-drop locking script for the given key and
// data fields.
func NewPushDropLock(pubKey *ec.PublicKey, fields [][]byte) (*script.Script, error) {
	if pubKey == nil {
		return nil, fmt.Errorf("push-drop lock requires a public key")
	}
	s := &script.Script{}
	if err := s.AppendPushData(pubKey.ToDER()); err != nil {
		return nil, err
	}
	if err := s.AppendOpcodes(script.OpCHECKSIG); err != nil {
		return nil, err
	}
	for _, field := range fields {
		if err := s.AppendPushData(field); err != nil {
			return nil, err
		}
	}
	remaining := len(fields)
	for remaining > 1 {
		if err := s.AppendOpcodes(script.Op2DROP); err != nil {
			return nil, err
		}
		remaining -= 2
	}
	if remaining == 1 {
		if err := s.AppendOpcodes(script.OpDROP); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// DecodePushDrop parses a push-drop lock back into its key and fields.
// Returns ErrNotPushDrop for any script that does not match the layout.
func DecodePushDrop(s *script.Script) (*PushDropFields, error) {
	if s == nil {
		return nil, ErrNotPushDrop
	}
	chunks, err := s.Chunks()
	if err != nil {
		return nil, ErrNotPushDrop
	}
	if len(chunks) < 2 || len(chunks[0].Data) != 33 {
		return nil, ErrNotPushDrop
	}
	if chunks[1].Op != script.OpCHECKSIG {
		return nil, ErrNotPushDrop
	}
	pubKey, err := ec.PublicKeyFromBytes(chunks[0].Data)
	if err != nil {
		return nil, fmt.Errorf("push-drop locking key: %w", err)
	}

	decoded := &PushDropFields{LockingPublicKey: pubKey}
	for _, chunk := range chunks[2:] {
		if chunk.Op == script.OpDROP || chunk.Op == script.Op2DROP {
			break
		}
		if len(chunk.Data) == 0 && chunk.Op != script.Op0 {
			return nil, ErrNotPushDrop
		}
		decoded.Fields = append(decoded.Fields, chunk.Data)
	}
	if len(decoded.Fields) == 0 {
		return nil, ErrNotPushDrop
	}
	return decoded, nil
}
