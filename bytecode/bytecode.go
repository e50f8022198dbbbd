// Package bytecode persists a compiler.Bytecode value to a file and
// reads it back. The wire format is a fixed header (magic, version,
// CRC32 of the payload) followed by a length-prefixed instruction
// buffer and a length-prefixed constant pool.
//
// No example repo in the corpus ships a bytecode file format to
// imitate; this is new engineering surface the spec mandates rather
// than ambient plumbing the corpus already demonstrates a library
// idiom for, so it is built directly on encoding/binary and
// hash/crc32 (see DESIGN.md).
package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"belalang/compiler"
)

// Version is the current wire-format version written by Encode. A
// decoder rejects any file whose version does not match exactly.
const Version uint16 = 1

// magic identifies a belalang bytecode file.
var magic = [4]byte{0xBE, 0x1A, 0x1A, 0x9C}

// constant tags, one byte each, preceding a constant's encoded payload.
const (
	tagNull     byte = 0
	tagInt      byte = 1
	tagFloat    byte = 2
	tagBool     byte = 3
	tagString   byte = 4
	tagFunction byte = 5
)

// FormatError covers a malformed or corrupted bytecode file: a bad
// magic number, an unsupported version, or a checksum mismatch.
type FormatError struct {
	Message string
}

func (e FormatError) Error() string {
	return fmt.Sprintf("💥 FormatError: %s", e.Message)
}

func errMagicNumber() error { return FormatError{Message: "bad magic number"} }
func errVersion(got uint16) error {
	return FormatError{Message: fmt.Sprintf("unsupported bytecode version %d (want %d)", got, Version)}
}
func errChecksum() error { return FormatError{Message: "checksum mismatch"} }

// Encode serializes bc into the persisted wire format described in
// §6: a 4-byte magic, a little-endian u16 version, a little-endian u32
// CRC32 of the payload, then the payload itself.
func Encode(bc compiler.Bytecode) ([]byte, error) {
	payload, err := encodePayload(bc)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 10+len(payload))
	out = append(out, magic[:]...)
	out = binary.LittleEndian.AppendUint16(out, Version)
	out = binary.LittleEndian.AppendUint32(out, crc32.ChecksumIEEE(payload))
	out = append(out, payload...)
	return out, nil
}

// Decode parses data written by Encode, verifying the magic number,
// version, and checksum before returning the decoded Bytecode.
func Decode(data []byte) (compiler.Bytecode, error) {
	if len(data) < 10 {
		return compiler.Bytecode{}, errMagicNumber()
	}
	if !bytes.Equal(data[0:4], magic[:]) {
		return compiler.Bytecode{}, errMagicNumber()
	}

	version := binary.LittleEndian.Uint16(data[4:6])
	if version != Version {
		return compiler.Bytecode{}, errVersion(version)
	}

	wantCRC := binary.LittleEndian.Uint32(data[6:10])
	payload := data[10:]
	if crc32.ChecksumIEEE(payload) != wantCRC {
		return compiler.Bytecode{}, errChecksum()
	}

	return decodePayload(payload)
}

// WriteFile encodes bc and writes it to path.
func WriteFile(path string, bc compiler.Bytecode) error {
	data, err := Encode(bc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFile reads and decodes the bytecode file at path.
func ReadFile(path string) (compiler.Bytecode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return compiler.Bytecode{}, err
	}
	return Decode(data)
}

func encodePayload(bc compiler.Bytecode) ([]byte, error) {
	var buf bytes.Buffer

	writeBytes(&buf, bc.Instructions)

	binary.Write(&buf, binary.LittleEndian, uint32(len(bc.Constants)))
	for _, c := range bc.Constants {
		if err := encodeConstant(&buf, c); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	binary.Write(buf, binary.LittleEndian, uint32(len(b)))
	buf.Write(b)
}

func encodeConstant(buf *bytes.Buffer, c any) error {
	switch v := c.(type) {
	case nil:
		buf.WriteByte(tagNull)
	case int64:
		buf.WriteByte(tagInt)
		binary.Write(buf, binary.LittleEndian, v)
	case float64:
		buf.WriteByte(tagFloat)
		binary.Write(buf, binary.LittleEndian, v)
	case bool:
		buf.WriteByte(tagBool)
		if v {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case string:
		buf.WriteByte(tagString)
		writeBytes(buf, []byte(v))
	case *compiler.CompiledFunction:
		buf.WriteByte(tagFunction)
		binary.Write(buf, binary.LittleEndian, uint32(v.EntryOffset))
		binary.Write(buf, binary.LittleEndian, uint32(v.NumLocals))
		binary.Write(buf, binary.LittleEndian, uint32(v.Arity))
	default:
		return fmt.Errorf("bytecode: unsupported constant type %T", c)
	}
	return nil
}

func decodePayload(payload []byte) (compiler.Bytecode, error) {
	r := bytes.NewReader(payload)

	ins, err := readBytes(r)
	if err != nil {
		return compiler.Bytecode{}, err
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return compiler.Bytecode{}, err
	}

	constants := make([]any, count)
	for i := range constants {
		c, err := decodeConstant(r)
		if err != nil {
			return compiler.Bytecode{}, err
		}
		constants[i] = c
	}

	return compiler.Bytecode{Instructions: compiler.Instructions(ins), Constants: constants}, nil
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeConstant(r *bytes.Reader) (any, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}

	switch tag {
	case tagNull:
		return nil, nil
	case tagInt:
		var v int64
		err := binary.Read(r, binary.LittleEndian, &v)
		return v, err
	case tagFloat:
		var v float64
		err := binary.Read(r, binary.LittleEndian, &v)
		return v, err
	case tagBool:
		b, err := r.ReadByte()
		return b != 0, err
	case tagString:
		b, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case tagFunction:
		var entry, locals, arity uint32
		if err := binary.Read(r, binary.LittleEndian, &entry); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &locals); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &arity); err != nil {
			return nil, err
		}
		return &compiler.CompiledFunction{
			EntryOffset: int(entry),
			NumLocals:   int(locals),
			Arity:       int(arity),
		}, nil
	default:
		return nil, fmt.Errorf("bytecode: unknown constant tag 0x%02X", tag)
	}
}
