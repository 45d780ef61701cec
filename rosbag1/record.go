package rosbag1

import (
	"bytes"
	"encoding/binary"
	"io"

	"go.viam.com/rosbags/rosbagerr"
)

// field is one key=value entry of a record's header dictionary.
type field struct {
	key   string
	value []byte
}

// record is a fully parsed rosbag1 record: its header dictionary (in
// on-disk order, so writers can round-trip it) and its data section.
type record struct {
	fields []field
	data   []byte
}

func (r *record) op() (Op, error) {
	v, ok := r.find("op")
	if !ok || len(v) != 1 {
		return 0, rosbagerr.CorruptRecord("record missing single-byte op field")
	}
	return Op(v[0]), nil
}

func (r *record) find(key string) ([]byte, bool) {
	for _, f := range r.fields {
		if f.key == key {
			return f.value, true
		}
	}
	return nil, false
}

func (r *record) findUint32(key string) (uint32, error) {
	v, ok := r.find(key)
	if !ok || len(v) != 4 {
		return 0, rosbagerr.CorruptRecord("record missing uint32 field %q", key)
	}
	return binary.LittleEndian.Uint32(v), nil
}

func (r *record) findUint64(key string) (uint64, error) {
	v, ok := r.find(key)
	if !ok || len(v) != 8 {
		return 0, rosbagerr.CorruptRecord("record missing uint64 field %q", key)
	}
	return binary.LittleEndian.Uint64(v), nil
}

func (r *record) findString(key string) (string, error) {
	v, ok := r.find(key)
	if !ok {
		return "", rosbagerr.CorruptRecord("record missing field %q", key)
	}
	return string(v), nil
}

// readRecord reads one length-prefixed record from r. io.EOF propagates
// unchanged so callers can detect end of stream.
func readRecord(r io.Reader) (*record, error) {
	headerLen, err := readLen(r)
	if err != nil {
		return nil, err
	}
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, rosbagerr.IO(err)
	}

	fields, err := parseFields(header)
	if err != nil {
		return nil, err
	}

	dataLen, err := readLen(r)
	if err != nil {
		return nil, rosbagerr.IO(err)
	}
	data := make([]byte, dataLen)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, rosbagerr.IO(err)
	}

	return &record{fields: fields, data: data}, nil
}

func readLen(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func parseFields(header []byte) ([]field, error) {
	var fields []field
	for len(header) > 0 {
		if len(header) < 4 {
			return nil, rosbagerr.CorruptRecord("truncated header field length")
		}
		flen := binary.LittleEndian.Uint32(header)
		header = header[4:]
		if int(flen) > len(header) {
			return nil, rosbagerr.CorruptRecord("header field length %d exceeds remaining %d bytes", flen, len(header))
		}
		entry := header[:flen]
		i := bytes.IndexByte(entry, '=')
		if i < 0 {
			return nil, rosbagerr.CorruptRecord("header field missing '=' separator")
		}
		fields = append(fields, field{key: string(entry[:i]), value: append([]byte(nil), entry[i+1:]...)})
		header = header[flen:]
	}
	return fields, nil
}

// writeRecord writes a record with the given header fields and data
// section to w, each framed with a little-endian uint32 byte length.
func writeRecord(w io.Writer, fields []field, data []byte) error {
	var header bytes.Buffer
	for _, f := range fields {
		entry := append(append([]byte(f.key), '='), f.value...)
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(entry)))
		header.Write(lenBuf[:])
		header.Write(entry)
	}

	if err := writeLen(w, uint32(header.Len())); err != nil {
		return err
	}
	if _, err := w.Write(header.Bytes()); err != nil {
		return rosbagerr.IO(err)
	}
	if err := writeLen(w, uint32(len(data))); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return rosbagerr.IO(err)
	}
	return nil
}

func writeLen(w io.Writer, n uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], n)
	if _, err := w.Write(b[:]); err != nil {
		return rosbagerr.IO(err)
	}
	return nil
}

func u32Field(key string, v uint32) field {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return field{key: key, value: b[:]}
}

func u64Field(key string, v uint64) field {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return field{key: key, value: b[:]}
}

func strField(key, v string) field {
	return field{key: key, value: []byte(v)}
}

func opField(op Op) field {
	return field{key: "op", value: []byte{byte(op)}}
}

// latchingField encodes the connection-header "latching" flag the way
// real ROS1 tooling does: the ASCII text "1"/"0", not a binary byte.
func latchingField(v bool) field {
	if v {
		return field{key: "latching", value: []byte("1")}
	}
	return field{key: "latching", value: []byte("0")}
}
