// Copyright 2024 The MaxMQ Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package packet

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
	"unsafe"

	"golang.org/x/exp/constraints"
)

const (
	maxVarInteger = 268_435_455
	maxStringLen  = 65535
)

func readVarInteger(r io.ByteReader, val *int) (n int, err error) {
	multiplier := 1
	for {
		var b byte

		b, err = r.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("failed to read variable integer: %w", err)
		}

		n++
		*val += int(b&127) * multiplier
		multiplier *= 128

		if b&128 == 0 {
			break
		}
		if multiplier > 128*128*128 {
			return 0, newErrMalformedPacket("invalid variable integer")
		}
	}

	return n, nil
}

func varIntegerSize(val int) int {
	switch {
	case val < 128:
		return 1
	case val < 16_384:
		return 2
	case val < 2_097_152:
		return 3
	default:
		return 4
	}
}

func readUint[T constraints.Unsigned](buf *bytes.Buffer) (val T, err error) {
	size := int(unsafe.Sizeof(val))

	if buf.Len() < size {
		return 0, newErrMalformedPacket("no enough bytes")
	}

	switch size {
	case 1:
		val = T(buf.Next(1)[0])
	case 2:
		val = T(binary.BigEndian.Uint16(buf.Next(2)))
	case 4:
		val = T(binary.BigEndian.Uint32(buf.Next(4)))
	default:
		return 0, errors.New("invalid byte size")
	}

	return val, nil
}

func readString(buf *bytes.Buffer) (string, error) {
	str, err := readBinary(buf)
	if err != nil {
		return "", err
	}

	if len(str) > 0 && !isValidUTF8String(str) {
		return "", newErrMalformedPacket("invalid UTF-8 string")
	}

	return string(str), nil
}

func readBinary(buf *bytes.Buffer) ([]byte, error) {
	length, err := readUint[uint16](buf)
	if err != nil {
		return nil, err
	}

	if int(length) > buf.Len() {
		return nil, newErrMalformedPacket("no enough bytes")
	}

	val := make([]byte, length)
	copy(val, buf.Next(int(length)))
	return val, nil
}

func writeVarInteger(w io.ByteWriter, val int) error {
	if val < 0 || val > maxVarInteger {
		return errors.New("invalid variable integer")
	}

	for {
		data := byte(val % 128)

		val /= 128
		if val > 0 {
			data |= 128
		}

		err := w.WriteByte(data)
		if err != nil || val == 0 {
			return err
		}
	}
}

func writeUint16(w io.ByteWriter, val uint16) error {
	err := w.WriteByte(byte(val >> 8))
	if err != nil {
		return err
	}
	return w.WriteByte(byte(val))
}

func writeBinary(w *bytes.Buffer, val []byte) error {
	if len(val) > maxStringLen {
		return errors.New("string too long")
	}

	_ = writeUint16(w, uint16(len(val)))
	_, err := w.Write(val)
	return err
}

func isValidUTF8String(str []byte) bool {
	for len(str) > 0 {
		r, size := utf8.DecodeRune(str)
		if r == utf8.RuneError || !utf8.ValidRune(r) {
			return false
		}
		if r >= '\u0000' && r <= '\u001F' {
			return false
		}
		if r >= '\u007F' && r <= '\u009F' {
			return false
		}

		str = str[size:]
	}

	return true
}

// IsValidTopicName returns whether the topic can be used to publish a message. A topic name must
// not be empty and must not contain wildcard characters.
func IsValidTopicName(topic string) bool {
	if len(topic) == 0 || len(topic) > maxStringLen {
		return false
	}
	return !strings.ContainsAny(topic, "#+")
}

// IsValidTopicFilter returns whether the topic can be used in a subscription. The multi-level
// wildcard must be the last level, and wildcards must occupy an entire level.
func IsValidTopicFilter(topic string) bool {
	if len(topic) == 0 || len(topic) > maxStringLen {
		return false
	}

	levels := strings.Split(topic, "/")
	for i, level := range levels {
		if strings.Contains(level, "#") && (level != "#" || i != len(levels)-1) {
			return false
		}
		if strings.Contains(level, "+") && level != "+" {
			return false
		}
	}

	return true
}

func readRemaining(r *bufio.Reader, n int) (*bytes.Buffer, error) {
	msg := make([]byte, n)
	if _, err := io.ReadFull(r, msg); err != nil {
		return nil, fmt.Errorf("failed to read remaining bytes: %w", err)
	}
	return bytes.NewBuffer(msg), nil
}

func writeFixedHeader(w *bufio.Writer, ctrl byte, remainLength int) error {
	err := w.WriteByte(ctrl)
	if err != nil {
		return err
	}
	return writeVarInteger(w, remainLength)
}
