// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keyctl.
//
// go-keyctl is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package keyctl

// ReadBufferSize is the capacity of every read-style output buffer.
const ReadBufferSize = 256

// scope owns the transient buffers of a single call. Every buffer it
// hands out is wiped by release, which the dispatcher defers before the
// first allocation so that success, kernel failure and conversion failure
// all release the same way.
type scope struct {
	buffers [][]byte
}

func newScope() *scope {
	return &scope{}
}

// payload materialises an optional payload. An absent payload yields a nil
// slice (NULL, length 0). A present payload always has backing storage,
// so an empty payload is a non-NULL pointer with length 0.
func (s *scope) payload(p Option[string]) []byte {
	text, ok := p.Get()
	if !ok {
		return nil
	}
	buf := make([]byte, len(text), len(text)+1)
	copy(buf, text)
	s.buffers = append(s.buffers, buf)
	return buf
}

// output allocates a fixed-capacity result buffer.
func (s *scope) output() []byte {
	buf := make([]byte, ReadBufferSize)
	s.buffers = append(s.buffers, buf)
	return buf
}

// release wipes every buffer handed out by the scope.
func (s *scope) release() {
	for _, buf := range s.buffers {
		clear(buf[:cap(buf)])
	}
	s.buffers = nil
}

// clampLength bounds a kernel-reported length to what the buffer can hold.
// The kernel reports the full size of the data even when it only copied
// a prefix into a smaller buffer.
func clampLength(reported int64, buf []byte) int {
	switch {
	case reported <= 0:
		return 0
	case reported > int64(len(buf)):
		return len(buf)
	default:
		return int(reported)
	}
}

// decodeTerminated decodes NUL-terminated text, dropping the final byte.
func decodeTerminated(buf []byte, reported int64) string {
	n := clampLength(reported, buf)
	if n == 0 {
		return ""
	}
	return string(buf[:n-1])
}

// decodeRaw decodes an explicit-length payload, keeping every byte.
func decodeRaw(buf []byte, reported int64) string {
	return string(buf[:clampLength(reported, buf)])
}
