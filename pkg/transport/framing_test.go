package transport

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"sync"
	"testing"
)

func TestFrameWriterReader(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{
			name:    "small message",
			payload: []byte("hello"),
		},
		{
			name:    "medium message",
			payload: bytes.Repeat([]byte("x"), 1000),
		},
		{
			name:    "max size message",
			payload: bytes.Repeat([]byte("y"), DefaultMaxMessageSize),
		},
		{
			name:    "single byte",
			payload: []byte{0x42},
		},
		{
			name:    "binary data",
			payload: []byte{0x00, 0xFF, 0x7F, 0x80},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)

			// Write frame
			writer := NewFrameWriter(buf)
			if err := writer.WriteFrame(tt.payload); err != nil {
				t.Fatalf("WriteFrame failed: %v", err)
			}

			// Check frame size
			expectedSize := LengthPrefixSize + len(tt.payload)
			if buf.Len() != expectedSize {
				t.Errorf("frame size = %d, want %d", buf.Len(), expectedSize)
			}

			// Read frame
			reader := NewFrameReader(buf)
			got, err := reader.ReadFrame()
			if err != nil {
				t.Fatalf("ReadFrame failed: %v", err)
			}

			// Verify payload
			if !bytes.Equal(got, tt.payload) {
				t.Errorf("payload mismatch: got %d bytes, want %d bytes", len(got), len(tt.payload))
			}
		})
	}
}

func TestFrameWriterEmptyMessage(t *testing.T) {
	buf := new(bytes.Buffer)
	writer := NewFrameWriter(buf)

	err := writer.WriteFrame([]byte{})
	if !errors.Is(err, ErrMessageEmpty) {
		t.Errorf("expected ErrMessageEmpty, got %v", err)
	}

	err = writer.WriteFrame(nil)
	if !errors.Is(err, ErrMessageEmpty) {
		t.Errorf("expected ErrMessageEmpty for nil, got %v", err)
	}
}

func TestFrameWriterMessageTooLarge(t *testing.T) {
	buf := new(bytes.Buffer)
	writer := NewFrameWriterWithMaxSize(buf, 100)

	err := writer.WriteFrame(bytes.Repeat([]byte("x"), 101))
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("expected ErrMessageTooLarge, got %v", err)
	}
}

func TestFrameReaderMessageTooLarge(t *testing.T) {
	buf := new(bytes.Buffer)

	// Write a frame with length > max
	var lengthBuf [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(lengthBuf[:], 1000)
	buf.Write(lengthBuf[:])
	buf.Write(bytes.Repeat([]byte("x"), 1000))

	// Try to read with smaller max size
	reader := NewFrameReaderWithMaxSize(buf, 100)
	_, err := reader.ReadFrame()
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("expected ErrMessageTooLarge, got %v", err)
	}
}

func TestFrameReaderEmptyLength(t *testing.T) {
	buf := new(bytes.Buffer)

	// Write frame with length = 0
	var lengthBuf [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(lengthBuf[:], 0)
	buf.Write(lengthBuf[:])

	reader := NewFrameReader(buf)
	_, err := reader.ReadFrame()
	if !errors.Is(err, ErrMessageEmpty) {
		t.Errorf("expected ErrMessageEmpty, got %v", err)
	}
}

func TestFrameReaderTruncatedPrefix(t *testing.T) {
	// Only 2 bytes of the 4-byte length prefix
	buf := bytes.NewBuffer([]byte{0x00, 0x00})

	reader := NewFrameReader(buf)
	_, err := reader.ReadFrame()
	if !errors.Is(err, ErrFrameTruncated) {
		t.Errorf("expected ErrFrameTruncated, got %v", err)
	}
}

func TestFrameReaderTruncatedPayload(t *testing.T) {
	buf := new(bytes.Buffer)

	// Claim 100 bytes but provide only 50
	var lengthBuf [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(lengthBuf[:], 100)
	buf.Write(lengthBuf[:])
	buf.Write(bytes.Repeat([]byte("x"), 50))

	reader := NewFrameReader(buf)
	_, err := reader.ReadFrame()
	if !errors.Is(err, ErrFrameTruncated) {
		t.Errorf("expected ErrFrameTruncated, got %v", err)
	}
}

func TestFrameReaderEOF(t *testing.T) {
	reader := NewFrameReader(bytes.NewBuffer(nil))

	_, err := reader.ReadFrame()
	if err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestFrameReaderMultipleFrames(t *testing.T) {
	buf := new(bytes.Buffer)
	writer := NewFrameWriter(buf)

	frames := [][]byte{
		[]byte("first"),
		[]byte("second"),
		[]byte("third"),
	}
	for _, f := range frames {
		if err := writer.WriteFrame(f); err != nil {
			t.Fatalf("WriteFrame failed: %v", err)
		}
	}

	reader := NewFrameReader(buf)
	for i, want := range frames {
		got, err := reader.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame %d failed: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("frame %d = %q, want %q", i, got, want)
		}
	}

	// Stream is drained
	if _, err := reader.ReadFrame(); err != io.EOF {
		t.Errorf("expected io.EOF after last frame, got %v", err)
	}
}

func TestFrameWriterConcurrent(t *testing.T) {
	// Frames from concurrent writers must never interleave.
	buf := new(bytes.Buffer)
	writer := NewFrameWriter(buf)

	var wg sync.WaitGroup
	const writers = 10
	const perWriter = 50

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(id byte) {
			defer wg.Done()
			payload := bytes.Repeat([]byte{id}, 32)
			for j := 0; j < perWriter; j++ {
				if err := writer.WriteFrame(payload); err != nil {
					t.Errorf("WriteFrame failed: %v", err)
					return
				}
			}
		}(byte(i + 1))
	}
	wg.Wait()

	reader := NewFrameReader(buf)
	for i := 0; i < writers*perWriter; i++ {
		frame, err := reader.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame %d failed: %v", i, err)
		}
		if len(frame) != 32 {
			t.Fatalf("frame %d length = %d, want 32", i, len(frame))
		}
		for _, b := range frame {
			if b != frame[0] {
				t.Fatalf("frame %d interleaved: %v", i, frame)
			}
		}
	}
}

func TestFramerRoundTrip(t *testing.T) {
	buf := new(bytes.Buffer)
	framer := NewFramer(buf)

	payload := []byte("round trip")
	if err := framer.WriteFrame(payload); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}
	got, err := framer.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload = %q, want %q", got, payload)
	}
}

func TestFrameSize(t *testing.T) {
	if got := FrameSize(100); got != 104 {
		t.Errorf("FrameSize(100) = %d, want 104", got)
	}
}
