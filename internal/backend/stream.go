// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// MaxFrameSize bounds a single line of the stream.
const MaxFrameSize = 1 << 20

// Frame is one decoded event from the chat stream. Exactly one field is
// normally set; a frame carrying both a chunk and done delivers the chunk
// first.
type Frame struct {
	Chunk string `json:"chunk,omitempty"`
	Done  bool   `json:"done,omitempty"`
	Error string `json:"error,omitempty"`
}

// FrameDecoder reads frames from a text/event-stream body.
//
// It buffers across reads, so a line split over any number of network
// chunks is reassembled before decoding. Lines may end in "\n" or "\r\n".
// Every data: line is its own frame, whether or not blank lines separate
// them; comment lines and other fields are ignored. A final line without a
// newline is still delivered at EOF.
type FrameDecoder struct {
	r   *bufio.Reader
	max int
}

// NewFrameDecoder wraps r.
func NewFrameDecoder(r io.Reader) *FrameDecoder {
	return &FrameDecoder{r: bufio.NewReader(r), max: MaxFrameSize}
}

// Next returns the next frame. It returns io.EOF after the last frame and a
// *MalformedFrameError for a payload that is not frame JSON; callers may
// keep reading after the latter.
func (d *FrameDecoder) Next() (Frame, error) {
	data, err := d.readData()
	if err != nil {
		return Frame{}, err
	}

	if bytes.Equal(data, []byte("[DONE]")) {
		return Frame{Done: true}, nil
	}

	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, &MalformedFrameError{Data: string(data), Err: err}
	}
	return f, nil
}

// readData returns the payload of the next non-empty data: line. Blank
// lines, comments and other fields are skipped.
func (d *FrameDecoder) readData() ([]byte, error) {
	for {
		line, err := d.readLine()
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		atEOF := errors.Is(err, io.EOF)

		line = bytes.TrimRight(line, "\r\n")
		if len(line) > 0 {
			if field, value, ok := cutField(line); ok && field == "data" && len(value) > 0 {
				return value, nil
			}
		}
		if atEOF {
			return nil, io.EOF
		}
	}
}

// readLine reads through the next '\n', enforcing the size limit. The
// returned line may be partial (no '\n') only together with io.EOF.
func (d *FrameDecoder) readLine() ([]byte, error) {
	var line []byte
	for {
		frag, err := d.r.ReadSlice('\n')
		if len(line)+len(frag) > d.max {
			return nil, ErrFrameTooLarge
		}
		line = append(line, frag...)
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return line, err
	}
}

// cutField splits "field: value". Comment lines (leading ':') report ok=false.
// A single space after the colon is part of the separator.
func cutField(line []byte) (string, []byte, bool) {
	if line[0] == ':' {
		return "", nil, false
	}
	field, value, found := bytes.Cut(line, []byte(":"))
	if !found {
		return string(line), nil, true
	}
	value = bytes.TrimPrefix(value, []byte(" "))
	return string(field), value, true
}
