// pictures_test.go

// Copyright (C) 2018  Steve Merrony

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package tello

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileSizePayload(fType FileType, fSize uint32, fID uint16) []byte {
	pl := make([]byte, 7)
	pl[0] = byte(fType)
	binary.LittleEndian.PutUint32(pl[1:], fSize)
	binary.LittleEndian.PutUint16(pl[5:], fID)
	return pl
}

func fileChunkPayload(fID uint16, pieceNum, chunkNum uint32, data []byte) []byte {
	pl := make([]byte, 12+len(data))
	binary.LittleEndian.PutUint16(pl[0:], fID)
	binary.LittleEndian.PutUint32(pl[2:], pieceNum)
	binary.LittleEndian.PutUint32(pl[6:], chunkNum)
	binary.LittleEndian.PutUint16(pl[10:], uint16(len(data)))
	copy(pl[12:], data)
	return pl
}

func TestFileReceive(t *testing.T) {
	drone := New()
	var received []FileData
	drone.Subscribe(FileReceivedEvent, func(ev Event) {
		if fd, ok := ev.Data.(FileData); ok {
			received = append(received, fd)
		}
	})

	drone.handleFileSize(fileSizePayload(FtJPEG, 6, 42))
	// chunks arrive out of order within the piece
	drone.handleFileSize(fileSizePayload(FtJPEG, 6, 42)) // announcement may repeat
	drone.handleFileChunk(fileChunkPayload(42, 0, 1, []byte{3, 4}))
	drone.handleFileChunk(fileChunkPayload(42, 0, 0, []byte{1, 2}))
	drone.handleFileChunk(fileChunkPayload(42, 0, 2, []byte{5, 6}))

	require.Len(t, received, 1)
	assert.Equal(t, FtJPEG, received[0].FileType)
	assert.Equal(t, 6, received[0].FileSize)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, received[0].FileBytes)
}

func TestFileReceiveDuplicateChunks(t *testing.T) {
	drone := New()
	var received []FileData
	drone.Subscribe(FileReceivedEvent, func(ev Event) {
		if fd, ok := ev.Data.(FileData); ok {
			received = append(received, fd)
		}
	})

	drone.handleFileSize(fileSizePayload(FtJPEG, 4, 7))
	drone.handleFileChunk(fileChunkPayload(7, 0, 0, []byte{1, 2}))
	// the drone re-sends a chunk we already have
	drone.handleFileChunk(fileChunkPayload(7, 0, 0, []byte{1, 2}))
	drone.handleFileChunk(fileChunkPayload(7, 0, 1, []byte{3, 4}))

	require.Len(t, received, 1)
	assert.Equal(t, []byte{1, 2, 3, 4}, received[0].FileBytes)
}

func TestFileReceiveIgnoresForeignChunks(t *testing.T) {
	drone := New()
	var received []FileData
	drone.Subscribe(FileReceivedEvent, func(ev Event) {
		if fd, ok := ev.Data.(FileData); ok {
			received = append(received, fd)
		}
	})

	drone.handleFileSize(fileSizePayload(FtJPEG, 2, 9))
	drone.handleFileChunk(fileChunkPayload(8, 0, 0, []byte{0xde, 0xad})) // wrong file ID
	assert.Empty(t, received)

	drone.handleFileChunk(fileChunkPayload(9, 0, 0, []byte{1, 2}))
	require.Len(t, received, 1)
	assert.Equal(t, []byte{1, 2}, received[0].FileBytes)
}

func TestFileReceiveRuntPayloadsIgnored(t *testing.T) {
	drone := New()
	drone.handleFileSize([]byte{1, 2, 3})
	drone.handleFileChunk([]byte{1, 2, 3, 4, 5})
	assert.Equal(t, uint16(0), drone.fileTemp.fID)
}
