// pictures.go - receiving chunked files (JPEG snapshots) from the drone

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

import "sort"

const chunksPerPiece = 8

// TakePicture requests the Tello to take a JPEG snapshot. The resulting
// file arrives in chunks on the control channel and is delivered via a
// FileReceivedEvent; writing it anywhere is the subscriber's concern.
func (tello *Tello) TakePicture() error {
	return tello.sendCommand(ptSet, msgDoTakePic, nil, true)
}

// handleFileSize begins a file transfer announced by the drone.
func (tello *Tello) handleFileSize(pl []byte) {
	if len(pl) < 7 {
		return
	}
	fType, fSize, fID := payloadToFileInfo(pl)
	tello.fileTemp = fileInternal{
		fID:          fID,
		filetype:     fType,
		expectedSize: int(fSize),
	}
	tello.sendFileSizeAck()
}

// handleFileChunk accepts one chunk of an in-progress transfer, acking
// each completed piece and finishing the file when all bytes are in.
func (tello *Tello) handleFileChunk(pl []byte) {
	if len(pl) < 13 {
		return
	}
	fc := payloadToFileChunk(pl)
	if fc.fID != tello.fileTemp.fID {
		return
	}

	for int(fc.pieceNum) >= len(tello.fileTemp.pieces) {
		tello.fileTemp.pieces = append(tello.fileTemp.pieces, filePiece{fID: fc.fID})
	}
	piece := &tello.fileTemp.pieces[fc.pieceNum]
	if piece.numChunks < chunksPerPiece {
		// only store the chunk if we don't have it already
		stored := false
		for _, c := range piece.chunks {
			if c.chunkNum == fc.chunkNum {
				stored = true
				break
			}
		}
		if !stored {
			data := make([]byte, fc.chunkLen)
			copy(data, fc.chunkData[:fc.chunkLen])
			fc.chunkData = data
			piece.chunks = append(piece.chunks, fc)
			piece.numChunks++
			tello.fileTemp.accumSize += int(fc.chunkLen)
		}
	}
	if piece.numChunks == chunksPerPiece {
		// this piece is complete, ack it to stop the drone re-sending it
		tello.sendFileAckPiece(0, fc.fID, fc.pieceNum)
	}
	if tello.fileTemp.accumSize >= tello.fileTemp.expectedSize {
		tello.sendFileAckPiece(1, fc.fID, fc.pieceNum)
		tello.sendFileDone(fc.fID, tello.fileTemp.accumSize)
		tello.reassembleFile()
	}
}

// reassembleFile turns the chunked tello.fileTemp into a contiguous byte
// array and publishes it as a FileReceivedEvent.
func (tello *Tello) reassembleFile() {
	var fd FileData
	fd.FileType = tello.fileTemp.filetype
	fd.FileSize = tello.fileTemp.accumSize
	// we expect the pieces to be in order, the chunks may not be
	for _, p := range tello.fileTemp.pieces {
		if p.numChunks > 1 {
			sort.Slice(p.chunks, func(i, j int) bool {
				return p.chunks[i].chunkNum < p.chunks[j].chunkNum
			})
		}
		for _, c := range p.chunks {
			fd.FileBytes = append(fd.FileBytes, c.chunkData...)
		}
	}
	tello.fileTemp = fileInternal{}
	tello.events.publish(tello.logger, FileReceivedEvent, fd)
}

func (tello *Tello) sendFileSizeAck() {
	tello.ctrlMu.Lock()
	defer tello.ctrlMu.Unlock()
	tello.ctrlSeq++
	tello.writeLocked(packetToBuffer(newPacket(ptData1, msgFileSize, tello.ctrlSeq, 1)))
}

func (tello *Tello) sendFileAckPiece(done byte, fID uint16, pieceNum uint32) {
	tello.ctrlMu.Lock()
	defer tello.ctrlMu.Unlock()
	tello.ctrlSeq++
	pkt := newPacket(ptData1, msgFileData, tello.ctrlSeq, 7)
	pkt.payload[0] = done
	pkt.payload[1] = byte(fID)
	pkt.payload[2] = byte(fID >> 8)
	pkt.payload[3] = byte(pieceNum)
	pkt.payload[4] = byte(pieceNum >> 8)
	pkt.payload[5] = byte(pieceNum >> 16)
	pkt.payload[6] = byte(pieceNum >> 24)
	tello.writeLocked(packetToBuffer(pkt))
}

func (tello *Tello) sendFileDone(fID uint16, size int) {
	tello.ctrlMu.Lock()
	defer tello.ctrlMu.Unlock()
	tello.ctrlSeq++
	pkt := newPacket(ptGet, msgFileDone, tello.ctrlSeq, 6)
	pkt.payload[0] = byte(fID)
	pkt.payload[1] = byte(fID >> 8)
	pkt.payload[2] = byte(size)
	pkt.payload[3] = byte(size >> 8)
	pkt.payload[4] = byte(size >> 16)
	pkt.payload[5] = byte(size >> 24)
	tello.writeLocked(packetToBuffer(pkt))
}
