// Package codec converts finalized PCM recordings to the text-safe payload
// stored on each diary entry, and back.
//
// The stored form is base64 over a standard RIFF/WAVE container, so a payload
// is self-contained: decoding it yields a playable file byte-identical to the
// one produced at capture time, which is what the download export hands out.
package codec

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/heardiary/heardiary/pkg/audio"
)

// wavHeaderSize is the byte length of the RIFF/WAVE header this package
// writes: RIFF descriptor (12) + fmt chunk (24) + data chunk header (8).
const wavHeaderSize = 44

// EncodeWAV wraps raw int16 little-endian PCM in a WAVE container.
func EncodeWAV(pcm []byte, format audio.Format) []byte {
	out := make([]byte, wavHeaderSize+len(pcm))

	byteRate := format.SampleRate * format.Channels * 2
	blockAlign := format.Channels * 2

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:24], uint16(format.Channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(format.SampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], 16) // bits per sample

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[44:], pcm)

	return out
}

// DecodeWAV extracts the PCM data and format from a RIFF/WAVE container.
// It walks the chunk list rather than assuming a fixed header layout, so
// containers with extra chunks (LIST, INFO, …) decode correctly.
func DecodeWAV(wav []byte) ([]byte, audio.Format, error) {
	if len(wav) < 12 {
		return nil, audio.Format{}, errors.New("codec: too short to be a RIFF file")
	}
	if string(wav[0:4]) != "RIFF" {
		return nil, audio.Format{}, errors.New("codec: missing RIFF header")
	}
	if string(wav[8:12]) != "WAVE" {
		return nil, audio.Format{}, errors.New("codec: missing WAVE identifier")
	}

	var format audio.Format
	foundFmt := false

	// Walk RIFF chunks starting immediately after the 12-byte RIFF/WAVE header.
	offset := 12
	for offset+8 <= len(wav) {
		chunkID := string(wav[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(wav[offset+4 : offset+8]))

		switch chunkID {
		case "fmt ":
			if chunkSize >= 16 && offset+8+16 <= len(wav) {
				fmtData := wav[offset+8:]
				format.Channels = int(binary.LittleEndian.Uint16(fmtData[2:4]))
				format.SampleRate = int(binary.LittleEndian.Uint32(fmtData[4:8]))
				foundFmt = true
			}
		case "data":
			if !foundFmt {
				return nil, audio.Format{}, errors.New("codec: data chunk before fmt chunk")
			}
			end := offset + 8 + chunkSize
			if end > len(wav) {
				end = len(wav)
			}
			return wav[offset+8 : end], format, nil
		}

		// Chunks are word-aligned: pad by one byte when the size is odd.
		offset += 8 + chunkSize
		if chunkSize%2 != 0 {
			offset++
		}
	}

	return nil, audio.Format{}, errors.New("codec: no data chunk found")
}

// EncodePayload produces the text-safe stored form of a recording.
func EncodePayload(pcm []byte, format audio.Format) string {
	return base64.StdEncoding.EncodeToString(EncodeWAV(pcm, format))
}

// DecodePayload reverses [EncodePayload], returning the PCM data and format.
func DecodePayload(payload string) ([]byte, audio.Format, error) {
	wav, err := PayloadBytes(payload)
	if err != nil {
		return nil, audio.Format{}, err
	}
	return DecodeWAV(wav)
}

// PayloadBytes decodes a stored payload to the raw WAVE container bytes,
// byte-identical to the encoding produced at capture time.
func PayloadBytes(payload string) ([]byte, error) {
	wav, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("codec: decode payload: %w", err)
	}
	return wav, nil
}
