package imgutil

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
)

// PNG color types as stored in the IHDR chunk.
const (
	PNGGray      = 0
	PNGTrueColor = 2
	PNGIndexed   = 3
	PNGGrayAlpha = 4
	PNGTrueAlpha = 6
)

// PNGInfo is what InspectPNG learns from the chunk stream without decoding
// pixel data.
type PNGInfo struct {
	Valid      bool
	Width      int
	Height     int
	BitDepth   int
	ColorType  int
	HasTRNS    bool
	TextChunks int
}

var errInvalidPNG = errors.New("invalid PNG signature")

// InspectPNG walks the chunks of a PNG stream from the start of rs.
// The reader is left at an unspecified offset.
func InspectPNG(rs io.ReadSeeker) (PNGInfo, error) {
	info := PNGInfo{}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return info, err
	}

	br := bufio.NewReader(rs)

	sig := make([]byte, len(pngSig))
	if _, err := io.ReadFull(br, sig); err != nil {
		return info, err
	}
	if !hasPrefix(sig, pngSig) {
		return info, errInvalidPNG
	}

	for {
		lenBuf := make([]byte, 4)
		if _, err := io.ReadFull(br, lenBuf); err != nil {
			if err == io.EOF {
				return info, nil
			}
			return info, err
		}
		length := binary.BigEndian.Uint32(lenBuf)

		chunkType := make([]byte, 4)
		if _, err := io.ReadFull(br, chunkType); err != nil {
			return info, err
		}
		chunkName := string(chunkType)

		switch chunkName {
		case "IHDR":
			data := make([]byte, length)
			if _, err := io.ReadFull(br, data); err != nil {
				return info, err
			}
			if _, err := io.CopyN(io.Discard, br, 4); err != nil {
				return info, err
			}
			if len(data) < 10 {
				return info, errors.New("short IHDR chunk")
			}
			info.Valid = true
			info.Width = int(binary.BigEndian.Uint32(data[0:4]))
			info.Height = int(binary.BigEndian.Uint32(data[4:8]))
			info.BitDepth = int(data[8])
			info.ColorType = int(data[9])
		case "tRNS":
			info.HasTRNS = true
			if _, err := io.CopyN(io.Discard, br, int64(length)+4); err != nil {
				return info, err
			}
		case "tEXt", "zTXt", "iTXt", "eXIf":
			info.TextChunks++
			if _, err := io.CopyN(io.Discard, br, int64(length)+4); err != nil {
				return info, err
			}
		default:
			if _, err := io.CopyN(io.Discard, br, int64(length)+4); err != nil {
				return info, err
			}
		}

		if chunkName == "IEND" {
			return info, nil
		}
	}
}
