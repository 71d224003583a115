package ring

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// Builder composes a ring file.  It exists for tests and for small tooling;
// production rings come out of swift-ring-builder.
type Builder struct {
	Devs             []*Device
	Replica2Part2Dev [][]uint16
	PartShift        uint
}

func (b *Builder) WriteTo(dst io.Writer) error {
	gz := gzip.NewWriter(dst)

	hdr, err := json.Marshal(ringHeader{
		Devs:         b.Devs,
		PartShift:    b.PartShift,
		ReplicaCount: len(b.Replica2Part2Dev),
	})
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	if _, err := gz.Write([]byte(ringMagic)); err != nil {
		return err
	}
	if err := binary.Write(gz, binary.BigEndian, uint16(ringVersion)); err != nil {
		return err
	}
	if err := binary.Write(gz, binary.BigEndian, uint32(len(hdr))); err != nil {
		return err
	}
	if _, err := gz.Write(hdr); err != nil {
		return err
	}

	buf := make([]byte, 2)
	for _, table := range b.Replica2Part2Dev {
		for _, id := range table {
			binary.LittleEndian.PutUint16(buf, id)
			if _, err := gz.Write(buf); err != nil {
				return err
			}
		}
	}
	return gz.Close()
}

func (b *Builder) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := b.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
