// Package ring reads serialized OpenStack Swift ring files: the consistent
// hashing assignment of partitions and replicas to storage devices.
package ring

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// Serialized ring layout, inside a gzip stream: 4 byte magic, big endian
// uint16 version, big endian uint32 header length, JSON header, then one
// little endian uint16 partition table per replica.
const (
	ringMagic   = "R1NG"
	ringVersion = 1
)

// Device is one entry in the ring's device table.  Entries can be nil for
// device ids that were removed from the cluster.
type Device struct {
	ID     int     `json:"id"`
	Device string  `json:"device"`
	IP     string  `json:"ip"`
	Port   int     `json:"port"`
	Region int     `json:"region"`
	Zone   int     `json:"zone"`
	Weight float64 `json:"weight"`
	Meta   string  `json:"meta"`
}

// Ring is an immutable snapshot of cluster placement.
type Ring struct {
	devs             []*Device
	replica2part2dev [][]uint16
	partShift        uint
}

type ringHeader struct {
	Devs         []*Device `json:"devs"`
	PartShift    uint      `json:"part_shift"`
	ReplicaCount int       `json:"replica_count"`
}

// Load reads a ring file.  The path must be a regular file; anything else is
// a configuration error.
func Load(path string) (*Ring, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("ring %s: %w", path, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("ring %s: not a regular file", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ring %s: %w", path, err)
	}
	defer f.Close()

	r, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("ring %s: %w", path, err)
	}
	return r, nil
}

func read(src io.Reader) (*Ring, error) {
	gz, err := gzip.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer gz.Close()

	magic := make([]byte, 4)
	if _, err := io.ReadFull(gz, magic); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if string(magic) != ringMagic {
		return nil, fmt.Errorf("bad magic %q", magic)
	}

	var version uint16
	if err := binary.Read(gz, binary.BigEndian, &version); err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if version != ringVersion {
		return nil, fmt.Errorf("unsupported ring version %d", version)
	}

	var hdrLen uint32
	if err := binary.Read(gz, binary.BigEndian, &hdrLen); err != nil {
		return nil, fmt.Errorf("read header length: %w", err)
	}

	hdrBytes := make([]byte, hdrLen)
	if _, err := io.ReadFull(gz, hdrBytes); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	var hdr ringHeader
	if err := json.Unmarshal(hdrBytes, &hdr); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	if hdr.PartShift > 31 {
		return nil, fmt.Errorf("invalid part_shift %d", hdr.PartShift)
	}
	if hdr.ReplicaCount <= 0 {
		return nil, fmt.Errorf("invalid replica_count %d", hdr.ReplicaCount)
	}

	partCount := 1 << (32 - hdr.PartShift)
	tables := make([][]uint16, hdr.ReplicaCount)
	buf := make([]byte, partCount*2)
	for replica := range tables {
		if _, err := io.ReadFull(gz, buf); err != nil {
			return nil, fmt.Errorf("read replica %d table: %w", replica, err)
		}
		table := make([]uint16, partCount)
		for i := range table {
			table[i] = binary.LittleEndian.Uint16(buf[i*2:])
		}
		tables[replica] = table
	}

	return &Ring{
		devs:             hdr.Devs,
		replica2part2dev: tables,
		partShift:        hdr.PartShift,
	}, nil
}

func (r *Ring) ReplicaCount() int { return len(r.replica2part2dev) }

func (r *Ring) PartitionCount() uint64 {
	if len(r.replica2part2dev) == 0 {
		return 0
	}
	return uint64(len(r.replica2part2dev[0]))
}

// Devs returns the device table.  Callers must not mutate it.
func (r *Ring) Devs() []*Device { return r.devs }

// Device resolves the device holding a replica of a partition.  ok is false
// when the table references a removed or unknown device id.
func (r *Ring) Device(replica int, partition uint64) (*Device, bool) {
	if replica < 0 || replica >= len(r.replica2part2dev) {
		return nil, false
	}
	table := r.replica2part2dev[replica]
	if partition >= uint64(len(table)) {
		return nil, false
	}
	id := int(table[partition])
	if id >= len(r.devs) || r.devs[id] == nil {
		return nil, false
	}
	return r.devs[id], true
}
