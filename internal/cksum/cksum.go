// Package cksum computes the 32-bit CRC reported by the POSIX cksum utility.
//
// The algorithm is CRC-32 with polynomial 0x04C11DB7, processed MSB first
// from a zero register, followed by the input length encoded in as few
// little-endian bytes as needed, and a final complement. It is not the
// IEEE CRC from hash/crc32, which reflects its input.
package cksum

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

const poly = 0x04C11DB7

var table = makeTable()

func makeTable() *[256]uint32 {
	var t [256]uint32
	for i := range t {
		c := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if c&0x80000000 != 0 {
				c = c<<1 ^ poly
			} else {
				c <<= 1
			}
		}
		t[i] = c
	}
	return &t
}

// Digest accumulates a cksum CRC. The zero value is ready to use.
type Digest struct {
	crc uint32
	n   int64
}

// Write adds p to the running checksum. It never returns an error.
func (d *Digest) Write(p []byte) (int, error) {
	d.crc = update(d.crc, p)
	d.n += int64(len(p))
	return len(p), nil
}

// Sum32 returns the checksum of everything written so far.
func (d *Digest) Sum32() uint32 {
	crc := d.crc
	for n := d.n; n > 0; n >>= 8 {
		crc = crc<<8 ^ table[byte(crc>>24)^byte(n)]
	}
	return ^crc
}

// Len returns the number of bytes written.
func (d *Digest) Len() int64 {
	return d.n
}

func update(crc uint32, p []byte) uint32 {
	for _, b := range p {
		crc = crc<<8 ^ table[byte(crc>>24)^b]
	}
	return crc
}

// Bytes returns the cksum CRC of p.
func Bytes(p []byte) uint32 {
	var d Digest
	_, _ = d.Write(p)
	return d.Sum32()
}

// Sum reads r to EOF and returns its checksum and length.
func Sum(r io.Reader) (uint32, int64, error) {
	var d Digest
	if _, err := io.Copy(&d, bufio.NewReader(r)); err != nil {
		return 0, d.Len(), err
	}
	return d.Sum32(), d.Len(), nil
}

// File returns the checksum of the file at path.
func File(path string) (uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	sum, _, err := Sum(f)
	if err != nil {
		return 0, fmt.Errorf("failed to read file: %w", err)
	}
	return sum, nil
}
