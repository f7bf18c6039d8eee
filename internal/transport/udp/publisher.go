// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"samplex/internal/log"
	"samplex/internal/transport"
)

/*
Spectrum packet (big endian):

	|<- 4 bytes ->|<-- 8 bytes -->|<- 2 bytes ->|<--- N * 4 bytes --->|
	+-------------+---------------+-------------+---------------------+
	|  sequence   |   timestamp   |    count    |        bins         |
	|  (uint32)   | (int64, ns)   |  (uint16)   |   (N * float32)     |
	+-------------+---------------+-------------+---------------------+

Bins are the normalized 0..1 spectrum, lowest frequency first. An empty
spectrum (silence, no track) is sent as count 0 so receivers clear.
*/

const headerSize = 4 + 8 + 2

// ErrShortPacket is returned by DecodePacket for truncated input.
var ErrShortPacket = errors.New("udp: short spectrum packet")

// Packet is a decoded spectrum datagram.
type Packet struct {
	Sequence  uint32
	Timestamp time.Time
	Bins      []float32
}

// Publisher is a transport that sends the spectrum of each payload as one
// datagram. Payloads without a spectrum are ignored.
type Publisher struct {
	sender *Sender

	mu       sync.Mutex
	sequence uint32
	packet   bytes.Buffer
	now      func() time.Time
}

// NewPublisher opens a sender to targetAddress.
func NewPublisher(targetAddress string) (*Publisher, error) {
	sender, err := NewSender(targetAddress)
	if err != nil {
		return nil, err
	}
	log.Infof("UDPPublisher: Publishing spectrum packets to %s", sender.target)
	return &Publisher{sender: sender, now: time.Now}, nil
}

func (p *Publisher) Send(data any) error {
	src, ok := data.(transport.SpectrumSource)
	if !ok {
		return nil
	}
	bins := src.SpectrumBins()
	if len(bins) > math.MaxUint16 {
		bins = bins[:math.MaxUint16]
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.sequence++
	p.packet.Reset()
	appendPacket(&p.packet, p.sequence, p.now(), bins)
	if err := p.sender.Send(p.packet.Bytes()); err != nil {
		log.Debugf("UDPPublisher: %v", err)
		return err
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.sender.Close()
}

func appendPacket(buf *bytes.Buffer, seq uint32, ts time.Time, bins []float32) {
	var header [headerSize]byte
	binary.BigEndian.PutUint32(header[0:], seq)
	binary.BigEndian.PutUint64(header[4:], uint64(ts.UnixNano()))
	binary.BigEndian.PutUint16(header[12:], uint16(len(bins)))
	buf.Write(header[:])

	var word [4]byte
	for _, b := range bins {
		binary.BigEndian.PutUint32(word[:], math.Float32bits(b))
		buf.Write(word[:])
	}
}

// DecodePacket parses a datagram produced by Publisher.
func DecodePacket(data []byte) (Packet, error) {
	if len(data) < headerSize {
		return Packet{}, ErrShortPacket
	}
	count := int(binary.BigEndian.Uint16(data[12:]))
	if len(data) < headerSize+count*4 {
		return Packet{}, fmt.Errorf("%w: %d bins declared, %d bytes", ErrShortPacket, count, len(data))
	}
	pkt := Packet{
		Sequence:  binary.BigEndian.Uint32(data[0:]),
		Timestamp: time.Unix(0, int64(binary.BigEndian.Uint64(data[4:]))),
		Bins:      make([]float32, count),
	}
	for i := range pkt.Bins {
		pkt.Bins[i] = math.Float32frombits(binary.BigEndian.Uint32(data[headerSize+i*4:]))
	}
	return pkt, nil
}

var _ transport.Transport = (*Publisher)(nil)
