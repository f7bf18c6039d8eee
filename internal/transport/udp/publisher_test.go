// SPDX-License-Identifier: MIT
package udp

import (
	"errors"
	"net"
	"testing"
	"time"
)

type spectrum []float32

func (s spectrum) SpectrumBins() []float32 { return s }

func listen(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func receive(t *testing.T, conn *net.UDPConn) Packet {
	t.Helper()
	buf := make([]byte, 65536)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	pkt, err := DecodePacket(buf[:n])
	if err != nil {
		t.Fatalf("DecodePacket: %v", err)
	}
	return pkt
}

func TestPublisherSendsSpectrum(t *testing.T) {
	conn := listen(t)
	p, err := NewPublisher(conn.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	fixed := time.Unix(1700000000, 42)
	p.now = func() time.Time { return fixed }

	if err := p.Send(spectrum{0, 0.5, 1}); err != nil {
		t.Fatal(err)
	}
	pkt := receive(t, conn)
	if pkt.Sequence != 1 || !pkt.Timestamp.Equal(fixed) {
		t.Errorf("header = %d @ %v", pkt.Sequence, pkt.Timestamp)
	}
	if len(pkt.Bins) != 3 || pkt.Bins[1] != 0.5 || pkt.Bins[2] != 1 {
		t.Errorf("bins = %v", pkt.Bins)
	}

	// Payloads without a spectrum are skipped and do not use a sequence number.
	if err := p.Send("not a spectrum"); err != nil {
		t.Fatal(err)
	}
	p.Send(spectrum{})
	if pkt := receive(t, conn); pkt.Sequence != 2 || len(pkt.Bins) != 0 {
		t.Errorf("second packet = %+v, want sequence 2 with no bins", pkt)
	}
}

func TestPublisherClosed(t *testing.T) {
	conn := listen(t)
	p, err := NewPublisher(conn.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}
	p.Close()
	if err := p.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if err := p.Send(spectrum{1}); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after Close = %v, want ErrClosed", err)
	}
}

func TestDecodePacketTruncated(t *testing.T) {
	for _, data := range [][]byte{
		nil,
		make([]byte, headerSize-1),
		{0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 2, 0, 0, 0, 0}, // Declares 2 bins, carries 1.
	} {
		if _, err := DecodePacket(data); !errors.Is(err, ErrShortPacket) {
			t.Errorf("DecodePacket(%d bytes) = %v, want ErrShortPacket", len(data), err)
		}
	}
}

func TestNewSenderBadAddress(t *testing.T) {
	if _, err := NewSender("no-port"); err == nil {
		t.Error("expected a resolve error")
	}
}
