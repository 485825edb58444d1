package genie

import (
	"errors"
	"io"
	"net"
	"net/url"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tarm/serial"
)

// Transport is the byte link to the display. Read must not block longer than a
// short poll slice: when nothing arrived it returns 0, nil.
type Transport interface {
	io.ReadWriteCloser
	// Flush discards unread input
	Flush() error
}

// pollSlice bounds a single blocking read on a transport
const pollSlice = 100 * time.Millisecond

// baudRates are the line speeds the display firmware can be configured for
var baudRates = map[int]bool{
	50: true, 75: true, 110: true, 134: true, 150: true, 200: true, 300: true,
	600: true, 1200: true, 1800: true, 2400: true, 4800: true, 9600: true,
	19200: true, 38400: true, 57600: true, 115200: true, 230400: true,
}

type serialTransport struct {
	port *serial.Port
}

// OpenSerial opens a serial device in raw 8N1 mode at the given speed
func OpenSerial(name string, baud int) (Transport, error) {
	if !baudRates[baud] {
		return nil, &TransportError{Op: "open", Link: name, Err: ErrBaudRate}
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        baud,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: pollSlice,
	})
	if err != nil {
		return nil, &TransportError{Op: "open", Link: name, Err: err}
	}
	return &serialTransport{port: port}, nil
}

func (s *serialTransport) Read(b []byte) (int, error) {
	n, err := s.port.Read(b)
	if n == 0 && errors.Is(err, io.EOF) {
		// VTIME expired without data
		return 0, nil
	}
	return n, err
}

func (s *serialTransport) Write(b []byte) (int, error) { return s.port.Write(b) }
func (s *serialTransport) Flush() error                { return s.port.Flush() }
func (s *serialTransport) Close() error                { return s.port.Close() }

type tcpTransport struct {
	conn net.Conn
}

// DialTCP connects to a display exposed through a serial-to-network bridge
func DialTCP(addr string) (Transport, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, &TransportError{Op: "dial", Link: addr, Err: err}
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		tc.SetKeepAlive(true)
		tc.SetKeepAlivePeriod(30 * time.Second)
		tc.SetNoDelay(true)
	}
	return &tcpTransport{conn: conn}, nil
}

func (t *tcpTransport) Read(b []byte) (int, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(pollSlice)); err != nil {
		return 0, err
	}
	n, err := t.conn.Read(b)
	if err != nil && errors.Is(err, os.ErrDeadlineExceeded) {
		return n, nil
	}
	return n, err
}

func (t *tcpTransport) Write(b []byte) (int, error) { return t.conn.Write(b) }
func (t *tcpTransport) Close() error                { return t.conn.Close() }

func (t *tcpTransport) Flush() error {
	b := make([]byte, 256)
	for {
		if err := t.conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
			return err
		}
		n, err := t.conn.Read(b)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return nil
			}
			return err
		}
		log.Debugf("Flush discarded b='% x'", b[:n])
	}
}

// OpenLink opens the transport named by link: socket://host:port or tcp://host:port
// for a network bridge, file:///dev/tty... or a plain device path for a serial port.
func OpenLink(link string, baud int) (Transport, error) {
	u, err := url.Parse(link)
	if err != nil {
		return nil, &TransportError{Op: "parse", Link: link, Err: err}
	}
	switch u.Scheme {
	case "socket", "tcp":
		return DialTCP(u.Host)
	case "file", "":
		return OpenSerial(u.Path, baud)
	}
	return nil, &TransportError{Op: "open", Link: link, Err: ErrBadLink}
}
