// Package ssdp answers UPnP discovery searches so the controller shows up
// on the local network.
package ssdp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"led-json-bridge/internal/logging"
)

const (
	multicastAddr = "239.255.255.250:1900"
	readBuffer    = 1024
	searchTarget  = "urn:schemas-upnp-org:device:basic:1"
)

type Server struct {
	ip     string
	port   int
	uuid   string
	logger *logging.Logger
}

func NewServer(ip string, port int, uuid string, logger *logging.Logger) *Server {
	return &Server{
		ip:     ip,
		port:   port,
		uuid:   uuid,
		logger: logger.With("component", "ssdp"),
	}
}

// Start answers searches until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp4", multicastAddr)
	if err != nil {
		return err
	}

	conn, err := net.ListenMulticastUDP("udp4", nil, addr)
	if err != nil {
		return fmt.Errorf("ssdp listen: %w", err)
	}
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	s.logger.Info("answering discovery", "location", s.location())

	buf := make([]byte, readBuffer)
	for {
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			continue
		}
		if !wantsReply(string(buf[:n])) {
			continue
		}
		if err := s.respond(src); err != nil {
			s.logger.Debug("ssdp reply failed", "to", src.String(), "error", err)
		}
	}
}

// wantsReply reports whether msg is a search we answer. Echo devices search
// for the basic device type or upnp:rootdevice.
func wantsReply(msg string) bool {
	if !strings.Contains(msg, "M-SEARCH") {
		return false
	}
	lower := strings.ToLower(msg)
	return strings.Contains(lower, searchTarget) ||
		strings.Contains(lower, "upnp:rootdevice") ||
		strings.Contains(lower, "ssdp:all")
}

func (s *Server) respond(dest *net.UDPAddr) error {
	conn, err := net.DialUDP("udp4", nil, dest)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Write([]byte(s.response()))
	return err
}

func (s *Server) location() string {
	return fmt.Sprintf("http://%s/description.xml", net.JoinHostPort(s.ip, strconv.Itoa(s.port)))
}

func (s *Server) response() string {
	return "HTTP/1.1 200 OK\r\n" +
		"CACHE-CONTROL: max-age=100\r\n" +
		"EXT:\r\n" +
		"LOCATION: " + s.location() + "\r\n" +
		"SERVER: Linux/3.14, UPnP/1.0, ledbridge/1.0\r\n" +
		"ST: " + searchTarget + "\r\n" +
		"USN: uuid:" + s.uuid + "::" + searchTarget + "\r\n\r\n"
}
