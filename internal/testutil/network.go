// Package testutil provides network helpers for the package tests.
package testutil

import (
	"fmt"
	"net"
	"sync/atomic"
)

var portCounter int64 = 22000

// GetUDPPort returns a UDP port that was free when checked.
func GetUDPPort() (int, error) {
	basePort := atomic.AddInt64(&portCounter, 1)

	for i := 0; i < 100; i++ {
		port := int(basePort) + i
		if port > 65535 {
			port = 22000 + (port % 43535)
		}
		if isUDPPortAvailable(port) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available UDP ports found")
}

// GetUDPEndpoint returns a loopback host:port with an available UDP port.
func GetUDPEndpoint() (string, error) {
	port, err := GetUDPPort()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("127.0.0.1:%d", port), nil
}

func isUDPPortAvailable(port int) bool {
	conn, err := net.ListenPacket("udp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
