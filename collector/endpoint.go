package collector

import (
	"net"
	"strconv"
)

// EndPoint is a structure that holds one side of an observed flow.
type EndPoint struct {
	IP   net.IP
	Port uint16
}

// NewEndPoint creates a new endpoint definition.
func NewEndPoint(ip net.IP, port uint16) *EndPoint {
	return &EndPoint{
		IP:   ip,
		Port: port,
	}
}

func (e *EndPoint) String() string {
	return e.IP.String() + ":" + strconv.Itoa(int(e.Port))
}
