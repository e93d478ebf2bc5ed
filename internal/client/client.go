// Package client sends requests to a spotd datagram server.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/mikey-austin/spotctl/pkg/np"
)

// ErrTimeout is returned when no reply arrives in time.
var ErrTimeout = errors.New("timeout waiting for reply")

// Client talks to one server address.
type Client struct {
	addr    string
	timeout time.Duration
}

// New creates a client. timeout bounds replies when ctx has no deadline.
func New(addr string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{addr: DialAddr(addr), timeout: timeout}
}

// Addr returns the address requests are sent to.
func (c *Client) Addr() string {
	return c.addr
}

// Send delivers a command without waiting for a reply.
func (c *Client) Send(ctx context.Context, cmd string) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	if _, err := conn.Write([]byte(cmd)); err != nil {
		return fmt.Errorf("send %q: %w", cmd, err)
	}
	return nil
}

// CurrentTrack asks for the now-playing snapshot.
func (c *Client) CurrentTrack(ctx context.Context) (np.Track, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return np.Track{}, err
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return np.Track{}, err
	}
	if _, err := conn.Write([]byte(np.CmdCurrentTrack)); err != nil {
		return np.Track{}, fmt.Errorf("send %q: %w", np.CmdCurrentTrack, err)
	}

	buf := make([]byte, 64*1024)
	n, err := conn.Read(buf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return np.Track{}, ErrTimeout
		}
		return np.Track{}, err
	}
	track, err := np.Decode(buf[:n])
	if err != nil {
		return np.Track{}, fmt.Errorf("invalid reply: %w", err)
	}
	return track, nil
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.addr, err)
	}
	return conn, nil
}

// DialAddr turns a listen address into one a client can reach.
func DialAddr(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
