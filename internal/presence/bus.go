// Package presence sets and restores a chat client's "away" saved status over
// the D-Bus session bus.
package presence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
)

// Names of the chat client's remote object.
const (
	ServiceName = "im.pidgin.purple.PurpleService"
	ObjectPath  = dbus.ObjectPath("/im/pidgin/purple/PurpleObject")
	Interface   = "im.pidgin.purple.PurpleInterface"
)

// DefaultCallTimeout bounds every remote call.
const DefaultCallTimeout = 2 * time.Second

// ErrServiceUnavailable means the chat client is not on the bus.
var ErrServiceUnavailable = errors.New("presence service not available")

// Client is a handle on the chat client's saved statuses.
type Client interface {
	CurrentStatus() (int32, error)
	IdleAwayStatus() (int32, error)
	ActivateStatus(id int32) error
}

// Locator finds the chat client. Lookup fails with ErrServiceUnavailable
// when nothing owns the service name.
type Locator interface {
	Lookup() (Client, error)
}

// SessionBus locates the chat client on the user's session bus.
type SessionBus struct {
	connect func() (*dbus.Conn, error)
	timeout time.Duration
}

// NewSessionBus creates a locator using the shared session bus connection.
func NewSessionBus() *SessionBus {
	return &SessionBus{
		connect: dbus.SessionBus,
		timeout: DefaultCallTimeout,
	}
}

// Lookup implements Locator.
func (b *SessionBus) Lookup() (Client, error) {
	conn, err := b.connect()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	var hasOwner bool
	call := conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.NameHasOwner", 0, ServiceName)
	if err := call.Store(&hasOwner); err != nil {
		return nil, fmt.Errorf("name has owner call: %w", err)
	}
	if !hasOwner {
		return nil, ErrServiceUnavailable
	}

	return &busClient{
		obj:     conn.Object(ServiceName, ObjectPath),
		timeout: b.timeout,
	}, nil
}

type busClient struct {
	obj     dbus.BusObject
	timeout time.Duration
}

func (c *busClient) CurrentStatus() (int32, error) {
	return c.callStatus("PurpleSavedstatusGetCurrent")
}

func (c *busClient) IdleAwayStatus() (int32, error) {
	return c.callStatus("PurpleSavedstatusGetIdleaway")
}

func (c *busClient) ActivateStatus(id int32) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	call := c.obj.CallWithContext(ctx, Interface+".PurpleSavedstatusActivate", 0, id)
	if call.Err != nil {
		return fmt.Errorf("activate saved status %d: %w", id, call.Err)
	}
	return nil
}

func (c *busClient) callStatus(method string) (int32, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	var id int32
	if err := c.obj.CallWithContext(ctx, Interface+"."+method, 0).Store(&id); err != nil {
		return 0, fmt.Errorf("%s call: %w", method, err)
	}
	return id, nil
}

var _ Locator = (*SessionBus)(nil)
