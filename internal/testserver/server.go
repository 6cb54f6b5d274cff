// Package testserver provides a scriptable in-process INDI server for
// exercising the client over real connections.
//
// A Server announces a registered set of property definitions,
// acknowledges new*Vector commands by applying the requested values
// and echoing the matching set*Vector, and records every command it
// receives. Acknowledgement behavior is configurable per property: an
// extra Busy phase, a delay before the final Ok, or an Alert
// rejection. Tests can also inject arbitrary commands mid-session to
// simulate unsolicited update traffic.
package testserver

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/twinkle-astronomy/indi-go/pkg/wire"
)

// Behavior adjusts how the server acknowledges new*Vector commands
// addressed to one property.
type Behavior struct {
	// Delay postpones the final Ok echo.
	Delay time.Duration

	// Busy emits a Busy set*Vector before the Ok one.
	Busy bool

	// Alert rejects the command: the stored values stay unchanged and
	// the echo carries an Alert state.
	Alert bool
}

// Server is a scriptable INDI server bound to a loopback port.
//
// Definitions registered with Define are announced in answer to
// getProperties, respecting its device and name filters. Incoming
// new*Vector commands are applied to the stored definitions and
// echoed to every connected client as set*Vector commands, subject to
// the property's Behavior. Commands addressed to unknown properties
// are recorded and otherwise dropped.
type Server struct {
	listener net.Listener
	running  atomic.Bool
	wg       sync.WaitGroup

	mu        sync.Mutex
	defs      []wire.Command
	behaviors map[string]Behavior
	received  []wire.Command
	conns     map[net.Conn]*wire.Encoder
}

// New creates a stopped server with no definitions.
func New() *Server {
	return &Server{
		behaviors: make(map[string]Behavior),
		conns:     make(map[net.Conn]*wire.Encoder),
	}
}

// Define registers definitions to announce on getProperties. The
// server owns the commands afterwards: acknowledged new*Vector values
// are written back into them.
func (s *Server) Define(defs ...wire.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defs = append(s.defs, defs...)
}

// SetBehavior configures the acknowledgement of new*Vector commands
// addressed to the named property of device.
func (s *Server) SetBehavior(device, name string, b Behavior) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.behaviors[device+"."+name] = b
}

// Start binds a loopback listener and begins accepting connections.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("testserver: listen: %w", err)
	}
	s.listener = listener
	s.running.Store(true)
	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Addr returns the host:port the server listens on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Stop closes the listener and every connection and waits for the
// session goroutines to finish.
func (s *Server) Stop() {
	if !s.running.Swap(false) {
		return
	}
	s.listener.Close()
	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// ConnectionCount reports the number of live connections.
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Received returns a copy of every command decoded so far, in arrival
// order across all connections.
func (s *Server) Received() []wire.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]wire.Command, len(s.received))
	copy(out, s.received)
	return out
}

// Broadcast sends a command to every connection, bypassing the
// script. Tests use it to inject set*Vector updates and message
// commands; stored definitions are not consulted or changed.
func (s *Server) Broadcast(cmd wire.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcastLocked(cmd)
}

// Remove deletes a stored definition and broadcasts the matching
// delProperty so connected clients drop it too.
func (s *Server) Remove(device, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.defs[:0]
	for _, def := range s.defs {
		d, n, ok := identity(def)
		if ok && d == device && n == name {
			continue
		}
		kept = append(kept, def)
	}
	s.defs = kept
	propName := name
	s.broadcastLocked(&wire.DelProperty{Device: device, Name: &propName, Timestamp: stamp()})
}

// RemoveDevice deletes every definition of the device and broadcasts
// a device-wide delProperty.
func (s *Server) RemoveDevice(device string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.defs[:0]
	for _, def := range s.defs {
		d, _, ok := identity(def)
		if ok && d == device {
			continue
		}
		kept = append(kept, def)
	}
	s.defs = kept
	s.broadcastLocked(&wire.DelProperty{Device: device, Timestamp: stamp()})
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			continue
		}
		s.mu.Lock()
		s.conns[conn] = wire.NewEncoder(conn)
		s.mu.Unlock()
		s.wg.Add(1)
		go s.serve(conn)
	}
}

// serve decodes commands from one connection until the peer hangs up,
// a frame fails to decode, or the server stops.
func (s *Server) serve(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	dec := wire.NewDecoder(conn)
	for {
		cmd, err := dec.Next()
		if err != nil {
			return
		}
		s.handle(conn, cmd)
	}
}

func (s *Server) handle(conn net.Conn, cmd wire.Command) {
	s.mu.Lock()
	s.received = append(s.received, cmd)
	s.mu.Unlock()

	switch c := cmd.(type) {
	case *wire.GetProperties:
		s.sendDefs(conn, c)
	case *wire.NewSwitchVector:
		s.acknowledge(c.Device, c.Name,
			func() {
				if def, ok := s.findLocked(c.Device, c.Name).(*wire.DefSwitchVector); ok {
					applySwitches(def, c.Switches)
				}
			},
			func(state wire.PropertyState) wire.Command {
				def, ok := s.findLocked(c.Device, c.Name).(*wire.DefSwitchVector)
				if !ok {
					return nil
				}
				return switchEcho(def, state)
			})
	case *wire.NewNumberVector:
		s.acknowledge(c.Device, c.Name,
			func() {
				if def, ok := s.findLocked(c.Device, c.Name).(*wire.DefNumberVector); ok {
					applyNumbers(def, c.Numbers)
				}
			},
			func(state wire.PropertyState) wire.Command {
				def, ok := s.findLocked(c.Device, c.Name).(*wire.DefNumberVector)
				if !ok {
					return nil
				}
				return numberEcho(def, state)
			})
	case *wire.NewTextVector:
		s.acknowledge(c.Device, c.Name,
			func() {
				if def, ok := s.findLocked(c.Device, c.Name).(*wire.DefTextVector); ok {
					applyTexts(def, c.Texts)
				}
			},
			func(state wire.PropertyState) wire.Command {
				def, ok := s.findLocked(c.Device, c.Name).(*wire.DefTextVector)
				if !ok {
					return nil
				}
				return textEcho(def, state)
			})
	case *wire.NewBlobVector:
		// BLOB definitions carry no values to apply; the uploaded
		// payloads are echoed back as-is.
		s.acknowledge(c.Device, c.Name,
			func() {},
			func(state wire.PropertyState) wire.Command {
				if _, ok := s.findLocked(c.Device, c.Name).(*wire.DefBlobVector); !ok {
					return nil
				}
				return &wire.SetBlobVector{
					Device:    c.Device,
					Name:      c.Name,
					State:     state,
					Timestamp: stamp(),
					Blobs:     c.Blobs,
				}
			})
	default:
		// enableBlob and any other client-side elements are recorded
		// only.
	}
}

// acknowledge runs the scripted response for one new*Vector: an Alert
// rejection, or apply followed by an optional Busy echo, an optional
// delay, and the final Ok echo. A nil command from echo means the
// property is unknown and nothing is sent.
func (s *Server) acknowledge(device, name string, apply func(), echo func(wire.PropertyState) wire.Command) {
	s.mu.Lock()
	b := s.behaviors[device+"."+name]
	if b.Alert {
		if cmd := echo(wire.StateAlert); cmd != nil {
			s.broadcastLocked(cmd)
		}
		s.mu.Unlock()
		return
	}
	apply()
	if b.Busy {
		if cmd := echo(wire.StateBusy); cmd != nil {
			s.broadcastLocked(cmd)
		}
	}
	s.mu.Unlock()

	if b.Delay > 0 {
		time.Sleep(b.Delay)
	}

	s.mu.Lock()
	if cmd := echo(wire.StateOk); cmd != nil {
		s.broadcastLocked(cmd)
	}
	s.mu.Unlock()
}

// sendDefs answers getProperties with the matching definitions, on
// the requesting connection only.
func (s *Server) sendDefs(conn net.Conn, c *wire.GetProperties) {
	s.mu.Lock()
	defer s.mu.Unlock()
	enc := s.conns[conn]
	if enc == nil {
		return
	}
	for _, def := range s.defs {
		device, name, ok := identity(def)
		if !ok {
			continue
		}
		if c.Device != nil && *c.Device != device {
			continue
		}
		if c.Name != nil && *c.Name != name {
			continue
		}
		if err := enc.Encode(def); err != nil {
			return
		}
	}
}

func (s *Server) broadcastLocked(cmd wire.Command) {
	for conn, enc := range s.conns {
		if err := enc.Encode(cmd); err != nil {
			conn.Close()
			delete(s.conns, conn)
		}
	}
}

func (s *Server) findLocked(device, name string) wire.Command {
	for _, def := range s.defs {
		d, n, ok := identity(def)
		if ok && d == device && n == name {
			return def
		}
	}
	return nil
}

// identity extracts the device and property name from a definition
// command. Non-definition commands report ok false.
func identity(cmd wire.Command) (device, name string, ok bool) {
	switch c := cmd.(type) {
	case *wire.DefTextVector:
		return c.Device, c.Name, true
	case *wire.DefNumberVector:
		return c.Device, c.Name, true
	case *wire.DefSwitchVector:
		return c.Device, c.Name, true
	case *wire.DefLightVector:
		return c.Device, c.Name, true
	case *wire.DefBlobVector:
		return c.Device, c.Name, true
	}
	return "", "", false
}

// applySwitches writes the requested positions into the definition,
// clearing every other item first when the rule allows at most one
// switch on.
func applySwitches(def *wire.DefSwitchVector, items []wire.OneSwitch) {
	exclusive := def.Rule == wire.RuleOneOfMany || def.Rule == wire.RuleAtMostOne
	for _, in := range items {
		if exclusive && in.Value == wire.SwitchOn {
			for i := range def.Switches {
				def.Switches[i].Value = wire.SwitchOff
			}
		}
		for i := range def.Switches {
			if def.Switches[i].Name == in.Name {
				def.Switches[i].Value = in.Value
			}
		}
	}
}

func applyNumbers(def *wire.DefNumberVector, items []wire.OneNumber) {
	for _, in := range items {
		for i := range def.Numbers {
			if def.Numbers[i].Name == in.Name {
				def.Numbers[i].Value = in.Value
			}
		}
	}
}

func applyTexts(def *wire.DefTextVector, items []wire.OneText) {
	for _, in := range items {
		for i := range def.Texts {
			if def.Texts[i].Name == in.Name {
				def.Texts[i].Value = in.Value
			}
		}
	}
}

func switchEcho(def *wire.DefSwitchVector, state wire.PropertyState) *wire.SetSwitchVector {
	out := &wire.SetSwitchVector{Device: def.Device, Name: def.Name, State: state, Timestamp: stamp()}
	for _, item := range def.Switches {
		out.Switches = append(out.Switches, wire.OneSwitch{Name: item.Name, Value: item.Value})
	}
	return out
}

func numberEcho(def *wire.DefNumberVector, state wire.PropertyState) *wire.SetNumberVector {
	out := &wire.SetNumberVector{Device: def.Device, Name: def.Name, State: state, Timestamp: stamp()}
	for _, item := range def.Numbers {
		out.Numbers = append(out.Numbers, wire.SetOneNumber{Name: item.Name, Value: item.Value})
	}
	return out
}

func textEcho(def *wire.DefTextVector, state wire.PropertyState) *wire.SetTextVector {
	out := &wire.SetTextVector{Device: def.Device, Name: def.Name, State: state, Timestamp: stamp()}
	for _, item := range def.Texts {
		out.Texts = append(out.Texts, wire.OneText{Name: item.Name, Value: item.Value})
	}
	return out
}

func stamp() *wire.Timestamp {
	ts := wire.NewTimestamp(time.Now())
	return &ts
}
