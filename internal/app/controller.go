// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"

	"github.com/relabs-tech/guitar_controller/internal/hid"
	"github.com/relabs-tech/guitar_controller/internal/imu"
	"github.com/relabs-tech/guitar_controller/internal/input"
	"github.com/relabs-tech/guitar_controller/internal/neck"
	"github.com/relabs-tech/guitar_controller/internal/orientation"
	"github.com/relabs-tech/guitar_controller/internal/sensors"
	"github.com/relabs-tech/guitar_controller/internal/telemetry"
)

// State is the controller's lifecycle state.
type State int

const (
	Uninitialized State = iota
	Initializing
	Operational
	OTA
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Operational:
		return "operational"
	case OTA:
		return "ota"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// OTAGesture is how many physical buttons must be held during a boot tick to
// enter update mode.
const OTAGesture = 3

// stateHeartbeat bounds how long observers go without a snapshot.
const stateHeartbeat = time.Second

// Device interfaces, satisfied by the sensors package and by test fakes.
type (
	NeckSensor interface {
		Init() error
		Poll() (neck.Frame, error)
	}
	InertialSensor interface {
		Init() error
		Read() (imu.Sample, error)
	}
	ButtonReader interface {
		Read() []gpio.Level
		PressedCount() int
	}
	TiltSensor interface {
		Pressed() bool
	}
	WhammySensor interface {
		Read() (int, error)
	}
	Indicator interface {
		Set(on bool) error
	}
)

// UpdateChannel runs the network update mode. It only returns when the
// process has to restart or ctx is done.
type UpdateChannel interface {
	Run(ctx context.Context) error
}

// Observer receives state snapshots. Observe is called on the controller's
// goroutine and must not block.
type Observer interface {
	Observe(telemetry.State)
}

// Clock abstracts time for the controller.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) Sleep(d time.Duration)                  { time.Sleep(d) }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Devices are the inputs the controller polls. IMU, Tilt and LED are nil
// when the feature is disabled.
type Devices struct {
	Neck    NeckSensor
	IMU     InertialSensor
	Buttons ButtonReader
	Tilt    TiltSensor
	Whammy  WhammySensor
	LED     Indicator
}

// Options tune the controller.
type Options struct {
	NumButtons        int
	Threshold         float64 // pitch change per cycle, degrees
	WhammySamples     int
	WhammySampleDelay time.Duration
	WhammyRawMax      int
	PollInterval      time.Duration
	InitRetryInterval time.Duration
	Verbose           bool
	DiagnosticEvery   int
}

// Controller is the report scheduler: it boots the sensors, polls them, and
// sends a HID report whenever a button changes.
type Controller struct {
	dev    Devices
	pad    hid.Gamepad
	update UpdateChannel
	opts   Options
	clock  Clock

	observers []Observer

	state   State
	agg     *input.Aggregator
	decoder neck.Decoder
	filter  orientation.Filter

	lastIMU   time.Time
	lastPitch float64
	whammy    int16
	frame     neck.Frame
	frets     neck.Frets
	cycle     uint64
	published time.Time
	unsent    bool // last report failed, the host is behind
}

// NewController validates the devices and returns a controller in the
// Uninitialized state.
func NewController(dev Devices, pad hid.Gamepad, update UpdateChannel, opts Options) (*Controller, error) {
	if dev.Neck == nil || dev.Buttons == nil || dev.Whammy == nil {
		return nil, fmt.Errorf("app: neck, buttons and whammy are required")
	}
	if pad == nil {
		return nil, fmt.Errorf("app: gamepad is required")
	}
	agg, err := input.NewAggregator(opts.NumButtons)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		dev:    dev,
		pad:    pad,
		update: update,
		opts:   opts,
		clock:  realClock{},
		agg:    agg,
	}
	c.decoder.OnUnrecognized = func(code byte) {
		log.Debugf("neck: unrecognized pad code 0x%02X", code)
	}
	return c, nil
}

// AddObserver registers an observer for state snapshots.
func (c *Controller) AddObserver(o Observer) {
	c.observers = append(c.observers, o)
}

// State returns the current lifecycle state.
func (c *Controller) State() State { return c.state }

// Tick runs one step of the state machine. It never blocks longer than the
// whammy sampling delays.
func (c *Controller) Tick() {
	switch c.state {
	case Uninitialized, Initializing:
		c.boot()
	case Operational:
		c.operate()
	case OTA:
		// Normal operation is over for this boot.
	}
}

// Interval is the pause the driver loop should take after a tick.
func (c *Controller) Interval() time.Duration {
	if c.state == Operational {
		return c.opts.PollInterval
	}
	return c.opts.InitRetryInterval
}

// Run drives Tick until ctx is done. Once the boot gesture selects update
// mode, Run hands over to the update channel and returns its result.
func (c *Controller) Run(ctx context.Context) error {
	log.Printf("controller: starting, %d buttons", c.agg.Len())
	for {
		if ctx.Err() != nil {
			c.setLED(false)
			return nil
		}

		c.Tick()

		if c.state == OTA {
			c.setLED(false)
			if c.update == nil {
				<-ctx.Done()
				return nil
			}
			return c.update.Run(ctx)
		}

		select {
		case <-ctx.Done():
		case <-c.clock.After(c.Interval()):
		}
	}
}

func (c *Controller) setState(s State) {
	if c.state == s {
		return
	}
	log.Printf("controller: %s -> %s", c.state, s)
	c.state = s
	c.publish(nil)
}

func (c *Controller) boot() {
	if n := c.dev.Buttons.PressedCount(); n >= OTAGesture {
		log.Printf("controller: %d buttons held at boot, entering update mode", n)
		c.setState(OTA)
		return
	}
	c.setState(Initializing)

	if err := c.initSensors(); err != nil {
		log.Printf("controller: sensor init failed: %v", err)
		c.heartbeat()
		return
	}
	c.setState(Operational)
}

func (c *Controller) initSensors() error {
	if err := c.dev.Neck.Init(); err != nil {
		return fmt.Errorf("neck: %w", err)
	}
	if c.dev.IMU != nil {
		if err := c.dev.IMU.Init(); err != nil {
			return fmt.Errorf("mpu: %w", err)
		}
		c.filter.Reset()
		c.lastIMU = time.Time{}
		c.lastPitch = 0
	}
	return nil
}

func (c *Controller) operate() {
	if !c.pad.IsConnected() {
		c.setLED(false)
		c.heartbeat()
		return
	}
	c.setLED(true)

	if x, err := c.sampleWhammy(); err != nil {
		log.Printf("controller: %v", err)
	} else {
		c.whammy = x
	}
	c.pad.SetX(c.whammy)

	frame, err := c.dev.Neck.Poll()
	if err != nil {
		log.Printf("controller: %v", err)
		return
	}
	c.frame = frame
	c.frets = c.decoder.Decode(frame)

	tilt, err := c.readTilt()
	if err != nil {
		log.Printf("controller: %v", err)
		return
	}

	events := c.agg.Step(c.frets, tilt, c.dev.Buttons.Read())
	if len(events) > 0 || c.unsent {
		c.report(events)
	} else {
		c.heartbeat()
	}

	c.cycle++
	if c.opts.Verbose && c.opts.DiagnosticEvery > 0 && c.cycle%uint64(c.opts.DiagnosticEvery) == 0 {
		c.dump()
	}
}

// report hands the edges to the gamepad and sends one report. The edges are
// committed only after the send succeeds. Following a failed send the whole
// vector is pushed, since a button may have gone back to its committed state
// while the gamepad still holds the unsent change.
func (c *Controller) report(events []input.Event) {
	if c.unsent {
		for i, on := range c.agg.Current() {
			if on {
				c.pad.Press(i + 1)
			} else {
				c.pad.Release(i + 1)
			}
		}
	} else {
		for _, e := range events {
			if e.Pressed {
				c.pad.Press(e.Button)
			} else {
				c.pad.Release(e.Button)
			}
		}
	}

	if err := c.pad.SendReport(); err != nil {
		log.Printf("controller: report not sent, retrying next cycle: %v", err)
		c.unsent = true
		return
	}
	c.unsent = false
	c.agg.Commit()
	log.Debugf("controller: sent report %v", events)
	c.publish(events)
}

// readTilt combines the accelerometer pitch change with the tilt switch.
// When the switch is fitted its level replaces the accelerometer's tilt-up
// decision; tilt down always comes from the accelerometer.
func (c *Controller) readTilt() (input.Tilt, error) {
	var tilt input.Tilt
	if c.dev.IMU != nil {
		s, err := c.dev.IMU.Read()
		if err != nil {
			return tilt, err
		}
		now := c.clock.Now()
		var elapsed time.Duration
		if !c.lastIMU.IsZero() {
			elapsed = now.Sub(c.lastIMU)
		}
		c.lastIMU = now

		pose := c.filter.Update(s, elapsed)
		tilt = input.TiltFromPitch(pose.Pitch-c.lastPitch, c.opts.Threshold)
		c.lastPitch = pose.Pitch
	}
	if c.dev.Tilt != nil {
		tilt.Up = c.dev.Tilt.Pressed()
	}
	return tilt, nil
}

func (c *Controller) setLED(on bool) {
	if c.dev.LED == nil {
		return
	}
	if err := c.dev.LED.Set(on); err != nil {
		log.Printf("controller: led: %v", err)
	}
}

// Snapshot returns the controller's current state.
func (c *Controller) Snapshot() telemetry.State {
	return telemetry.State{
		Time:      c.clock.Now(),
		Mode:      c.state.String(),
		Connected: c.pad.IsConnected(),
		Cycle:     c.cycle,
		Raw:       fmt.Sprintf("0x%02X 0x%02X", c.frame.Top(), c.frame.Pad()),
		Frets:     c.frets.String(),
		Pose:      c.filter.Pose(),
		Whammy:    c.whammy,
		Buttons:   c.agg.Current(),
	}
}

func (c *Controller) publish(events []input.Event) {
	if len(c.observers) == 0 {
		return
	}
	s := c.Snapshot()
	s.Events = events
	c.published = s.Time
	for _, o := range c.observers {
		o.Observe(s)
	}
}

func (c *Controller) heartbeat() {
	if len(c.observers) == 0 || c.clock.Now().Sub(c.published) < stateHeartbeat {
		return
	}
	c.publish(nil)
}

func (c *Controller) dump() {
	s := c.Snapshot()
	log.WithFields(log.Fields{
		"cycle":  s.Cycle,
		"raw":    s.Raw,
		"frets":  s.Frets,
		"roll":   fmt.Sprintf("%.2f", s.Pose.Roll),
		"pitch":  fmt.Sprintf("%.2f", s.Pose.Pitch),
		"yaw":    fmt.Sprintf("%.2f", s.Pose.Yaw),
		"whammy": s.Whammy,
	}).Info("controller: state")
	log.Infof("controller: current  %s", formatStates(c.agg.Current()))
	log.Infof("controller: previous %s", formatStates(c.agg.Previous()))
}

func formatStates(s input.States) string {
	b := make([]byte, len(s))
	for i, on := range s {
		b[i] = '0'
		if on {
			b[i] = '1'
		}
	}
	return string(b)
}

// Compile-time checks that the hardware satisfies the device interfaces.
var (
	_ NeckSensor     = (*sensors.Neck)(nil)
	_ InertialSensor = (*sensors.MPU6050)(nil)
	_ ButtonReader   = (*sensors.Buttons)(nil)
	_ TiltSensor     = (*sensors.TiltSwitch)(nil)
	_ WhammySensor   = (*sensors.Whammy)(nil)
	_ Indicator      = (*sensors.LED)(nil)
	_ hid.Gamepad    = (*hid.Bridge)(nil)
)
