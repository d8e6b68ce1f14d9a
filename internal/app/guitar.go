// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/guitar_controller/internal/config"
	"github.com/relabs-tech/guitar_controller/internal/display"
	"github.com/relabs-tech/guitar_controller/internal/hid"
	"github.com/relabs-tech/guitar_controller/internal/ota"
	"github.com/relabs-tech/guitar_controller/internal/sensors"
	"github.com/relabs-tech/guitar_controller/internal/telemetry"
)

// OptionsFromConfig derives the controller options from the configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		NumButtons:        cfg.NumButtons,
		Threshold:         cfg.AccelerometerThreshold,
		WhammySamples:     cfg.WhammySamples,
		WhammySampleDelay: cfg.WhammySampleDelay(),
		WhammyRawMax:      cfg.WhammyRawMax,
		PollInterval:      cfg.PollInterval(),
		InitRetryInterval: cfg.InitRetryInterval(),
		Verbose:           cfg.Verbose,
		DiagnosticEvery:   cfg.DiagnosticEvery,
	}
}

// DevicesFrom picks the controller inputs out of the opened hardware.
// Disabled devices stay nil interfaces.
func DevicesFrom(hw *sensors.Hardware) Devices {
	dev := Devices{
		Neck:    hw.Neck,
		Buttons: hw.Buttons,
		Whammy:  hw.Whammy,
	}
	if hw.MPU != nil {
		dev.IMU = hw.MPU
	}
	if hw.Tilt != nil {
		dev.Tilt = hw.Tilt
	}
	if hw.LED != nil {
		dev.LED = hw.LED
	}
	return dev
}

// RunGuitar opens the hardware and the HID bridge and runs the controller
// until ctx is done or update mode asks for a restart.
func RunGuitar(ctx context.Context, cfg *config.Config) error {
	log.Printf("starting %s controller", cfg.DeviceName)

	hw, err := sensors.Open(cfg)
	if err != nil {
		return err
	}
	defer hw.Close()

	bridge, err := hid.OpenBridge(cfg.HIDSerialPort, cfg.HIDBaudRate, hid.DeviceInfo{
		Name:         cfg.DeviceName,
		Manufacturer: cfg.Manufacturer,
		Buttons:      cfg.NumButtons,
		TxPower:      cfg.HIDTxPower,
	})
	if err != nil {
		return err
	}
	defer bridge.Close()

	update := ota.NewServer(ota.Options{
		Hostname:    cfg.OTAHostname,
		ListenAddr:  cfg.OTAListenAddr,
		Password:    cfg.OTAPassword,
		StagingPath: cfg.OTAStagingPath,
		RebootDelay: cfg.RebootDelay(),
	}, ota.LogCallbacks())

	ctrl, err := NewController(DevicesFrom(hw), bridge, update, OptionsFromConfig(cfg))
	if err != nil {
		return err
	}

	if cfg.MQTTBroker != "" {
		client, pub, err := telemetry.Connect(cfg.MQTTBroker, cfg.MQTTClientID, cfg.TopicPrefix)
		if err != nil {
			log.Printf("telemetry disabled: %v", err)
		} else {
			defer client.Disconnect(250)
			ctrl.AddObserver(pub)
			update.Announce(client, cfg.Topic(telemetry.TopicOTA))
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	if cfg.DisplayEnabled {
		screen, err := display.Open(hw.Bus)
		if err != nil {
			log.Printf("display disabled: %v", err)
		} else {
			ctrl.AddObserver(screen)
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := screen.Run(ctx, cfg.DisplayInterval(), cfg.DeviceName); err != nil {
					log.Printf("display: %v", err)
				}
			}()
		}
	}

	return ctrl.Run(ctx)
}
