// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/relabs-tech/guitar_controller/internal/app"
	"github.com/relabs-tech/guitar_controller/internal/config"
	"github.com/relabs-tech/guitar_controller/internal/imu"
	"github.com/relabs-tech/guitar_controller/internal/input"
	"github.com/relabs-tech/guitar_controller/internal/neck"
	"github.com/relabs-tech/guitar_controller/internal/orientation"
	"github.com/relabs-tech/guitar_controller/internal/ota"
	"github.com/relabs-tech/guitar_controller/internal/sensors"
)

var (
	configPath    string
	regsJSON      bool
	mockInterval  time.Duration
	mockThreshold float64

	mainCmd = &cobra.Command{
		Use:   "guitar",
		Short: "Guitar neck to BLE gamepad controller",
	}
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the controller",
		Run:   runController,
	}
	decodeCmd = &cobra.Command{
		Use:   "decode <byte0> <byte1>",
		Short: "Decode one neck sensor frame",
		Args:  cobra.ExactArgs(2),
		Run:   runDecode,
	}
	tableCmd = &cobra.Command{
		Use:   "table",
		Short: "Print the touch pad code table",
		Run:   runTable,
	}
	regsCmd = &cobra.Command{
		Use:   "regs",
		Short: "Dump neck and MPU-6050 registers",
		Run:   runRegs,
	}
	mockCmd = &cobra.Command{
		Use:   "mock",
		Short: "Print poses and tilt from a simulated IMU",
		Run:   runMock,
	}
)

func loadConfig() *config.Config {
	if err := config.InitGlobal(configPath); err != nil {
		log.Fatalln("load config:", err)
	}
	cfg := config.Get()
	if err := cfg.Validate(); err != nil {
		log.Fatalln("invalid config:", err)
	}
	switch {
	case cfg.Verbose:
		log.SetLevel(log.DebugLevel)
	case cfg.LogEnabled:
		log.SetLevel(log.InfoLevel)
	default:
		log.SetLevel(log.WarnLevel)
	}
	return cfg
}

func runController(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	log.Infof("starting %s (%d buttons)", cfg.DeviceName, cfg.NumButtons)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := app.RunGuitar(ctx, cfg)
	switch {
	case errors.Is(err, ota.ErrReboot):
		log.Warnln("restart requested:", err)
		stop()
		os.Exit(2)
	case err != nil:
		log.Fatalln("fatal:", err)
	}
}

func parseByte(s string) byte {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		log.Fatalf("invalid byte %q: %v", s, err)
	}
	return byte(v)
}

func runDecode(cmd *cobra.Command, args []string) {
	b0, b1 := parseByte(args[0]), parseByte(args[1])
	frets, ok := neck.Decode(b0, b1)
	if !ok {
		fmt.Printf("0x%02X 0x%02X: unknown pad code, top only: %s\n", b0, b1, frets)
		return
	}
	fmt.Printf("0x%02X 0x%02X: %s\n", b0, b1, frets)
}

func runTable(cmd *cobra.Command, args []string) {
	table := neck.Table()
	codes := make([]int, 0, len(table))
	for code := range table {
		codes = append(codes, int(code))
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Printf("0x%02X  %s\n", code, table[byte(code)])
	}
}

func runRegs(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	bus, err := sensors.OpenBus(cfg.I2CBus)
	if err != nil {
		log.Fatalln("open bus:", err)
	}
	defer bus.Close()

	dumps := map[string][]sensors.RegisterDump{
		"neck": sensors.DumpRegisters(sensors.NewI2CPeripheral(bus, cfg.NeckI2CAddr), sensors.NeckRegisters()),
	}
	if cfg.EnableAccelerometer {
		dumps["mpu6050"] = sensors.DumpRegisters(sensors.NewI2CPeripheral(bus, cfg.MPUI2CAddr), sensors.MPU6050Registers())
	}

	if regsJSON {
		out, err := json.MarshalIndent(dumps, "", "  ")
		if err != nil {
			log.Fatalln("encode:", err)
		}
		fmt.Println(string(out))
		return
	}
	for _, name := range []string{"neck", "mpu6050"} {
		regs, ok := dumps[name]
		if !ok {
			continue
		}
		fmt.Printf("== %s ==\n", name)
		for _, d := range regs {
			fmt.Println(d)
		}
	}
}

func runMock(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src := orientation.NewIMUSource(imu.NewMockReader())
	ticker := time.NewTicker(mockInterval)
	defer ticker.Stop()

	var last float64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		pose, err := src.Next()
		if err != nil {
			log.Fatalln("mock imu:", err)
		}
		tilt := input.TiltFromPitch(pose.Pitch-last, mockThreshold)
		last = pose.Pitch

		fmt.Printf(
			"ROLL=%7.2f  PITCH=%7.2f  YAW=%7.2f  UP=%-5v DOWN=%v\n",
			pose.Roll,
			pose.Pitch,
			pose.Yaw,
			tilt.Up,
			tilt.Down,
		)
	}
}

func main() {
	mainCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "guitar_config.txt", "Config path. The path to the KEY=VALUE configuration file")
	regsCmd.Flags().BoolVar(&regsJSON, "json", false, "Print the dump as JSON")
	mockCmd.Flags().DurationVar(&mockInterval, "interval", 100*time.Millisecond, "Pause between samples")
	mockCmd.Flags().Float64Var(&mockThreshold, "threshold", 1.0, "Pitch change per sample that counts as tilt, degrees")
	mainCmd.AddCommand(runCmd, decodeCmd, tableCmd, regsCmd, mockCmd)
	if err := mainCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
