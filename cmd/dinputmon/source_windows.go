//go:build windows

package main

import (
	"errors"
	"log"

	ole "github.com/go-ole/go-ole"

	"dinputproxy/internal/api"
	"dinputproxy/internal/dinput"
	"dinputproxy/internal/dinput/com"
	"dinputproxy/internal/proxy"
)

const (
	diVersion          = 0x0800
	devClassGameCtrl   = 4
	enumAttachedOnly   = 0x00000001
	cooperativeShared  = 0x00000002 // DISCL_NONEXCLUSIVE
	cooperativeBackgnd = 0x00000008 // DISCL_BACKGROUND
)

// systemSource polls the first attached game controller through the same
// proxy wrapper a game would get.
type systemSource struct {
	dev proxy.Device
}

// newSystemSource opens the genuine library, picks the first attached game
// controller and prepares it for background polling.
func newSystemSource(axes proxy.Axes, logger *log.Logger) (api.Source, error) {
	factory, err := com.SystemFactory(diVersion)
	if err != nil {
		return nil, err
	}

	var found *ole.GUID
	var name string
	err = factory.EnumDevices(devClassGameCtrl, func(inst dinput.DeviceInstance) bool {
		g := inst.InstanceGUID
		found = &g
		name = inst.ProductName
		return false
	}, enumAttachedOnly)
	if err != nil {
		factory.Release()
		return nil, err
	}
	if found == nil {
		factory.Release()
		return nil, errors.New("no attached game controllers")
	}

	dev, err := factory.CreateDevice(found)
	if err != nil {
		factory.Release()
		return nil, err
	}
	if err := dev.SetDataFormat(com.JoyDataFormat()); err != nil {
		dev.Release()
		factory.Release()
		return nil, err
	}
	if err := dev.SetCooperativeLevel(0, cooperativeShared|cooperativeBackgnd); err != nil {
		dev.Release()
		factory.Release()
		return nil, err
	}
	if err := dev.Acquire(); err != nil {
		dev.Release()
		factory.Release()
		return nil, err
	}

	log.Printf("Polling hardware controller: %s", name)
	wrapped := proxy.NewDeviceProxy(dev, dinput.IIDIDirectInputDevice8A, axes, logger)
	return &systemSource{dev: wrapped}, nil
}

func (s *systemSource) Sample() (dinput.JoyState, error) {
	buf := make([]byte, dinput.JoyStateSize)
	err := s.dev.GetDeviceState(buf)
	if err != nil {
		// Input focus loss unacquires the device; reacquire and retry once
		if aerr := s.dev.Acquire(); aerr != nil {
			return dinput.JoyState{}, err
		}
		if err = s.dev.GetDeviceState(buf); err != nil {
			return dinput.JoyState{}, err
		}
	}
	state, _ := dinput.DecodeJoyState(buf)
	return state, nil
}

func (s *systemSource) Name() string { return "system" }
