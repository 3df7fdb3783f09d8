//go:build windows

package com

import (
	"log"
	"sync"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"

	"dinputproxy/internal/config"
	"dinputproxy/internal/dinput"
	"dinputproxy/internal/logging"
	"dinputproxy/internal/proxy"
	"dinputproxy/internal/sysdll"
)

// wrapperConfig is resolved once per process, on the first creation call.
type wrapperConfig struct {
	target proxy.Target
	axes   proxy.Axes
	logger *log.Logger
}

var (
	cfgOnce sync.Once
	cfg     wrapperConfig
)

func loadWrapperConfig() *wrapperConfig {
	cfgOnce.Do(func() {
		cfg = wrapperConfig{
			target: proxy.DefaultTarget,
			axes:   proxy.DefaultAxes,
			logger: logging.Logger(),
		}

		mgr := config.NewManager()
		if err := mgr.Load(); err != nil {
			// A bad config must never break the host process
			if cfg.logger != nil {
				cfg.logger.Printf("[INIT] config ignored: %v", err)
			}
			return
		}
		c := mgr.Get()
		cfg.target = proxy.Target{Category: c.Target.Category, SubCategory: c.Target.SubCategory}
		cfg.axes = proxy.Axes{RotX: c.Suppress.RotX, RotY: c.Suppress.RotY}
	})
	return &cfg
}

// Create is the wrapper's creation entry point. It forwards to the genuine
// export and, when the caller asked for a recognized factory identity, swaps
// the returned object for a wrapping one. Unrecognized identities pass
// through verbatim, output pointer included.
func Create(hinst uintptr, version uint32, riid *ole.GUID, ppvOut *uintptr, punkOuter uintptr) uintptr {
	if ppvOut == nil {
		return dinput.EPointer
	}

	c := loadWrapperConfig()

	addr, err := sysdll.DirectInput8Create()
	if err != nil {
		if c.logger != nil {
			c.logger.Printf("[INIT] genuine library unavailable: %v", err)
		}
		return dinput.EFail
	}

	hr, _, _ := syscall.SyscallN(addr, hinst, uintptr(version),
		uintptr(unsafe.Pointer(riid)), uintptr(unsafe.Pointer(ppvOut)), punkOuter)
	if !dinput.Succeeded(hr) {
		return hr
	}

	enc := encodingFor(riid)
	if enc == nil {
		if c.logger != nil {
			c.logger.Printf("[INIT] unrecognized interface %s, passing through", riid.String())
		}
		return hr
	}

	inner := &comFactory{raw: *ppvOut, enc: enc}
	fp := proxy.NewFactoryProxy(inner, enc.factoryIID, c.target, c.axes, c.logger)
	*ppvOut = newFactoryShim(fp, inner.raw, enc)
	if c.logger != nil {
		c.logger.Printf("[INIT] factory wrapped (%s)", riid.String())
	}
	return hr
}
