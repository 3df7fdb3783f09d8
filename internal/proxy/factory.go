package proxy

import (
	"log"

	ole "github.com/go-ole/go-ole"

	"dinputproxy/internal/dinput"
)

// FactoryProxy stands in for the real enumeration/creation entry point. All
// operations forward to the embedded real factory except device creation,
// which inspects the new device's capability descriptor and decides whether
// to hand the caller a DeviceProxy or the real device itself.
type FactoryProxy struct {
	Factory

	iid       *ole.GUID
	deviceIID *ole.GUID
	target    Target
	axes      Axes
	logger    *log.Logger

	// OnDestroy is invoked once, when the real factory's reference count
	// reaches zero.
	OnDestroy func()
}

// NewFactoryProxy wraps a real factory. iid is the factory interface
// identity; wrapped devices answer for the matching device identity.
func NewFactoryProxy(inner Factory, iid *ole.GUID, target Target, axes Axes, logger *log.Logger) *FactoryProxy {
	return &FactoryProxy{
		Factory:   inner,
		iid:       iid,
		deviceIID: dinput.DeviceIIDFor(iid),
		target:    target,
		axes:      axes,
		logger:    logger,
	}
}

// Inner returns the wrapped real factory.
func (f *FactoryProxy) Inner() Factory {
	return f.Factory
}

// CreateDevice forwards to the real factory, then queries the new device's
// capability descriptor exactly once. Matching devices come back wrapped; a
// non-match, or a failed descriptor query, passes the real device through
// untouched. A diagnostic failure never blocks device creation.
func (f *FactoryProxy) CreateDevice(instance *ole.GUID) (Device, error) {
	dev, err := f.Factory.CreateDevice(instance)
	if err != nil {
		return nil, err
	}

	inst, ierr := dev.GetDeviceInfo()
	if ierr != nil {
		f.logf("[PROXY] could not get device info, passing through: %v", ierr)
		return dev, nil
	}

	f.logf("[PROXY] created device %q type=0x%08x", inst.ProductName, inst.DevType)
	if !f.target.Matches(inst.DevType) {
		f.logf("[PROXY] device does not match target class, passing through")
		return dev, nil
	}

	f.logf("[PROXY] device matches target class, wrapping")
	return NewDeviceProxy(dev, f.deviceIID, f.axes, f.logger), nil
}

// QueryInterface returns the proxy itself for its own identity so later
// calls keep flowing through the wrapper; other identifiers are resolved by
// the real factory.
func (f *FactoryProxy) QueryInterface(iid *ole.GUID) (Unknown, error) {
	if ole.IsEqualGUID(iid, f.iid) || isUnknownIID(iid) {
		f.Factory.AddRef()
		return f, nil
	}
	return f.Factory.QueryInterface(iid)
}

// Release delegates to the real factory and tears the wrapper down exactly
// when the returned count reaches zero.
func (f *FactoryProxy) Release() uint32 {
	n := f.Factory.Release()
	if n == 0 {
		f.logf("[PROXY] factory wrapper destroyed")
		if f.OnDestroy != nil {
			f.OnDestroy()
		}
	}
	return n
}

func (f *FactoryProxy) logf(format string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Printf(format, args...)
	}
}

func isUnknownIID(iid *ole.GUID) bool {
	return ole.IsEqualGUID(iid, dinput.IIDIUnknown)
}
