// Package usbtransport implements transport.Transport over a USB bulk
// endpoint pair, for the ChargerLAB POWER-Z KM003C.
//
// Unlike usbtmc, the KM003C speaks its own 4-byte header framing directly
// over bulk transfer: there is no USBTMC DEV_DEP_MSG wrapper, bTag, or
// termination character to manage. This package is adapted from
// usbtmc.NewUSBDevice's device-opening sequence with that framing layer
// removed.
package usbtransport

import (
	"io"

	"github.com/google/gousb"

	"github.com/okhsunrog/km003c-rs/transport"
)

// VendorID and ProductID identify the KM003C on the USB bus.
const (
	VendorID  = 0x5FC9
	ProductID = 0x0063
)

// bulkEndpoint is the endpoint number the device exposes for vendor bulk
// transfer in both directions.
const bulkEndpoint = 1

// device wraps the gousb handles needed to read and write the KM003C's
// bulk endpoints. It implements io.ReadWriter so it can be wrapped by
// transport.Timeout.
type device struct {
	ctx    *gousb.Context
	dev    *gousb.Device
	iface  *gousb.Interface
	in     *gousb.InEndpoint
	out    *gousb.OutEndpoint
	closer func()
}

// Open claims the KM003C's default interface and returns a
// transport.Transport backed by its bulk endpoints. The caller owns the
// returned Transport's Close.
func Open() (transport.Transport, error) {
	ctx := gousb.NewContext()
	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(VendorID), gousb.ID(ProductID))
	if err != nil {
		ctx.Close()
		return nil, err
	}
	if dev == nil {
		ctx.Close()
		return nil, io.ErrClosedPipe
	}
	if err := dev.SetAutoDetach(true); err != nil {
		dev.Close()
		ctx.Close()
		return nil, err
	}
	iface, closer, err := dev.DefaultInterface()
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, err
	}
	in, err := iface.InEndpoint(bulkEndpoint)
	if err != nil {
		closer()
		dev.Close()
		ctx.Close()
		return nil, err
	}
	out, err := iface.OutEndpoint(bulkEndpoint)
	if err != nil {
		closer()
		dev.Close()
		ctx.Close()
		return nil, err
	}
	d := &device{ctx: ctx, dev: dev, iface: iface, in: in, out: out, closer: closer}
	return transport.NewTimeout(d), nil
}

func (d *device) Read(p []byte) (int, error) {
	return d.in.Read(p)
}

func (d *device) Write(p []byte) (int, error) {
	return d.out.Write(p)
}

func (d *device) Close() error {
	d.closer()
	err := d.dev.Close()
	d.ctx.Close()
	return err
}
