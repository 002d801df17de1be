package audio

import (
	"context"
	"sync"
	"sync/atomic"
)

type fakeDevice struct {
	mu     sync.Mutex
	err    error
	closes atomic.Int32
}

func (d *fakeDevice) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func (d *fakeDevice) fail(err error) {
	d.mu.Lock()
	d.err = err
	d.mu.Unlock()
}

func (d *fakeDevice) Close() error {
	d.closes.Add(1)
	return nil
}

// fakeOpener hands out fakeDevices, optionally preloading the tap, blocking
// until release is closed, or failing with err. entered, when set, receives
// once the opener is running.
type fakeOpener struct {
	mu      sync.Mutex
	devices []*fakeDevice
	samples []float32
	err     error
	entered chan struct{}
	release chan struct{}
}

func (o *fakeOpener) open(ctx context.Context, tap *Tap) (Device, error) {
	if o.entered != nil {
		o.entered <- struct{}{}
	}
	if o.release != nil {
		<-o.release
	}
	if o.err != nil {
		return nil, o.err
	}
	tap.WriteMono(o.samples)
	d := &fakeDevice{}
	o.mu.Lock()
	o.devices = append(o.devices, d)
	o.mu.Unlock()
	return d, nil
}

func (o *fakeOpener) opened() []*fakeDevice {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*fakeDevice(nil), o.devices...)
}
