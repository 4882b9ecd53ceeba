package reactive

// Deferred is the engine's promise analogue for named handlers that cannot
// produce a value synchronously. It keeps the single-threaded cooperative
// discipline: Resolve and Reject run completion callbacks on the calling
// stack, and settling twice is a no-op.
type Deferred struct {
	settled   bool
	value     any
	err       error
	callbacks []func(value any, err error)
}

func NewDeferred() *Deferred {
	return &Deferred{}
}

func (d *Deferred) Resolve(value any) {
	d.settle(value, nil)
}

func (d *Deferred) Reject(err error) {
	d.settle(nil, err)
}

func (d *Deferred) settle(value any, err error) {
	if d.settled {
		return
	}
	d.settled = true
	d.value = value
	d.err = err
	callbacks := d.callbacks
	d.callbacks = nil
	for _, cb := range callbacks {
		cb(value, err)
	}
}

func (d *Deferred) then(cb func(value any, err error)) {
	if d.settled {
		cb(d.value, d.err)
		return
	}
	d.callbacks = append(d.callbacks, cb)
}
