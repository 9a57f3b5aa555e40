package vkpresent

import "fmt"

// bufferPool owns the stable set of user-visible back buffers (spec §3
// "User Buffer Slot", §4.2). It is reallocated wholesale on ChangeProperties,
// which hands the new pool to the worker as well; the worker looks slots up
// with at (worker.go), then reads buf.view and sets buf.everWritten
// (presentstate.go).
type bufferPool struct {
	gpu     GPUBackend
	buffers []*userBuffer
	width   uint32
	height  uint32
	format  Format
}

// reallocateUserBuffers allocates count new user textures at the given
// extent/format and swaps them in, rolling back anything already
// allocated this call if a later allocation fails (spec §4.2, "rollback on
// failure"). It does not free the previous pool; callers must have already
// verified every old slot's public refcount is zero.
func reallocateUserBuffers(gpu GPUBackend, count int, width, height uint32, format Format) (*bufferPool, error) {
	buffers := make([]*userBuffer, 0, count)

	rollback := func() {
		for _, b := range buffers {
			gpu.FreeUserTexture(b.texture, b.view)
		}
	}

	for i := 0; i < count; i++ {
		tex, view, err := gpu.AllocateUserTexture(width, height, format)
		if err != nil {
			rollback()
			return nil, fmt.Errorf("allocate user buffer %d/%d: %w", i, count, err)
		}
		buffers = append(buffers, &userBuffer{texture: tex, view: view})
	}

	return &bufferPool{
		gpu:     gpu,
		buffers: buffers,
		width:   width,
		height:  height,
		format:  format,
	}, nil
}

func (p *bufferPool) destroy() {
	for _, b := range p.buffers {
		p.gpu.FreeUserTexture(b.texture, b.view)
	}
	p.buffers = nil
}

// allPublicRefsZero reports whether every slot is free of external
// references, the precondition ChangeProperties enforces before
// reallocating (spec §4.2 invariant).
func (p *bufferPool) allPublicRefsZero() bool {
	for _, b := range p.buffers {
		if b.publicRefs.Load() != 0 {
			return false
		}
	}
	return true
}

func (p *bufferPool) at(index uint32) (*userBuffer, error) {
	if int(index) >= len(p.buffers) {
		return nil, fmt.Errorf("%w: buffer index %d out of range [0,%d)", ErrInvalidArg, index, len(p.buffers))
	}
	return p.buffers[index], nil
}

func (p *bufferPool) count() int { return len(p.buffers) }
