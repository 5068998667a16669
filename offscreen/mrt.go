package offscreen

import (
	"fmt"

	"sketch-filters/gpu"
)

// MultiAttachmentSurface is a framebuffer with several colour attachments written in a
// single pass. Attachment i is sampled through units[i].
type MultiAttachmentSurface struct {
	target
	units []int
}

func NewMultiAttachmentSurface(dev gpu.Device, units []int, opts Options) *MultiAttachmentSurface {
	if len(units) == 0 || len(units) > gpu.MaxAttachments {
		panic(fmt.Errorf("attachment count %d out of range [1,%d]", len(units), gpu.MaxAttachments))
	}
	return &MultiAttachmentSurface{
		target: target{dev: dev, opts: opts, count: len(units)},
		units:  append([]int(nil), units...),
	}
}

func (m *MultiAttachmentSurface) Allocate(width, height int) {
	m.allocate(width, height)
}

func (m *MultiAttachmentSurface) Resize(width, height int) {
	m.resize(width, height)
}

func (m *MultiAttachmentSurface) BindAsTarget() {
	m.bindAsTarget()
}

// SampleAttachment binds attachment index to its unit and points the sampler uniform
// name of prog at it.
func (m *MultiAttachmentSurface) SampleAttachment(index int, prog gpu.Program, name string) {
	m.mustAllocated()
	m.dev.BindTexture(m.units[index], m.textures[index])
	gpu.SetSampler(prog, name, m.units[index])
}

func (m *MultiAttachmentSurface) Attachment(index int) gpu.Handle {
	m.mustAllocated()
	return m.textures[index]
}

func (m *MultiAttachmentSurface) Count() int {
	return m.count
}

func (m *MultiAttachmentSurface) Unit(index int) int {
	return m.units[index]
}

func (m *MultiAttachmentSurface) Delete() {
	m.release()
}
