package processor

import (
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v4/mem"
)

// ResourceChecker reports whether enough memory is free to start an encode.
type ResourceChecker interface {
	CheckMemory(requiredMB uint64) error
}

// SystemResources reads available memory from the OS.
type SystemResources struct{}

// CheckMemory returns a *ResourceError when less than requiredMB is
// available. A zero requirement always passes.
func (SystemResources) CheckMemory(requiredMB uint64) error {
	if requiredMB == 0 {
		return nil
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return errors.Wrap(err, "failed to read memory stats")
	}

	available := vm.Available / 1024 / 1024
	if available < requiredMB {
		return &ResourceError{AvailableMB: available, RequiredMB: requiredMB}
	}
	return nil
}
