//go:build !linux

package tasks

// pinToCore is a no-op on platforms without settable thread affinity.
func pinToCore(core int) error {
	return nil
}
