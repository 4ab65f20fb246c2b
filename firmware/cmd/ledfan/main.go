package main

import (
	"machine"
	"runtime/interrupt"
)

func main() {
	NewDevice(machine.Serial).Run()
}

func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
