// Package navigation implements the document history state machine.
//
// An Engine holds the current Location plus back and forward stacks. Every
// transition (Go, Back, Forward) runs the registered observers in
// registration order and then notifies open listeners with an OpenEvent.
//
// Observers persist and restore their own state across transitions. Each
// observer receives the snapshot last recorded on the location being entered
// and returns the snapshot to record on the location being left:
//
//	go(A)     observer(nil)          result discarded, nothing to leave
//	go(B)     observer(nil)          result stored on A
//	back()    observer(A's state)    result stored on B
//
// The Engine is not safe for concurrent use; callers serialise access.
package navigation
