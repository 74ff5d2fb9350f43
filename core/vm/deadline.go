package vm

import "fmt"

// checkDeadline fails when the call arrives after deadline. It runs once per
// top-level call, before any command.
func checkDeadline(deadline, now uint64) error {
	if now > deadline {
		return fmt.Errorf("%w: deadline %d, now %d", ErrTransactionDeadlinePassed, deadline, now)
	}
	return nil
}
