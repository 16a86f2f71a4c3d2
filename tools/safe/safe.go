package safe

import (
	"linkup/logger"
)

// Go starts a goroutine that recovers from panics so a bad live-push
// callback can never crash the process.
func Go(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[safe.Go] panic recovered: %v", r)
			}
		}()
		f()
	}()
}
