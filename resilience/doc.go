// Package resilience provides the concurrency bound used by process groups.
//
// A Bulkhead hands out a fixed number of slots. A slot can be acquired in one
// goroutine and released in another, so a caller can apply back-pressure
// before starting background work:
//
//	bh := resilience.NewBulkhead(resilience.DefaultBulkheadConfig("commands"))
//	if err := bh.Acquire(ctx); err != nil {
//	    return err
//	}
//	go func() {
//	    defer bh.Release()
//	    run()
//	}()
package resilience
