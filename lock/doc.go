// Package lock provides leased, named mutual-exclusion locks for guarding
// critical sections that span processes.
//
// A [Manager] acquires a lock through a [Backend] and renews it from a background
// heartbeat until [Lock.Release] is called:
//
//	mgr := lock.NewManager(lock.NewDynamoBackend(client, "locks"), lock.DefaultConfig(), logger)
//	l, err := mgr.Lock(ctx, "nightly-import")
//	if err != nil {
//	    return err
//	}
//	defer l.Release(ctx)
//
// Locks fail open. A lease whose owner stops renewing expires and can be taken
// over, and a failed renewal is only logged and signalled on [Lock.Lost]. Work
// that must not run twice should check [Lock.FencingToken] against the resource
// it writes to.
//
// # Backends
//
//   - [DynamoBackend] - one item per lock, conditional updates
//   - [RedisBackend] - SET NX PX with compare-and-renew scripts
//   - [MemoryBackend] - in process, for tests and single-process use
package lock
