// Package watcher observes memoria's chunk directory for external edits:
// files dropped in, edited, or removed outside the orchestrator. It watches
// only the top level of the directory (no recursion) via fsnotify, falling
// back to polling if fsnotify is unavailable, and debounces rapid-fire
// events so a file mid-write settles before its event is emitted.
//
// Usage:
//
//	opts := watcher.DefaultOptions()
//	w, err := watcher.NewHybridWatcher(opts)
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	// Start blocks until Stop is called or ctx is cancelled.
//	go func() { _ = w.Start(ctx, dataDir) }()
//
//	for event := range w.Events() {
//	    switch event.Operation {
//	    case watcher.OpAdd, watcher.OpChange:
//	        // reconcile: reload storage index, update the semantic index
//	    case watcher.OpUnlink:
//	        // reconcile: remove from the semantic index
//	    }
//	}
package watcher
