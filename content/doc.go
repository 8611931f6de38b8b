// Package content is the entry point of the aggregation engine.
//
// A Manager serves retrieve, store, delete, list and exists requests for
// hosted, remote and group stores. Group requests are resolved into the
// group's ordered concrete members. Paths owned by a generator are served
// from a cached merge of every member's copy, while other paths come from
// the first member that has them. Writes and deletes notify the generators
// and clear stale merges in every group that contains the changed store.
//
// Requests run on a bounded worker pool. When the pool is saturated they
// fail with an errors.CodeOverloaded error.
//
//	mgr, err := content.NewManager(registry, accessor,
//	    content.WithLogger(logger),
//	    content.WithRegisterer(prometheus.DefaultRegisterer),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := mgr.Start(ctx); err != nil {
//	    return err
//	}
//	defer mgr.Close()
//
//	t, err := mgr.Retrieve(ctx, store.MustParseKey("maven:group:public"), "org/foo/bar/maven-metadata.xml")
package content
