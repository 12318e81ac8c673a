// Package fs abstracts the file operations behind atomic local output so
// tests can inject failures.
//
// Production code uses [Default] ([LocalFS]). Tests wrap it in [FaultyFS]:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".tmp-", fs.Fault{FailAfterBytes: 1024})
//	store := blobstore.NewLocalStoreFS(dir, ffs)
//
// Operations take no context.Context. Local file calls are not
// interruptible at the syscall level; remote sinks live in blobstore.
package fs
