// Package swrtest provides reusable store contract tests for swr.Store
// implementations.
//
// Backend tests use it without importing root test helpers:
//
//	func TestFileStoreContract(t *testing.T) {
//		store := swr.NewFileStore(context.Background(), t.TempDir())
//		swrtest.RunStoreContract(t, store, swrtest.Options{CaseName: t.Name()})
//	}
package swrtest
