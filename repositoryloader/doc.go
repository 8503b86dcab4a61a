// Package repositoryloader backs a paging cache with a go-repository-bun
// repository.
//
// Each remote page becomes one List call with the configured criteria plus an
// OFFSET/LIMIT window:
//
//	loader := repositoryloader.NewRemote[User](repo, repositoryloader.Options{
//		Dataset:  repositoryloader.DatasetName[User](),
//		KeyArgs:  []any{tenantID},
//		Criteria: []repository.SelectCriteria{byCreatedAt},
//	})
//	users, err := pagingcache.New[User](loader, pagingcache.DefaultConfig())
//
// Criteria must impose a stable order; pages of an unordered query can
// overlap or skip rows.
package repositoryloader
