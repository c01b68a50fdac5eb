/*
Package wallet provides the read side of the ledger: wallet lookups, history
and reference lookups for the HTTP layer.

Money never moves through this package. Balances change only inside
ledger.Service.ExecuteTransfer, which calls InvalidateWallets after commit so
cached views do not outlive the write.

Usage:

	svc := wallet.NewService(repo, cacheService, 30*time.Minute, logger)

	// Caller's own wallet, cached by owner id
	w, err := svc.GetWalletByOwner(ctx, ownerID)

	// Newest first
	history, err := svc.ListTransactions(ctx, w.ID, limit, offset)

Cache Management:

Wallets are cached under two keys, wallet:id:<id> and wallet:owner:<owner id>.
Cache failures are logged and the database answers instead.
*/
package wallet
