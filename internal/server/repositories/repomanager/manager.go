package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/wishlist/internal/dbx"
	"github.com/dmitrijs2005/wishlist/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/wishlist/internal/server/repositories/users"
	"github.com/dmitrijs2005/wishlist/internal/server/repositories/wishes"
	"github.com/dmitrijs2005/wishlist/internal/server/repositories/wishlists"
)

// RepositoryManager vends repositories bound to a DBTX, so the same
// repository type serves both plain and transactional calls.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tokens(db dbx.DBTX) tokens.Repository
	Wishlists(db dbx.DBTX) wishlists.Repository
	Wishes(db dbx.DBTX) wishes.Repository
}
