package testhelpers

import (
	"path/filepath"

	g "github.com/onsi/gomega"
	"gorm.io/gorm"

	"hmisync/internal/db"
	"hmisync/internal/ledger"
)

// OpenTestLedger opens a fresh sqlite ledger under dir (use GinkgoT's
// TempDir) so every spec starts from an empty store.
func OpenTestLedger(dir string) (*gorm.DB, *ledger.Ledger) {
	dbConn, err := db.InitDB(filepath.Join(dir, "ledger.db"))
	g.Expect(err).NotTo(g.HaveOccurred())

	l, err := ledger.New(dbConn)
	g.Expect(err).NotTo(g.HaveOccurred())

	return dbConn, l
}
