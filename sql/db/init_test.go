package db_test

import (
	"database/sql"

	"github.com/jackc/pgx/v4"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/kod2ulz/bigfish-paymentgateway/sql/db"
)

var _ = Describe("IsSqlNoRows", func() {

	It("recognises missing rows from both drivers", func() {
		Expect(db.IsSqlNoRows(pgx.ErrNoRows)).To(BeTrue())
		Expect(db.IsSqlNoRows(sql.ErrNoRows)).To(BeTrue())
		Expect(db.IsSqlNoRows(errors.Wrap(pgx.ErrNoRows, "failed to complete api call"))).To(BeTrue())
	})

	It("ignores other errors", func() {
		Expect(db.IsSqlNoRows(nil)).To(BeFalse())
		Expect(db.IsSqlNoRows(errors.New("connection reset by peer"))).To(BeFalse())
	})
})
