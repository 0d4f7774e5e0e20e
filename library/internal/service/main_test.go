package service_test

import (
	"fmt"
	"os"
	"testing"

	"github.com/Astemirdum/bookshelf/pkg/postgres/pgtest"
)

func TestMain(m *testing.M) {
	code := m.Run()
	if err := pgtest.Terminate(); err != nil {
		fmt.Fprintln(os.Stderr, "pgtest: terminate container:", err)
	}
	os.Exit(code)
}
