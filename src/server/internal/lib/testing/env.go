package testlib

import (
	"os"

	. "github.com/onsi/gomega"
)

func SetTestEnv() {
	err := os.Setenv("ENVIRONMENT", "test")
	Expect(err).NotTo(HaveOccurred())
}
