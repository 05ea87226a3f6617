package cmd

import (
	"io"
	"os"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestMain(m *testing.M) {
	keyring.MockInit()
	barOutput = io.Discard
	os.Exit(m.Run())
}
