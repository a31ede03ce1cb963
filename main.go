package main

import (
	_ "github.com/manifest-network/tracker/internal/alpnfix" // Disable ALPN enforcement for servers that don't support it

	"github.com/manifest-network/tracker/cmd/trackerd"
)

func main() {
	trackerd.Execute()
}
