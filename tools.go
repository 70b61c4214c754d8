//go:build tools

package tools

// Mocks in pkg/provisioning/mocks are generated by mockery v2 from
// .mockery.yaml. Run: go run github.com/vektra/mockery/v2
import (
	_ "github.com/vektra/mockery/v2"
)
